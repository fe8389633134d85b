package variant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAnalyzer returns a delta score derived from the position, failing for
// ids listed in fail.
type mockAnalyzer struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (m *mockAnalyzer) AnalyzeVariant(_ context.Context, v Clinvar, _ string) (*Evo2Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fail[v.ClinvarID] {
		return nil, errors.New("endpoint returned 500")
	}
	return &Evo2Result{Position: v.Location, Prediction: "Likely benign", DeltaScore: 0.0001}, nil
}

func snvList(n int) []Clinvar {
	vs := make([]Clinvar, n)
	for i := range n {
		vs[i] = Clinvar{
			ClinvarID:     fmt.Sprintf("%d", 1000+i),
			Title:         "NM_007294.4(BRCA1):c.5096G>A (p.Arg1699Gln)",
			VariationType: "Single Nucleotide Variant",
			Location:      int64(43000000 + i),
		}
	}
	return vs
}

func TestOrderedCollect_OrderPreservation(t *testing.T) {
	e := NewEnricher(&mockAnalyzer{}, "hg38", 8)

	vs := snvList(100)
	items := make(chan WorkItem, len(vs))
	for i, v := range vs {
		items <- WorkItem{Seq: i, Variant: v}
	}
	close(items)

	var collected []int
	err := OrderedCollect(e.ParallelAnalyze(context.Background(), items), func(r WorkResult) error {
		require.NoError(t, r.Err)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, collected, 100)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	e := NewEnricher(&mockAnalyzer{}, "hg38", 2)

	items := make(chan WorkItem, 10)
	for i, v := range snvList(10) {
		items <- WorkItem{Seq: i, Variant: v}
	}
	close(items)

	stop := errors.New("stop")
	seen := 0
	err := OrderedCollect(e.ParallelAnalyze(context.Background(), items), func(r WorkResult) error {
		seen++
		if r.Seq == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 4, seen)
}

func TestEnrichAll(t *testing.T) {
	r := NewReconciler()
	vs := snvList(4)
	vs = append(vs, Clinvar{ClinvarID: "del1", VariationType: "Deletion", Title: "c.68_69del"})
	require.NoError(t, r.Refresh(context.Background(), &staticFetcher{variants: vs}, brca1Key()))

	m := &mockAnalyzer{fail: map[string]bool{"1001": true}}
	e := NewEnricher(m, "hg38", 3)

	n, err := e.EnrichAll(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 4, m.calls)

	got := r.Variants()
	require.Len(t, got, 5)
	assert.NotNil(t, got[0].Evo2)
	assert.Nil(t, got[1].Evo2)
	assert.Equal(t, "endpoint returned 500", got[1].Evo2Error)
	assert.NotNil(t, got[2].Evo2)
	assert.NotNil(t, got[3].Evo2)
	assert.Nil(t, got[4].Evo2, "deletions are not analyzed")
	assert.Equal(t, "del1", got[4].ClinvarID)
}

// gatedAnalyzer signals started and blocks until release is closed.
type gatedAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedAnalyzer) AnalyzeVariant(_ context.Context, v Clinvar, _ string) (*Evo2Result, error) {
	g.started <- struct{}{}
	<-g.release
	return &Evo2Result{Position: v.Location, Prediction: "Likely benign"}, nil
}

func TestEnrichAll_RefreshDuringAnalysis(t *testing.T) {
	r := NewReconciler()
	vs := snvList(1)
	vs[0].Classification = "Uncertain significance"
	require.NoError(t, r.Refresh(context.Background(), &staticFetcher{variants: vs}, brca1Key()))

	g := &gatedAnalyzer{started: make(chan struct{}, 1), release: make(chan struct{})}
	e := NewEnricher(g, "hg38", 1)

	type outcome struct {
		n   int
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		n, err := e.EnrichAll(context.Background(), r)
		done <- outcome{n, err}
	}()
	<-g.started

	fresh := snvList(1)
	fresh[0].Classification = "Pathogenic"
	require.NoError(t, r.Refresh(context.Background(), &staticFetcher{variants: fresh}, brca1Key()))
	close(g.release)

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, 0, out.n)

	got := r.Variants()
	require.Len(t, got, 1)
	assert.Equal(t, "Pathogenic", got[0].Classification)
	assert.Nil(t, got[0].Evo2)
}

func TestClinvarAlleles(t *testing.T) {
	v := Clinvar{Title: "NM_007294.4(BRCA1):c.5096G>A (p.Arg1699Gln)"}
	ref, alt, ok := v.Alleles()
	require.True(t, ok)
	assert.Equal(t, "G", ref)
	assert.Equal(t, "A", alt)

	_, _, ok = (&Clinvar{Title: "NM_007294.4(BRCA1):c.68_69del"}).Alleles()
	assert.False(t, ok)
}
