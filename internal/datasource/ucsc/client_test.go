package ucsc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-gene/internal/genome"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func TestClient_HumanAssemblies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/ucscGenomes", r.URL.Path)
		fmt.Fprint(w, `{"ucscGenomes": {"hg38": {"organism": "Human", "active": 1}, "mm10": {"organism": "Mouse"}}}`)
	})

	human, err := c.HumanAssemblies(context.Background())
	require.NoError(t, err)
	require.Len(t, human, 1)
	assert.Equal(t, "hg38", human[0].ID)
}

func TestClient_ListChromosomes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/chromosomes", r.URL.Path)
		assert.Equal(t, "hg19", r.URL.Query().Get("genome"))
		fmt.Fprint(w, `{"chromosomes": {"chr2": 2, "chr1": 1, "chrUn_x": 3}}`)
	})

	chroms, err := c.ListChromosomes(context.Background(), "hg19")
	require.NoError(t, err)
	assert.Equal(t, []genome.Chromosome{{Name: "chr1", Size: 1}, {Name: "chr2", Size: 2}}, chroms)
}

func TestClient_ListChromosomes_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.ListChromosomes(context.Background(), "hg38")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_FetchSequence_ZeroBasedHalfOpen(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/getData/sequence", r.URL.Path)
		assert.Equal(t, "hg38", q.Get("genome"))
		assert.Equal(t, "chr17", q.Get("chrom"))
		assert.Equal(t, "99", q.Get("start"))
		assert.Equal(t, "104", q.Get("end"))
		fmt.Fprint(w, `{"dna": "acgta"}`)
	})

	res := c.FetchSequence(context.Background(), "hg38", "chr17", genome.Range{Start: 100, End: 104})
	assert.Equal(t, "ACGTA", res.Sequence)
	assert.Equal(t, genome.Range{Start: 100, End: 104}, res.ActualRange)
	assert.Empty(t, res.Error)
}

func TestClient_FetchSequence_FailureIsResultField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad chrom"}`, http.StatusBadRequest)
	})

	res := c.FetchSequence(context.Background(), "hg38", "chr99", genome.Range{Start: 1, End: 10})
	assert.Empty(t, res.Sequence)
	assert.NotEmpty(t, res.Error)
}
