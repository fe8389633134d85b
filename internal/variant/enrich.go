package variant

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Analyzer predicts the effect of a single nucleotide variant.
type Analyzer interface {
	AnalyzeVariant(ctx context.Context, v Clinvar, genomeID string) (*Evo2Result, error)
}

// WorkItem holds a variant queued for analysis.
type WorkItem struct {
	Seq     int
	Variant Clinvar
}

// WorkResult holds the analysis output for a single variant.
type WorkResult struct {
	Seq     int
	Variant Clinvar
	Result  *Evo2Result
	Err     error
}

// Enricher attaches effect predictions to the variants of a Reconciler.
type Enricher struct {
	analyzer Analyzer
	genomeID string
	workers  int
	logger   *zap.Logger
}

// NewEnricher creates an enricher. If workers is 0, runtime.NumCPU() is used.
func NewEnricher(a Analyzer, genomeID string, workers int) *Enricher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Enricher{
		analyzer: a,
		genomeID: genomeID,
		workers:  workers,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for analysis failures.
func (e *Enricher) SetLogger(l *zap.Logger) {
	e.logger = l
}

// ParallelAnalyze analyzes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
func (e *Enricher) ParallelAnalyze(ctx context.Context, items <-chan WorkItem) <-chan WorkResult {
	results := make(chan WorkResult, 2*e.workers)

	var wg sync.WaitGroup
	wg.Add(e.workers)

	for range e.workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := e.analyzer.AnalyzeVariant(ctx, item.Variant, e.genomeID)
				results <- WorkResult{
					Seq:     item.Seq,
					Variant: item.Variant,
					Result:  res,
					Err:     err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// EnrichAll analyzes every single nucleotide variant currently held by r and
// attaches each outcome to its entry with Annotate. Non-SNVs are left
// untouched. Outcomes arriving after r was refreshed or reset are dropped.
// Returns the number of variants that received a prediction.
func (e *Enricher) EnrichAll(ctx context.Context, r *Reconciler) (int, error) {
	variants, gen := r.Snapshot()

	var snvs []Clinvar
	for _, v := range variants {
		if v.IsSNV() {
			snvs = append(snvs, v)
		}
	}

	items := make(chan WorkItem, len(snvs))
	for i, v := range snvs {
		items <- WorkItem{Seq: i, Variant: v}
	}
	close(items)

	analyzed := 0
	err := OrderedCollect(e.ParallelAnalyze(ctx, items), func(res WorkResult) error {
		id := res.Variant.ClinvarID
		var errMsg string
		if res.Err != nil {
			e.logger.Warn("failed to analyze variant",
				zap.String("clinvar_id", id),
				zap.Error(res.Err))
			errMsg = res.Err.Error()
		}
		if !r.Annotate(gen, id, res.Result, errMsg) {
			e.logger.Debug("discarding analysis for replaced variant list", zap.String("clinvar_id", id))
			return ctx.Err()
		}
		if res.Err == nil {
			analyzed++
		}
		return ctx.Err()
	})
	if err != nil {
		return analyzed, fmt.Errorf("enrich variants: %w", err)
	}
	return analyzed, nil
}
