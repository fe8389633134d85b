package variant

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-gene/internal/genome"
)

// State is the lifecycle of a variant list for one gene selection.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Key identifies the variant set of a gene.
type Key struct {
	Chrom  string
	Bounds *genome.Bounds
	Genome string
}

// Complete returns true if the key carries both chromosome and bounds.
func (k Key) Complete() bool {
	return k.Chrom != "" && k.Bounds != nil
}

// Fetcher retrieves the ClinVar variants overlapping a gene.
type Fetcher interface {
	FetchClinvarVariants(ctx context.Context, chrom string, bounds genome.Bounds, genomeID string) ([]Clinvar, error)
}

// Reconciler owns the variant list of the active gene. The list is only
// replaced wholesale by Refresh or changed one entry at a time by Update.
type Reconciler struct {
	mu         sync.Mutex
	state      State
	variants   []Clinvar
	err        error
	generation uint64
	logger     *zap.Logger
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{logger: zap.NewNop()}
}

// SetLogger sets the logger for refresh diagnostics.
func (r *Reconciler) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Reset clears the list and returns to Uninitialized. Refreshes still in
// flight when Reset is called are discarded on completion.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.state = Uninitialized
	r.variants = nil
	r.err = nil
}

// Refresh replaces the list with a fresh fetch for key. It is a no-op when
// the key lacks chromosome or bounds. On failure the list is cleared and the
// error recorded.
func (r *Reconciler) Refresh(ctx context.Context, f Fetcher, key Key) error {
	if !key.Complete() {
		return nil
	}

	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.state = Loading
	r.err = nil
	r.mu.Unlock()

	variants, err := f.FetchClinvarVariants(ctx, key.Chrom, *key.Bounds, key.Genome)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		r.logger.Debug("discarding stale variant refresh",
			zap.String("chrom", key.Chrom),
			zap.String("genome", key.Genome))
		return nil
	}

	if err != nil {
		r.state = Error
		r.variants = nil
		r.err = fmt.Errorf("fetch clinvar variants: %w", err)
		r.logger.Warn("variant refresh failed",
			zap.String("chrom", key.Chrom),
			zap.Int64("min", key.Bounds.Min),
			zap.Int64("max", key.Bounds.Max),
			zap.Error(err))
		return r.err
	}

	r.state = Ready
	r.variants = variants
	r.logger.Debug("variants refreshed", zap.Int("count", len(variants)))
	return nil
}

// Update replaces the entry with the given ClinVar id, leaving the position
// of every other entry untouched. Returns false if no entry matched.
func (r *Reconciler) Update(id string, v Clinvar) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.variants {
		if r.variants[i].ClinvarID == id {
			r.variants[i] = v
			return true
		}
	}
	return false
}

// Variants returns a copy of the current list.
func (r *Reconciler) Variants() []Clinvar {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Clinvar, len(r.variants))
	copy(out, r.variants)
	return out
}

// Snapshot returns a copy of the current list together with the generation
// it belongs to. Pass the generation to Annotate.
func (r *Reconciler) Snapshot() ([]Clinvar, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Clinvar, len(r.variants))
	copy(out, r.variants)
	return out, r.generation
}

// Annotate attaches an effect prediction, or the reason it failed, to the
// entry with the given id. Every other field of the entry is left as is.
// Returns false if the list was refreshed or reset after generation gen, or
// if no entry matched.
func (r *Reconciler) Annotate(gen uint64, id string, res *Evo2Result, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return false
	}
	for i := range r.variants {
		if r.variants[i].ClinvarID == id {
			r.variants[i].Evo2 = res
			r.variants[i].Evo2Error = errMsg
			return true
		}
	}
	return false
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error of the last failed refresh, or nil.
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
