package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// ErrStale is returned when a fetch completed after the selection it was
// issued for had changed. Its result has been discarded.
var ErrStale = errors.New("selection changed while request was in flight")

// GenomeService is the genome-assembly collaborator.
type GenomeService interface {
	HumanAssemblies(ctx context.Context) ([]genome.Assembly, error)
	ListChromosomes(ctx context.Context, genomeID string) ([]genome.Chromosome, error)
	FetchSequence(ctx context.Context, genomeID, chrom string, r genome.Range) genome.SequenceResult
}

// GeneService is the gene-annotation collaborator.
type GeneService interface {
	variant.Fetcher
	SearchGenes(ctx context.Context, query, genomeID string) ([]genome.SearchHit, error)
	FetchGeneDetail(ctx context.Context, geneID string) (*genome.GeneDetail, error)
}

// Session owns the browsing state and sequences fetches against it.
// Methods may be called from multiple goroutines; network calls run without
// holding the lock and their results are applied only if still current.
type Session struct {
	mu        sync.Mutex
	state     State
	sel       selection
	searchSeq uint64

	genomes  GenomeService
	genes    GeneService
	variants *variant.Reconciler
	logger   *zap.Logger
}

// New creates a session in search mode on the given genome.
func New(genomes GenomeService, genes GeneService, genomeID string) *Session {
	if genomeID == "" {
		genomeID = DefaultGenome
	}
	return &Session{
		state:    State{Mode: ModeSearch, GenomeID: genomeID},
		sel:      selection{genome: genomeID},
		genomes:  genomes,
		genes:    genes,
		variants: variant.NewReconciler(),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for the session and its variant reconciler.
func (s *Session) SetLogger(l *zap.Logger) {
	s.logger = l
	s.variants.SetLogger(l)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	st := s.state.clone()
	s.mu.Unlock()

	st.Variants = s.variants.Variants()
	st.VariantState = s.variants.State()
	if err := s.variants.Err(); err != nil {
		st.VariantError = MsgVariantsFailed
	}
	return st
}

// Variants exposes the reconciler of the active gene.
func (s *Session) Variants() *variant.Reconciler {
	return s.variants
}

// DismissError clears the error banner.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// advance starts a new selection for geneID and drops the variants of the
// previous one. Fetches issued under the previous selection become stale and
// never clear Loading, so it is cleared here. Callers hold s.mu.
func (s *Session) advance(geneID string) {
	s.sel = selection{genome: s.sel.genome, geneID: geneID, generation: s.sel.generation + 1}
	s.state.Loading = false
	s.variants.Reset()
}

// begin marks a fetch as in flight and returns its token.
func (s *Session) begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = true
	return s.sel.token()
}

// finish applies fn to the state if tok is still current. It reports
// ErrStale otherwise.
func (s *Session) finish(tok Token, fn func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sel.matches(tok) {
		s.logger.Debug("discarding stale response", tok.Fields()...)
		return ErrStale
	}
	s.state.Loading = false
	fn(&s.state)
	return nil
}

// LoadGenomes fetches the human assemblies.
func (s *Session) LoadGenomes(ctx context.Context) error {
	tok := s.begin()
	assemblies, err := s.genomes.HumanAssemblies(ctx)
	if ferr := s.finish(tok, func(st *State) {
		if err != nil {
			st.Error = MsgGenomesFailed
			return
		}
		st.Assemblies = assemblies
	}); ferr != nil {
		return ferr
	}
	if err != nil {
		s.logger.Warn("failed to load genomes", zap.Error(err))
		return fmt.Errorf("load genomes: %w", err)
	}
	return nil
}

// SelectGenome switches the assembly, discarding the gene context and the
// previous chromosome set, and loads the chromosomes of the new assembly.
// In browse mode the genes of the first chromosome are listed.
func (s *Session) SelectGenome(ctx context.Context, genomeID string) error {
	s.mu.Lock()
	s.sel.genome = genomeID
	s.advance("")
	s.state.GenomeID = genomeID
	s.state.Chromosomes = nil
	s.state.Results = nil
	s.state.Searched = false
	s.state.clearGene()
	s.mu.Unlock()

	if err := s.LoadChromosomes(ctx); err != nil {
		return err
	}

	if s.Snapshot().Mode == ModeBrowse {
		return s.Browse(ctx)
	}
	return nil
}

// LoadChromosomes fetches the chromosomes of the current assembly and selects
// the first one.
func (s *Session) LoadChromosomes(ctx context.Context) error {
	tok := s.begin()
	chroms, err := s.genomes.ListChromosomes(ctx, tok.Genome)
	if ferr := s.finish(tok, func(st *State) {
		if err != nil {
			st.Error = MsgChromosomesFailed
			return
		}
		st.Chromosomes = chroms
		if len(chroms) > 0 {
			st.Chrom = chroms[0].Name
		}
	}); ferr != nil {
		return ferr
	}
	if err != nil {
		s.logger.Warn("failed to load chromosomes", append(tok.Fields(), zap.Error(err))...)
		return fmt.Errorf("load chromosomes: %w", err)
	}
	return nil
}

// SelectChromosome sets the browsed chromosome and, in browse mode, lists its genes.
func (s *Session) SelectChromosome(ctx context.Context, chrom string) error {
	s.mu.Lock()
	s.state.Chrom = chrom
	browse := s.state.Mode == ModeBrowse
	s.mu.Unlock()

	if browse {
		return s.Browse(ctx)
	}
	return nil
}

// SwitchMode changes between search and browse, clearing results and the
// gene selection.
func (s *Session) SwitchMode(ctx context.Context, m Mode) error {
	s.mu.Lock()
	if s.state.Mode == m {
		s.mu.Unlock()
		return nil
	}
	s.advance("")
	s.state.Mode = m
	s.state.Results = nil
	s.state.Searched = false
	s.state.Error = ""
	s.state.clearGene()
	chrom := s.state.Chrom
	s.mu.Unlock()

	if m == ModeBrowse && chrom != "" {
		return s.Browse(ctx)
	}
	return nil
}

// Search runs a free-text gene search. Blank queries are ignored.
func (s *Session) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	return s.performSearch(ctx, query, nil)
}

// Browse lists the genes located on the selected chromosome.
func (s *Session) Browse(ctx context.Context) error {
	s.mu.Lock()
	chrom := s.state.Chrom
	s.mu.Unlock()
	if chrom == "" {
		return nil
	}
	return s.performSearch(ctx, chrom, func(h genome.SearchHit) bool {
		return h.Chrom == chrom
	})
}

func (s *Session) performSearch(ctx context.Context, query string, keep func(genome.SearchHit) bool) error {
	s.mu.Lock()
	s.searchSeq++
	seq := s.searchSeq
	s.state.Query = query
	s.mu.Unlock()

	tok := s.begin()
	hits, err := s.genes.SearchGenes(ctx, query, tok.Genome)

	s.mu.Lock()
	newer := seq != s.searchSeq
	s.mu.Unlock()
	if newer {
		s.logger.Debug("discarding superseded search", zap.String("query", query))
		return ErrStale
	}

	if ferr := s.finish(tok, func(st *State) {
		if err != nil {
			st.Error = MsgSearchFailed
			return
		}
		if keep != nil {
			filtered := hits[:0:0]
			for _, h := range hits {
				if keep(h) {
					filtered = append(filtered, h)
				}
			}
			hits = filtered
		}
		st.Results = hits
		st.Searched = true
	}); ferr != nil {
		return ferr
	}
	if err != nil {
		s.logger.Warn("gene search failed", zap.String("query", query), zap.Error(err))
		return fmt.Errorf("search genes: %w", err)
	}
	return nil
}

// ClearGene drops the gene selection and everything derived from it.
func (s *Session) ClearGene() {
	s.mu.Lock()
	s.advance("")
	s.state.clearGene()
	s.mu.Unlock()
}

// SelectGene makes hit the active gene and runs the gene workflow: fetch the
// details, derive bounds and the initial window, then load the initial
// sequence and the ClinVar variants concurrently. A gene without coordinates
// is a legitimate empty state; no sequence is fetched for it.
func (s *Session) SelectGene(ctx context.Context, hit genome.SearchHit) error {
	s.mu.Lock()
	s.advance(hit.GeneID)
	s.state.clearGene()
	h := hit
	s.state.Gene = &h
	s.state.Error = ""
	if hit.GeneID == "" {
		s.state.Error = MsgGeneIDMissing
		s.mu.Unlock()
		return errors.New(MsgGeneIDMissing)
	}
	s.state.Loading = true
	tok := s.sel.token()
	s.mu.Unlock()

	detail, err := s.genes.FetchGeneDetail(ctx, hit.GeneID)

	var initial *genome.Range
	if ferr := s.finish(tok, func(st *State) {
		if err != nil {
			st.Error = MsgDetailsFailed
			return
		}
		st.Detail = detail
		st.Bounds, initial = genome.Plan(detail)
		if initial != nil {
			st.StartText = fmt.Sprint(initial.Start)
			st.EndText = fmt.Sprint(initial.End)
		}
	}); ferr != nil {
		return ferr
	}
	if err != nil {
		s.logger.Warn("failed to load gene details", append(tok.Fields(), zap.Error(err))...)
		return fmt.Errorf("fetch gene %s: %w", hit.GeneID, err)
	}
	if initial == nil {
		s.logger.Info("gene has no genomic coordinates", tok.Fields()...)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.fetchSequence(gctx, tok, *initial)
	})
	g.Go(func() error {
		// Variant failures are recorded on the reconciler, not the gene workflow.
		if err := s.RefreshVariants(ctx); err != nil && !errors.Is(err, ErrStale) {
			s.logger.Debug("initial variant refresh failed", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// EditRange records user edits to the range fields.
func (s *Session) EditRange(start, end string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.StartText = start
	s.state.EndText = end
	s.state.ValidationError = ""
}

// LoadSequence validates the edited range against the gene bounds and, if it
// is accepted, fetches the sequence. A rejected range never reaches the network.
func (s *Session) LoadSequence(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Gene == nil {
		s.mu.Unlock()
		return errors.New("no gene selected")
	}
	r, err := genome.ValidateRange(s.state.StartText, s.state.EndText, s.state.Bounds)
	if err != nil {
		s.state.ValidationError = err.Error()
		s.mu.Unlock()
		return err
	}
	s.state.ValidationError = ""
	tok := s.sel.token()
	s.mu.Unlock()

	return s.fetchSequence(ctx, tok, r)
}

func (s *Session) fetchSequence(ctx context.Context, tok Token, r genome.Range) error {
	s.mu.Lock()
	if !s.sel.matches(tok) || s.state.Gene == nil {
		s.mu.Unlock()
		return ErrStale
	}
	if s.state.Bounds != nil && !s.state.Bounds.Contains(r) {
		s.mu.Unlock()
		return fmt.Errorf("range %s outside gene bounds %d-%d", r, s.state.Bounds.Min, s.state.Bounds.Max)
	}
	chrom := s.state.Gene.Chrom
	s.state.SequenceLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	res := s.genomes.FetchSequence(ctx, tok.Genome, chrom, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sel.matches(tok) {
		s.logger.Debug("discarding stale sequence", tok.Fields()...)
		return ErrStale
	}
	s.state.SequenceLoading = false
	s.state.Sequence = res
	if res.Error != "" {
		s.state.Error = res.Error
	}
	return nil
}

// RefreshVariants re-fetches the ClinVar variants of the active gene. It is a
// no-op until both the gene's chromosome and bounds are known.
func (s *Session) RefreshVariants(ctx context.Context) error {
	s.mu.Lock()
	key := variant.Key{Genome: s.sel.genome}
	if s.state.Gene != nil {
		key.Chrom = s.state.Gene.Chrom
	}
	if s.state.Bounds != nil {
		b := *s.state.Bounds
		key.Bounds = &b
	}
	tok := s.sel.token()
	s.mu.Unlock()

	err := s.variants.Refresh(ctx, s.genes, key)

	s.mu.Lock()
	current := s.sel.matches(tok)
	s.mu.Unlock()
	if !current {
		return ErrStale
	}
	return err
}

// UpdateVariant replaces a single variant in place.
func (s *Session) UpdateVariant(id string, v variant.Clinvar) bool {
	return s.variants.Update(id, v)
}

// EnrichVariants runs the effect analysis for every SNV of the active gene.
func (s *Session) EnrichVariants(ctx context.Context, a variant.Analyzer, workers int) (int, error) {
	s.mu.Lock()
	genomeID := s.sel.genome
	s.mu.Unlock()

	e := variant.NewEnricher(a, genomeID, workers)
	e.SetLogger(s.logger)
	return e.EnrichAll(ctx, s.variants)
}
