// Package ncbi provides access to the NCBI gene-annotation services: the
// clinical tables gene search and the E-utilities gene and ClinVar summaries.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// Default service endpoints.
const (
	DefaultSearchURL  = "https://clinicaltables.nlm.nih.gov/api/ncbi_genes/v3/search"
	DefaultEUtilsURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultClinvarMax = 20
)

// Search columns requested from the clinical tables service.
const (
	searchDisplayFields = "chromosome,Symbol,description,map_location,type_of_gene"
	searchExtraFields   = "chromosome,Symbol,description,map_location,type_of_gene,GenomicInfo,GeneID"
)

// Config configures a Client.
type Config struct {
	SearchURL  string
	EUtilsURL  string
	APIKey     string        // Optional E-utilities API key
	RateLimit  float64       // E-utilities requests per second
	Timeout    time.Duration
	ClinvarMax int           // Maximum ClinVar records per gene
}

// Client talks to the NCBI gene search and E-utilities services.
type Client struct {
	searchURL  string
	eutilsURL  string
	apiKey     string
	clinvarMax int
	httpClient *http.Client
	rateLimit  *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a new NCBI client. The E-utilities allow 3 requests per
// second without an API key and 10 with one; a zero RateLimit picks the
// matching default.
func NewClient(cfg Config) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.EUtilsURL == "" {
		cfg.EUtilsURL = DefaultEUtilsURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 3
		if cfg.APIKey != "" {
			cfg.RateLimit = 10
		}
	}
	if cfg.ClinvarMax == 0 {
		cfg.ClinvarMax = DefaultClinvarMax
	}

	return &Client{
		searchURL:  cfg.SearchURL,
		eutilsURL:  strings.TrimRight(cfg.EUtilsURL, "/"),
		apiKey:     cfg.APIKey,
		clinvarMax: cfg.ClinvarMax,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for request diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.logger.Debug("ncbi request", zap.String("url", u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NCBI request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("NCBI error %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// eutils issues a rate-limited E-utilities request.
func (c *Client) eutils(ctx context.Context, tool string, query url.Values) (io.ReadCloser, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}
	query.Set("retmode", "json")
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	return c.get(ctx, fmt.Sprintf("%s/%s.fcgi?%s", c.eutilsURL, tool, query.Encode()))
}

// SearchGenes runs a free-text gene search. The genome id is accepted for
// symmetry with the other lookups; the search service is assembly independent.
func (c *Client) SearchGenes(ctx context.Context, query, genomeID string) ([]genome.SearchHit, error) {
	q := url.Values{
		"terms": {query},
		"df":    {searchDisplayFields},
		"ef":    {searchExtraFields},
	}

	body, err := c.get(ctx, c.searchURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := ParseGeneSearch(body)
	if err != nil {
		return nil, err
	}
	if res.Skipped > 0 {
		c.logger.Warn("skipped malformed search rows",
			zap.String("query", query),
			zap.Int("skipped", res.Skipped))
	}
	c.logger.Debug("gene search",
		zap.String("query", query),
		zap.String("genome", genomeID),
		zap.Int("total", res.Total),
		zap.Int("hits", len(res.Hits)))
	return res.Hits, nil
}

// FetchGeneDetail returns the summary of a gene by numeric id.
func (c *Client) FetchGeneDetail(ctx context.Context, geneID string) (*genome.GeneDetail, error) {
	body, err := c.eutils(ctx, "esummary", url.Values{"db": {"gene"}, "id": {geneID}})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseGeneSummary(body, geneID)
}

// FetchClinvarVariants returns the ClinVar variants located inside bounds on
// the given chromosome, in ClinVar's relevance order.
func (c *Client) FetchClinvarVariants(ctx context.Context, chrom string, bounds genome.Bounds, genomeID string) ([]variant.Clinvar, error) {
	term := ClinvarTerm(chrom, bounds, genomeID)
	body, err := c.eutils(ctx, "esearch", url.Values{
		"db":     {"clinvar"},
		"term":   {term},
		"retmax": {fmt.Sprint(c.clinvarMax)},
	})
	if err != nil {
		return nil, err
	}
	ids, err := ParseClinvarSearch(body)
	body.Close()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []variant.Clinvar{}, nil
	}

	body, err = c.eutils(ctx, "esummary", url.Values{
		"db": {"clinvar"},
		"id": {strings.Join(ids, ",")},
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	variants, err := ParseClinvarSummaries(body, genomeID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("clinvar variants",
		zap.String("term", term),
		zap.Int("count", len(variants)))
	return variants, nil
}
