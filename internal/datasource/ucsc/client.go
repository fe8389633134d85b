// Package ucsc provides access to the UCSC Genome Browser REST API:
// genome assemblies, chromosome sizes and reference sequence windows.
package ucsc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-gene/internal/genome"
)

// DefaultBaseURL is the public UCSC REST API.
const DefaultBaseURL = "https://api.genome.ucsc.edu"

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the UCSC REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new UCSC client. Zero config values fall back to the
// public endpoint and a 30 second timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for request diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// get issues a GET request and returns the response body on HTTP 200.
func (c *Client) get(ctx context.Context, path string, query url.Values) (io.ReadCloser, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.logger.Debug("ucsc request", zap.String("url", u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("UCSC API request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("UCSC API error %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// ListGenomes returns all assemblies grouped by organism.
func (c *Client) ListGenomes(ctx context.Context) (map[string][]genome.Assembly, error) {
	body, err := c.get(ctx, "/list/ucscGenomes", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseGenomes(body)
}

// HumanAssemblies returns the assemblies of the "Human" organism bucket.
// An absent bucket yields an empty slice.
func (c *Client) HumanAssemblies(ctx context.Context) ([]genome.Assembly, error) {
	grouped, err := c.ListGenomes(ctx)
	if err != nil {
		return nil, err
	}
	return grouped[HumanOrganism], nil
}

// ListChromosomes returns the placed chromosomes of an assembly in karyotype order.
func (c *Client) ListChromosomes(ctx context.Context, genomeID string) ([]genome.Chromosome, error) {
	body, err := c.get(ctx, "/list/chromosomes", url.Values{"genome": {genomeID}})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseChromosomes(body)
}

// FetchSequence returns the reference sequence for a 1-based inclusive range.
// Failures of any kind are reported in SequenceResult.Error.
func (c *Client) FetchSequence(ctx context.Context, genomeID, chrom string, r genome.Range) genome.SequenceResult {
	start, end := r.Upstream()
	query := url.Values{
		"genome": {genomeID},
		"chrom":  {chrom},
		"start":  {fmt.Sprint(start)},
		"end":    {fmt.Sprint(end)},
	}

	body, err := c.get(ctx, "/getData/sequence", query)
	if err != nil {
		c.logger.Warn("sequence fetch failed",
			zap.String("genome", genomeID),
			zap.String("chrom", chrom),
			zap.Stringer("range", r),
			zap.Error(err))
		return genome.SequenceResult{ActualRange: r, Error: "Failed to load sequence data"}
	}
	defer body.Close()

	result := ParseSequence(body, r)
	if want := r.End - r.Start + 1; result.OK() && int64(len(result.Sequence)) != want {
		c.logger.Debug("sequence length differs from requested range",
			zap.Int("got", len(result.Sequence)),
			zap.Int64("want", want))
	}
	return result
}
