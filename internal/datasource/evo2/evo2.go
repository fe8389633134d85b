// Package evo2 provides a client for the Evo2 single-variant effect
// analysis endpoint and the delta-score classification it applies.
package evo2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// Classification parameters calibrated on BRCA1 saturation mutagenesis data.
const (
	Threshold = -0.0009178519
	LOFStd    = 0.0015140239
	FuncStd   = 0.0009016589
)

// Predictions reported for a variant.
const (
	LikelyPathogenic = "Likely pathogenic"
	LikelyBenign     = "Likely benign"
)

// ErrNotConfigured is returned when no endpoint URL is set.
var ErrNotConfigured = errors.New("evo2: endpoint URL not configured")

// Classify maps a delta likelihood score to a prediction and a confidence
// in [0, 1].
func Classify(delta float64) (prediction string, confidence float64) {
	if delta < Threshold {
		return LikelyPathogenic, math.Min(1, math.Abs(delta-Threshold)/LOFStd)
	}
	return LikelyBenign, math.Min(1, math.Abs(delta-Threshold)/FuncStd)
}

// Request describes a single variant to analyze.
type Request struct {
	Position    int64
	Alternative string
	Genome      string
	Chromosome  string
}

// Config configures a Client.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client calls the analysis endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. Scoring runs on a GPU service that may need to
// cold start, so the default timeout is generous.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for request diagnostics.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

type analysisResponse struct {
	Position    int64    `json:"position"`
	Reference   string   `json:"reference"`
	Alternative string   `json:"alternative"`
	DeltaScore  float64  `json:"delta_score"`
	Prediction  string   `json:"prediction"`
	Confidence  *float64 `json:"classification_confidence"`
}

// Analyze scores a single nucleotide variant. When the endpoint omits the
// prediction it is derived from the delta score with Classify.
func (c *Client) Analyze(ctx context.Context, req Request) (*variant.Evo2Result, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{
		"variant_position": {fmt.Sprint(req.Position)},
		"alternative":      {req.Alternative},
		"genome":           {req.Genome},
		"chromosome":       {genome.WithChrPrefix(req.Chromosome)},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.logger.Debug("evo2 request",
		zap.Int64("position", req.Position),
		zap.String("alternative", req.Alternative),
		zap.String("chromosome", req.Chromosome))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("evo2 request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("evo2 error %d: %s", resp.StatusCode, string(body))
	}

	var ar analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode evo2 response: %w", err)
	}

	res := &variant.Evo2Result{
		Position:    ar.Position,
		Reference:   ar.Reference,
		Alternative: ar.Alternative,
		DeltaScore:  ar.DeltaScore,
		Prediction:  ar.Prediction,
	}
	if ar.Confidence != nil {
		res.Confidence = *ar.Confidence
	}
	if res.Prediction == "" {
		res.Prediction, res.Confidence = Classify(ar.DeltaScore)
	}
	if res.Position == 0 {
		res.Position = req.Position
	}
	return res, nil
}

// AnalyzeVariant implements variant.Analyzer for ClinVar single nucleotide
// variants, taking the alternate base from the variant title.
func (c *Client) AnalyzeVariant(ctx context.Context, v variant.Clinvar, genomeID string) (*variant.Evo2Result, error) {
	_, alt, ok := v.Alleles()
	if !ok {
		return nil, fmt.Errorf("variant %s: cannot determine alternate allele from %q", v.ClinvarID, v.Title)
	}
	if v.Location <= 0 || v.Chrom == "" {
		return nil, fmt.Errorf("variant %s: no genomic location", v.ClinvarID)
	}
	return c.Analyze(ctx, Request{
		Position:    v.Location,
		Alternative: alt,
		Genome:      genomeID,
		Chromosome:  v.Chrom,
	})
}
