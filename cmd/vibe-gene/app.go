package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-gene/internal/datasource/evo2"
	"github.com/inodb/vibe-gene/internal/datasource/ncbi"
	"github.com/inodb/vibe-gene/internal/datasource/ucsc"
	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/session"
)

// app bundles the configured clients and the browsing session of one command.
type app struct {
	logger *zap.Logger
	ucsc   *ucsc.Client
	sess   *session.Session
}

func newApp() *app {
	logger := loggerFromConfig()
	timeout := viper.GetDuration("http.timeout")

	u := ucsc.NewClient(ucsc.Config{
		BaseURL: viper.GetString("ucsc.url"),
		Timeout: timeout,
	})
	u.SetLogger(logger.Named("ucsc"))

	n := ncbi.NewClient(ncbi.Config{
		SearchURL: viper.GetString("ncbi.search_url"),
		EUtilsURL: viper.GetString("ncbi.eutils_url"),
		APIKey:    viper.GetString("ncbi.api_key"),
		RateLimit: viper.GetFloat64("ncbi.rate_limit"),
		Timeout:   timeout,
	})
	n.SetLogger(logger.Named("ncbi"))

	sess := session.New(u, n, viper.GetString("genome"))
	sess.SetLogger(logger.Named("session"))

	return &app{logger: logger, ucsc: u, sess: sess}
}

func (a *app) close() {
	a.logger.Sync()
}

func (a *app) genomeID() string {
	return a.sess.Snapshot().GenomeID
}

func (a *app) evo2Client() (*evo2.Client, error) {
	url := viper.GetString("evo2.url")
	if url == "" {
		return nil, fmt.Errorf("%w: set evo2.url with 'vibe-gene config set evo2.url <url>'", evo2.ErrNotConfigured)
	}
	c := evo2.NewClient(evo2.Config{
		URL:     url,
		Timeout: viper.GetDuration("evo2.timeout"),
	})
	c.SetLogger(a.logger.Named("evo2"))
	return c, nil
}

// resolveGene searches for query and picks the hit whose symbol or gene id
// matches exactly, falling back to the first hit.
func (a *app) resolveGene(ctx context.Context, query string) (genome.SearchHit, error) {
	if err := a.sess.Search(ctx, query); err != nil {
		return genome.SearchHit{}, err
	}
	hits := a.sess.Snapshot().Results
	if len(hits) == 0 {
		return genome.SearchHit{}, fmt.Errorf("no gene found for %q", query)
	}
	for _, h := range hits {
		if strings.EqualFold(h.Symbol, query) || h.GeneID == query {
			return h, nil
		}
	}
	a.logger.Info("no exact match, using first hit",
		zap.String("query", query),
		zap.String("symbol", hits[0].Symbol))
	return hits[0], nil
}

// selectGene resolves query and runs the gene workflow on it.
func (a *app) selectGene(ctx context.Context, query string) (session.State, error) {
	hit, err := a.resolveGene(ctx, query)
	if err != nil {
		return session.State{}, err
	}
	if err := a.sess.SelectGene(ctx, hit); err != nil {
		return session.State{}, err
	}
	return a.sess.Snapshot(), nil
}
