package ncbi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-gene/internal/genome"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		SearchURL: srv.URL + "/search",
		EUtilsURL: srv.URL + "/eutils",
		APIKey:    apiKey,
		RateLimit: 1000,
	})
}

func TestClient_SearchGenes(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "BRCA1", r.URL.Query().Get("terms"))
		assert.Contains(t, r.URL.Query().Get("ef"), "GeneID")
		fmt.Fprint(w, `[1, ["672"], {"GeneID": ["672"]}, [["17","BRCA1","BRCA1 DNA repair associated","17q21.31","protein-coding"]]]`)
	})

	hits, err := c.SearchGenes(context.Background(), "BRCA1", "hg38")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "672", hits[0].GeneID)
}

func TestClient_FetchGeneDetail(t *testing.T) {
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eutils/esummary.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gene", q.Get("db"))
		assert.Equal(t, "672", q.Get("id"))
		assert.Equal(t, "json", q.Get("retmode"))
		assert.Equal(t, "secret", q.Get("api_key"))
		fmt.Fprint(w, `{"result": {"672": {"genomicinfo": [{"chrstart": 100, "chrstop": 200}]}}}`)
	})

	d, err := c.FetchGeneDetail(context.Background(), "672")
	require.NoError(t, err)
	require.Len(t, d.GenomicInfo, 1)
	assert.Equal(t, "+", d.GenomicInfo[0].Strand)
}

func TestClient_FetchClinvarVariants(t *testing.T) {
	var summaryIDs string
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.HasSuffix(r.URL.Path, "esearch.fcgi"):
			assert.Equal(t, "clinvar", q.Get("db"))
			assert.Equal(t, "17[chromosome] AND 100:200[chrpos38]", q.Get("term"))
			assert.Equal(t, "20", q.Get("retmax"))
			fmt.Fprint(w, `{"esearchresult": {"idlist": ["2", "1"]}}`)
		case strings.HasSuffix(r.URL.Path, "esummary.fcgi"):
			summaryIDs = q.Get("id")
			fmt.Fprint(w, `{"result": {"uids": ["2", "1"], "2": {"title": "b"}, "1": {"title": "a"}}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	vs, err := c.FetchClinvarVariants(context.Background(), "chr17", genome.Bounds{Min: 100, Max: 200}, "hg38")
	require.NoError(t, err)
	assert.Equal(t, "2,1", summaryIDs)
	require.Len(t, vs, 2)
	assert.Equal(t, "2", vs[0].ClinvarID)
	assert.Equal(t, "1", vs[1].ClinvarID)
}

func TestClient_FetchClinvarVariants_NoHits(t *testing.T) {
	calls := 0
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	})

	vs, err := c.FetchClinvarVariants(context.Background(), "chr17", genome.Bounds{Min: 1, Max: 2}, "hg38")
	require.NoError(t, err)
	assert.Empty(t, vs)
	assert.Equal(t, 1, calls, "no summary request without ids")
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := c.FetchGeneDetail(context.Background(), "672")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
