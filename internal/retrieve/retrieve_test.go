// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/figure-miner/pkg/types"
)

// --- archive builders ---

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func gzOnly(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const searchPage = `<!DOCTYPE html>
<html><body>
<ol class="breathe-horizontal">
  <li class="arxiv-result">
    <p class="list-title"><a href="https://arxiv.org/abs/2410.00001">arXiv:2410.00001</a></p>
    <a href="https://arxiv.org/pdf/2410.00001">pdf</a>
  </li>
  <li class="arxiv-result">
    <p class="list-title"><a href="https://arxiv.org/abs/2410.00002v2">arXiv:2410.00002</a></p>
  </li>
  <li><a href="https://arxiv.org/abs/2410.00001">duplicate</a></li>
  <li><a href="https://arxiv.org/abs/hep-th/9901001">old style</a></li>
  <li><a href="/help">help</a></li>
</ol>
</body></html>`

// newTestServer serves a search page and per-identifier e-prints.
func newTestServer(t *testing.T, eprints map[string][]byte, hits *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/"):
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(searchPage))
		case strings.HasPrefix(r.URL.Path, "/e-print/"):
			if hits != nil {
				atomic.AddInt32(hits, 1)
			}
			body, ok := eprints[strings.TrimPrefix(r.URL.Path, "/e-print/")]
			if !ok {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	origSearch, origEprint := arxivSearchBase, arxivEprintBase
	arxivSearchBase = ts.URL + "/search/"
	arxivEprintBase = ts.URL + "/e-print/"
	t.Cleanup(func() {
		arxivSearchBase = origSearch
		arxivEprintBase = origEprint
	})
	return ts
}

func testConfig(t *testing.T) types.RetrievalConfig {
	t.Helper()
	return types.RetrievalConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "figure-miner/test", MaxRetries: 1},
		BundlesDir: filepath.Join(t.TempDir(), "bundles"),
	}
}

// --- tests ---

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2301.07041", "2301.07041", true},
		{"arXiv:2301.07041", "2301.07041", true},
		{" 2301.07041v2 ", "2301.07041v2", true},
		{"0704.0001", "0704.0001", true},
		{"hep-th/9901001", "hep-th/9901001", true},
		{"math.AG/0309136v1", "math.AG/0309136v1", true},
		{"not-an-id", "not-an-id", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeID(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "2301.07041", Slug("2301.07041"))
	assert.Equal(t, "hep-th_9901001", Slug("hep-th/9901001"))
}

func TestSearchURL(t *testing.T) {
	u, err := url.Parse(SearchURL("ICDM", 200, 200))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "ICDM", q.Get("query"))
	assert.Equal(t, "all", q.Get("searchtype"))
	assert.Equal(t, "200", q.Get("start"))
	assert.Equal(t, "200", q.Get("size"))
	assert.Equal(t, "-announced_date_first", q.Get("order"))
}

func TestDiscoverIDs(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	cfg := testConfig(t)

	ids, err := DiscoverIDs(context.Background(), ts.Client(), SearchURL("ICDM", 0, 50), cfg.HTTPConfig)

	require.NoError(t, err)
	assert.Equal(t, []string{"2410.00001", "2410.00002v2", "hep-th/9901001"}, ids)
}

func TestDiscoverIDs_HTTPError(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	cfg := testConfig(t)

	_, err := DiscoverIDs(context.Background(), ts.Client(), ts.URL+"/missing", cfg.HTTPConfig)
	assert.Error(t, err)
}

func TestFetchBundle_Formats(t *testing.T) {
	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		wantStatus Status
		wantFiles  map[string]string
	}{
		{
			name: "gzipped tar",
			body: func(t *testing.T) []byte {
				return tarGz(t, map[string]string{"paper.tex": "tex", "fig/plot.png": "png"})
			},
			wantStatus: StatusDownloaded,
			wantFiles:  map[string]string{"paper.tex": "tex", "fig/plot.png": "png"},
		},
		{
			name:       "single gzipped file",
			body:       func(t *testing.T) []byte { return gzOnly(t, `\documentclass{article}`) },
			wantStatus: StatusDownloaded,
			wantFiles:  map[string]string{"main.tex": `\documentclass{article}`},
		},
		{
			name: "zip",
			body: func(t *testing.T) []byte {
				return zipOf(t, map[string]string{"src/paper.tex": "tex"})
			},
			wantStatus: StatusDownloaded,
			wantFiles:  map[string]string{"src/paper.tex": "tex"},
		},
		{
			name:       "pdf only",
			body:       func(t *testing.T) []byte { return []byte("%PDF-1.5 body") },
			wantStatus: StatusNoSource,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, map[string][]byte{"2410.00001": tt.body(t)}, nil)
			cfg := testConfig(t)

			status, err := FetchBundle(context.Background(), ts.Client(), "2410.00001", cfg)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
			bundle := filepath.Join(cfg.BundlesDir, "2410.00001")
			if tt.wantStatus == StatusNoSource {
				assert.NoDirExists(t, bundle)
			}
			for rel, content := range tt.wantFiles {
				data, err := os.ReadFile(filepath.Join(bundle, filepath.FromSlash(rel)))
				require.NoError(t, err)
				assert.Equal(t, content, string(data))
			}

			entries, err := os.ReadDir(cfg.BundlesDir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name(), "."), "temp entry %s left behind", e.Name())
			}
		})
	}
}

func TestFetchBundle_SkipsExisting(t *testing.T) {
	var hits int32
	ts := newTestServer(t, map[string][]byte{"2410.00001": gzOnly(t, "x")}, &hits)
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.BundlesDir, "2410.00001"), 0o755))

	status, err := FetchBundle(context.Background(), ts.Client(), "2410.00001", cfg)

	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestFetchBundle_PathTraversalIgnored(t *testing.T) {
	body := tarGz(t, map[string]string{"../escape.tex": "bad", "ok.tex": "good"})
	ts := newTestServer(t, map[string][]byte{"2410.00001": body}, nil)
	cfg := testConfig(t)

	_, err := FetchBundle(context.Background(), ts.Client(), "2410.00001", cfg)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.BundlesDir, "2410.00001", "ok.tex"))
	assert.NoFileExists(t, filepath.Join(cfg.BundlesDir, "escape.tex"))
}

func TestFetchBundle_OversizedEntryLeavesNoBundle(t *testing.T) {
	body := tarGz(t, map[string]string{"big.tex": strings.Repeat("x", 64)})
	ts := newTestServer(t, map[string][]byte{"2410.00001": body}, nil)
	cfg := testConfig(t)
	cfg.MaxEntryBytes = 16

	_, err := FetchBundle(context.Background(), ts.Client(), "2410.00001", cfg)

	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(cfg.BundlesDir, "2410.00001"))
}

func TestFetchBundle_InvalidID(t *testing.T) {
	_, err := FetchBundle(context.Background(), http.DefaultClient, "nonsense", testConfig(t))
	assert.Error(t, err)
}

func TestRetrieveBatch(t *testing.T) {
	ts := newTestServer(t, map[string][]byte{
		"2410.00001": tarGz(t, map[string]string{"paper.tex": "tex"}),
		"2410.00002": []byte("%PDF-1.4"),
	}, nil)
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.BundlesDir, "2410.00003"), 0o755))

	result := RetrieveBatch(context.Background(), ts.Client(),
		[]string{"2410.00001", "2410.00002", "2410.00003", "2410.00004", "garbage"}, cfg, nil)

	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.NoSource)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 5, result.Total())
	assert.True(t, result.HasFailures())
}
