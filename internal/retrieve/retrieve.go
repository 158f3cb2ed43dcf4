// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve discovers arXiv identifiers and downloads their e-print
// source into one directory per identifier. Existing bundle directories
// are never fetched again.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/figure-miner/internal/httputil"
	"github.com/pdiddy/figure-miner/pkg/types"
)

// arxivEprintBase serves source archives. Declared as a var so tests can
// substitute an httptest server.
var arxivEprintBase = "https://arxiv.org/e-print/"

const defaultMaxEntryBytes = 100 << 20

// Status is the outcome of fetching one bundle.
type Status int

const (
	StatusDownloaded Status = iota
	StatusSkipped
	StatusNoSource
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusNoSource:
		return "no-source"
	default:
		return "unknown"
	}
}

// BatchResult holds the outcome of a batch retrieval run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	NoSource   int
	Failed     int
}

// Total returns the number of identifiers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.NoSource + r.Failed
}

// HasFailures reports whether any identifier failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FetchBundle downloads and unpacks the source of one identifier into
// BundlesDir/<slug>. If that directory exists the fetch is skipped. The
// archive is unpacked into a temporary sibling and renamed into place, so
// a failed fetch leaves nothing that a later run would mistake for a
// complete bundle.
func FetchBundle(ctx context.Context, client *http.Client, id string, cfg types.RetrievalConfig) (Status, error) {
	norm, ok := NormalizeID(id)
	if !ok {
		return 0, fmt.Errorf("unrecognized arXiv identifier %q", id)
	}
	dest := filepath.Join(cfg.BundlesDir, Slug(norm))
	if _, err := os.Stat(dest); err == nil {
		return StatusSkipped, nil
	}

	if err := os.MkdirAll(cfg.BundlesDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", cfg.BundlesDir, err)
	}

	archive, err := download(ctx, client, arxivEprintBase+norm, cfg)
	if err != nil {
		return 0, fmt.Errorf("downloading %s: %w", norm, err)
	}
	defer os.Remove(archive)

	tmpDir, err := os.MkdirTemp(cfg.BundlesDir, ".unpack-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	maxEntry := cfg.MaxEntryBytes
	if maxEntry <= 0 {
		maxEntry = defaultMaxEntryBytes
	}
	if err := unpack(archive, tmpDir, maxEntry); err != nil {
		if errors.Is(err, ErrNoSource) {
			return StatusNoSource, nil
		}
		return 0, fmt.Errorf("unpacking %s: %w", norm, err)
	}

	if err := os.Rename(tmpDir, dest); err != nil {
		return 0, fmt.Errorf("renaming bundle %s: %w", norm, err)
	}
	return StatusDownloaded, nil
}

// download writes the response body for url to a temp file in BundlesDir
// and returns its path.
func download(ctx context.Context, client *http.Client, url string, cfg types.RetrievalConfig) (string, error) {
	resp, err := httputil.Get(ctx, client, url, "", cfg.HTTPConfig)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(cfg.BundlesDir, ".eprint-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	return tmpPath, nil
}

// RetrieveBatch fetches identifiers in order, logging per-item status and
// returning a summary. It continues after individual failures and waits
// DownloadDelay between consecutive network fetches.
func RetrieveBatch(ctx context.Context, client *http.Client, ids []string, cfg types.RetrievalConfig, logger *slog.Logger) BatchResult {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var result BatchResult
	fetched := false
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		norm, _ := NormalizeID(id)
		if fetched && cfg.DownloadDelay > 0 && !bundleExists(cfg.BundlesDir, norm) {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.DownloadDelay):
			}
		}

		status, err := FetchBundle(ctx, client, id, cfg)
		if err != nil {
			logger.Error("fetch failed", "arxiv_id", id, "err", err)
			result.Failed++
			fetched = true
			continue
		}

		switch status {
		case StatusSkipped:
			logger.Info("bundle exists, skipping", "arxiv_id", norm)
			result.Skipped++
		case StatusNoSource:
			logger.Warn("no TeX source", "arxiv_id", norm)
			result.NoSource++
			fetched = true
		default:
			logger.Info("bundle downloaded", "arxiv_id", norm)
			result.Downloaded++
			fetched = true
		}
	}

	logger.Info("retrieval summary",
		"downloaded", result.Downloaded,
		"skipped", result.Skipped,
		"no_source", result.NoSource,
		"failed", result.Failed,
		"total", result.Total(),
	)
	return result
}

func bundleExists(dir, id string) bool {
	_, err := os.Stat(filepath.Join(dir, Slug(id)))
	return err == nil
}
