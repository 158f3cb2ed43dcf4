// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/figure-miner/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "bundles", cfg.Extraction.InputRoot)
	assert.Equal(t, "figures", cfg.Extraction.OutputRoot)
	assert.Equal(t, "figures_and_captions.json", cfg.Extraction.MetadataPath)
	assert.False(t, cfg.Extraction.ContinueOnError)
	assert.Equal(t, "bundles", cfg.Retrieval.BundlesDir)
	assert.Equal(t, 3*time.Second, cfg.Retrieval.DownloadDelay)
	assert.Equal(t, defaultUserAgent, cfg.Retrieval.UserAgent)
	assert.Equal(t, 20, cfg.Index.MaxResults)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatTable(&buf, []types.CaptionRecord{{
		FigurePath: "figures/2410.00001/loss.png",
		Caption:    "Training loss over epochs",
		ArxivID:    "2410.00001",
	}}))

	assert.Contains(t, buf.String(), "2410.00001")
	assert.Contains(t, buf.String(), "Training loss over epochs")
	assert.Contains(t, buf.String(), "1 results")

	buf.Reset()
	require.NoError(t, formatTable(&buf, nil))
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "figure-miner "+version)
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}
