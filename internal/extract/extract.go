// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract mines source bundles for figure images and captions.
// Each bundle is a directory named by its arXiv identifier; every .tex file
// inside it is scanned for figure blocks, accepted images are copied to
// OutputRoot/<identifier>/, and one CaptionRecord is produced per figure.
//
// Extraction is sequential. Records of a bundle are collected locally and
// handed to the caller's ResultSet only when the bundle completes.
package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/figure-miner/internal/dataset"
	"github.com/pdiddy/figure-miner/internal/latex"
	"github.com/pdiddy/figure-miner/pkg/types"
)

const markupExt = ".tex"

// Stats counts what a run saw and why figure blocks were dropped.
type Stats struct {
	Bundles  int
	Failed   int
	Files    int
	Blocks   int
	Accepted int
	Skipped  map[types.SkipReason]int
}

// SkippedTotal returns the number of blocks dropped for any reason.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

func (s *Stats) skip(reason types.SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[types.SkipReason]int)
	}
	s.Skipped[reason]++
}

// Extractor walks bundles and emits caption records.
type Extractor struct {
	cfg types.ExtractionConfig
	log *slog.Logger

	// Matcher finds figure blocks in comment-free text.
	Matcher latex.BlockExtractor
}

// New returns an Extractor using the regular-expression matcher.
func New(cfg types.ExtractionConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		cfg:     cfg,
		log:     logger,
		Matcher: latex.PatternExtractor{},
	}
}

// Run processes every bundle directory directly under InputRoot and appends
// the records to set. With the default policy the first I/O failure stops
// the run and is returned; records already appended stay in set but the
// caller is expected not to persist them. With ContinueOnError a failing
// bundle is logged, counted in Stats.Failed, and contributes no records.
func (e *Extractor) Run(ctx context.Context, set *dataset.ResultSet) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(e.cfg.InputRoot)
	if err != nil {
		return stats, fmt.Errorf("reading input root %s: %w", e.cfg.InputRoot, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		// Hidden entries include in-progress .unpack-* downloads.
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(e.cfg.InputRoot, entry.Name())
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		stats.Bundles++
		e.log.Info("processing bundle", "arxiv_id", entry.Name())

		records, err := e.ProcessBundle(ctx, dir, &stats)
		if err != nil {
			if !e.cfg.ContinueOnError {
				return stats, err
			}
			stats.Failed++
			e.log.Error("bundle failed", "arxiv_id", entry.Name(), "err", err)
			continue
		}
		set.Append(records...)
	}

	return stats, nil
}

// ProcessBundle scans every .tex file under bundleDir and returns the
// records of the accepted figures. The bundle identifier is the base name
// of bundleDir. Skips are counted in stats; I/O failures are returned
// wrapped with the bundle and file being processed.
func (e *Extractor) ProcessBundle(ctx context.Context, bundleDir string, stats *Stats) ([]types.CaptionRecord, error) {
	arxivID := filepath.Base(bundleDir)
	destDir := filepath.Join(e.cfg.OutputRoot, arxivID)

	// The trailing separator makes WalkDir resolve a symlinked bundle root;
	// entries below it are still reported under bundleDir.
	var records []types.CaptionRecord
	err := filepath.WalkDir(bundleDir+string(filepath.Separator), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), markupExt) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Files++
		recs, err := e.processFile(p, destDir, arxivID, stats)
		if err != nil {
			return fmt.Errorf("processing %s: %w", toSlash(p), err)
		}
		records = append(records, recs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", arxivID, err)
	}
	return records, nil
}

func (e *Extractor) processFile(texPath, destDir, arxivID string, stats *Stats) ([]types.CaptionRecord, error) {
	data, err := os.ReadFile(texPath)
	if err != nil {
		return nil, err
	}

	source := toSlash(texPath)
	markupDir := filepath.Dir(texPath)

	// Invalid UTF-8 (e.g. Latin-1 sources) is dropped, not replaced.
	text := strings.ToValidUTF8(string(data), "")

	var records []types.CaptionRecord
	for block := range e.Matcher.Blocks(latex.StripComments(text)) {
		stats.Blocks++

		caption, ok := latex.CleanCaption(block.Caption)
		if !ok {
			e.skipped(stats, types.SkipBraceCaption, source, block.ImagePath)
			continue
		}

		imagePath, reason, ok := ResolveImage(markupDir, block.ImagePath)
		if !ok {
			e.skipped(stats, reason, source, block.ImagePath)
			continue
		}

		rec, err := emitFigure(imagePath, destDir, caption, source, arxivID)
		if err != nil {
			return nil, err
		}
		stats.Accepted++
		records = append(records, rec)
	}
	return records, nil
}

func (e *Extractor) skipped(stats *Stats, reason types.SkipReason, source, image string) {
	stats.skip(reason)
	e.log.Debug("figure skipped", "reason", reason, "source", source, "image", image)
}

// Extract runs a full extraction: load the existing result set from
// cfg.MetadataPath, process every bundle, and save. When Run fails under
// the halt policy nothing is saved. Under ContinueOnError the set is saved
// and an error reporting the number of failed bundles is returned.
func Extract(ctx context.Context, cfg types.ExtractionConfig, logger *slog.Logger) (Stats, error) {
	set, err := dataset.Load(cfg.MetadataPath)
	if err != nil {
		return Stats{}, err
	}
	existing := set.Len()

	ex := New(cfg, logger)
	stats, err := ex.Run(ctx, set)
	if err != nil {
		return stats, err
	}

	if err := dataset.Save(cfg.MetadataPath, set); err != nil {
		return stats, err
	}
	ex.log.Info("extraction complete",
		"bundles", stats.Bundles,
		"files", stats.Files,
		"blocks", stats.Blocks,
		"accepted", stats.Accepted,
		"skipped", stats.SkippedTotal(),
		"records", set.Len(),
		"previous", existing,
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d bundle(s) failed extraction", stats.Failed)
	}
	return stats, nil
}
