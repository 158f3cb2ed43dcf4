// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pdiddy/figure-miner/pkg/types"
)

// emitFigure copies imagePath into destDir and returns the record for it.
// The record is built only after the copy succeeds. An existing file with
// the same basename in destDir is overwritten.
func emitFigure(imagePath, destDir, caption, source, arxivID string) (types.CaptionRecord, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return types.CaptionRecord{}, fmt.Errorf("creating directory %s: %w", destDir, err)
	}

	base := path.Base(imagePath)
	dest := filepath.Join(destDir, base)
	if err := copyFile(filepath.FromSlash(imagePath), dest); err != nil {
		return types.CaptionRecord{}, fmt.Errorf("copying %s: %w", imagePath, err)
	}

	return types.CaptionRecord{
		FigurePath: path.Join(toSlash(destDir), base),
		Caption:    caption,
		Source:     source,
		ArxivID:    arxivID,
	}, nil
}

// copyFile copies src to dest through a temporary file in dest's directory,
// so a failed copy never leaves a truncated image behind.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".figure-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing copy: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
