// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads and saves the accumulated caption records as a
// single pretty-printed JSON array. Saving replaces the whole file; records
// are never de-duplicated.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/figure-miner/pkg/types"
)

const indent = "    "

// ResultSet is the ordered collection of caption records for a run.
type ResultSet struct {
	Records []types.CaptionRecord
}

// Len returns the number of records.
func (s *ResultSet) Len() int { return len(s.Records) }

// Append adds records in order.
func (s *ResultSet) Append(records ...types.CaptionRecord) {
	s.Records = append(s.Records, records...)
}

// Load reads the result set at path. A missing file yields an empty set.
// A file that exists but is not a JSON array of records is an error, so
// prior data is never silently discarded.
func Load(path string) (*ResultSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ResultSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("parsing %s: not a JSON array", path)
	}
	var records []types.CaptionRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &ResultSet{Records: records}, nil
}

// Save writes the full result set to path, replacing any prior content.
// The file is written to a temporary sibling and renamed into place.
func Save(path string, s *ResultSet) error {
	records := s.Records
	if records == nil {
		records = []types.CaptionRecord{}
	}
	data, err := json.MarshalIndent(records, "", indent)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
