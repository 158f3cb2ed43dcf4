// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the retriever.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "figure-miner/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// RetrievalConfig holds settings for fetching source bundles.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BundlesDir receives one directory per identifier.
	BundlesDir string `json:"bundles_dir" yaml:"bundles_dir" mapstructure:"bundles_dir"`

	// DownloadDelay is the pause between consecutive downloads (default 3s,
	// per arXiv's guidance for automated access).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`

	// MaxEntryBytes caps the size of a single unpacked archive entry.
	MaxEntryBytes int64 `json:"max_entry_bytes" yaml:"max_entry_bytes" mapstructure:"max_entry_bytes"`
}

// ExtractionConfig holds settings for the figure/caption extractor.
type ExtractionConfig struct {
	// InputRoot contains one source bundle directory per identifier.
	InputRoot string `json:"input_root" yaml:"input_root" mapstructure:"input_root"`

	// OutputRoot receives copied images under OutputRoot/<identifier>/.
	OutputRoot string `json:"output_root" yaml:"output_root" mapstructure:"output_root"`

	// MetadataPath is the JSON array of caption records, loaded at start
	// and overwritten at the end of a run.
	MetadataPath string `json:"metadata_path" yaml:"metadata_path" mapstructure:"metadata_path"`

	// ContinueOnError keeps going after a bundle fails with an I/O error,
	// discarding that bundle's records. The default halts the run.
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error" mapstructure:"continue_on_error"`
}

// IndexConfig holds settings for the caption search index.
type IndexConfig struct {
	// IndexDir holds captions.db.
	IndexDir string `json:"index_dir" yaml:"index_dir" mapstructure:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	LogLevel   string           `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Extraction ExtractionConfig `json:"extract" yaml:"extract" mapstructure:"extract"`
	Index      IndexConfig      `json:"index" yaml:"index" mapstructure:"index"`
}
