// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CaptionRecord is one accepted figure: the copied image, its caption, the
// markup file it came from, and the bundle identifier. Records are created
// once and never modified.
type CaptionRecord struct {
	// FigurePath is the forward-slash path of the copied image under the
	// output root (e.g. "figures/2301.07041/plot.png").
	FigurePath string `json:"figure_path" yaml:"figure_path"`

	// Caption is the caption text with whitespace collapsed to single spaces.
	// It never contains a brace.
	Caption string `json:"caption" yaml:"caption"`

	// Source is the forward-slash path of the originating .tex file.
	Source string `json:"source" yaml:"source"`

	// ArxivID is the identifier of the bundle the figure was found in.
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`
}

// SkipReason names why a figure block produced no record.
type SkipReason string

const (
	SkipBraceCaption SkipReason = "brace_caption"
	SkipMissingImage SkipReason = "missing_image"
	SkipBadExtension SkipReason = "bad_extension"
)
