// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package latex

import (
	"iter"
	"regexp"
	"strings"
)

// FigureBlock is the first image reference and caption found inside one
// figure environment. Both fields are raw text as written in the source.
type FigureBlock struct {
	ImagePath string
	Caption   string
}

// BlockExtractor yields the figure blocks in comment-free LaTeX text.
type BlockExtractor interface {
	Blocks(text string) iter.Seq[FigureBlock]
}

// figurePattern matches \begin{figure} ... \includegraphics[opts]{path}
// ... \caption{text} ... \end{figure}. Every quantifier is lazy so that
// consecutive figures match separately, and (?s) lets . cross newlines.
// The caption group stops at the first }, so a caption with a nested
// group captures a stray { and is rejected by CleanCaption.
var figurePattern = regexp.MustCompile(
	`(?s)\\begin\{figure\}.*?\\includegraphics.*?\{(.*?)\}.*?\\caption\{([^}]*)\}.*?\\end\{figure\}`,
)

// PatternExtractor is the regular-expression BlockExtractor.
type PatternExtractor struct{}

// Blocks returns a lazy sequence of non-overlapping figure matches.
func (PatternExtractor) Blocks(text string) iter.Seq[FigureBlock] {
	return func(yield func(FigureBlock) bool) {
		rest := text
		for {
			loc := figurePattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			b := FigureBlock{
				ImagePath: rest[loc[2]:loc[3]],
				Caption:   rest[loc[4]:loc[5]],
			}
			if !yield(b) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// Blocks strips comments from raw file text and returns its figure blocks
// using the default extractor.
func Blocks(raw string) iter.Seq[FigureBlock] {
	return PatternExtractor{}.Blocks(StripComments(raw))
}

// CleanCaption collapses runs of whitespace to single spaces. ok is false
// when the result still contains a brace.
func CleanCaption(caption string) (clean string, ok bool) {
	clean = strings.Join(strings.Fields(caption), " ")
	if strings.ContainsAny(clean, "{}") {
		return clean, false
	}
	return clean, true
}
