// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"regexp"
	"strings"
)

// newIDPattern matches post-2007 identifiers: "2301.07041", "2301.07041v2".
var newIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(?:v\d+)?$`)

// oldIDPattern matches archive-prefixed identifiers: "hep-th/9901001",
// "math.AG/0309136v1".
var oldIDPattern = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?$`)

// NormalizeID trims whitespace and an optional "arXiv:" prefix and reports
// whether the result is a well-formed arXiv identifier.
func NormalizeID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if len(id) > 6 && strings.EqualFold(id[:6], "arxiv:") {
		id = id[6:]
	}
	if newIDPattern.MatchString(id) || oldIDPattern.MatchString(id) {
		return id, true
	}
	return id, false
}

// Slug returns the bundle directory name for an identifier. Old-style
// identifiers contain a slash, which becomes an underscore.
func Slug(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}
