// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/figure-miner/pkg/types"
)

// imageExtensions is the case-sensitive allow-list for figure files.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ResolveImage resolves a raw \includegraphics path against the directory
// of the .tex file that references it. Backslash separators are converted
// to forward slashes. It returns the resolved forward-slash path, or a
// skip reason when the extension is not allowed or no regular file exists
// there. A skip is not an error: sources routinely reference generated or
// missing files.
func ResolveImage(markupDir, rawPath string) (string, types.SkipReason, bool) {
	p := toSlash(rawPath)
	if !path.IsAbs(p) {
		p = toSlash(filepath.Join(markupDir, filepath.FromSlash(p)))
	}

	if !imageExtensions[path.Ext(p)] {
		return p, types.SkipBadExtension, false
	}

	info, err := os.Stat(filepath.FromSlash(p))
	if err != nil || info.IsDir() {
		return p, types.SkipMissingImage, false
	}
	return p, "", true
}

// toSlash rewrites both OS and Windows-style separators as '/'.
func toSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}
