// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package latex finds figure blocks in LaTeX source by pattern matching.
// It is not a LaTeX parser: macros are not expanded and only the
// begin/includegraphics/caption/end shape of a figure is recognized.
package latex

import "strings"

// StripComments removes, on every line, everything from the first
// unescaped % to the end of the line. Line structure is preserved.
// Verbatim regions are not recognized.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := commentIndex(line); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// commentIndex returns the byte offset of the first % not escaped by an
// odd run of backslashes, or -1.
func commentIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != '%' {
			continue
		}
		slashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			slashes++
		}
		if slashes%2 == 0 {
			return i
		}
	}
	return -1
}
