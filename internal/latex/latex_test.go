// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package latex

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no comment", `\caption{Plain}`, `\caption{Plain}`},
		{"trailing comment", `\includegraphics{real.png} % \includegraphics{decoy.png}`, `\includegraphics{real.png} `},
		{"whole line", "% commented out\nkept", "\nkept"},
		{"escaped percent", `50\% of runs % note`, `50\% of runs `},
		{"double backslash then comment", `a\\% b`, `a\\`},
		{"keeps line count", "a%x\nb%y\nc", "a\nb\nc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.input))
		})
	}
}

func TestBlocks_SingleFigure(t *testing.T) {
	src := `\begin{figure}\includegraphics{fig/plot.png}\caption{Loss over epochs}\end{figure}`

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 1)
	assert.Equal(t, FigureBlock{ImagePath: "fig/plot.png", Caption: "Loss over epochs"}, got[0])
}

func TestBlocks_OptionsAndMultiline(t *testing.T) {
	src := "\\begin{figure}[t]\n" +
		"  \\centering\n" +
		"  \\includegraphics[width=0.8\\linewidth]{images/arch.jpg}\n" +
		"  \\caption{A  cat\n  sitting}\n" +
		"  \\label{fig:arch}\n" +
		"\\end{figure}\n"

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 1)
	assert.Equal(t, "images/arch.jpg", got[0].ImagePath)
	assert.Equal(t, "A  cat\n  sitting", got[0].Caption)
}

func TestBlocks_MultipleFiguresMatchSeparately(t *testing.T) {
	src := `\begin{figure}\includegraphics{a.png}\caption{First}\end{figure}
text between
\begin{figure}\includegraphics{b.png}\caption{Second}\end{figure}`

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 2)
	assert.Equal(t, "a.png", got[0].ImagePath)
	assert.Equal(t, "First", got[0].Caption)
	assert.Equal(t, "b.png", got[1].ImagePath)
	assert.Equal(t, "Second", got[1].Caption)
}

func TestBlocks_OnlyFirstImagePerFigure(t *testing.T) {
	src := `\begin{figure}
\includegraphics{left.png}
\includegraphics{right.png}
\caption{Two panels}
\end{figure}`

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 1)
	assert.Equal(t, "left.png", got[0].ImagePath)
}

func TestBlocks_CaptionBeforeImageNotMatched(t *testing.T) {
	src := `\begin{figure}\caption{Upside down}\includegraphics{x.png}\end{figure}`

	assert.Empty(t, slices.Collect(Blocks(src)))
}

func TestBlocks_CommentedDecoy(t *testing.T) {
	src := "\\begin{figure}\n" +
		"\\includegraphics{real.png} % \\includegraphics{decoy.png}\n" +
		"\\caption{Real}\n" +
		"\\end{figure}"

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 1)
	assert.Equal(t, "real.png", got[0].ImagePath)
}

func TestBlocks_CommentedOutFigure(t *testing.T) {
	src := "%\\begin{figure}\\includegraphics{gone.png}\\caption{Gone}\\end{figure}\n"

	assert.Empty(t, slices.Collect(Blocks(src)))
}

func TestBlocks_NestedCaptionCapturesBrace(t *testing.T) {
	src := `\begin{figure}\includegraphics{x.png}\caption{A \textbf{bold} claim}\end{figure}`

	got := slices.Collect(Blocks(src))

	require.Len(t, got, 1)
	_, ok := CleanCaption(got[0].Caption)
	assert.False(t, ok)
}

func TestBlocks_StopsWhenConsumerStops(t *testing.T) {
	src := `\begin{figure}\includegraphics{a.png}\caption{A}\end{figure}
\begin{figure}\includegraphics{b.png}\caption{B}\end{figure}`

	var seen []string
	for b := range Blocks(src) {
		seen = append(seen, b.ImagePath)
		break
	}
	assert.Equal(t, []string{"a.png"}, seen)
}

func TestCleanCaption(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"collapses whitespace", "A  cat\n  sitting", "A cat sitting", true},
		{"trims", "  Loss over epochs \t", "Loss over epochs", true},
		{"open brace", `Results of \emph{x`, `Results of \emph{x`, false},
		{"close brace", "stray } here", "stray } here", false},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanCaption(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
