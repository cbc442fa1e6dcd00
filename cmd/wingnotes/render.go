package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/wingnotes/pkg/core"
)

const gutter = " │ "

var renderWidth = 80

// renderNote prints each block as two columns split at its LeftWidth.
// Widths are terminal cells, so wide characters keep the gutter aligned.
func renderNote(w io.Writer, n core.Note, width int) {
	fmt.Fprintf(w, "# %s\n", n.Title)
	inner := max(width-lipgloss.Width(gutter), 10)
	for i, b := range n.Blocks {
		fmt.Fprintf(w, "%s [%d] %s  %.0f/%.0f\n",
			strings.Repeat("─", 3), i+1, shortID(b.ID), b.LeftWidth, 100-b.LeftWidth)

		leftCols := max(int(math.Round(float64(inner)*b.LeftWidth/100)), 1)
		rightCols := max(inner-leftCols, 1)
		for _, line := range columns(b.LeftContent, b.RightContent, leftCols, rightCols) {
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

// columns wraps left and right into fixed-width panes and joins them with
// the gutter. An empty pane still takes one row.
func columns(left, right string, leftCols, rightCols int) []string {
	l := lipgloss.NewStyle().Width(leftCols).Render(left)
	r := lipgloss.NewStyle().Width(rightCols).Render(right)
	rows := max(lipgloss.Height(l), lipgloss.Height(r))
	sep := strings.TrimSuffix(strings.Repeat(gutter+"\n", rows), "\n")
	return strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, l, sep, r), "\n")
}
