package cpcgfx

import (
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of converting one unit, a block on the decode side
// or an image on the encode side.
type Result struct {
	Source       string
	Label        string
	Output       string
	Size         string
	BytesPerLine string
	Colors       string
	Fallback     string
	Status       string
}

// OK reports whether the unit converted successfully.
func (r Result) OK() bool {
	return r.Status == "OK"
}

// Counts returns how many results succeeded and how many failed.
func Counts(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.OK() {
			ok++
		} else {
			failed++
		}
	}
	return
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	dashes := make([]string, len(headers))
	for i := range headers {
		dashes[i] = strings.Repeat("-", widths[i])
	}

	fmt.Fprintln(w, "\nSummary:")
	line(headers)
	line(dashes)
	for _, row := range rows {
		line(row)
	}
}

// PrintDecodeSummary writes the per-block table for an assembly to image
// run.
func PrintDecodeSummary(w io.Writer, results []Result) {
	if len(results) == 0 {
		return
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.Source, r.Label, r.Output, r.Size, r.Status}
	}
	printTable(w, []string{"ASM", "LABEL", "PNG", "SIZE(PX)", "STATUS"}, rows)
}

// PrintEncodeSummary writes the per-image table for an image to assembly
// run.
func PrintEncodeSummary(w io.Writer, results []Result) {
	if len(results) == 0 {
		return
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.Source, r.Label, r.Size, r.BytesPerLine, r.Colors, r.Fallback, r.Status}
	}
	printTable(w, []string{"Image", "Label", "Size(px)", "Bytes/line", "Colors", "Fallback", "Status"}, rows)
}
