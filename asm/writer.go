package asm

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

const (
	beginImageMarker = ";------ BEGIN IMAGE --------"
	endImageMarker   = ";------ END IMAGE --------"
)

var (
	invalidLabelRegexp = regexp.MustCompile(`[^A-Za-z0-9_]`)
	squeezeRegexp      = regexp.MustCompile(`_+`)
	leadingDigitRegexp = regexp.MustCompile(`^\d`)
)

// SanitizeLabel converts an arbitrary name into a valid assembly label.
// Invalid characters collapse to single underscores and a leading digit is
// prefixed; an empty result falls back to the implicit label.
func SanitizeLabel(s string) string {
	s = invalidLabelRegexp.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(squeezeRegexp.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return ImplicitLabel
	}
	if leadingDigitRegexp.MatchString(s) {
		s = "IMG_" + s
	}
	return s
}

type indexEntry struct {
	label  string
	source string
}

// Writer emits encoded image blocks as assembly source, followed by an
// index of every label written.
type Writer struct {
	w     io.Writer
	index []indexEntry
}

// NewWriter writes the mode comment header and returns a Writer emitting
// to w.
func NewWriter(w io.Writer, m mode.Mode) (*Writer, error) {
	if _, err := fmt.Fprintf(w, "; %s\n\n", m); err != nil {
		return nil, err
	}
	return &Writer{w: w}, nil
}

// WriteBlock emits one image as a labeled block: the two byte geometry
// header, one db line per raster row between begin and end markers, and the
// detected palette as commented INK lines in first use order. The source
// path is remembered for the index.
func (w *Writer) WriteBlock(label string, g Geometry, rows [][]byte, usedInks []ink.Ink, fallback bool, source string) error {
	label = strings.ToUpper(SanitizeLabel(label))

	if fallback {
		if _, err := fmt.Fprintln(w.w, "; note: tolerance fallback used for at least one pixel"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w.w, "%s\n%s\n", label, beginImageMarker); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.w, "  db %d ; width in bytes\n  db %d ; height\n", g.WidthBytes, g.Height); err != nil {
		return err
	}

	for _, row := range rows {
		parts := make([]string, len(row))
		for i, b := range row {
			parts[i] = fmt.Sprintf("%d", b)
		}
		if _, err := fmt.Fprintf(w.w, "  db %s\n", strings.Join(parts, ", ")); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w.w, "%s\n  ; Palette (PEN -> INK) detected in the image\n", endImageMarker); err != nil {
		return err
	}
	for pen, i := range usedInks {
		if _, err := fmt.Fprintf(w.w, "  ; INK %d,%d\n", pen, i); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w.w); err != nil {
		return err
	}

	w.index = append(w.index, indexEntry{label: label, source: source})

	return nil
}

// AddIndex records a label for the trailing index without emitting a block,
// so failed images still show up there.
func (w *Writer) AddIndex(label, source string) {
	w.index = append(w.index, indexEntry{
		label:  strings.ToUpper(SanitizeLabel(label)),
		source: source,
	})
}

// WriteIndex emits the trailing label index listing the source path of
// every block written so far.
func (w *Writer) WriteIndex() error {
	if _, err := fmt.Fprintln(w.w, "; --- Label index ---"); err != nil {
		return err
	}
	for _, e := range w.index {
		if _, err := fmt.Fprintf(w.w, "; %s = %s\n", e.label, e.source); err != nil {
			return err
		}
	}
	return nil
}
