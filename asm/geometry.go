package asm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a document contains no usable data rows.
	ErrNoData = errors.New("asm: no data rows found")

	// ErrMalformedBlock is returned when a labeled block is missing its
	// header or does not carry enough data bytes for it.
	ErrMalformedBlock = errors.New("asm: malformed block")
)

// Format identifies how a byte stream encodes its raster geometry.
type Format int

const (
	// FormatHeader means the first two bytes are width and height.
	FormatHeader Format = iota
	// FormatRows means each source data line is one raster row.
	FormatRows
)

func (f Format) String() string {
	if f == FormatHeader {
		return "header"
	}
	return "rows"
}

// Geometry describes the rectangular shape of a block's raster.
type Geometry struct {
	WidthBytes int
	Height     int
}

// Empirical thresholds for the row based heuristic, tuned against the known
// generator output rather than any documented format rule.
const (
	// minRowsForMeta is the minimum row count before the first row may be
	// treated as a short metadata row and dropped.
	minRowsForMeta = 3
	// headerRowLen and longRowLen detect the ambiguous case where the
	// first source row holds exactly a would-be header while the next row
	// is markedly longer, which signals row based data without a header.
	headerRowLen = 2
	longRowLen   = 4
)

// dominantWidth returns the most frequent length among the rows. Ties
// resolve to the length seen first.
func dominantWidth(rows [][]byte) int {
	counts := make(map[int]int)
	var order []int
	for _, r := range rows {
		if counts[len(r)] == 0 {
			order = append(order, len(r))
		}
		counts[len(r)]++
	}

	best, bestCount := 0, 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

// GuessFormat decides between the two geometry encodings for a whole
// document byte stream.
//
// The header interpretation wins when the first two bytes form a plausible
// width and height whose raster fits in the remaining data, unless the
// stream is segmented into source rows whose first row is exactly a header
// sized pair followed by a markedly longer row; that shape indicates the
// data is organized one source row per raster row instead. In the row based
// interpretation a short leading row is dropped as metadata when a majority
// of the remaining rows share a dominant width, and every row is then
// truncated or zero padded to that width.
func GuessFormat(rows [][]byte, flat []byte) (Format, Geometry, []byte, error) {
	if len(flat) >= 2 {
		w, h := int(flat[0]), int(flat[1])
		if w >= 1 && h >= 1 {
			needed := w * h
			if len(flat) >= 2+needed {
				ambiguous := len(rows) >= 2 && len(rows[0]) == headerRowLen && len(rows[1]) >= longRowLen
				if !ambiguous {
					return FormatHeader, Geometry{w, h}, flat[2 : 2+needed], nil
				}
			}
		}
	}

	if len(rows) == 0 {
		return 0, Geometry{}, nil, ErrNoData
	}

	imgRows := rows
	if len(rows) >= minRowsForMeta {
		rest := rows[1:]
		common := dominantWidth(rest)
		majority := len(rest) / 2
		if majority < 2 {
			majority = 2
		}
		count := 0
		for _, r := range rest {
			if len(r) == common {
				count++
			}
		}
		if len(rows[0]) < common && count >= majority {
			imgRows = rest
		}
	}

	width := dominantWidth(imgRows)
	if width == 0 {
		return 0, Geometry{}, nil, ErrNoData
	}

	var data []byte
	height := 0
	for _, r := range imgRows {
		if len(r) == 0 {
			continue
		}
		fixed := make([]byte, width)
		copy(fixed, r)
		data = append(data, fixed...)
		height++
	}

	return FormatRows, Geometry{width, height}, data, nil
}

// headerGeometry reads the explicit two byte header mandated for labeled
// blocks. Excess bytes are ignored, insufficient bytes are an error.
func (b *Block) headerGeometry() (Geometry, []byte, error) {
	if len(b.Bytes) < 2 {
		return Geometry{}, nil, fmt.Errorf("%w: missing width/height header", ErrMalformedBlock)
	}

	w, h := int(b.Bytes[0]), int(b.Bytes[1])
	data := b.Bytes[2:]

	needed := w * h
	if len(data) < needed {
		return Geometry{}, nil, fmt.Errorf("%w: need %d data bytes, have %d", ErrMalformedBlock, needed, len(data))
	}

	return Geometry{w, h}, data[:needed], nil
}

// Geometry returns the raster shape and pixel data for the block. Labeled
// blocks must carry the explicit two byte header; the implicit whole
// document block falls back to guessing between the two encodings.
func (b *Block) Geometry() (Geometry, []byte, error) {
	if b.Implicit {
		_, g, data, err := GuessFormat(b.Rows, b.Bytes)
		return g, data, err
	}
	return b.headerGeometry()
}
