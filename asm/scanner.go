/*
Package asm extracts raster data blocks from Z80 assembly source and emits
them back as source text.

Only enough of the dialect is understood to recover image data: labels,
db/defb data directives and INK palette hints. Everything else is ignored.
*/
package asm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bodgit/cpcgfx/ink"
)

// ImplicitLabel is the label given to the single block covering a whole
// document when no labels were recognized.
const ImplicitLabel = "IMG"

// Block is one labeled unit of raster data extracted from source text.
type Block struct {
	Label string

	// Bytes holds every numeric value from the block's data directives
	// in source order, and Rows the same values split per source line.
	Bytes []byte
	Rows  [][]byte

	// PenToInk holds the palette hints seen inside the block, later
	// hints overwriting earlier ones for the same pen.
	PenToInk map[int]ink.Ink

	// Implicit is set on the single whole-document block created when
	// the source contains no labels at all.
	Implicit bool
}

var (
	labelColonRegexp = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*:\s*$`)
	labelSoloRegexp  = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*$`)
	dataRegexp       = regexp.MustCompile(`(?i)\b(db|defb)\b(.*)$`)
	inkRegexp        = regexp.MustCompile(`(?i)\bINK\s+(\d+)\s*,\s*(\d+)\b`)
	numberRegexp     = regexp.MustCompile(`&[0-9A-Fa-f]+|0[xX][0-9A-Fa-f]+|\$[0-9A-Fa-f]+|-?\d+`)
)

// Directives and mnemonics that must never be mistaken for a bare label.
var reserved = map[string]struct{}{
	"db":      {},
	"defb":    {},
	"dw":      {},
	"defw":    {},
	"equ":     {},
	"org":     {},
	"include": {},
	"section": {},
	"macro":   {},
	"endm":    {},
}

// parseNumber converts one matched token to its value. Tokens are decimal
// with an optional sign, or hex with a &, 0x or $ prefix.
func parseNumber(token string) (int, bool) {
	token = strings.TrimSpace(strings.TrimRight(token, ","))
	if token == "" {
		return 0, false
	}

	switch {
	case strings.HasPrefix(token, "&"):
		n, err := strconv.ParseInt(token[1:], 16, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	case strings.HasPrefix(strings.ToLower(token), "0x"):
		n, err := strconv.ParseInt(token[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	case strings.HasPrefix(token, "$"):
		n, err := strconv.ParseInt(token[1:], 16, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}

	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// scanLine feeds one source line into the block, collecting palette hints
// and data bytes. INK hints are matched on the raw line so that commented
// hints still count; data tokens are only taken before the comment marker.
func (b *Block) scanLine(line string) {
	if m := inkRegexp.FindStringSubmatch(line); m != nil {
		pen, _ := strconv.Atoi(m[1])
		i, _ := strconv.Atoi(m[2])
		b.PenToInk[pen] = ink.Ink(i)
	}

	core := line
	if i := strings.IndexByte(core, ';'); i >= 0 {
		core = core[:i]
	}

	m := dataRegexp.FindStringSubmatch(core)
	if m == nil {
		return
	}

	var row []byte
	for _, token := range numberRegexp.FindAllString(m[2], -1) {
		if n, ok := parseNumber(token); ok {
			row = append(row, byte(n&0xff))
		}
	}
	if len(row) > 0 {
		b.Rows = append(b.Rows, row)
		b.Bytes = append(b.Bytes, row...)
	}
}

type scanState int

const (
	seekingLabel scanState = iota
	inBlock
)

type scanner struct {
	lines  []string
	state  scanState
	blocks []*Block
	block  *Block
}

func (s *scanner) startBlock(label string) {
	if s.block != nil {
		s.blocks = append(s.blocks, s.block)
	}
	s.block = &Block{
		Label:    label,
		PenToInk: make(map[int]ink.Ink),
	}
	s.state = inBlock
}

// nextRelevant returns the next non-blank line after index i, comments
// included, or the empty string when there is none.
func (s *scanner) nextRelevant(i int) string {
	for j := i + 1; j < len(s.lines); j++ {
		if t := strings.TrimSpace(s.lines[j]); t != "" {
			return t
		}
	}
	return ""
}

// isBareLabel reports whether the identifier-only line at index i should be
// treated as a label. Generators may omit the trailing colon, so a bare
// identifier only counts when the next relevant line looks like the start
// of an image block: a begin-image comment marker or a data directive.
func (s *scanner) isBareLabel(i int, candidate string) bool {
	if _, ok := reserved[strings.ToLower(candidate)]; ok {
		return false
	}

	next := s.nextRelevant(i)
	if strings.HasPrefix(next, ";------") && strings.Contains(strings.ToUpper(next), "BEGIN") {
		return true
	}
	return dataRegexp.MatchString(next)
}

func (s *scanner) scan() []*Block {
	for i, line := range s.lines {
		if m := labelColonRegexp.FindStringSubmatch(line); m != nil {
			s.startBlock(m[1])
			continue
		}

		if m := labelSoloRegexp.FindStringSubmatch(line); m != nil && s.isBareLabel(i, m[1]) {
			s.startBlock(m[1])
			continue
		}

		if s.state == seekingLabel {
			continue
		}

		s.block.scanLine(line)
	}

	if s.block != nil {
		s.blocks = append(s.blocks, s.block)
	}

	return s.blocks
}

// Parse extracts every labeled block from the source text. If no label is
// recognized anywhere the whole document is returned as a single implicit
// block, which may still be empty of data.
func Parse(text string) []*Block {
	s := &scanner{lines: strings.Split(text, "\n")}

	if blocks := s.scan(); len(blocks) > 0 {
		return blocks
	}

	// No labels at all; sweep the whole document into one block.
	b := &Block{
		Label:    ImplicitLabel,
		PenToInk: make(map[int]ink.Ink),
		Implicit: true,
	}
	for _, line := range s.lines {
		b.scanLine(line)
	}
	return []*Block{b}
}
