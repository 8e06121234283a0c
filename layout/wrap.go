package layout

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/width"

	"slidefit/content/text"
)

// Piece is unbreakable fragment of a line. Line may only be broken between
// pieces.
type Piece struct {
	Text string
	Bold bool
	// Chip is highlighted fragment rendered as inline block.
	Chip bool
	// Width includes trailing white space, Trailing is its part which does
	// not count at the end of a line.
	Width    float64
	Trailing float64
	// glue forbids line break before this piece.
	glue bool
}

// Line is a single wrapped line.
type Line []Piece

func (l Line) Text() string {
	var b strings.Builder
	for _, p := range l {
		b.WriteString(p.Text)
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

var strongRe = regexp.MustCompile(`\*\*.*?\*\*`)

type run struct {
	text string
	bold bool
}

// splitRuns separates **strong** fragments from regular text.
func splitRuns(line string) []run {
	var (
		runs []run
		pos  int
	)
	for _, loc := range strongRe.FindAllStringIndex(line, -1) {
		if loc[0] > pos {
			runs = append(runs, run{text: line[pos:loc[0]]})
		}
		runs = append(runs, run{text: line[loc[0]+2 : loc[1]-2], bold: true})
		pos = loc[1]
	}
	if pos < len(line) {
		runs = append(runs, run{text: line[pos:]})
	}
	return runs
}

// pieces converts line text to a sequence of pieces using UAX#14 line break
// opportunities. In plain paragraphs strong fragments become chips.
func (w *Workspace) pieces(line string, ts TextStyle, chips bool) []Piece {
	var out []Piece
	for _, r := range splitRuns(line) {
		if len(r.text) == 0 && !(r.bold && chips) {
			continue
		}
		f := w.face(ts.FontSize, ts.Bold || r.bold)
		if r.bold && chips {
			out = append(out, Piece{
				Text:  r.text,
				Bold:  true,
				Chip:  true,
				Width: f.measure(r.text) + w.style.ChipExtra,
			})
			continue
		}

		first := true
		state := -1
		rest := r.text
		for len(rest) > 0 {
			var seg string
			seg, rest, _, state = uniseg.FirstLineSegmentInString(rest, state)
			trimmed := strings.TrimRightFunc(seg, unicode.IsSpace)
			p := Piece{
				Text:  seg,
				Bold:  r.bold,
				Width: f.measure(seg),
			}
			p.Trailing = p.Width - f.measure(trimmed)
			if first && len(out) > 0 {
				p.glue = !breakableBoundary(out[len(out)-1], seg)
			}
			first = false
			out = append(out, p)
		}
	}
	return out
}

// breakableBoundary decides whether line could be broken between two runs of
// text: after white space, around chips and around wide characters.
func breakableBoundary(prev Piece, next string) bool {
	if prev.Chip || prev.Trailing > 0 {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(prev.Text)
	first, _ := utf8.DecodeRuneInString(next)
	return unicode.IsSpace(first) || isWide(last) || isWide(first)
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// word is a group of glued pieces.
type word struct {
	pieces   []Piece
	width    float64
	trailing float64
	chip     bool
}

func words(pieces []Piece) []word {
	var out []word
	for _, p := range pieces {
		if p.glue && len(out) > 0 {
			wd := &out[len(out)-1]
			wd.pieces = append(wd.pieces, p)
			wd.width += p.Width
			wd.trailing = p.Trailing
			continue
		}
		out = append(out, word{pieces: []Piece{p}, width: p.Width, trailing: p.Trailing, chip: p.Chip})
	}
	return out
}

// wrap greedily fills lines of the given width. Words longer than the line
// are broken at grapheme boundaries, chips are never broken and overflow
// instead.
func (w *Workspace) wrap(pieces []Piece, ts TextStyle) []Line {
	var (
		lines []Line
		cur   Line
		x     float64
		limit = w.style.Width
	)
	newLine := func() {
		lines = append(lines, cur)
		cur, x = nil, 0
	}

	for _, wd := range words(pieces) {
		visible := wd.width - wd.trailing
		if x > 0 && x+visible > limit {
			newLine()
		}
		if visible <= limit || wd.chip {
			cur = append(cur, wd.pieces...)
			x += wd.width
			continue
		}
		for _, p := range wd.pieces {
			f := w.face(ts.FontSize, ts.Bold || p.Bold)
			for _, g := range text.Graphemes(p.Text) {
				gw := f.measure(g)
				if x > 0 && x+gw > limit && strings.TrimSpace(g) != "" {
					newLine()
				}
				cur = append(cur, Piece{Text: g, Bold: p.Bold, Width: gw})
				x += gw
			}
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}
