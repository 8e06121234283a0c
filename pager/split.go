package pager

import (
	"strings"

	"slidefit/block"
	"slidefit/content/text"
	"slidefit/layout"
)

// Splitter finds the largest prefix of an overflowing block which still fits
// on the current page.
type Splitter struct {
	oracle    layout.Oracle
	budget    layout.Budget
	sentences *text.Splitter
}

// NewSplitter creates paragraph splitter. Nil sentences splitter uses
// punctuation rules.
func NewSplitter(oracle layout.Oracle, budget layout.Budget, sentences *text.Splitter) *Splitter {
	return &Splitter{oracle: oracle, budget: budget, sentences: sentences}
}

// units decomposes text into splitting units: raw sentences when there are
// at least two of them, graphemes otherwise. Concatenation of units is always
// equal to the text.
func (s *Splitter) units(trimmed string) []string {
	if segs := s.sentences.Segments(trimmed); len(segs) >= 2 {
		return segs
	}
	return text.Graphemes(trimmed)
}

func join(units []string) string {
	return strings.TrimSpace(strings.Join(units, ""))
}

// Split returns head which fits on the page after already committed blocks
// and the remaining tail. Empty blocks, headings and tables are never split.
// Height is monotonic in the number of units so binary search finds maximal
// fitting prefix in O(log n) measurements.
func (s *Splitter) Split(page []block.Block, b block.Block) (head, tail block.Block, ok bool) {
	trimmed := b.Trimmed()
	if len(trimmed) == 0 || b.Atomic() {
		return "", "", false
	}

	units := s.units(trimmed)
	candidate := make([]block.Block, len(page)+1)
	copy(candidate, page)

	left, right, best := 1, len(units)-1, -1
	for left <= right {
		mid := (left + right) / 2
		h := join(units[:mid])
		if len(h) == 0 {
			left = mid + 1
			continue
		}
		candidate[len(page)] = block.Block(h)
		if s.budget.Fits(s.oracle, candidate) {
			best = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	if best <= 0 || best >= len(units) {
		return "", "", false
	}
	h, t := join(units[:best]), join(units[best:])
	if len(h) == 0 || len(t) == 0 {
		return "", "", false
	}
	return block.Block(h), block.Block(t), true
}
