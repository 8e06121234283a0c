// Package layout measures rendered height of block sequences on the fixed
// width slide canvas. Pagination never estimates sizes itself, every fit
// decision goes through an Oracle.
package layout

import (
	"fmt"

	"slidefit/block"
)

// Oracle returns rendered height (px) of the ordered block sequence. The last
// block of the sequence is rendered without trailing gap. Implementations must
// be pure with respect to the input and height must never decrease when
// blocks are appended or a block is replaced by its longer prefix.
type Oracle interface {
	Measure(blocks []block.Block) float64
}

// OracleFunc adapts ordinary function to Oracle.
type OracleFunc func(blocks []block.Block) float64

func (f OracleFunc) Measure(blocks []block.Block) float64 {
	return f(blocks)
}

// Budget is vertical capacity of the slide canvas.
type Budget struct {
	// MaxContentHeight is absolute canvas capacity.
	MaxContentHeight float64
	// SafetyBuffer is reserved margin never filled by content.
	SafetyBuffer float64
}

// DefaultBudget matches 452px canvas with 18px reserve.
func DefaultBudget() Budget {
	return Budget{MaxContentHeight: 452, SafetyBuffer: 18}
}

// Usable is the single threshold every fit decision is measured against.
func (b Budget) Usable() float64 {
	return b.MaxContentHeight - b.SafetyBuffer
}

func (b Budget) Validate() error {
	if b.Usable() <= 0 {
		return fmt.Errorf("usable height must be positive: content height %.1f, safety buffer %.1f", b.MaxContentHeight, b.SafetyBuffer)
	}
	return nil
}

// Fits reports whether blocks fit into budget.
func (b Budget) Fits(o Oracle, blocks []block.Block) bool {
	return o.Measure(blocks) <= b.Usable()
}
