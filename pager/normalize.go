// Package pager distributes flowed content over fixed height pages using
// layout measurements for every fit decision.
package pager

import (
	"strings"

	"slidefit/block"
	"slidefit/generate"
)

// Normalize flattens generation output into a single ordered block sequence.
// Cover is dropped, content arrays are concatenated and every unit which does
// not start with heading marker is split into one block per non-empty line.
// Headings pass through unsplit.
func Normalize(records []generate.Record) []block.Block {
	var out []block.Block
	for _, rec := range records {
		if rec.IsCover() {
			continue
		}
		for _, unit := range rec.Content {
			if strings.HasPrefix(unit, "#") {
				out = append(out, block.Block(unit))
				continue
			}
			for line := range strings.SplitSeq(unit, "\n") {
				if line = strings.TrimSpace(line); len(line) > 0 {
					out = append(out, block.Block(line))
				}
			}
		}
	}
	return out
}
