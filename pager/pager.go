package pager

import (
	"slices"

	"go.uber.org/zap"

	"slidefit/block"
	"slidefit/content/text"
	"slidefit/layout"
)

// Page is finalized ordered run of blocks. Height is measured height of the
// page, it exceeds the budget only when Oversize is set.
type Page struct {
	Blocks   []block.Block
	Height   float64
	Oversize bool
}

// Stats describes a single pagination pass.
type Stats struct {
	Blocks       int
	Pages        int
	Splits       int
	Forced       int
	Measurements int
}

// counter counts oracle calls for statistics.
type counter struct {
	layout.Oracle
	calls int
}

func (c *counter) Measure(blocks []block.Block) float64 {
	c.calls++
	return c.Oracle.Measure(blocks)
}

// Pager greedily fills pages from the block queue.
type Pager struct {
	oracle    layout.Oracle
	budget    layout.Budget
	sentences *text.Splitter
	log       *zap.Logger
}

func New(oracle layout.Oracle, budget layout.Budget, sentences *text.Splitter, log *zap.Logger) *Pager {
	return &Pager{
		oracle:    oracle,
		budget:    budget,
		sentences: sentences,
		log:       log.Named("pager"),
	}
}

// Paginate distributes blocks over pages. For every dequeued block:
//   - if it fits it is appended to the current page;
//   - if it could be split, head goes to the current page, tail returns to
//     the front of the queue and page is finalized right away;
//   - otherwise block returns to the queue and non-empty page is finalized,
//     on an empty page block is forced alone onto its own (oversize) page.
//
// Every block ends up on some page, nothing is dropped.
func (p *Pager) Paginate(blocks []block.Block) ([]Page, Stats) {
	var (
		oracle   = &counter{Oracle: p.oracle}
		splitter = NewSplitter(oracle, p.budget, p.sentences)
		stats    = Stats{Blocks: len(blocks)}
		pages    []Page
		current  []block.Block
	)

	// queue is kept reversed so front is the end of the slice
	queue := slices.Clone(blocks)
	slices.Reverse(queue)
	pop := func() block.Block {
		b := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		return b
	}
	pushFront := func(b block.Block) {
		queue = append(queue, b)
	}

	flush := func(oversize bool) {
		page := Page{Blocks: current, Height: oracle.Measure(current), Oversize: oversize}
		pages = append(pages, page)
		p.log.Debug("Page finalized",
			zap.Int("page", len(pages)),
			zap.Int("blocks", len(page.Blocks)),
			zap.Float64("height", page.Height),
			zap.Bool("oversize", page.Oversize))
		current = nil
	}

	for len(queue) > 0 {
		b := pop()
		if b.IsEmpty() {
			continue
		}

		if p.budget.Fits(oracle, append(slices.Clip(current), b)) {
			current = append(current, b)
			continue
		}

		if head, tail, ok := splitter.Split(current, b); ok {
			stats.Splits++
			current = append(current, head)
			pushFront(tail)
		} else {
			pushFront(b)
		}

		if len(current) > 0 {
			flush(false)
			continue
		}

		// single unsplittable block does not fit even on an empty page
		forced := pop()
		current = []block.Block{forced}
		stats.Forced++
		p.log.Warn("Block does not fit on a page and cannot be split, placing it alone",
			zap.Stringer("kind", forced.Kind()),
			zap.Int("length", len([]rune(forced.Trimmed()))),
			zap.Float64("limit", p.budget.Usable()))
		flush(true)
	}

	if len(current) > 0 {
		flush(false)
	}

	stats.Pages = len(pages)
	stats.Measurements = oracle.calls
	return pages, stats
}
