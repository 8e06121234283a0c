// Package paginate turns generated slide content into slides which fit the
// slide body, one run at a time.
package paginate

import (
	"fmt"
	"image"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"slidefit/config"
	"slidefit/content/text"
	"slidefit/generate"
	"slidefit/layout"
	"slidefit/pager"
	"slidefit/preview"
	"slidefit/slides"
)

// Options of a single run.
type Options struct {
	// Title and Subtitle override defaults of synthesized cover.
	Title    string
	Subtitle string
}

// Result of a single run.
type Result struct {
	Slides []slides.Record
	Pages  []pager.Page
	Stats  pager.Stats
}

// Engine holds everything runs share. It is immutable and could be used by
// concurrent runs, every run measures in its own workspace.
type Engine struct {
	fonts     *layout.Fonts
	style     layout.Style
	budget    layout.Budget
	sentences *text.Splitter
	defaults  slides.Defaults
	log       *zap.Logger
}

func NewEngine(cfg *config.Config, fonts *layout.Fonts, log *zap.Logger) (*Engine, error) {
	pc := cfg.Pagination

	budget := layout.Budget{MaxContentHeight: pc.MaxContentHeight, SafetyBuffer: pc.SafetyBuffer}
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	style := layout.DefaultStyle()
	style.Width = pc.ContentWidth
	style.TableHeight = pc.TableHeight

	lang, err := language.Parse(pc.Sentences.Language)
	if err != nil {
		return nil, fmt.Errorf("unable to parse content language %q: %w", pc.Sentences.Language, err)
	}
	mode, ok := text.ParseMode(pc.Sentences.Mode)
	if !ok {
		log.Warn("Unknown sentences mode, using punctuation rules", zap.String("mode", pc.Sentences.Mode))
	}

	return &Engine{
		fonts:     fonts,
		style:     style,
		budget:    budget,
		sentences: text.NewSplitter(lang, mode, log),
		defaults:  DefaultsFromConfig(&cfg.Slides),
		log:       log,
	}, nil
}

// DefaultsFromConfig converts configured content policy.
func DefaultsFromConfig(sc *config.SlidesConfig) slides.Defaults {
	return slides.Defaults{
		Title:              sc.Title,
		Subtitle:           sc.Subtitle,
		Summary:            sc.Summary,
		Category:           sc.Category,
		FallbackCategory:   sc.FallbackCategory,
		Tags:               sc.Tags,
		CoverTitleFontSize: sc.TitleFontSize,
		CoverStyle:         sc.CoverStyle,
		CoverImage:         sc.BackgroundImage,
	}
}

// Budget returns page budget of the engine.
func (e *Engine) Budget() layout.Budget {
	return e.budget
}

// Paginate normalizes generated records, breaks content into pages and wraps
// pages into slide records.
func (e *Engine) Paginate(records []generate.Record, opts Options) (res *Result, err error) {
	ws := e.fonts.Open(e.style)
	defer func() {
		if er := ws.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close measurement workspace: %w", er))
		}
	}()

	blocks := pager.Normalize(records)
	pages, stats := pager.New(ws, e.budget, e.sentences, e.log).Paginate(blocks)

	asm := slides.NewAssembler(e.defaults)
	out, err := asm.Assemble(asm.Cover(records, opts.Title, opts.Subtitle), pages)
	if err != nil {
		return nil, fmt.Errorf("unable to assemble slides: %w", err)
	}

	e.log.Debug("Pagination done",
		zap.Int("blocks", stats.Blocks),
		zap.Int("pages", stats.Pages),
		zap.Int("splits", stats.Splits),
		zap.Int("forced", stats.Forced),
		zap.Int("measurements", stats.Measurements))

	return &Result{Slides: out, Pages: pages, Stats: stats}, nil
}

// Previews renders pages with the same faces and line breaking they were
// measured with.
func (e *Engine) Previews(pages []pager.Page) (imgs []image.Image, err error) {
	ws := e.fonts.Open(e.style)
	defer func() {
		if er := ws.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close measurement workspace: %w", er))
		}
	}()

	r, err := preview.NewRenderer(ws, e.budget)
	if err != nil {
		return nil, err
	}
	imgs = make([]image.Image, 0, len(pages))
	for _, p := range pages {
		imgs = append(imgs, r.Page(p))
	}
	return imgs, nil
}
