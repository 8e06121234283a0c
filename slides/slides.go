// Package slides turns finalized pages into externally visible slide records.
package slides

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"slidefit/block"
	"slidefit/generate"
	"slidefit/pager"
)

const (
	TypeCover   = generate.TypeCover
	TypeContent = "content"
)

// Record is a single slide ready for presentation layer.
type Record struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle,omitempty"`
	Content    []string `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	PageNumber int      `json:"pageNumber"`
	TotalPages int      `json:"totalPages"`

	// Set only on the cover
	TitleFontSize   int    `json:"titleFontSize,omitempty"`
	CoverStyle      string `json:"coverStyle,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`

	// Oversize marks content page holding single block which does not fit.
	Oversize bool `json:"oversize,omitempty"`
}

// IsCover reports whether record is the cover.
func (r *Record) IsCover() bool {
	return r.Type == TypeCover
}

// Defaults is content policy used when generation output lacks something.
type Defaults struct {
	Title            string
	Subtitle         string
	Summary          []string
	Category         string
	FallbackCategory string
	Tags             []string

	CoverTitleFontSize int
	CoverStyle         string
	CoverImage         string
}

func DefaultDefaults() Defaults {
	return Defaults{
		Title:              "Title",
		Subtitle:           "Subtitle",
		Summary:            []string{"Summary"},
		Category:           "Category",
		FallbackCategory:   "Knowledge System",
		Tags:               []string{"干货满满", "建议收藏"},
		CoverTitleFontSize: 48,
		CoverStyle:         "classic",
		CoverImage:         "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=600&auto=format&fit=crop",
	}
}

// Assembler wraps pages into slide records.
type Assembler struct {
	defaults Defaults
	newID    func() (uuid.UUID, error)
}

func NewAssembler(defaults Defaults) *Assembler {
	return &Assembler{defaults: defaults, newID: uuid.NewV7}
}

// Cover locates cover in generation output or synthesizes one using title
// and subtitle overrides (when not empty) and configured defaults.
func (a *Assembler) Cover(records []generate.Record, title, subtitle string) Record {
	if src := generate.FindCover(records); src != nil {
		return Record{
			Type:     TypeCover,
			Title:    src.Title,
			Subtitle: src.Subtitle,
			Content:  slices.Clone(src.Content),
			Category: src.Category,
			Tags:     slices.Clone(src.Tags),
		}
	}
	cover := Record{
		Type:     TypeCover,
		Title:    a.defaults.Title,
		Subtitle: a.defaults.Subtitle,
		Content:  slices.Clone(a.defaults.Summary),
		Category: a.defaults.Category,
	}
	if len(title) > 0 {
		cover.Title = title
	}
	if len(subtitle) > 0 {
		cover.Subtitle = subtitle
	}
	return cover
}

// Assemble prepends cover to content records built from pages and decorates
// every record with id, position and fallback metadata.
func (a *Assembler) Assemble(cover Record, pages []pager.Page) ([]Record, error) {
	runID, err := a.newID()
	if err != nil {
		return nil, fmt.Errorf("unable to generate slide id: %w", err)
	}

	out := make([]Record, 0, len(pages)+1)
	out = append(out, cover)
	for _, p := range pages {
		out = append(out, Record{
			Type:     TypeContent,
			Content:  block.Strings(p.Blocks),
			Category: cover.Category,
			Tags:     slices.Clone(cover.Tags),
			Oversize: p.Oversize,
		})
	}

	coverCategory := cover.Category
	if len(coverCategory) == 0 {
		coverCategory = a.defaults.FallbackCategory
	}

	for i := range out {
		r := &out[i]
		r.ID = fmt.Sprintf("slide-%s-%d", runID, i)
		r.PageNumber = i
		r.TotalPages = len(pages)
		if len(r.Category) == 0 {
			r.Category = coverCategory
		}
		if len(r.Tags) == 0 {
			r.Tags = slices.Clone(a.defaults.Tags)
		}
		if r.Content == nil {
			r.Content = []string{}
		}
		if r.IsCover() {
			r.TitleFontSize = a.defaults.CoverTitleFontSize
			r.CoverStyle = a.defaults.CoverStyle
			r.BackgroundImage = a.defaults.CoverImage
		}
	}
	return out, nil
}
