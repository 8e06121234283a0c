// Package block defines the atomic unit of flowed slide content and the rules
// used to recognize its structural kind.
package block

import (
	"fmt"
	"strings"
)

// Kind is structural kind of a block (or of a single line inside a block).
type Kind int

const (
	KindPlainParagraph Kind = iota
	KindNumberedParagraph
	KindBlankSpacer
	KindTable
	KindHeadingMinor
	KindHeadingMajor
)

var kindNames = map[Kind]string{
	KindPlainParagraph:    "plain-paragraph",
	KindNumberedParagraph: "numbered-paragraph",
	KindBlankSpacer:       "blank-spacer",
	KindTable:             "table",
	KindHeadingMinor:      "heading-minor",
	KindHeadingMajor:      "heading-major",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts kind name back to Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindPlainParagraph, fmt.Errorf("%q is not a valid block kind", name)
}

// IsHeading reports whether kind is one of the heading kinds.
func (k Kind) IsHeading() bool {
	return k == KindHeadingMajor || k == KindHeadingMinor
}

const (
	majorPrefix = "## "
	minorPrefix = "### "
)

// Classify inspects already trimmed text. Order of checks matters: "### "
// does not start with "## " so headings cannot be confused.
func Classify(trimmed string) Kind {
	switch {
	case strings.HasPrefix(trimmed, majorPrefix):
		return KindHeadingMajor
	case strings.HasPrefix(trimmed, minorPrefix):
		return KindHeadingMinor
	case IsTable(trimmed):
		return KindTable
	case len(trimmed) == 0:
		return KindBlankSpacer
	case isNumbered(trimmed):
		return KindNumberedParagraph
	default:
		return KindPlainParagraph
	}
}

// IsTable recognizes markdown table snippet by its header separator row.
func IsTable(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "|") &&
		(strings.Contains(trimmed, "|---") || strings.Contains(trimmed, "| ---") || strings.Contains(trimmed, "|:---"))
}

// HeadingTitle strips heading marker and following blanks.
func HeadingTitle(trimmed string) string {
	title := strings.TrimLeft(trimmed, "#")
	return strings.TrimLeft(title, " \t")
}

func isNumbered(trimmed string) bool {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i < len(trimmed) && trimmed[i] == '.'
}

// Block is immutable unit of flowed content: heading line, table snippet or
// line of prose. Kind is never stored, it is derived on demand.
type Block string

func (b Block) String() string {
	return string(b)
}

// Trimmed returns text without surrounding white space.
func (b Block) Trimmed() string {
	return strings.TrimSpace(string(b))
}

// Kind classifies block as a whole.
func (b Block) Kind() Kind {
	return Classify(b.Trimmed())
}

// IsEmpty reports whether block has no visible content.
func (b Block) IsEmpty() bool {
	return len(b.Trimmed()) == 0
}

// Atomic blocks must never be split across pages: anything starting with
// heading marker and tables.
func (b Block) Atomic() bool {
	trimmed := b.Trimmed()
	return strings.HasPrefix(trimmed, "#") || IsTable(trimmed)
}

// Lines returns individual lines of the block as they would be rendered, each
// line is classified separately by the layout.
func (b Block) Lines() []string {
	return strings.Split(string(b), "\n")
}

// FromStrings converts plain strings to blocks.
func FromStrings(in []string) []Block {
	out := make([]Block, 0, len(in))
	for _, s := range in {
		out = append(out, Block(s))
	}
	return out
}

// Strings converts blocks back to plain strings.
func Strings(in []Block) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		out = append(out, string(b))
	}
	return out
}
