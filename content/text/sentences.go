package text

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Mode selects how sentence boundaries are detected.
type Mode int

const (
	// ModePunctuation cuts after every run of Latin or CJK sentence terminators.
	ModePunctuation Mode = iota
	// ModeTokenizer uses trained tokenizer which knows about abbreviations,
	// only available for English.
	ModeTokenizer
)

func (m Mode) String() string {
	switch m {
	case ModeTokenizer:
		return "tokenizer"
	default:
		return "punctuation"
	}
}

// ParseMode converts configuration value to Mode.
func ParseMode(name string) (Mode, bool) {
	switch strings.ToLower(name) {
	case "", "punctuation":
		return ModePunctuation, true
	case "tokenizer":
		return ModeTokenizer, true
	}
	return ModePunctuation, false
}

const terminators = "。！？.!?"

func isTerminator(r rune) bool {
	return strings.ContainsRune(terminators, r)
}

// Splitter decomposes paragraph into sentence-like fragments. Nil Splitter is
// valid and uses punctuation rules.
type Splitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewSplitter prepares splitter for requested language and mode. When
// tokenizer cannot be used for the language punctuation rules are used instead.
func NewSplitter(lang language.Tag, mode Mode, log *zap.Logger) *Splitter {
	if mode != ModeTokenizer {
		return &Splitter{}
	}

	name := strings.ToLower(display.English.Languages().Name(lang))
	base, confidence := lang.Base()
	if confidence == language.No || base.String() != "en" {
		log.Warn("Sentence tokenizer is not available for language, using punctuation rules",
			zap.Stringer("tag", lang), zap.String("language", name))
		return &Splitter{}
	}

	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentences tokenizer data, using punctuation rules", zap.Stringer("tag", lang), zap.Error(err))
		return &Splitter{}
	}
	return &Splitter{tokenizer: tok}
}

// Mode returns effective splitting mode.
func (s *Splitter) Mode() Mode {
	if s == nil || s.tokenizer == nil {
		return ModePunctuation
	}
	return ModeTokenizer
}

// Segments returns raw fragments of the input. Concatenation of all segments
// is always equal to the input, white space stays attached to the fragments.
// White space only tail is merged into the last fragment.
func (s *Splitter) Segments(in string) []string {
	var segs []string
	if s.Mode() == ModeTokenizer {
		for _, sentence := range s.tokenizer.Tokenize(in) {
			segs = append(segs, sentence.Text)
		}
		// tokenizer may drop white space around the text
		if strings.Join(segs, "") != in {
			segs = punctuationSegments(in)
		}
	} else {
		segs = punctuationSegments(in)
	}
	return mergeBlank(segs)
}

// Split returns trimmed non-empty fragments. Fragment ends at a run of
// sentence terminators or at the end of the text, if text has no terminators
// at all the whole trimmed text is returned.
func (s *Splitter) Split(in string) []string {
	var out []string
	for frag := range s.Sentences(in) {
		out = append(out, frag)
	}
	if len(out) == 0 {
		if trimmed := strings.TrimSpace(in); len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}

// Sentences returns an iterator over trimmed non-empty fragments.
func (s *Splitter) Sentences(in string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, seg := range s.Segments(in) {
			frag := strings.TrimSpace(seg)
			if len(frag) == 0 {
				continue
			}
			if !yield(frag) {
				return
			}
		}
	}
}

func punctuationSegments(in string) []string {
	var (
		segs   []string
		start  int
		inTerm bool
	)
	for i, r := range in {
		term := isTerminator(r)
		if inTerm && !term {
			segs = append(segs, in[start:i])
			start = i
		}
		inTerm = term
	}
	if start < len(in) {
		segs = append(segs, in[start:])
	}
	return segs
}

func mergeBlank(segs []string) []string {
	out := segs[:0]
	for _, seg := range segs {
		if len(out) > 0 && len(strings.TrimSpace(seg)) == 0 {
			out[len(out)-1] += seg
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Graphemes splits text into user-perceived characters, this is the finest
// granularity text could be broken at.
func Graphemes(in string) []string {
	out := make([]string, 0, utf8.RuneCountInString(in))
	g := uniseg.NewGraphemes(in)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
