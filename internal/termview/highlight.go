package termview

import (
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"

	"github.com/agiangrant/vlist/internal/lru"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "catppuccin-mocha"

const highlightCacheSize = 4096

// Highlighter colours single lines of source text.
type Highlighter struct {
	lexer      chroma.Lexer
	style      *chroma.Style
	baseColour chroma.Colour
	base       tcell.Style
	cache      *lru.Cache[[]tcell.Style]
}

// NewHighlighter picks a lexer by language name, then by file name. With
// neither matching every rune gets the base style.
func NewHighlighter(language, filename, styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	h := &Highlighter{
		style: styles.Get(styleName),
		base:  tcell.StyleDefault,
		cache: lru.New[[]tcell.Style](highlightCacheSize),
	}
	h.baseColour = h.style.Get(chroma.Text).Colour

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil && filename != "" {
		lexer = lexers.Match(filename)
	}
	if lexer != nil {
		h.lexer = chroma.Coalesce(lexer)
	}
	return h
}

// Language returns the lexer name, or "" for plain text.
func (h *Highlighter) Language() string {
	if h.lexer == nil {
		return ""
	}
	return h.lexer.Config().Name
}

// Styles returns one style per rune of text.
func (h *Highlighter) Styles(text string) []tcell.Style {
	n := utf8.RuneCountInString(text)
	if h.lexer == nil {
		return h.plain(n)
	}
	if st, ok := h.cache.Get(text); ok {
		return st
	}
	tokens, err := chroma.Tokenise(h.lexer, nil, text)
	if err != nil {
		return h.plain(n)
	}
	out := make([]tcell.Style, 0, n)
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		st := h.styleFor(tok.Type)
		for range tok.Value {
			if len(out) == n {
				break
			}
			out = append(out, st)
		}
	}
	for len(out) < n {
		out = append(out, h.base)
	}
	h.cache.Put(text, out)
	return out
}

func (h *Highlighter) styleFor(t chroma.TokenType) tcell.Style {
	entry := h.style.Get(t)
	st := h.base
	// the style's own text colour stays the terminal default
	if entry.Colour.IsSet() && entry.Colour != h.baseColour {
		st = st.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		st = st.Underline(true)
	}
	return st
}

func (h *Highlighter) plain(n int) []tcell.Style {
	out := make([]tcell.Style, n)
	for i := range out {
		out[i] = h.base
	}
	return out
}
