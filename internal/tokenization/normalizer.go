package tokenization

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// BertPreEncoder cleans and normalizes text the way BERT's reference
// tokenizer does: control characters are dropped, punctuation is isolated
// into its own whitespace-delimited words, and optionally the text is
// lowercased and stripped of combining accents.
type BertPreEncoder struct {
	Lowercase    bool
	StripAccents bool
}

func (p *BertPreEncoder) PreEncode(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = p.normalize(text)
	}
	return out
}

func (p *BertPreEncoder) normalize(text string) string {
	text = cleanText(text)
	if p.Lowercase {
		text = strings.ToLower(text)
	}
	if p.StripAccents {
		text = stripAccents(text)
	}

	var words []string
	for _, word := range strings.Fields(text) {
		words = append(words, splitPunctuation(word)...)
	}
	return strings.Join(words, " ")
}

// cleanText removes control characters and replaces all whitespace runes
// with plain spaces.
func cleanText(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
		// Tab and newline are control characters but count as whitespace,
		// so the space case must come first.
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// stripAccents decomposes to NFD and drops combining marks, so "Brötchen"
// becomes "Brotchen".
func stripAccents(text string) string {
	decomposed := norm.NFD.String(text)
	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// splitPunctuation splits a word into maximal non-punctuation runs and
// single punctuation characters: "Mw.-St." becomes
// ["Mw", ".", "-", "St", "."].
func splitPunctuation(word string) []string {
	var parts []string
	var current strings.Builder
	for _, r := range word {
		if isBertPunct(r) {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			parts = append(parts, string(r))
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// isBertPunct treats all non-alphanumeric ASCII as punctuation in addition
// to the Unicode punctuation categories, matching the reference BERT
// tokenizer.
func isBertPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return unicode.IsPunct(r)
}
