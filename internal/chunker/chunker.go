package chunker

import (
	"unicode"
	"unicode/utf8"
)

// Options controls how text is cut into replay snapshots.
type Options struct {
	// MaxTokens is the number of words each snapshot adds.
	MaxTokens int
}

// Snapshots cuts text into growing prefixes, each MaxTokens words longer
// than the previous, so a finished answer can be replayed as if it were
// streaming. Tokens are approximated by whitespace-delimited words. The
// whitespace is kept as-is and the last snapshot is always text itself.
func Snapshots(text string, opts Options) []string {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8
	}
	if text == "" {
		return nil
	}

	var (
		out    []string
		words  int
		inWord bool
	)
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && inWord {
			words++
			if words%opts.MaxTokens == 0 {
				out = append(out, text[:i])
			}
		}
		inWord = !space
	}
	if len(out) == 0 || out[len(out)-1] != text {
		out = append(out, text)
	}
	return out
}

// CountTokens approximates the number of words in text.
func CountTokens(text string) int {
	n := 0
	inWord := false
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		space := unicode.IsSpace(r)
		if !space && !inWord {
			n++
		}
		inWord = !space
	}
	return n
}
