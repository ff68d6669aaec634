// Package lineparse splits one line of delimited text into trimmed fields.
//
// A field may be wrapped in double quotes. Inside quotes the delimiter is
// literal and a doubled quote stands for one quote character. An unterminated
// quote is closed at the end of the line. Parsing never fails and every line
// yields at least one field.
package lineparse

import (
	"strings"
)

const (
	// Comma is the default field delimiter.
	Comma = ','
	quote = '"'
)

// Parse splits a comma-delimited line.
func Parse(line string) []string {
	return ParseDelimited(line, Comma)
}

// ParseDelimited splits line on delim, which must be a single ASCII byte
// other than the double quote.
func ParseDelimited(line string, delim byte) []string {
	fields := make([]string, 0, strings.Count(line, string(delim))+1)
	var field strings.Builder
	field.Grow(len(line))

	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inQuote {
			if c != quote {
				field.WriteByte(c)
				continue
			}
			if i+1 < len(line) && line[i+1] == quote {
				field.WriteByte(quote)
				i++
				continue
			}
			inQuote = false
			continue
		}
		switch c {
		case delim:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		case quote:
			inQuote = true
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}

// Join renders fields as a comma-delimited line. Parse splits it back into
// the same fields, trimmed of leading and trailing whitespace.
func Join(fields []string) string {
	return JoinDelimited(fields, Comma)
}

// JoinDelimited is Join with a caller-chosen delimiter.
func JoinDelimited(fields []string, delim byte) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(delim)
		}
		if !needsQuotes(f, delim) {
			b.WriteString(f)
			continue
		}
		b.WriteByte(quote)
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte(quote)
	}
	return b.String()
}

func needsQuotes(field string, delim byte) bool {
	if field == "" {
		return false
	}
	if strings.IndexByte(field, delim) >= 0 || strings.IndexByte(field, quote) >= 0 {
		return true
	}
	return field != strings.TrimSpace(field)
}
