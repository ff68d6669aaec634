// Package picker resolves a user's pick against a list of choices read from
// delimited lines, the way a selection UI hands back the line it displayed.
package picker

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"inline-llm/internal/lineparse"
)

var (
	ErrNoMatch   = errors.New("no matching choice")
	ErrAmbiguous = errors.New("ambiguous choice")
)

// Choice is one selectable record. Key is its first field.
type Choice struct {
	Key    string
	Fields []string
}

// Picker holds choices in display order.
type Picker struct {
	choices []Choice
	delim   byte
}

// New builds a picker from parsed records. Records with an empty key are skipped.
func New(records [][]string, delim byte) *Picker {
	p := &Picker{delim: delim}
	for _, r := range records {
		if len(r) == 0 || r[0] == "" {
			continue
		}
		p.choices = append(p.choices, Choice{Key: r[0], Fields: r})
	}
	return p
}

// Load reads one choice per line from r.
func Load(r io.Reader, delim byte) (*Picker, error) {
	records, err := lineparse.ReadAll(r, delim)
	if err != nil {
		return nil, err
	}
	return New(records, delim), nil
}

// Choices returns the choices in display order.
func (p *Picker) Choices() []Choice {
	return p.choices
}

// Lines renders each choice back into a line for a selection UI.
func (p *Picker) Lines() []string {
	out := make([]string, len(p.choices))
	for i, c := range p.choices {
		out[i] = lineparse.JoinDelimited(c.Fields, p.delim)
	}
	return out
}

// Resolve maps query to a single choice. query may be a full displayed line,
// which is parsed and matched on its key. An exact key match wins, ignoring
// case; otherwise the query must be a prefix of exactly one key.
func (p *Picker) Resolve(query string) (Choice, error) {
	key := lineparse.ParseDelimited(query, p.delim)[0]
	if key == "" {
		return Choice{}, ErrNoMatch
	}

	var prefixed []Choice
	for _, c := range p.choices {
		if strings.EqualFold(c.Key, key) {
			return c, nil
		}
		if len(c.Key) >= len(key) && strings.EqualFold(c.Key[:len(key)], key) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 0:
		return Choice{}, fmt.Errorf("%w: %q", ErrNoMatch, key)
	case 1:
		return prefixed[0], nil
	default:
		keys := make([]string, len(prefixed))
		for i, c := range prefixed {
			keys[i] = c.Key
		}
		return Choice{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, key, strings.Join(keys, ", "))
	}
}
