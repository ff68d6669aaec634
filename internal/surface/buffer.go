// Package surface provides display surfaces that streamsync edits are
// applied to.
package surface

import (
	"strings"
	"sync"
)

// Position is a zero-based row and byte column inside a Buffer.
type Position struct {
	Row int
	Col int
}

// Buffer is an in-memory, line-oriented text buffer with a cursor, shaped like
// a host-editor buffer.
type Buffer struct {
	mu     sync.Mutex
	lines  []string
	cursor Position
}

// NewBuffer returns a buffer holding a single empty line.
func NewBuffer() *Buffer {
	return &Buffer{lines: []string{""}}
}

// Clear drops all content and puts the cursor at the origin.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = []string{""}
	b.cursor = Position{}
	return nil
}

// Append extends the last line with text, opening new lines at each newline.
func (b *Buffer) Append(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := strings.Split(text, "\n")
	last := len(b.lines) - 1
	b.lines[last] += parts[0]
	b.lines = append(b.lines, parts[1:]...)
	return nil
}

// MoveCursorToEnd places the cursor after the last character.
func (b *Buffer) MoveCursorToEnd() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	last := len(b.lines) - 1
	b.cursor = Position{Row: last, Col: len(b.lines[last])}
	return nil
}

// Lines returns a copy of the buffer lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Text returns the buffer content joined with newlines.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Cursor returns the current cursor position.
func (b *Buffer) Cursor() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}
