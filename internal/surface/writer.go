package surface

import (
	"io"
)

// ClearScreen is the ANSI sequence that erases the terminal and homes the cursor.
const ClearScreen = "\x1b[2J\x1b[H"

// Writer renders onto an append-only stream such as a terminal. The cursor of
// a terminal already sits after the last write, so MoveCursorToEnd does nothing.
type Writer struct {
	w        io.Writer
	clearSeq string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithClearSequence replaces the bytes written on Clear.
func WithClearSequence(seq string) WriterOption {
	return func(w *Writer) { w.clearSeq = seq }
}

// NewWriter wraps w as a surface.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	sw := &Writer{w: w, clearSeq: ClearScreen}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

func (s *Writer) Clear() error {
	if s.clearSeq == "" {
		return nil
	}
	_, err := io.WriteString(s.w, s.clearSeq)
	return err
}

func (s *Writer) Append(text string) error {
	_, err := io.WriteString(s.w, text)
	return err
}

func (s *Writer) MoveCursorToEnd() error { return nil }
