// Package attach loads files that are sent along with a prompt as context.
package attach

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxSize bounds the bytes read from a single attachment.
const MaxSize = 2 << 20

var ErrBinary = errors.New("attachment is not text")

// Attachment is a named block of context text.
type Attachment struct {
	Name string
	Text string
}

// Load reads path as an attachment. PDF files are converted to plain text;
// everything else must already be valid UTF-8 text.
func Load(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, err
	}
	if info.Size() > MaxSize {
		return Attachment{}, fmt.Errorf("%s: file too large (max %d bytes)", path, MaxSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}
	name := filepath.Base(path)

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractPDF(content)
		if err != nil {
			return Attachment{}, fmt.Errorf("%s: extract pdf: %w", path, err)
		}
		return Attachment{Name: name, Text: text}, nil
	}
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return Attachment{}, fmt.Errorf("%s: %w", path, ErrBinary)
	}
	return Attachment{Name: name, Text: string(content)}, nil
}

// LoadAll loads every path, stopping at the first failure.
func LoadAll(paths []string) ([]Attachment, error) {
	out := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		a, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Render formats attachments as a context block placed ahead of the prompt.
func Render(atts []Attachment) string {
	if len(atts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range atts {
		fmt.Fprintf(&b, "File: %s\n```\n%s", a.Name, a.Text)
		if !strings.HasSuffix(a.Text, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
	}
	return b.String()
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
