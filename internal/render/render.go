// Package render converts finalized memo markdown into delivery formats.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format is a delivery format for a finalized memo
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ConversionError is returned when a document cannot be converted to the
// requested format.
type ConversionError struct {
	Format Format
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert to %s: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Renderer converts memo markdown to an output format.
type Renderer interface {
	Render(markdown string, format Format) ([]byte, error)
}

// Markdown renders GitHub-flavored markdown with footnote support, so the
// consolidated citation markers become proper superscript links.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (r *Markdown) Render(markdown string, format Format) ([]byte, error) {
	switch format {
	case FormatHTML:
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(markdown), &buf); err != nil {
			return nil, &ConversionError{Format: format, Err: err}
		}
		return buf.Bytes(), nil
	case FormatPDF, FormatDOCX:
		return nil, &ConversionError{Format: format, Err: fmt.Errorf("no converter configured")}
	default:
		return nil, &ConversionError{Format: format, Err: fmt.Errorf("unknown format")}
	}
}
