// Package textextract turns uploaded documents into plain text.
package textextract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format is a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

var (
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n\s*\n+`)
	inlineSpaces = regexp.MustCompile(`[ \t\f\v]+`)
)

// Extractor picks a parser by file extension, falling back to the content type.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Detect resolves the format of a document from its name and, when the extension is unknown, its MIME type.
func Detect(name, contentType string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md":
		return FormatText
	}

	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch mime {
	case "application/pdf":
		return FormatPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX
	case "text/html", "application/xhtml+xml":
		return FormatHTML
	default:
		return FormatText
	}
}

// Extract returns normalized plain text for the document.
func (e *Extractor) Extract(name, contentType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch format := Detect(name, contentType); format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatHTML:
		text, err = extractHTML(data)
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: not a utf-8 text document", name)
		}
		text = string(data)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	return normalize(text), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", " ")
	return xmlTag.ReplaceAllString(content, ""), nil
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, iframe, svg, nav, footer").Remove()
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	content := doc.Find("main, article").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	return content.Text(), nil
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = inlineSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}
