package parsers

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"baliance.com/gooxml/document"
	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"
)

// DocumentKind is the detected format of a resume blob.
type DocumentKind string

const (
	KindPDF     DocumentKind = "pdf"
	KindDOCX    DocumentKind = "docx"
	KindHTML    DocumentKind = "html"
	KindText    DocumentKind = "text"
	KindUnknown DocumentKind = "unknown"
)

// DocumentExtractor turns resume documents into plain text.
type DocumentExtractor struct{}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// DetectKind decides the format from the content type, then the file name,
// then the leading bytes.
func DetectKind(contentType, name string, data []byte) DocumentKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return KindPDF
	case strings.Contains(ct, "wordprocessingml"):
		return KindDOCX
	case strings.Contains(ct, "html"):
		return KindHTML
	case strings.HasPrefix(ct, "text/plain"):
		return KindText
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".md":
		return KindText
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return KindPDF
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return KindDOCX
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")):
		return KindHTML
	}
	return KindUnknown
}

// Extract returns the normalized text of a document.
func (e *DocumentExtractor) Extract(data []byte, contentType, name string) (string, error) {
	var (
		text string
		err  error
	)
	switch kind := DetectKind(contentType, name, data); kind {
	case KindPDF:
		text, err = e.extractPDF(data)
	case KindDOCX:
		text, err = e.extractDOCX(data)
	case KindHTML:
		text, err = e.extractHTML(data)
	case KindText:
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported document type %q (%s)", contentType, name)
	}
	if err != nil {
		return "", err
	}
	return NormalizeText(text), nil
}

func (e *DocumentExtractor) extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i+1, err)
		}
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (e *DocumentExtractor) extractDOCX(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				for _, para := range cell.Paragraphs() {
					for _, run := range para.Runs() {
						sb.WriteString(run.Text())
					}
					sb.WriteString(" ")
				}
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func (e *DocumentExtractor) extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td, div").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Filter("p, li, div, table").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			sb.WriteString(t)
			sb.WriteString("\n")
		}
	})
	if sb.Len() == 0 {
		return doc.Find("body").Text(), nil
	}
	return sb.String(), nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText collapses runs of spaces, trims each line and limits blank
// lines to one.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
