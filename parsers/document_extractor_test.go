package parsers

import (
	"bytes"
	"testing"

	"baliance.com/gooxml/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		file        string
		data        []byte
		want        DocumentKind
	}{
		{"pdf content type", "application/pdf", "", nil, KindPDF},
		{"docx content type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", nil, KindDOCX},
		{"html content type", "text/html; charset=utf-8", "", nil, KindHTML},
		{"plain text", "text/plain", "", nil, KindText},
		{"extension fallback", "application/octet-stream", "resume.docx", nil, KindDOCX},
		{"pdf magic", "", "", []byte("%PDF-1.7 ..."), KindPDF},
		{"zip magic", "", "", []byte("PK\x03\x04rest"), KindDOCX},
		{"markup sniff", "", "", []byte("  <html><body/></html>"), KindHTML},
		{"unknown", "", "blob.bin", []byte{0x00, 0x01}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.contentType, tt.file, tt.data))
		})
	}
}

func TestExtract_DOCX(t *testing.T) {
	doc := document.New()
	doc.AddParagraph().AddRun().AddText("Jane   Smith")
	doc.AddParagraph().AddRun().AddText("Senior Engineer at Acme")

	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))

	text, err := NewDocumentExtractor().Extract(buf.Bytes(), "", "resume.docx")

	require.NoError(t, err)
	assert.Contains(t, text, "Jane Smith")
	assert.Contains(t, text, "Senior Engineer at Acme")
}

func TestExtract_HTML(t *testing.T) {
	html := `<html><head><style>p{}</style><script>var x = 1;</script></head>
<body><h1>Jane Smith</h1><ul><li>Go</li><li>Kubernetes</li></ul><p>Built things.</p></body></html>`

	text, err := NewDocumentExtractor().Extract([]byte(html), "text/html", "")

	require.NoError(t, err)
	assert.Equal(t, "Jane Smith\nGo\nKubernetes\nBuilt things.", text)
	assert.NotContains(t, text, "var x")
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := NewDocumentExtractor().Extract([]byte{0x00}, "image/png", "photo.png")

	assert.Error(t, err)
}

func TestNormalizeText(t *testing.T) {
	in := "  Line\t one  \r\n\n\n\nLine two  "

	assert.Equal(t, "Line one\n\nLine two", NormalizeText(in))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "", Truncate("abc", 0))
}
