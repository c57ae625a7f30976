package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobfill/parsers"
)

func newResumeHost(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/cv.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="jane-smith.txt"`)
		_, _ = w.Write([]byte("Jane   Smith\r\n\r\n\r\nSenior Engineer"))
	})
	mux.HandleFunc("/files/missing.pdf", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResumeFetcher_HTTP(t *testing.T) {
	srv := newResumeHost(t)
	f := NewResumeFetcher(nil)

	blob, err := f.Fetch(context.Background(), srv.URL+"/files/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "jane-smith.txt", blob.Name)
	assert.Equal(t, "text/plain; charset=utf-8", blob.ContentType)
	assert.True(t, strings.HasPrefix(string(blob.Data), "Jane"))

	_, err = f.Fetch(context.Background(), srv.URL+"/files/missing.pdf")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.Status)
}

func TestResumeFetcher_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("resume text"), 0o644))

	blob, err := NewResumeFetcher(nil).Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", blob.Name)
	assert.Equal(t, "resume text", string(blob.Data))
}

func TestResumeFetcher_UnsupportedSources(t *testing.T) {
	f := NewResumeFetcher(nil)
	ctx := context.Background()

	_, err := f.Fetch(ctx, "s3://resumes/jane.pdf")
	assert.ErrorContains(t, err, "no S3 credentials configured")

	_, err = f.Fetch(ctx, "ftp://host/jane.pdf")
	assert.EqualError(t, err, `unsupported resume url scheme "ftp"`)
}

func TestResumeTextExtractor(t *testing.T) {
	srv := newResumeHost(t)
	x := NewResumeTextExtractor(NewResumeFetcher(nil), parsers.NewDocumentExtractor())
	ctx := context.Background()

	text, err := x.Extract(ctx, srv.URL+"/files/cv.txt")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith\n\nSenior Engineer", text)

	text, err = x.Extract(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = x.Extract(ctx, srv.URL+"/files/missing.pdf")
	assert.Error(t, err)
	assert.Empty(t, text)
}
