package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"jobfill/parsers"
)

// MaxResumeBytes bounds how much of a resume document is read.
const MaxResumeBytes = 10 << 20

// ResumeBlob is a fetched resume document.
type ResumeBlob struct {
	Name        string
	ContentType string
	Data        []byte
}

// ResumeSource resolves a resume URL to its document.
type ResumeSource interface {
	Fetch(ctx context.Context, rawURL string) (*ResumeBlob, error)
}

// FetchError is a non-OK response from the resume host.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

// ResumeFetcher serves http(s), s3 and file URLs. S3 is optional.
type ResumeFetcher struct {
	Client *http.Client
	S3     *S3Service
}

func NewResumeFetcher(s3svc *S3Service) *ResumeFetcher {
	return &ResumeFetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		S3:     s3svc,
	}
}

func (f *ResumeFetcher) Fetch(ctx context.Context, rawURL string) (*ResumeBlob, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resume url: %w", err)
	}

	if bucket, key, ok := ParseS3URL(rawURL); ok && f.S3 != nil {
		return f.S3.Download(ctx, bucket, key, MaxResumeBytes)
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL, u)
	case "file":
		return f.fetchFile(u.Path)
	case "s3":
		return nil, fmt.Errorf("s3 resume %s but no S3 credentials configured", rawURL)
	}
	return nil, fmt.Errorf("unsupported resume url scheme %q", u.Scheme)
}

func (f *ResumeFetcher) fetchHTTP(ctx context.Context, rawURL string, u *url.URL) (*ResumeBlob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResumeBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	name := path.Base(u.Path)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	if name == "" || name == "/" || name == "." {
		name = "resume"
	}
	return &ResumeBlob{Name: name, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func (f *ResumeFetcher) fetchFile(p string) (*ResumeBlob, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &ResumeBlob{
		Name:        filepath.Base(p),
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		Data:        data,
	}, nil
}

// ResumeTextLimit caps the resume text sent to the classifier.
const ResumeTextLimit = 4000

// ResumeTextExtractor reads a resume and returns its text for prompting.
type ResumeTextExtractor struct {
	source    ResumeSource
	extractor *parsers.DocumentExtractor
}

func NewResumeTextExtractor(source ResumeSource, extractor *parsers.DocumentExtractor) *ResumeTextExtractor {
	return &ResumeTextExtractor{source: source, extractor: extractor}
}

// Extract returns at most ResumeTextLimit characters of resume text. A blank
// URL or any failure yields "" together with the cause, which callers log
// and otherwise ignore.
func (r *ResumeTextExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" || r == nil || r.source == nil {
		return "", nil
	}
	blob, err := r.source.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := r.extractor.Extract(blob.Data, blob.ContentType, blob.Name)
	if err != nil {
		return "", err
	}
	return parsers.Truncate(text, ResumeTextLimit), nil
}
