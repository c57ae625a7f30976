package services

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// MinResumeBytes is the smallest blob accepted as a real document.
const MinResumeBytes = 1024

// DropzoneSelectors match elements whose class suggests a file drop target.
var DropzoneSelectors = []string{
	"[class*='dropzone']",
	"[class*='Dropzone']",
	"[class*='drop-zone']",
	"[class*='drop-area']",
	"[class*='file-drop']",
	"[class*='upload-area']",
	"[class*='FileDrop']",
}

// UploadOutcome reports whether a file reached the page.
type UploadOutcome struct {
	Attached bool   `json:"attached"`
	Method   string `json:"method,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// UploadResume fetches the resume and hands it to the page.
func (x *FillExecutor) UploadResume(ctx context.Context, source ResumeSource, rawURL string) UploadOutcome {
	file, reason := x.FetchResume(ctx, source, rawURL)
	if file == nil {
		return UploadOutcome{Reason: reason}
	}
	return x.AttachFile(ctx, *file, nil)
}

// FetchResume loads the resume for upload. A nil payload comes with the
// reason it was skipped; fetch failures and blobs under MinResumeBytes are
// skipped, never returned as errors.
func (x *FillExecutor) FetchResume(ctx context.Context, source ResumeSource, rawURL string) (*FilePayload, string) {
	if strings.TrimSpace(rawURL) == "" {
		x.logger.Info("no resume url, skipping upload")
		return nil, "no resume url"
	}
	if source == nil {
		return nil, "no resume source"
	}
	blob, err := source.Fetch(ctx, rawURL)
	if err != nil {
		x.logger.Warn("resume fetch failed, skipping upload", zap.String("url", rawURL), zap.Error(err))
		return nil, "fetch failed"
	}
	if len(blob.Data) < MinResumeBytes {
		x.logger.Warn("resume too small, treating as broken",
			zap.String("url", rawURL), zap.Int("bytes", len(blob.Data)))
		return nil, "blob under 1KB"
	}
	ct := blob.ContentType
	if ct == "" {
		ct = http.DetectContentType(blob.Data)
	}
	return &FilePayload{Name: blob.Name, MimeType: ct, Data: blob.Data}, ""
}

// AttachFile assigns the file to native file inputs, stopping at the first
// that accepts it. When none does, a synthetic drag and drop is sent to the
// first dropzone found. preferred inputs, when given, are tried before any
// others.
func (x *FillExecutor) AttachFile(ctx context.Context, file FilePayload, preferred []Element) UploadOutcome {
	inputs, err := DeepQuery(ctx, x.page, "input[type='file']")
	if err != nil {
		x.logger.Warn("file input query failed", zap.Error(err))
	}
	tried := map[string]bool{}
	for _, in := range append(append([]Element(nil), preferred...), inputs...) {
		if tried[in.ID()] {
			continue
		}
		tried[in.ID()] = true
		ok, err := in.AttachFile(ctx, file)
		if err != nil {
			x.logger.Debug("file input rejected assignment", zap.String("input", in.ID()), zap.Error(err))
			continue
		}
		if ok {
			x.logger.Info("resume attached", zap.String("method", "file-input"), zap.String("input", in.ID()))
			return UploadOutcome{Attached: true, Method: "file-input"}
		}
	}

	for _, sel := range DropzoneSelectors {
		zones, err := DeepQuery(ctx, x.page, sel)
		if err != nil || len(zones) == 0 {
			continue
		}
		ok, err := zones[0].DropFile(ctx, file)
		if err != nil {
			x.logger.Warn("drop failed", zap.String("zone", zones[0].ID()), zap.Error(err))
			return UploadOutcome{Method: "dropzone", Reason: "drop failed"}
		}
		x.logger.Info("resume dropped", zap.String("zone", zones[0].ID()), zap.Bool("accepted", ok))
		return UploadOutcome{Attached: ok, Method: "dropzone"}
	}

	x.logger.Warn("no file input or dropzone accepted the resume")
	return UploadOutcome{Reason: "no target"}
}
