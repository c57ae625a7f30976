package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// PageCapturer renders the current page to PNG.
type PageCapturer interface {
	ScriptRuntime
	Screenshot(ctx context.Context) ([]byte, error)
}

// ScreenshotStore persists a captured image under a key and returns where it
// ended up. S3Service satisfies it.
type ScreenshotStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// unclipScript lifts overflow and max-height clipping so a full-page capture
// shows every expanded section.
const unclipScript = `(function () {
	document.querySelectorAll('*').forEach(function (el) {
		if (!el.style) return;
		var cs = window.getComputedStyle(el);
		if (cs.overflow === 'hidden' || cs.overflow === 'auto') el.style.overflow = 'visible';
		if (cs.maxHeight && cs.maxHeight !== 'none') el.style.maxHeight = 'none';
	});
	window.scrollTo(0, document.body.scrollHeight);
	window.scrollTo(0, 0);
	return "ok";
})()`

// ScreenshotService captures the filled application for review. With a store
// the image is uploaded; otherwise it is written under Dir.
type ScreenshotService struct {
	Store  ScreenshotStore
	Dir    string
	Now    func() time.Time
	logger *zap.Logger
}

func NewScreenshotService(store ScreenshotStore, dir string, logger *zap.Logger) *ScreenshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenshotService{Store: store, Dir: dir, Now: time.Now, logger: logger}
}

// Capture takes a full-page screenshot labelled with the session and stage
// and returns its location: an object URL, or a file path.
func (s *ScreenshotService) Capture(ctx context.Context, page PageCapturer, sessionID, stage string) (string, error) {
	if s.Store == nil && s.Dir == "" {
		return "", fmt.Errorf("no screenshot destination configured")
	}
	if _, err := page.Eval(ctx, unclipScript); err != nil {
		// A page that refuses the script still gets captured as-is.
		s.logger.Warn("could not unclip page before screenshot", zap.Error(err))
	}
	data, err := page.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%d.png", sessionID, stage, s.Now().Unix())
	if s.Store != nil {
		loc, err := s.Store.Upload(ctx, "screenshots/"+name, "image/png", data)
		if err != nil {
			return "", fmt.Errorf("failed to upload screenshot: %w", err)
		}
		s.logger.Info("screenshot uploaded", zap.String("stage", stage), zap.String("location", loc))
		return loc, nil
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	s.logger.Info("screenshot saved", zap.String("stage", stage), zap.String("path", path))
	return path, nil
}
