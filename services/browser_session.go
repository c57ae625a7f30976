package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/playwright-community/playwright-go"
)

// BrowserSession is a driven browser tab the engine can navigate and script.
type BrowserSession interface {
	ScriptRuntime
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// BrowserOptions configures how a session is started.
type BrowserOptions struct {
	Driver     string // "playwright" or "chromedp"
	Headless   bool
	RemoteURL  string // chromedp only: attach to a running Chrome's devtools endpoint
	NavTimeout time.Duration
}

// OpenBrowserSession starts the configured driver.
func OpenBrowserSession(ctx context.Context, opts BrowserOptions) (BrowserSession, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}
	switch opts.Driver {
	case "", "playwright":
		return LaunchPlaywright(opts)
	case "chromedp":
		return LaunchChromedp(ctx, opts)
	}
	return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
}

// PlaywrightSession drives Chromium through playwright-go.
type PlaywrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	timeout time.Duration
}

func LaunchPlaywright(opts BrowserOptions) (*PlaywrightSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &PlaywrightSession{pw: pw, browser: browser, page: page, timeout: opts.NavTimeout}, nil
}

func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (s *PlaywrightSession) Eval(ctx context.Context, expression string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := s.page.Evaluate(expression)
	if err != nil {
		return "", err
	}
	str, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected evaluate result %T", res)
	}
	return str, nil
}

func (s *PlaywrightSession) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Keyboard().Press(key)
}

func (s *PlaywrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (s *PlaywrightSession) Close() error {
	if err := s.browser.Close(); err != nil {
		s.pw.Stop()
		return err
	}
	return s.pw.Stop()
}

// ChromedpSession drives Chrome over the devtools protocol with chromedp.
type ChromedpSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func LaunchChromedp(parent context.Context, opts BrowserOptions) (*ChromedpSession, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parent,
			append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", opts.Headless),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
			)...,
		)
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// First Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}
	return &ChromedpSession{ctx: tabCtx, cancel: cancel, timeout: opts.NavTimeout}, nil
}

// joinContext derives a context from the tab context that is also cancelled
// when caller is done. Cancelling it aborts the action, not the tab.
func joinContext(tab, caller context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(tab)
	stop := context.AfterFunc(caller, func() { cancel(context.Cause(caller)) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

// run executes actions on the tab, bounded by the caller's context.
func (s *ChromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := joinContext(s.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return err
	}
	return nil
}

func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	navCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.run(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (s *ChromedpSession) Eval(ctx context.Context, expression string) (string, error) {
	var out string
	if err := s.run(ctx, chromedp.Evaluate(expression, &out)); err != nil {
		return "", err
	}
	return out, nil
}

var chromedpKeys = map[string]string{
	"Escape": kb.Escape,
	"Tab":    kb.Tab,
	"Enter":  kb.Enter,
}

func (s *ChromedpSession) PressKey(ctx context.Context, key string) error {
	k, ok := chromedpKeys[key]
	if !ok {
		k = key
	}
	return s.run(ctx, chromedp.KeyEvent(k))
}

func (s *ChromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 yields PNG.
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *ChromedpSession) Close() error {
	s.cancel()
	return nil
}
