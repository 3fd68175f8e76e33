package brochure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/process"
)

// Launcher opens renderer sessions. Each session owns one browser.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// Session renders addresses to paginated PDF documents, one at a time.
type Session interface {
	// Render navigates to address, waits for the page to settle, and prints it.
	// Failures are *RenderFailure.
	Render(ctx context.Context, address string, timeout time.Duration) ([]byte, error)
	Close() error
}

// Compile-time interface checks.
var (
	_ Launcher = (*RodLauncher)(nil)
	_ Session  = (*rodSession)(nil)
)

// Render defaults.
const (
	DefaultRenderTimeout = 60 * time.Second
	DefaultSettle        = 3 * time.Second
	DefaultIdle          = 500 * time.Millisecond
)

// RenderSettings holds what every session of a run shares.
type RenderSettings struct {
	BaseURL string        // addresses are resolved against it
	Format  PageFormat    // paper preset
	Idle    time.Duration // quiet period that counts as network idle
	Settle  time.Duration // fixed delay after idle for client-side rendering
	CSS     string        // injected before printing, empty for none
	Script  string        // JavaScript run after the stylesheet, empty for none
}

func (s RenderSettings) withDefaults() RenderSettings {
	if s.Format == "" {
		s.Format = A4
	}
	if s.Idle <= 0 {
		s.Idle = DefaultIdle
	}
	if s.Settle < 0 {
		s.Settle = 0
	}
	return s
}

// ResolveAddress joins a site path onto baseURL. Absolute http(s) addresses
// are returned unchanged.
func ResolveAddress(baseURL, address string) (string, error) {
	if fileutil.IsURL(address) {
		return address, nil
	}
	if err := validateBaseURL(baseURL); err != nil {
		return "", err
	}
	if !strings.HasPrefix(address, "/") {
		address = "/" + address
	}
	return strings.TrimRight(baseURL, "/") + address, nil
}

func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return nil
}

// RodLauncher starts headless Chrome through go-rod.
// Rod downloads Chromium on first run if no browser is found.
type RodLauncher struct {
	settings RenderSettings
}

// NewRodLauncher validates settings and returns a launcher.
func NewRodLauncher(settings RenderSettings) (*RodLauncher, error) {
	if err := validateBaseURL(settings.BaseURL); err != nil {
		return nil, err
	}
	if _, err := ParsePageFormat(string(settings.Format)); err != nil {
		return nil, err
	}
	return &RodLauncher{settings: settings.withDefaults()}, nil
}

// Open launches a browser and prepares one reusable page.
func (l *RodLauncher) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lch := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		lch = lch.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		lch = lch.NoSandbox(true)
	}

	u, err := lch.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		killLauncher(lch)
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		killLauncher(lch)
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	if l.settings.Format == Continuous {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             ContinuousWidthPx,
			Height:            900,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = browser.Close()
			killLauncher(lch)
			return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
		}
	}

	return &rodSession{
		settings: l.settings,
		launcher: lch,
		browser:  browser,
		page:     page,
	}, nil
}

// killLauncher is the fallback when the browser cannot be closed over CDP.
func killLauncher(l *launcher.Launcher) {
	_ = process.KillGroup(l.PID())
	l.Kill()
	l.Cleanup()
}

// rodSession reuses one page for every render. Navigation is exclusive, so
// renders are serialized by mu.
type rodSession struct {
	mu       sync.Mutex
	settings RenderSettings
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	closed   bool
}

// Render implements Session.
func (s *rodSession) Render(ctx context.Context, address string, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &RenderFailure{Address: address, Cause: ErrSessionClosed}
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}

	doc, err := s.render(ctx, address, timeout)
	if err != nil {
		return nil, &RenderFailure{Address: address, Cause: err}
	}
	return doc, nil
}

func (s *rodSession) render(ctx context.Context, address string, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := ResolveAddress(s.settings.BaseURL, address)
	if err != nil {
		return nil, err
	}

	if err := s.navigate(ctx, target, timeout); err != nil {
		return nil, err
	}

	// Late client-side rendering (carousels, lazy images) gets a fixed grace period.
	if s.settings.Settle > 0 {
		timer := time.NewTimer(s.settings.Settle)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	page := s.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	if s.settings.CSS != "" {
		if err := page.AddStyleTag("", s.settings.CSS); err != nil {
			return nil, fmt.Errorf("%w: injecting print stylesheet: %v", ErrPageLoad, err)
		}
	}

	if s.settings.Script != "" {
		if _, err := page.Eval(pageScript(s.settings.Script)); err != nil {
			return nil, fmt.Errorf("%w: running page script: %v", ErrPageLoad, err)
		}
	}

	opts, err := s.printOptions(page)
	if err != nil {
		return nil, err
	}

	reader, err := page.PDF(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	doc, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return doc, nil
}

// navigate loads target and waits for network idle, both bounded by timeout.
func (s *rodSession) navigate(ctx context.Context, target string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := s.page.Context(navCtx)
	wait := page.WaitRequestIdle(s.settings.Idle, nil, nil, nil)
	if err := page.Navigate(target); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrPageLoad, target, err)
	}
	wait()

	if err := navCtx.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: network not idle within %s: %w", ErrPageLoad, target, timeout, context.DeadlineExceeded)
	}
	return nil
}

// pageScript wraps a script body in the function expression rod evaluates.
// A returned promise is awaited.
func pageScript(body string) string {
	return "async () => {\n" + body + "\n}"
}

// measureHeightJS returns the document height in CSS pixels. The footer's
// bottom edge wins when present so trailing whitespace is not printed.
const measureHeightJS = `() => {
	const footer = document.querySelector('footer');
	if (footer) {
		return Math.ceil(footer.getBoundingClientRect().bottom + window.scrollY) + 2;
	}
	return Math.ceil(document.documentElement.scrollHeight);
}`

func (s *rodSession) printOptions(page *rod.Page) (*proto.PagePrintToPDF, error) {
	var contentHeight float64
	if s.settings.Format == Continuous {
		res, err := page.Eval(measureHeightJS)
		if err != nil {
			return nil, fmt.Errorf("%w: measuring page height: %v", ErrPDFGeneration, err)
		}
		contentHeight = res.Value.Num()
		if contentHeight <= 0 {
			return nil, fmt.Errorf("%w: page height is %v", ErrPDFGeneration, contentHeight)
		}
	}

	width, height := s.settings.Format.PaperSize(contentHeight)
	opts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(0),
		MarginBottom:    floatPtr(0),
		MarginLeft:      floatPtr(0),
		MarginRight:     floatPtr(0),
		PrintBackground: true,
	}
	if s.settings.Format == Continuous {
		opts.PageRanges = "1"
	}
	return opts, nil
}

// Close releases the browser. Safe to call more than once.
func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.browser.Close()
	killLauncher(s.launcher)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
