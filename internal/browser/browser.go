// Package browser launches isolated, fingerprint-randomized browser
// sessions, each wired to a fresh rotating-proxy session via a generated
// extension artifact.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/tutomart/pricescout/internal/coordinate"
	"github.com/tutomart/pricescout/internal/proxy"
)

const launchAttempts = 3

// Options configures the session factory.
type Options struct {
	Headless     bool
	PageTimeout  time.Duration
	Fingerprints []Fingerprint
}

// DefaultOptions returns the factory defaults.
func DefaultOptions() *Options {
	return &Options{
		Headless:    true,
		PageTimeout: 45 * time.Second,
	}
}

// Factory launches one browser session per scrape attempt. Launches go
// through a gate so simultaneous heavy process spawns cannot pull down the
// host; the gate is owned by the factory, not process-wide, so tests can
// instantiate independent factories.
type Factory struct {
	opts    *Options
	gateway proxy.Gateway
	gate    *coordinate.LaunchGate
	logger  *slog.Logger
}

// NewFactory creates a session factory. A nil gate gets a private
// single-slot gate.
func NewFactory(opts *Options, gateway proxy.Gateway, gate *coordinate.LaunchGate, logger *slog.Logger) *Factory {
	if opts == nil {
		opts = DefaultOptions()
	}
	if gate == nil {
		gate = coordinate.NewLaunchGate(1)
	}
	return &Factory{
		opts:    opts,
		gateway: gateway,
		gate:    gate,
		logger:  logger.With("component", "browser_factory"),
	}
}

// Start launches a session carrying a fresh proxy session and a randomized
// fingerprint. The browser binary occasionally fails to come up, so the
// launch itself is attempted up to three times with full cleanup of partial
// state in between. On success the caller owns Session.Close.
func (f *Factory) Start(ctx context.Context) (*Session, error) {
	proxySession := proxy.NewSession(f.gateway)
	artifact, err := proxy.BuildExtension(proxySession)
	if err != nil {
		return nil, fmt.Errorf("build proxy extension: %w", err)
	}

	fp := pickFingerprint(f.opts.Fingerprints)

	if err := f.gate.Acquire(ctx); err != nil {
		os.RemoveAll(artifact)
		return nil, err
	}
	defer f.gate.Release()

	var lastErr error
	for attempt := 1; attempt <= launchAttempts; attempt++ {
		if attempt > 1 {
			f.logger.Warn("browser launch retry", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				os.RemoveAll(artifact)
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		sess, err := f.launch(artifact, fp, proxySession.ID)
		if err == nil {
			f.logger.Info("session started",
				"proxy_session", proxySession.ID,
				"user_agent", fp.UserAgent,
				"viewport", fmt.Sprintf("%dx%d", fp.ViewportWidth, fp.ViewportHeight),
			)
			return sess, nil
		}
		lastErr = err
	}

	os.RemoveAll(artifact)
	return nil, fmt.Errorf("browser failed to start after %d attempts: %w", launchAttempts, lastErr)
}

func (f *Factory) launch(artifact string, fp Fingerprint, sessionID string) (*Session, error) {
	profileDir, err := os.MkdirTemp("", fmt.Sprintf("pricescout-profile-%s-", sessionID))
	if err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	headlessArg := "--headless=new"
	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-gpu",
		"--disable-popup-blocking",
		fmt.Sprintf("--window-size=%d,%d", fp.ViewportWidth, fp.ViewportHeight),
		"--disable-extensions-except=" + artifact,
		"--load-extension=" + artifact,
	}
	if f.opts.Headless {
		args = append(args, headlessArg)
	}

	// Extensions only load in a persistent context, so the profile dir
	// doubles as the user data dir.
	context, err := pw.Chromium.LaunchPersistentContext(profileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:  playwright.Bool(false),
		Args:      args,
		UserAgent: playwright.String(fp.UserAgent),
		Viewport: &playwright.Size{
			Width:  fp.ViewportWidth,
			Height: fp.ViewportHeight,
		},
		Locale:     playwright.String(fp.Locale),
		TimezoneId: playwright.String(fp.TimezoneID),
	})
	if err != nil {
		pw.Stop()
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		pw.Stop()
		os.RemoveAll(profileDir)
		return nil, fmt.Errorf("open page: %w", err)
	}
	page.SetDefaultTimeout(float64(f.opts.PageTimeout.Milliseconds()))

	return &Session{
		pw:         pw,
		context:    context,
		page:       page,
		profileDir: profileDir,
		artifact:   artifact,
		timeout:    f.opts.PageTimeout,
		logger:     f.logger.With("proxy_session", sessionID),
	}, nil
}

// Session is one live browser session. It serves exactly one adapter
// invocation and is torn down on every exit path.
type Session struct {
	pw         *playwright.Playwright
	context    playwright.BrowserContext
	page       playwright.Page
	profileDir string
	artifact   string
	timeout    time.Duration
	logger     *slog.Logger
}

// Fetch navigates to url and returns the rendered page content. A few
// randomized scroll nudges run first so lazy-loaded cards render and the
// traffic looks less mechanical.
func (s *Session) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	s.jiggle()

	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return content, nil
}

func (s *Session) jiggle() {
	nudges := 2 + rand.Intn(3)
	for i := 0; i < nudges; i++ {
		amount := 300 + rand.Intn(500)
		s.page.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", amount))
		time.Sleep(time.Duration(500+rand.Intn(1000)) * time.Millisecond)
	}
	s.page.Evaluate("window.scrollBy(0, -300)")
}

// SetCookie installs a cookie on the session, used by the Amazon adapter
// to pin the display currency before searching.
func (s *Session) SetCookie(name, value, domain string) error {
	return s.context.AddCookies([]playwright.OptionalCookie{{
		Name:   name,
		Value:  value,
		Domain: playwright.String(domain),
		Path:   playwright.String("/"),
	}})
}

// Close kills the browser process and removes the profile directory and
// the proxy extension artifact. Leaking either is a correctness bug.
func (s *Session) Close() error {
	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	if err := os.RemoveAll(s.profileDir); err != nil {
		errs = append(errs, fmt.Errorf("remove profile dir: %w", err))
	}
	if err := os.RemoveAll(s.artifact); err != nil {
		errs = append(errs, fmt.Errorf("remove proxy artifact: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("session teardown: %v", errs)
	}
	return nil
}
