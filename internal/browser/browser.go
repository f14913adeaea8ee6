// Package browser owns the live browser used by a booking run.
package browser

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"

	"github.com/example/tablebook/internal/statestore"
	"github.com/example/tablebook/internal/workflow"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

type Options struct {
	Headless bool
	Timeout  time.Duration
	// StateKey names the saved storage state, usually the site host.
	StateKey string
	// Store is optional. Without it every run starts from a fresh profile.
	Store *statestore.Store
	Log   *slog.Logger
}

// Launcher opens browser sessions. It satisfies the booking service's
// session opener.
type Launcher struct {
	opts Options
}

func NewLauncher(opts Options) *Launcher {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Launcher{opts: opts}
}

// StateKey derives a storage-state name from a site URL.
func StateKey(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "default"
	}
	return strings.ReplaceAll(strings.ToLower(u.Hostname()), ":", "_")
}

func (l *Launcher) Open(ctx context.Context) (workflow.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.Wrap(err, "start playwright")
	}
	s := &Session{pw: pw, opts: l.opts, log: l.opts.Log}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "launch browser")
	}
	s.browser = b

	bc, err := s.newContext()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.context = bc

	page, err := bc.NewPage()
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "open page")
	}
	ms := float64(l.opts.Timeout.Milliseconds())
	page.SetDefaultTimeout(ms)
	page.SetDefaultNavigationTimeout(ms)
	s.page = page
	return s, nil
}

// Session is a live browser page. Close releases the page, context,
// browser and driver exactly once and persists storage state if a store is
// configured.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	log     *slog.Logger

	once     sync.Once
	closeErr error
}

func (s *Session) newContext() (playwright.BrowserContext, error) {
	opts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1280, Height: 800},
	}

	if path, ok := s.restoreState(); ok {
		defer os.Remove(path)
		opts.StorageStatePath = playwright.String(path)
		bc, err := s.browser.NewContext(opts)
		if err == nil {
			s.log.Info("restored browser state", "key", s.opts.StateKey)
			return bc, nil
		}
		s.log.Warn("restoring browser state failed, starting fresh", "error", err)
		opts.StorageStatePath = nil
	}

	bc, err := s.browser.NewContext(opts)
	if err != nil {
		return nil, errors.Wrap(err, "create browser context")
	}
	return bc, nil
}

// restoreState writes the unsealed state to a private temp file for the
// driver to read.
func (s *Session) restoreState() (string, bool) {
	if s.opts.Store == nil || s.opts.StateKey == "" {
		return "", false
	}
	state, err := s.opts.Store.Load(s.opts.StateKey)
	if err != nil {
		if !errors.Is(err, statestore.ErrNotFound) {
			s.log.Warn("saved browser state unusable", "error", err)
		}
		return "", false
	}
	f, err := os.CreateTemp("", "tablebook-state-*.json")
	if err != nil {
		return "", false
	}
	defer f.Close()
	if _, err := f.Write(state); err != nil {
		os.Remove(f.Name())
		return "", false
	}
	return f.Name(), true
}

func (s *Session) saveState() error {
	if s.opts.Store == nil || s.opts.StateKey == "" || s.context == nil {
		return nil
	}
	f, err := os.CreateTemp("", "tablebook-state-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if _, err := s.context.StorageState(path); err != nil {
		return errors.Wrap(err, "export storage state")
	}
	state, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read storage state")
	}
	return s.opts.Store.Save(s.opts.StateKey, state)
}

func (s *Session) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.page == nil {
		return errors.New("browser session is closed")
	}
	_, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return errors.Wrapf(err, "goto %s", target)
}

func (s *Session) CurrentLocation() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

// HTML returns the current document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.page == nil {
		return "", errors.New("browser session is closed")
	}
	html, err := s.page.Content()
	return html, errors.Wrap(err, "read page content")
}

func (s *Session) Click(ctx context.Context, selector string) error {
	loc, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}
	return errors.Wrapf(loc.Click(), "click %s", selector)
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	loc, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}
	return errors.Wrapf(loc.Fill(value), "fill %s", selector)
}

func (s *Session) Press(ctx context.Context, selector, key string) error {
	loc, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}
	return errors.Wrapf(loc.Press(key), "press %s on %s", key, selector)
}

func (s *Session) Check(ctx context.Context, selector string) error {
	loc, err := s.locate(ctx, selector)
	if err != nil {
		return err
	}
	return errors.Wrapf(loc.Check(), "check %s", selector)
}

func (s *Session) locate(ctx context.Context, selector string) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.page == nil {
		return nil, errors.New("browser session is closed")
	}
	return s.page.Locator(selector).First(), nil
}

func (s *Session) Close() error {
	s.once.Do(func() {
		var errs []error
		if err := s.saveState(); err != nil {
			s.log.Warn("saving browser state failed", "error", err)
		}
		if s.page != nil {
			errs = append(errs, s.page.Close())
		}
		if s.context != nil {
			errs = append(errs, s.context.Close())
		}
		if s.browser != nil {
			errs = append(errs, s.browser.Close())
		}
		if s.pw != nil {
			errs = append(errs, s.pw.Stop())
		}
		for _, err := range errs {
			if err != nil && s.closeErr == nil {
				s.closeErr = errors.Wrap(err, "close browser")
			}
		}
		s.page, s.context, s.browser, s.pw = nil, nil, nil, nil
	})
	return s.closeErr
}
