package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher starts Chromium through the Playwright driver.
type PlaywrightLauncher struct {
	opts Options
}

// NewPlaywrightLauncher creates a playwright-backed launcher. Options.DriverPath
// points at a pre-installed driver; browsers are never downloaded at runtime.
func NewPlaywrightLauncher(opts Options) *PlaywrightLauncher {
	return &PlaywrightLauncher{opts: opts.withDefaults()}
}

// Name implements Launcher.
func (l *PlaywrightLauncher) Name() string { return "playwright" }

// Launch starts the driver, a Chromium instance and one page.
func (l *PlaywrightLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &playwrightSession{}

	runOpts := &playwright.RunOptions{SkipInstallBrowsers: true}
	if l.opts.DriverPath != "" {
		runOpts.DriverDirectory = l.opts.DriverPath
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s.pw = pw

	args := []string{"--disable-dev-shm-usage", "--disable-gpu"}
	if l.opts.NoSandbox {
		args = append(args, "--no-sandbox", "--disable-setuid-sandbox")
	}
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     args,
		Timeout:  playwright.Float(millis(remaining(ctx, l.opts.StartTimeout))),
	}
	if l.opts.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ExecPath)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chromium: %w", playwrightErr(err))
	}
	s.browser = b

	page, err := b.NewPage(playwright.BrowserNewPageOptions{
		Viewport:  &playwright.Size{Width: l.opts.Width, Height: l.opts.Height},
		UserAgent: playwright.String(l.opts.UserAgent),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page
	return s, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

// playwrightErr maps driver timeouts onto context.DeadlineExceeded.
func playwrightErr(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// op returns the page and the time left on ctx in milliseconds.
func (s *playwrightSession) op(ctx context.Context) (playwright.Page, *float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.page == nil {
		return nil, nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return s.page, playwright.Float(millis(remaining(ctx, 30*time.Second))), nil
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	page, timeout, err := s.op(ctx)
	if err != nil {
		return err
	}
	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   timeout,
	})
	return playwrightErr(err)
}

func (s *playwrightSession) Fill(ctx context.Context, selector, value string) error {
	page, timeout, err := s.op(ctx)
	if err != nil {
		return err
	}
	return playwrightErr(page.Locator(selector).Fill(value, playwright.LocatorFillOptions{Timeout: timeout}))
}

func (s *playwrightSession) Submit(ctx context.Context, selector string) error {
	page, timeout, err := s.op(ctx)
	if err != nil {
		return err
	}
	if err := page.Locator(selector).First().Click(playwright.LocatorClickOptions{Timeout: timeout}); err != nil {
		return playwrightErr(err)
	}
	return s.waitIdle(ctx, page)
}

func (s *playwrightSession) waitIdle(ctx context.Context, page playwright.Page) error {
	return playwrightErr(page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(millis(remaining(ctx, 30*time.Second))),
	}))
}

func linkLocator(page playwright.Page, m LinkMatcher) (playwright.Locator, error) {
	label, err := json.Marshal(m.Text)
	if err != nil {
		return nil, err
	}
	pseudo := "has-text"
	if m.Exact {
		pseudo = "text-is"
	}
	return page.Locator(fmt.Sprintf("a:%s(%s)", pseudo, label)), nil
}

func (s *playwrightSession) HasLink(ctx context.Context, m LinkMatcher) (bool, error) {
	page, _, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	link, err := linkLocator(page, m)
	if err != nil {
		return false, err
	}
	count, err := link.Count()
	return count > 0, playwrightErr(err)
}

func (s *playwrightSession) ClickLink(ctx context.Context, m LinkMatcher) (bool, error) {
	page, timeout, err := s.op(ctx)
	if err != nil {
		return false, err
	}

	link, err := linkLocator(page, m)
	if err != nil {
		return false, err
	}
	count, err := link.Count()
	if err != nil || count == 0 {
		return false, playwrightErr(err)
	}
	if err := link.First().Click(playwright.LocatorClickOptions{Timeout: timeout}); err != nil {
		return true, playwrightErr(err)
	}
	return true, s.waitIdle(ctx, page)
}

func (s *playwrightSession) Exists(ctx context.Context, selector string) (bool, error) {
	page, _, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	count, err := page.Locator(selector).Count()
	return count > 0, playwrightErr(err)
}

func (s *playwrightSession) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	page, timeout, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	buf, err := page.Locator(selector).First().Screenshot(playwright.LocatorScreenshotOptions{Timeout: timeout})
	return buf, playwrightErr(err)
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	page, _, err := s.op(ctx)
	if err != nil {
		return "", err
	}
	return page.Content()
}

func (s *playwrightSession) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	page, _, err := s.op(ctx)
	if err != nil {
		return nil, err
	}

	cm := func(v float64) *string {
		return playwright.String(strconv.FormatFloat(v, 'f', -1, 64) + "cm")
	}
	buf, err := page.PDF(playwright.PagePdfOptions{
		Width:           cm(opts.PaperWidthCM),
		Height:          cm(opts.PaperHeightCM),
		PrintBackground: playwright.Bool(opts.PrintBackground),
		Margin: &playwright.Margin{
			Top:    cm(opts.MarginCM),
			Right:  cm(opts.MarginCM),
			Bottom: cm(opts.MarginCM),
			Left:   cm(opts.MarginCM),
		},
	})
	return buf, playwrightErr(err)
}

func (s *playwrightSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chromium: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
