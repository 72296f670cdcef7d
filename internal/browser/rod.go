package browser

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodLauncher starts Chrome through go-rod's launcher.
type RodLauncher struct {
	opts Options
}

// NewRodLauncher creates a rod-backed launcher.
func NewRodLauncher(opts Options) *RodLauncher {
	return &RodLauncher{opts: opts.withDefaults()}
}

// Name implements Launcher.
func (l *RodLauncher) Name() string { return "rod" }

// Launch starts a browser process, connects to it and opens a blank page.
// A launch abandoned on timeout or cancellation is reaped in the background
// once it completes, so no browser outlives the call.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	lch := launcher.New().
		Context(ctx).
		Headless(l.opts.Headless).
		NoSandbox(l.opts.NoSandbox).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("window-size", fmt.Sprintf("%d,%d", l.opts.Width, l.opts.Height)).
		Set("user-agent", l.opts.UserAgent)
	if l.opts.ExecPath != "" {
		lch = lch.Bin(l.opts.ExecPath)
	}

	started := make(chan rodStart, 1)
	go func() {
		b, p, err := l.connect(lch)
		started <- rodStart{b, p, err}
	}()

	timer := time.NewTimer(l.opts.StartTimeout)
	defer timer.Stop()

	select {
	case r := <-started:
		s := &rodSession{launcher: lch, browser: r.browser, page: r.page}
		if r.err != nil {
			s.Close()
			return nil, r.err
		}
		return s, nil
	case <-timer.C:
		go reapRodStart(lch, started)
		return nil, ErrStartTimeout
	case <-ctx.Done():
		go reapRodStart(lch, started)
		return nil, ctx.Err()
	}
}

type rodStart struct {
	browser *rod.Browser
	page    *rod.Page
	err     error
}

// reapRodStart waits for an abandoned launch and tears down whatever it started.
func reapRodStart(lch *launcher.Launcher, started <-chan rodStart) {
	r := <-started
	s := &rodSession{launcher: lch, browser: r.browser, page: r.page}
	s.Close()
}

func (l *RodLauncher) connect(lch *launcher.Launcher) (*rod.Browser, *rod.Page, error) {
	url, err := lch.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	p, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return b, nil, fmt.Errorf("open page: %w", err)
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.opts.Width,
		Height:            l.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return b, p, fmt.Errorf("set viewport: %w", err)
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: l.opts.UserAgent}); err != nil {
		return b, p, fmt.Errorf("set user agent: %w", err)
	}
	return b, p, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	mu     sync.Mutex
	closed bool
}

func (s *rodSession) op(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.page == nil {
		return nil, ErrClosed
	}
	return s.page.Context(ctx), nil
}

// settle runs trigger and waits for the navigation it starts to go network-idle.
func settle(ctx context.Context, p *rod.Page, trigger func() error) error {
	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := trigger(); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p, err := s.op(ctx)
	if err != nil {
		return err
	}
	return settle(ctx, p, func() error { return p.Navigate(url) })
}

func (s *rodSession) Fill(ctx context.Context, selector, value string) error {
	p, err := s.op(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	if err := el.WaitVisible(); err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

func (s *rodSession) Submit(ctx context.Context, selector string) error {
	p, err := s.op(ctx)
	if err != nil {
		return err
	}
	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return settle(ctx, p, func() error { return el.Click(proto.InputMouseButtonLeft, 1) })
}

func linkPattern(m LinkMatcher) string {
	pattern := regexp.QuoteMeta(m.Text)
	if m.Exact {
		pattern = `^\s*` + pattern + `\s*$`
	}
	return pattern
}

func (s *rodSession) HasLink(ctx context.Context, m LinkMatcher) (bool, error) {
	p, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	has, _, err := p.HasR("a", linkPattern(m))
	return has, err
}

func (s *rodSession) ClickLink(ctx context.Context, m LinkMatcher) (bool, error) {
	p, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	has, el, err := p.HasR("a", linkPattern(m))
	if err != nil || !has {
		return false, err
	}
	return true, settle(ctx, p, func() error { return el.Click(proto.InputMouseButtonLeft, 1) })
}

func (s *rodSession) Exists(ctx context.Context, selector string) (bool, error) {
	p, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	has, _, err := p.Has(selector)
	return has, err
}

func (s *rodSession) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	p, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	el, err := p.Element(selector)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	p, err := s.op(ctx)
	if err != nil {
		return "", err
	}
	return p.HTML()
}

func (s *rodSession) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	p, err := s.op(ctx)
	if err != nil {
		return nil, err
	}

	width, height := opts.PaperInches()
	margin := opts.MarginInches()
	r, err := p.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &width,
		PaperHeight:     &height,
		MarginTop:       &margin,
		MarginRight:     &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		PrintBackground: opts.PrintBackground,
	})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func (s *rodSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil && s.launcher.PID() != 0 {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	if err != nil && s.page != nil {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}
