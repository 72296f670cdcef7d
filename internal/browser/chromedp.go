package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// commitGrace is how long a trigger may take to start a new document before
// the session falls back to polling document.readyState.
const commitGrace = 3 * time.Second

// ChromedpLauncher starts Chrome through the DevTools protocol.
type ChromedpLauncher struct {
	opts Options
}

// NewChromedpLauncher creates a chromedp-backed launcher.
func NewChromedpLauncher(opts Options) *ChromedpLauncher {
	return &ChromedpLauncher{opts: opts.withDefaults()}
}

// Name implements Launcher.
func (l *ChromedpLauncher) Name() string { return "chromedp" }

// Launch starts a browser process and opens its first tab.
func (l *ChromedpLauncher) Launch(ctx context.Context) (Session, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-features", "TranslateUI"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(l.opts.Width, l.opts.Height),
		chromedp.UserAgent(l.opts.UserAgent),
	}
	if l.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if l.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}

	// The browser outlives individual calls; only Close ends it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true))
	}()

	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-time.After(l.opts.StartTimeout):
		s.Close()
		return nil, ErrStartTimeout
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}

	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		s.mainFrame = cdp.FrameID(c.Target.TargetID)
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return s, nil
}

type chromedpSession struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	mainFrame   cdp.FrameID

	mu      sync.Mutex
	started bool
	closed  bool
}

func (s *chromedpSession) op(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}
	opCtx, cancel := within(s.tabCtx, ctx)
	return opCtx, cancel, nil
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	_, err := s.runSettled(ctx, func(opCtx context.Context) (bool, error) {
		return true, chromedp.Run(opCtx, chromedp.Navigate(url))
	})
	return err
}

func (s *chromedpSession) Fill(ctx context.Context, selector, value string) error {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(opCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (s *chromedpSession) Submit(ctx context.Context, selector string) error {
	_, err := s.runSettled(ctx, func(opCtx context.Context) (bool, error) {
		return true, chromedp.Run(opCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	})
	return err
}

const clickLinkJS = `(() => {
	const want = %s;
	const exact = %t;
	const click = %t;
	const norm = s => (s || "").replace(/\s+/g, " ").trim();
	for (const a of document.querySelectorAll("a")) {
		const text = norm(a.innerText || a.textContent);
		if (exact ? text === want : text.includes(want)) {
			if (click) {
				a.click();
			}
			return true;
		}
	}
	return false;
})()`

func (s *chromedpSession) HasLink(ctx context.Context, m LinkMatcher) (bool, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	label, err := json.Marshal(m.Text)
	if err != nil {
		return false, err
	}
	var found bool
	err = chromedp.Run(opCtx, chromedp.Evaluate(fmt.Sprintf(clickLinkJS, label, m.Exact, false), &found))
	return found, err
}

func (s *chromedpSession) ClickLink(ctx context.Context, m LinkMatcher) (bool, error) {
	label, err := json.Marshal(m.Text)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(clickLinkJS, label, m.Exact, true)

	return s.runSettled(ctx, func(opCtx context.Context) (bool, error) {
		var clicked bool
		if err := chromedp.Run(opCtx, chromedp.Evaluate(script, &clicked)); err != nil {
			return false, err
		}
		return clicked, nil
	})
}

func (s *chromedpSession) Exists(ctx context.Context, selector string) (bool, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	sel, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	var found bool
	err = chromedp.Run(opCtx, chromedp.Evaluate(fmt.Sprintf("document.querySelector(%s) !== null", sel), &found))
	return found, err
}

func (s *chromedpSession) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var buf []byte
	if err := chromedp.Run(opCtx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var html string
	err = chromedp.Run(opCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	width, height := opts.PaperInches()
	margin := opts.MarginInches()

	var buf []byte
	err = chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPaperWidth(width).
			WithPaperHeight(height).
			WithMarginTop(margin).
			WithMarginRight(margin).
			WithMarginBottom(margin).
			WithMarginLeft(margin).
			WithPrintBackground(opts.PrintBackground).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	return buf, err
}

func (s *chromedpSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	if s.started && err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

// runSettled runs trigger and, when it reports that it acted, waits until the
// main frame commits a new document and goes network-idle. Triggers that do
// not start a navigation settle once document.readyState is complete.
func (s *chromedpSession) runSettled(ctx context.Context, trigger func(context.Context) (bool, error)) (bool, error) {
	opCtx, cancel, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	committed := make(chan struct{})
	idle := make(chan struct{})
	var commitOnce, idleOnce sync.Once
	var mu sync.Mutex
	seenInit := false

	listenCtx, stop := context.WithCancel(opCtx)
	defer stop()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || (s.mainFrame != "" && e.FrameID != s.mainFrame) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch e.Name {
		case "init":
			seenInit = true
			commitOnce.Do(func() { close(committed) })
		case "networkIdle":
			if seenInit {
				idleOnce.Do(func() { close(idle) })
			}
		}
	})

	acted, err := trigger(opCtx)
	if err != nil || !acted {
		return acted, err
	}

	select {
	case <-committed:
		select {
		case <-idle:
			return true, nil
		case <-opCtx.Done():
			return true, opCtx.Err()
		}
	case <-time.After(commitGrace):
		return true, s.waitReadyState(opCtx)
	case <-opCtx.Done():
		return true, opCtx.Err()
	}
}

func (s *chromedpSession) waitReadyState(ctx context.Context) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		var state string
		if err := chromedp.Run(ctx, chromedp.Evaluate("document.readyState", &state)); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
