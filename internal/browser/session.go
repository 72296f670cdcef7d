// Package browser owns headless browser processes. A Session is one browser
// with one tab, bound to a single consultation and closed when it ends.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("browser: session is closed")
	// ErrStartTimeout is returned when the browser does not come up in time.
	ErrStartTimeout = errors.New("browser: start timed out")
)

// Session is one live browser tab.
//
// Every blocking call honors the deadline of ctx. Timeouts surface as
// errors matching context.DeadlineExceeded.
type Session interface {
	// Navigate loads url and waits until network activity settles.
	Navigate(ctx context.Context, url string) error
	// Fill waits for selector to be visible and replaces its value.
	Fill(ctx context.Context, selector, value string) error
	// Submit clicks selector and waits for the resulting page to settle.
	Submit(ctx context.Context, selector string) error
	// HasLink reports whether an anchor whose text satisfies m is present now.
	HasLink(ctx context.Context, m LinkMatcher) (bool, error)
	// ClickLink clicks the first anchor whose text satisfies m and waits
	// for the page to settle. It does not wait for the anchor to appear:
	// clicked is false when no anchor matches right now.
	ClickLink(ctx context.Context, m LinkMatcher) (clicked bool, err error)
	// Exists reports whether selector currently matches an element.
	Exists(ctx context.Context, selector string) (bool, error)
	// ScreenshotElement returns a PNG of the first element matching selector.
	ScreenshotElement(ctx context.Context, selector string) ([]byte, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// PrintPDF renders the current page with the browser's print pipeline.
	PrintPDF(ctx context.Context, opts PDFOptions) ([]byte, error)
	// Close tears the browser down. It is idempotent.
	Close() error
}

// Launcher starts sessions for one driver.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
	Name() string
}

// Options configures the browser process behind a session.
type Options struct {
	Headless     bool
	NoSandbox    bool
	Width        int
	Height       int
	UserAgent    string
	ExecPath     string
	DriverPath   string
	StartTimeout time.Duration
}

// DefaultOptions returns a headless, sandbox-less 1366x768 desktop profile.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		NoSandbox:    true,
		Width:        1366,
		Height:       768,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
		StartTimeout: 30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.StartTimeout <= 0 {
		o.StartTimeout = d.StartTimeout
	}
	return o
}

// LinkMatcher selects an anchor by its visible text.
type LinkMatcher struct {
	Text  string
	Exact bool
}

// String is used in logs.
func (m LinkMatcher) String() string {
	if m.Exact {
		return "exact:" + m.Text
	}
	return "contains:" + m.Text
}

// PDFOptions describes print-to-PDF output. Sizes are in centimeters.
type PDFOptions struct {
	PaperWidthCM    float64
	PaperHeightCM   float64
	MarginCM        float64
	PrintBackground bool
}

// A4 returns A4 portrait options with a uniform margin.
func A4(marginCM float64, background bool) PDFOptions {
	return PDFOptions{
		PaperWidthCM:    21.0,
		PaperHeightCM:   29.7,
		MarginCM:        marginCM,
		PrintBackground: background,
	}
}

func cmToInches(cm float64) float64 {
	return cm / 2.54
}

// PaperInches returns the paper size in inches.
func (o PDFOptions) PaperInches() (width, height float64) {
	return cmToInches(o.PaperWidthCM), cmToInches(o.PaperHeightCM)
}

// MarginInches returns the uniform margin in inches.
func (o PDFOptions) MarginInches() float64 {
	return cmToInches(o.MarginCM)
}

// within derives a context bounded by the caller's deadline and cancellation
// from a driver-owned parent context.
func within(parent, caller context.Context) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if deadline, ok := caller.Deadline(); ok {
		ctx, cancel = context.WithDeadline(parent, deadline)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// remaining returns the time left before ctx's deadline, or fallback.
func remaining(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return fallback
}
