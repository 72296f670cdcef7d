package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/browser"
)

// Timeouts bounds every blocking step of the workflow.
type Timeouts struct {
	Navigation  time.Duration
	Element     time.Duration
	Submit      time.Duration
	Link        time.Duration
	Capture     time.Duration
	Probe       time.Duration
	SettleDelay time.Duration
}

// DefaultTimeouts mirrors the portal's typical latencies.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:  30 * time.Second,
		Element:     10 * time.Second,
		Submit:      30 * time.Second,
		Link:        10 * time.Second,
		Capture:     30 * time.Second,
		Probe:       2 * time.Second,
		SettleDelay: 2 * time.Second,
	}
}

const linkPollInterval = 250 * time.Millisecond

// Navigator turns portal intents into bounded session calls and classifies
// their failures. Returned errors are *Error without a stage.
type Navigator struct {
	session  browser.Session
	timeouts Timeouts
	poll     time.Duration
}

// NewNavigator binds a navigator to one session.
func NewNavigator(s browser.Session, t Timeouts) *Navigator {
	return &Navigator{session: s, timeouts: t, poll: linkPollInterval}
}

// Open loads url and waits for the network to settle.
func (n *Navigator) Open(ctx context.Context, url string) error {
	stepCtx, cancel := context.WithTimeout(ctx, n.timeouts.Navigation)
	defer cancel()

	if err := n.session.Navigate(stepCtx, url); err != nil {
		if isTimeout(err) {
			return NewError(KindNavigationTimeout, "", fmt.Errorf("open %s: %w", url, err))
		}
		return NewError(KindUnexpected, "", fmt.Errorf("open %s: %w", url, err))
	}
	return nil
}

// FillField waits for selector and types value into it.
func (n *Navigator) FillField(ctx context.Context, selector, value string) error {
	stepCtx, cancel := context.WithTimeout(ctx, n.timeouts.Element)
	defer cancel()

	if err := n.session.Fill(stepCtx, selector, value); err != nil {
		if isTimeout(err) {
			return NewError(KindElementNotFound, "", fmt.Errorf("field %s: %w", selector, err))
		}
		return NewError(KindUnexpected, "", fmt.Errorf("fill %s: %w", selector, err))
	}
	return nil
}

// Submit clicks selector and waits for the resulting page to settle.
func (n *Navigator) Submit(ctx context.Context, selector string) error {
	stepCtx, cancel := context.WithTimeout(ctx, n.timeouts.Submit)
	defer cancel()

	if err := n.session.Submit(stepCtx, selector); err != nil {
		if isTimeout(err) {
			return NewError(KindSubmitTimeout, "", fmt.Errorf("submit %s: %w", selector, err))
		}
		return NewError(KindUnexpected, "", fmt.Errorf("submit %s: %w", selector, err))
	}
	return nil
}

// ClickLink tries matchers in priority order, polling until one matches or
// the link budget is spent. Lookups share that budget; once a link is found,
// the click and the navigation it triggers get their own navigation budget.
func (n *Navigator) ClickLink(ctx context.Context, matchers []browser.LinkMatcher) (browser.LinkMatcher, error) {
	if len(matchers) == 0 {
		return browser.LinkMatcher{}, NewError(KindLinkNotFound, "", fmt.Errorf("no link matchers"))
	}

	deadline := time.Now().Add(n.timeouts.Link)
	var lastErr error
	for {
		for _, m := range matchers {
			probeCtx, cancel := context.WithDeadline(ctx, deadline)
			found, err := n.session.HasLink(probeCtx, m)
			cancel()
			if err != nil {
				lastErr = err
				continue
			}
			if !found {
				continue
			}

			clicked, err := n.follow(ctx, m)
			switch {
			case clicked && err == nil:
				return m, nil
			case clicked && isTimeout(err):
				return m, NewError(KindNavigationTimeout, "", fmt.Errorf("follow link %s: %w", m, err))
			case clicked:
				return m, NewError(KindUnexpected, "", fmt.Errorf("follow link %s: %w", m, err))
			case err != nil:
				lastErr = err
			}
		}

		if err := ctx.Err(); err != nil {
			return browser.LinkMatcher{}, NewError(KindLinkNotFound, "", fmt.Errorf("link search interrupted: %w", err))
		}
		if !time.Now().Add(n.poll).Before(deadline) {
			break
		}
		select {
		case <-time.After(n.poll):
		case <-ctx.Done():
		}
	}

	if lastErr != nil {
		return browser.LinkMatcher{}, NewError(KindLinkNotFound, "", fmt.Errorf("no link matched %v within %s: %w", matchers, n.timeouts.Link, lastErr))
	}
	return browser.LinkMatcher{}, NewError(KindLinkNotFound, "", fmt.Errorf("no link matched %v within %s", matchers, n.timeouts.Link))
}

func (n *Navigator) follow(ctx context.Context, m browser.LinkMatcher) (bool, error) {
	stepCtx, cancel := context.WithTimeout(ctx, n.timeouts.Navigation)
	defer cancel()
	return n.session.ClickLink(stepCtx, m)
}

// Settle pauses for late scripts after a navigation.
func (n *Navigator) Settle(ctx context.Context) {
	if n.timeouts.SettleDelay <= 0 {
		return
	}
	t := time.NewTimer(n.timeouts.SettleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
