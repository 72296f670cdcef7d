package consultation

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/nexconsult/cnpj-docs/internal/logger"
)

const resultPage = `<html><body><table>
<tr><td><font size="1">NÚMERO DE INSCRIÇÃO</font><br><font size="2"><b>11.222.333/0001-81</b></font></td></tr>
<tr><td><font size="1">NOME EMPRESARIAL</font><br><font size="2"><b>ACME COMERCIO LTDA.</b></font></td></tr>
</table><a href="/qsa">Consultar Quadro de Sócios e Administradores</a></body></html>`

// fakeSession is a scripted browser.Session that records calls.
type fakeSession struct {
	mu sync.Mutex

	navigateErr   error
	fillErr       error
	submitErr     error
	challenge     string // present before and after submit
	formChallenge string // present only until submit
	pageChallenge string // present only after submit
	screenshot    []byte
	screenshotErr error
	html          string
	htmlPanic     bool
	pdfs          [][]byte
	pdfErrs       []error
	clickable     map[string]int // matcher -> number of polls before it appears
	followErr     error
	linkDelay     time.Duration // per lookup, bounded by ctx

	filled      map[string]string
	printCalls  int
	submitCalls int
	linkCalls   int
	clicked     []browser.LinkMatcher
	closeCalls  int
}

func newFakeSession(t testing.TB) *fakeSession {
	return &fakeSession{
		html:       resultPage,
		screenshot: []byte("\x89PNG fake"),
		pdfs:       [][]byte{testPDF(t, "card"), testPDF(t, "roster")},
		clickable:  map[string]int{"contains:Quadro de Sócios": 0},
		filled:     map[string]string{},
	}
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return f.navigateErr }

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fillErr != nil {
		return f.fillErr
	}
	f.filled[selector] = value
	return nil
}

func (f *fakeSession) Submit(ctx context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	return f.submitErr
}

func (f *fakeSession) HasLink(ctx context.Context, m browser.LinkMatcher) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkDelay > 0 {
		select {
		case <-time.After(f.linkDelay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	polls, ok := f.clickable[m.String()]
	if !ok {
		return false, nil
	}
	if polls > 0 {
		f.clickable[m.String()] = polls - 1
		return false, nil
	}
	return true, nil
}

func (f *fakeSession) ClickLink(ctx context.Context, m browser.LinkMatcher) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if polls, ok := f.clickable[m.String()]; !ok || polls > 0 {
		return false, nil
	}
	f.clicked = append(f.clicked, m)
	return true, f.followErr
}

func (f *fakeSession) Exists(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.formChallenge != "" && selector == f.formChallenge && f.submitCalls == 0 {
		return true, nil
	}
	if f.pageChallenge != "" && selector == f.pageChallenge && f.submitCalls > 0 {
		return true, nil
	}
	return f.challenge != "" && selector == f.challenge, nil
}

func (f *fakeSession) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	return f.screenshot, f.screenshotErr
}

func (f *fakeSession) HTML(ctx context.Context) (string, error) {
	if f.htmlPanic {
		panic("driver exploded")
	}
	return f.html, nil
}

func (f *fakeSession) PrintPDF(ctx context.Context, opts browser.PDFOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.printCalls
	f.printCalls++
	if i < len(f.pdfErrs) && f.pdfErrs[i] != nil {
		return nil, f.pdfErrs[i]
	}
	if i < len(f.pdfs) {
		return f.pdfs[i], nil
	}
	return nil, errors.New("no more pages")
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

type fakeLauncher struct {
	session  *fakeSession
	err      error
	launches int
}

func (l *fakeLauncher) Name() string { return "fake" }

func (l *fakeLauncher) Launch(ctx context.Context) (browser.Session, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func testPDF(t testing.TB, text string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(40, 10, text)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}

func testTimeouts() Timeouts {
	return Timeouts{
		Navigation: time.Second,
		Element:    time.Second,
		Submit:     time.Second,
		Link:       100 * time.Millisecond,
		Capture:    time.Second,
		Probe:      100 * time.Millisecond,
	}
}

func testWorkflow(l browser.Launcher, policy RosterPolicy) *Workflow {
	cfg := DefaultConfig()
	cfg.Timeouts = testTimeouts()
	cfg.RosterPolicy = policy
	return NewWorkflow(l, cfg, logger.Discard())
}
