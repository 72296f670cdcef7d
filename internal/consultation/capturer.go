package consultation

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexconsult/cnpj-docs/internal/browser"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	pdfConfOnce sync.Once
	pdfConf     *model.Configuration
)

func pdfConfig() *model.Configuration {
	pdfConfOnce.Do(func() {
		api.DisableConfigDir()
		pdfConf = model.NewDefaultConfiguration()
		pdfConf.ValidationMode = model.ValidationRelaxed
	})
	return pdfConf
}

// ValidatePDF parses data and returns its page count. Empty, truncated or
// otherwise unreadable documents are rejected.
func ValidatePDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty document")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, fmt.Errorf("missing PDF header")
	}
	if err := api.Validate(bytes.NewReader(data), pdfConfig()); err != nil {
		return 0, fmt.Errorf("validate: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if pages < 1 {
		return 0, fmt.Errorf("document has no pages")
	}
	return pages, nil
}

// Capturer prints the currently rendered page to PDF.
type Capturer struct {
	opts    browser.PDFOptions
	timeout time.Duration
}

// NewCapturer creates a capturer with fixed print options.
func NewCapturer(opts browser.PDFOptions, timeout time.Duration) *Capturer {
	return &Capturer{opts: opts, timeout: timeout}
}

// Capture returns a complete PDF or a KindCaptureFailure error; partial
// output is never returned.
func (c *Capturer) Capture(ctx context.Context, s browser.Session) ([]byte, int, error) {
	stepCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := s.PrintPDF(stepCtx, c.opts)
	if err != nil {
		return nil, 0, NewError(KindCaptureFailure, "", fmt.Errorf("print to pdf: %w", err))
	}
	pages, err := ValidatePDF(data)
	if err != nil {
		return nil, 0, NewError(KindCaptureFailure, "", err)
	}
	return data, pages, nil
}
