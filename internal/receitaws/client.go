package receitaws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public receitaws CNPJ endpoint.
	DefaultBaseURL = "https://www.receitaws.com.br/v1/cnpj"
	// DefaultTimeout bounds one lookup.
	DefaultTimeout = 10 * time.Second
	// DefaultRequestsPerMinute matches the free tier quota.
	DefaultRequestsPerMinute = 3

	maxBodySize = 1 << 20
)

var (
	// ErrNotFound is returned for any non-200 answer.
	ErrNotFound = errors.New("CNPJ não encontrado ou inválido")
	// ErrRateLimited means the local quota could not be met before the deadline.
	ErrRateLimited = errors.New("receitaws request quota exhausted")
)

// RemoteError carries the message of a payload with status ERROR.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client queries the receitaws public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a client. A non-positive perMinute disables the local quota.
func NewClient(baseURL string, timeout time.Duration, perMinute int, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Fetch returns the raw JSON for the digits-only cnpj. Transport failures
// and non-200 answers are reported as ErrNotFound.
func (c *Client) Fetch(ctx context.Context, cnpj string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	url := c.baseURL + "/" + cnpj
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"cnpj":  cnpj,
			"error": err.Error(),
		}).Warn("receitaws request failed")
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"cnpj":     cnpj,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("receitaws answered")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNotFound, err)
	}
	return body, nil
}

// Lookup fetches and decodes the record for cnpj.
func (c *Client) Lookup(ctx context.Context, cnpj string) (*Company, []byte, error) {
	raw, err := c.Fetch(ctx, cnpj)
	if err != nil {
		return nil, nil, err
	}
	company, err := Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return company, raw, nil
}
