package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/card-ledger/internal/common"
	"github.com/Veraticus/card-ledger/internal/config"
)

// maxBodySize bounds the feed responses read into memory.
const maxBodySize = 1 << 20

// Feed errors.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMalformedBody    = errors.New("malformed response body")
	ErrValueNotFound    = errors.New("value not found")
)

// feed holds the transport, limiter, cache and retry policy shared by the clients.
type feed struct {
	client  *http.Client
	limiter *rateLimiter
	cache   *quoteCache
	logger  *slog.Logger
	name    string
	retry   common.RetryOptions
}

func newFeed(name string, cfg config.FeedConfig, client *http.Client, logger *slog.Logger) *feed {
	if logger == nil {
		logger = common.DiscardLogger()
	}
	if client == nil {
		httpConfig := DefaultHTTPConfig()
		if cfg.Timeout > 0 {
			httpConfig.Timeout = cfg.Timeout
		}
		client = NewHTTPClient(httpConfig)
	}

	initialDelay := cfg.RetryDelay
	if initialDelay <= 0 {
		initialDelay = 500 * time.Millisecond
	}

	return &feed{
		name:    name,
		client:  client,
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		cache:   newQuoteCache(cfg.CacheTTL),
		logger:  logger.With("feed", name),
		retry: common.RetryOptions{
			MaxAttempts:  max(cfg.RetryAttempts, 1),
			InitialDelay: initialDelay,
			MaxDelay:     8 * initialDelay,
			Multiplier:   2.0,
		},
	}
}

// lookup returns the number at expr in the response of endpoint, rounded to two
// decimals. Cached values are served without a request. Failures are reported as
// enrichment errors for symbol.
func (f *feed) lookup(ctx context.Context, symbol, endpoint, expr string, check func(doc any) error) (float64, error) {
	if value, ok := f.cache.get(symbol); ok {
		f.logger.Debug("Serving cached quote", "symbol", symbol)
		return value, nil
	}

	var value float64
	err := common.WithRetry(common.WithLogger(ctx, f.logger), func() error {
		if err := f.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		body, err := f.get(ctx, endpoint)
		if err != nil {
			return err
		}

		value, err = extractNumber(body, expr, check)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		return nil
	}, f.retry)
	if err != nil {
		f.logger.Warn("Lookup failed", "symbol", symbol, "error", err)
		return 0, common.NewEnrichmentUnavailable(f.name, symbol, err)
	}

	f.cache.set(symbol, value)
	f.logger.Debug("Fetched quote", "symbol", symbol, "value", value)
	return value, nil
}

// get performs one request. Transport failures, 429 and 5xx are left retryable.
func (f *feed) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &common.RetryableError{Err: ctx.Err(), Retryable: false}
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w %d", common.ErrRateLimit, ErrUnexpectedStatus, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &common.RetryableError{Err: fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode), Retryable: false}
	}

	return body, nil
}

// extractNumber evaluates a JSONPath expression against body and rounds the number
// it selects to two decimals. Numeric strings are accepted.
func extractNumber(body []byte, expr string, check func(doc any) error) (float64, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}

	if check != nil {
		if err := check(doc); err != nil {
			return 0, err
		}
	}

	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return 0, fmt.Errorf("%w at %s: %w", ErrValueNotFound, expr, err)
	}

	var d decimal.Decimal
	switch v := val.(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not numeric: %q", ErrMalformedBody, expr, v)
		}
	case nil:
		return 0, fmt.Errorf("%w at %s", ErrValueNotFound, expr)
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrMalformedBody, expr, val)
	}

	rounded, _ := d.Round(2).Float64()
	return rounded, nil
}

// stringAt returns the string at expr, or "" when absent.
func stringAt(doc any, expr string) string {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Close releases the limiter and cache goroutines.
func (f *feed) Close() {
	f.limiter.Close()
	f.cache.Close()
}
