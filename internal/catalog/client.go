package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/foodguard/internal/cache"
	"github.com/ppiankov/foodguard/internal/model"
	"github.com/ppiankov/foodguard/internal/worker"
)

// fetchSleepFunc waits between retries; tests replace it
var fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client talks to the Open Food Facts API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxBytes   int64
	cfg        model.CatalogConfig
	cache      cache.Cache
	limiter    *worker.Limiter
	logger     *log.Logger
}

// NewClient creates a catalog client. A nil cache disables caching and a nil
// limiter disables pacing.
func NewClient(cfg *model.Config, c cache.Cache, limiter *worker.Limiter, logger *log.Logger) *Client {
	if c == nil {
		c = cache.NopCache{}
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 0)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}

	return &Client{
		httpClient: newHTTPClient(cfg.HTTP),
		baseURL:    strings.TrimRight(cfg.Catalog.BaseURL, "/"),
		userAgent:  cfg.HTTP.UserAgent,
		maxBytes:   maxBytes,
		cfg:        cfg.Catalog,
		cache:      c,
		limiter:    limiter,
		logger:     logger,
	}
}

// FetchProduct returns the snapshot of a barcode. It returns ErrNotFound when the
// catalog has no such product and ErrUnavailable when every attempt failed.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*model.ProductSnapshot, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("empty barcode: %w", ErrNotFound)
	}

	key := cache.Key("product", barcode)
	if raw, ok := c.cache.Get(key); ok {
		resp, err := decodeProduct(raw)
		if err == nil && resp.found() {
			c.logger.Printf("catalog: cache hit for %s", barcode)
			return buildSnapshot(barcode, resp.Product), nil
		}
		_ = c.cache.Delete(key)
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	body, resp, err := c.fetchWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, body, 0); err != nil {
		c.logger.Printf("catalog: cache write for %s failed: %v", barcode, err)
	}

	return buildSnapshot(barcode, resp.Product), nil
}

// fetchWithRetry fetches a product document, repeating retryable failures with a
// fixed delay
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, *productResponse, error) {
	attempts := c.cfg.FetchAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := fetchSleepFunc(ctx, c.cfg.RetryDelay); err != nil {
				return nil, nil, err
			}
		}

		body, resp, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return body, resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if !isRetryable(err) {
			return nil, nil, err
		}

		lastErr = err
		c.logger.Printf("catalog: attempt %d/%d for %s failed: %v", attempt, attempts, endpoint, err)
	}

	return nil, nil, fmt.Errorf("%w after %d attempts: %v", ErrUnavailable, attempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]byte, *productResponse, error) {
	if err := c.limiter.Wait(ctx, worker.BucketProduct); err != nil {
		return nil, nil, err
	}

	attemptCtx, cancel := withTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	body, err := c.get(attemptCtx, endpoint)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests {
			return nil, nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, nil, err
	}

	resp, err := decodeProduct(body)
	if err != nil {
		return nil, nil, fmt.Errorf("decode product: %w", err)
	}
	if !resp.found() {
		return nil, nil, ErrNotFound
	}

	return body, resp, nil
}

// SearchCategory lists catalog products tagged with category and a nutrition grade,
// most scanned first
func (c *Client) SearchCategory(ctx context.Context, category, grade string) ([]model.CatalogProduct, error) {
	if err := c.limiter.Wait(ctx, worker.BucketSearch); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, c.cfg.SearchTimeout)
	defer cancel()

	pageSize := c.cfg.SearchPageSize
	if pageSize <= 0 {
		pageSize = 30
	}

	params := url.Values{}
	params.Set("action", "process")
	params.Set("tagtype_0", "categories")
	params.Set("tag_contains_0", "contains")
	params.Set("tag_0", category)
	params.Set("tagtype_1", "nutrition_grades")
	params.Set("tag_contains_1", "contains")
	params.Set("tag_1", grade)
	params.Set("json", "true")
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("sort_by", "unique_scans_n")

	body, err := c.get(ctx, c.baseURL+"/cgi/search.pl?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", category, err)
	}

	var resp searchResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	return resp.Products, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode, status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
