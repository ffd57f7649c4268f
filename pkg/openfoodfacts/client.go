package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Open Food Facts instance.
	DefaultBaseURL = "https://world.openfoodfacts.org"

	// The API asks clients to identify themselves.
	userAgent = "Project-Alimentos/1.0 (catalog backend)"
)

// ErrProductNotFound is returned by Product when the upstream knows no
// product for the given barcode.
var ErrProductNotFound = errors.New("product not found")

// Client is a minimal HTTP client for the Open Food Facts API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a new Open Food Facts client with a bounded timeout
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Search queries the product search endpoint. Upstream transport
// failures and non-2xx statuses are returned as errors; there is no
// retry.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Terms != "" {
		q.Set("search_terms", opts.Terms)
	}
	tag := 0
	if opts.CategoryTag != "" {
		c.addTagFilter(q, tag, "categories", opts.CategoryTag)
		tag++
	}
	if opts.CountryTag != "" {
		c.addTagFilter(q, tag, "countries", opts.CountryTag)
	}

	var result SearchResponse
	if err := c.get(ctx, "/cgi/search.pl?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	c.Logger.Info("Open Food Facts search completed",
		zap.Int("count", result.Count),
		zap.Int("returned", len(result.Products)))
	return &result, nil
}

// Product resolves a single product by its exact barcode
func (c *Client) Product(ctx context.Context, barcode string) (*Record, error) {
	var result productResponse
	if err := c.get(ctx, "/api/v0/product/"+url.PathEscape(barcode)+".json", &result); err != nil {
		return nil, err
	}

	if result.Status != 1 || result.Product == nil {
		c.Logger.Info("Open Food Facts product lookup returned no product",
			zap.String("barcode", barcode),
			zap.String("status", result.StatusVerbose))
		return nil, ErrProductNotFound
	}
	return result.Product, nil
}

func (c *Client) addTagFilter(q url.Values, index int, tagType, value string) {
	i := strconv.Itoa(index)
	q.Set("tagtype_"+i, tagType)
	q.Set("tag_contains_"+i, "contains")
	q.Set("tag_"+i, value)
}

// get performs the HTTP GET and decodes the JSON response into result
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Open Food Facts request failed", zap.Error(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Error("Open Food Facts returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("response", snippet(body)))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ParsePrice parses an upstream price string, tolerating a comma as the
// decimal separator. Unparseable or empty values yield 0.
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func snippet(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
