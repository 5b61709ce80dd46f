// Package catalog talks to the remote product catalog: the home listing built
// from the carts feed and per-category recommendations.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL              = "https://dummyjson.com"
	defaultTimeout              = 10 * time.Second
	defaultRelatedLimit         = 5
	responseBodyReadLimit int64 = 1024
)

// Doer is the subset of *http.Client the catalog needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches catalog data. Requests are throttled so repeated
// pull-to-refresh cannot hammer the catalog.
type Client struct {
	httpClient   Doer
	baseURL      string
	limiter      *rate.Limiter
	relatedLimit int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client Doer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout replaces the default client with one using timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithRateLimit throttles requests to limit per second with the given burst.
// A non-positive limit disables throttling.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithRelatedLimit caps the number of recommendations returned.
func WithRelatedLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.relatedLimit = limit
		}
	}
}

// NewClient builds a catalog client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid catalog base url")
	}

	client := &Client{
		baseURL:      trimmed,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		relatedLimit: defaultRelatedLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type cartsResponse struct {
	Carts []struct {
		Products []products.Product `json:"products"`
	} `json:"carts"`
}

type categoryResponse struct {
	Products []products.Product `json:"products"`
}

// ListCartProducts returns every product of every cart in the feed, flattened
// in feed order.
func (c *Client) ListCartProducts(ctx context.Context) ([]products.Product, error) {
	var body cartsResponse
	if err := c.get(ctx, c.baseURL+"/carts", &body); err != nil {
		return nil, err
	}

	out := make([]products.Product, 0)
	for _, cart := range body.Carts {
		out = append(out, cart.Products...)
	}
	return out, nil
}

// Related returns products from the same category as p, without p itself,
// capped to the configured limit.
func (c *Client) Related(ctx context.Context, p products.Product) ([]products.Product, error) {
	category := strings.TrimSpace(p.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product category is required")
	}

	var body categoryResponse
	endpoint := fmt.Sprintf("%s/products/category/%s", c.baseURL, url.PathEscape(category))
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return products.ExcludeAndCap(body.Products, p.ID, c.relatedLimit), nil
}

func (c *Client) get(ctx context.Context, endpoint string, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request throttled")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	return nil
}
