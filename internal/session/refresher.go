package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Doer is the subset of *http.Client the session needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPRefresher posts the refresh token to a fixed endpoint.
type HTTPRefresher struct {
	httpClient Doer
	endpoint   string
}

// RefresherOption configures optional refresher behavior.
type RefresherOption func(*HTTPRefresher)

// WithRefreshHTTPClient overrides the default HTTP client.
func WithRefreshHTTPClient(client Doer) RefresherOption {
	return func(r *HTTPRefresher) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewHTTPRefresher builds a refresher for endpoint.
func NewHTTPRefresher(endpoint string, opts ...RefresherOption) (*HTTPRefresher, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refresh endpoint is required")
	}
	r := &HTTPRefresher{
		endpoint:   trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Refresh returns the new access token. A 400, 401 or 403 is CodeUnauthorized;
// other statuses along with transport and decoding failures are CodeDependency.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is required")
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal refresh request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute refresh request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "refresh rejected")
		default:
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "refresh endpoint failed")
		}
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode refresh response")
	}

	token := body.AccessToken
	if token == "" {
		token = body.Token
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh response carried no token")
	}
	return token, nil
}
