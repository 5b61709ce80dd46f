// Package session owns the authentication session: the token pair, its
// durable copy, and the authenticated fetch helper with a single
// refresh-and-retry on rejection.
package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

const (
	component       = "session"
	requestIDHeader = "X-Request-ID"
)

var errNoRefreshToken = errors.New("no refresh token")

// StoreParams groups dependencies for the session store.
type StoreParams struct {
	KV         kv.Store
	Refresher  Refresher
	HTTPClient Doer
	Logger     *logger.Logger
	Metrics    *metrics.SyncMetrics
}

// Store is the only path through which session state changes.
type Store struct {
	kv         kv.Store
	refresher  Refresher
	httpClient Doer
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics

	mu    sync.RWMutex
	state State

	ready     chan struct{}
	readyOnce sync.Once

	refreshes singleflight.Group
}

// NewStore builds a session in the loading state.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Refresher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refresher is required")
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		kv:         params.KV,
		refresher:  params.Refresher,
		httpClient: httpClient,
		logg:       logg,
		metrics:    params.Metrics,
		state:      initialState(),
		ready:      make(chan struct{}),
	}, nil
}

// Initialize resolves the session from durable storage. A stored access token
// authenticates directly; otherwise a stored refresh token is exchanged. Any
// failure leaves the session unauthenticated; stored tokens are kept only when
// ctx ends first. Loading is always cleared.
func (s *Store) Initialize(ctx context.Context) State {
	ctx = s.logg.WithComponent(ctx, component)
	defer s.readyOnce.Do(func() { close(s.ready) })

	access, hasAccess, err := kv.GetOptional(ctx, s.kv, kv.KeyAccessToken)
	if err != nil {
		s.logg.Error(ctx, "failed to read stored access token", err)
		return s.setState(State{})
	}
	refresh, _, err := kv.GetOptional(ctx, s.kv, kv.KeyRefreshToken)
	if err != nil {
		s.logg.Error(ctx, "failed to read stored refresh token", err)
		return s.setState(State{})
	}

	if hasAccess && access != "" {
		s.logg.Debug(ctx, "session restored from stored access token")
		return s.setState(authenticated(access, refresh))
	}
	if refresh == "" {
		return s.setState(State{})
	}

	if _, err := s.refresh(ctx, refresh); err != nil {
		if ctx.Err() != nil {
			return s.setState(State{})
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "silent refresh at startup failed")
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.logg.Error(ctx, "failed to clear tokens after refresh failure", logoutErr)
		}
	}
	return s.Snapshot()
}

// Login persists both tokens and marks the session authenticated. Tokens are
// opaque. If the second write fails the first is rolled back and the session
// is left as it was.
func (s *Store) Login(ctx context.Context, access, refresh string) error {
	ctx = s.logg.WithComponent(ctx, component)

	if err := s.kv.Set(ctx, kv.KeyAccessToken, access); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist access token")
	}
	if err := s.kv.Set(ctx, kv.KeyRefreshToken, refresh); err != nil {
		if rbErr := s.kv.Remove(ctx, kv.KeyAccessToken); rbErr != nil {
			s.logg.Error(ctx, "failed to roll back access token", rbErr)
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist refresh token")
	}

	s.setState(authenticated(access, refresh))
	s.logg.Info(ctx, "session established")
	return nil
}

// Logout removes both stored tokens and resets the session. It is safe to call
// repeatedly; in-memory state is reset even when removal fails.
func (s *Store) Logout(ctx context.Context) error {
	ctx = s.logg.WithComponent(ctx, component)

	err := multierr.Combine(
		s.kv.Remove(ctx, kv.KeyAccessToken),
		s.kv.Remove(ctx, kv.KeyRefreshToken),
	)
	s.setState(State{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "remove stored tokens")
	}
	return nil
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Ready is closed once Initialize has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until Initialize has finished or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request describes an authenticated call. Body is kept as bytes so the
// request can be re-sent after a refresh.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// AuthenticatedFetch sends req with the current bearer token. On a 401 it
// refreshes once and retries once. When the refresh fails, or the retry is
// rejected too, the session is cleared and a CodeSessionExpired error returned.
// A caller that gives up during the refresh gets ctx.Err() and keeps its session.
// The caller owns the returned response body.
func (s *Store) AuthenticatedFetch(ctx context.Context, req Request) (*http.Response, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{"component": component, "url": req.URL})

	token := s.Snapshot().AccessToken
	resp, err := s.do(ctx, req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	newToken, err := s.refreshAfterRejection(ctx, token)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "refresh after 401 failed")
		return nil, s.expire(ctx, err)
	}

	s.metrics.IncFetchRetry()
	resp, err = s.do(ctx, req, newToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return nil, s.expire(ctx, errors.New("request rejected after refresh"))
	}
	return resp, nil
}

func (s *Store) do(ctx context.Context, req Request, token string) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build request")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get(requestIDHeader) == "" {
		httpReq.Header.Set(requestIDHeader, uuid.NewString())
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request")
	}
	return resp, nil
}

// refreshAfterRejection coalesces concurrent refreshes. If another caller
// already replaced the rejected token, the current one is reused.
func (s *Store) refreshAfterRejection(ctx context.Context, rejected string) (string, error) {
	current := s.Snapshot()
	if current.IsAuthenticated && current.AccessToken != "" && current.AccessToken != rejected {
		return current.AccessToken, nil
	}

	refreshToken := current.RefreshToken
	if refreshToken == "" {
		stored, _, err := kv.GetOptional(ctx, s.kv, kv.KeyRefreshToken)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read refresh token")
		}
		refreshToken = stored
	}
	if refreshToken == "" {
		return "", errNoRefreshToken
	}

	v, err, _ := s.refreshes.Do(refreshToken, func() (any, error) {
		return s.refresh(ctx, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh exchanges refreshToken, persists the new access token and marks the
// session authenticated. A failed write counts as a failed refresh.
func (s *Store) refresh(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		s.metrics.IncRefresh(metrics.OutcomeFailure)
		return "", err
	}
	if err := s.kv.Set(ctx, kv.KeyAccessToken, token); err != nil {
		s.metrics.IncRefresh(metrics.OutcomeFailure)
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist refreshed access token")
	}
	s.setState(authenticated(token, refreshToken))
	s.metrics.IncRefresh(metrics.OutcomeSuccess)
	s.logg.Info(ctx, "access token refreshed")
	return token, nil
}

// expire clears the session even when ctx is already done.
func (s *Store) expire(ctx context.Context, cause error) error {
	if err := s.Logout(context.WithoutCancel(ctx)); err != nil {
		s.logg.Error(ctx, "failed to clear tokens on session expiry", err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeSessionExpired, cause, "session expired")
}

func (s *Store) setState(next State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	return next
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
	_ = resp.Body.Close()
}
