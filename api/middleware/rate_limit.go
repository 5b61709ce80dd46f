package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/storefront/api/responses"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	visitorIdleTimeout = 10 * time.Minute
	refreshBodyLimit   = 4 << 10
)

// RefreshRateLimitPolicy throttles token refresh per client IP and per
// refresh token.
type RefreshRateLimitPolicy struct {
	name  string
	rps   rate.Limit
	burst int
}

func NewRefreshRateLimitPolicy(name string, rps float64, burst int) RefreshRateLimitPolicy {
	return RefreshRateLimitPolicy{
		name:  strings.ToLower(strings.TrimSpace(name)),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (p RefreshRateLimitPolicy) enabled() bool {
	return p.rps > 0 && p.burst > 0
}

func (p RefreshRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "refresh"
	}
	return p.name
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type keyedLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newKeyedLimiter(rps rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{
		visitors: make(map[string]*visitor),
		rps:      rps,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *keyedLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > visitorIdleTimeout {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTimeout {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RefreshRateLimit rejects refresh attempts above the policy rate with a
// RATE_LIMITED error. The request body is restored for the next handler.
func RefreshRateLimit(policy RefreshRateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() {
			return next
		}
		byIP := newKeyedLimiter(policy.rps, policy.burst)
		byToken := newKeyedLimiter(policy.rps, policy.burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if ip != "" && !byIP.allow(ip) {
				respondRateLimited(ctx, logg, w, policy, "ip", ip, "")
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, refreshBodyLimit))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if token := extractRefreshToken(body); token != "" {
				hash := hashValue(token)
				if !byToken.allow(hash) {
					respondRateLimited(ctx, logg, w, policy, "token", "", hash)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RefreshRateLimitPolicy, scope, ip, tokenHash string) {
	if logg != nil {
		fields := map[string]any{
			"scope":  scope,
			"policy": policy.normalizedName(),
			"rps":    float64(policy.rps),
			"burst":  policy.burst,
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if tokenHash != "" {
			fields["token_hash"] = tokenHash
		}
		logg.Warn(logg.WithFields(ctx, fields), "refresh.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractRefreshToken(payload []byte) string {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.RefreshToken)
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
