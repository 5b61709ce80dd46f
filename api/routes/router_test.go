package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/api/fixtures"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		Stub: config.StubConfig{
			JWTSecret:         "secret",
			JWTIssuer:         "storefront-stub",
			ExpirationMinutes: 15,
			RefreshToken:      "good-refresh",
			RefreshRateLimit:  100,
			RefreshRateBurst:  100,
			CORSOrigins:       []string{"http://localhost:8081"},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fx, err := fixtures.Load()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	srv := httptest.NewServer(NewRouter(testConfig(), logger.Nop(), fx))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready", "/ping"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200 got %d", path, resp.StatusCode)
		}
		if path != "/ping" && resp.Header.Get("X-Storefront-Env") != "dev" {
			t.Fatalf("GET %s: missing env header", path)
		}
	}
}

func TestCatalogClientAgainstStub(t *testing.T) {
	srv := newTestServer(t)

	client, err := catalog.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	listing, err := client.ListCartProducts(context.Background())
	if err != nil {
		t.Fatalf("list cart products: %v", err)
	}
	if len(listing) != 5 {
		t.Fatalf("expected 5 cart products, got %d", len(listing))
	}

	related, err := client.Related(context.Background(), listing[0])
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) == 0 {
		t.Fatal("expected related products")
	}
	for _, p := range related {
		if p.ID == listing[0].ID {
			t.Fatalf("related list must exclude the product itself")
		}
	}
}

func TestRefreshAndAuthenticatedFetchAgainstStub(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	refresher, err := session.NewHTTPRefresher(srv.URL + "/auth/refresh")
	if err != nil {
		t.Fatalf("new refresher: %v", err)
	}
	sess, err := session.NewStore(session.StoreParams{
		KV:        kv.NewMemoryStore(),
		Refresher: refresher,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.Login(ctx, "expired-or-bogus", "good-refresh"); err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := sess.AuthenticatedFetch(ctx, session.Request{URL: srv.URL + "/auth/me"})
	if err != nil {
		t.Fatalf("authenticated fetch: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after refresh, got %d", resp.StatusCode)
	}

	var me map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me["id"] == "" {
		t.Fatal("expected subject in response")
	}
	if got := sess.Snapshot().AccessToken; got == "expired-or-bogus" || got == "" {
		t.Fatalf("expected refreshed access token, got %q", got)
	}
}

func TestRefreshRejectsUnknownTokenThroughRouter(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/auth/refresh", "application/json", strings.NewReader(`{"refresh_token":"nope"}`))
	if err != nil {
		t.Fatalf("POST refresh: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}
