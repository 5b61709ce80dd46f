// Package app is the composition root of the client core. It owns every
// aggregate and hands them to the presentation layer; nothing is global.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/credentials"
	"github.com/angelmondragon/storefront/internal/notice"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Catalog is the remote product source.
type Catalog interface {
	ListCartProducts(ctx context.Context) ([]products.Product, error)
	Related(ctx context.Context, p products.Product) ([]products.Product, error)
}

// Params groups dependencies for the application root. Config and Store are
// required; the rest default from Config.
type Params struct {
	Config     *config.Config
	Store      kv.Backend
	Logger     *logger.Logger
	Metrics    *metrics.SyncMetrics
	HTTPClient *http.Client
	Refresher  session.Refresher
	Verifier   credentials.Verifier
	Catalog    Catalog
}

// App owns the session, cart, wishlist, credentials and notices for one
// device.
type App struct {
	Session     *session.Store
	Cart        *cart.Aggregate
	Wishlist    *wishlist.Aggregate
	Credentials credentials.Service
	Notices     *notice.Notifier

	store   kv.Backend
	catalog Catalog
	logg    *logger.Logger

	ready     chan struct{}
	startOnce sync.Once

	homeMu sync.RWMutex
	home   []products.Product
}

// New wires the aggregates. Nothing is read from storage until Start.
func New(params Params) (*App, error) {
	if params.Config == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	cfg := params.Config
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Catalog.Timeout}
	}

	refresher := params.Refresher
	if refresher == nil {
		r, err := session.NewHTTPRefresher(cfg.Catalog.RefreshURL, session.WithRefreshHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		refresher = r
	}
	sess, err := session.NewStore(session.StoreParams{
		KV:         params.Store,
		Refresher:  refresher,
		HTTPClient: httpClient,
		Logger:     logg,
		Metrics:    params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	cartAgg, err := cart.NewAggregate(cart.AggregateParams{
		Store:   params.Store,
		Logger:  logg,
		Metrics: params.Metrics,
	})
	if err != nil {
		return nil, err
	}

	verifier := params.Verifier
	if verifier == nil {
		v, err := credentials.NewLocalVerifier(params.Store, credentials.TokenPair{
			Access:  cfg.Session.PlaceholderAccessToken,
			Refresh: cfg.Session.PlaceholderRefreshToken,
		})
		if err != nil {
			return nil, err
		}
		verifier = v
	}
	creds, err := credentials.NewService(credentials.ServiceParams{
		Store:    params.Store,
		Verifier: verifier,
		Session:  sess,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	source := params.Catalog
	if source == nil {
		c, err := catalog.NewClient(cfg.Catalog.BaseURL,
			catalog.WithHTTPClient(httpClient),
			catalog.WithRateLimit(cfg.Catalog.RateLimit, cfg.Catalog.RateBurst),
			catalog.WithRelatedLimit(cfg.Catalog.RelatedLimit),
		)
		if err != nil {
			return nil, err
		}
		source = c
	}

	return &App{
		Session:     sess,
		Cart:        cartAgg,
		Wishlist:    wishlist.NewAggregate(logg),
		Credentials: creds,
		Notices:     notice.NewNotifier(cfg.Notice.TTL),
		store:       params.Store,
		catalog:     source,
		logg:        logg,
		ready:       make(chan struct{}),
		home:        []products.Product{},
	}, nil
}

// Start rehydrates the session and the cart concurrently and opens Ready once
// both are done. Storage failures are logged and fall back to empty state;
// only a cancelled ctx is returned.
func (a *App) Start(ctx context.Context) error {
	var err error
	a.startOnce.Do(func() {
		defer close(a.ready)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			state := a.Session.Initialize(gctx)
			a.logg.Info(a.logg.WithField(ctx, "authenticated", state.IsAuthenticated), "session initialized")
			return nil
		})
		g.Go(func() error {
			if rerr := a.Cart.Rehydrate(gctx); rerr != nil {
				a.logg.Warn(a.logg.WithField(ctx, "error", rerr.Error()), "cart starts empty")
			}
			return nil
		})
		_ = g.Wait()
		err = ctx.Err()
	})
	return err
}

// Ready is closed once Start has finished. Authenticated screens render only
// after it closes.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// LoadHome fetches the home listing. On failure the previous listing is kept,
// a notice is shown and the error returned alongside it.
func (a *App) LoadHome(ctx context.Context) ([]products.Product, error) {
	return a.loadHome(ctx, notice.LoadFailed)
}

// RefreshHome is LoadHome triggered by pull-to-refresh.
func (a *App) RefreshHome(ctx context.Context) ([]products.Product, error) {
	return a.loadHome(ctx, notice.RefreshFailed)
}

func (a *App) loadHome(ctx context.Context, failure string) ([]products.Product, error) {
	list, err := a.catalog.ListCartProducts(ctx)
	if err != nil {
		a.logg.Error(a.logg.WithComponent(ctx, "catalog"), "failed to load home listing", err)
		a.Notices.Show(failure)
		return a.Home(), err
	}

	a.homeMu.Lock()
	a.home = list
	a.homeMu.Unlock()
	return a.Home(), nil
}

// Home returns the last successfully loaded listing.
func (a *App) Home() []products.Product {
	a.homeMu.RLock()
	defer a.homeMu.RUnlock()
	out := make([]products.Product, len(a.home))
	for i, p := range a.home {
		out[i] = p.Clone()
	}
	return out
}

// Recommendations returns products related to p. Failures are logged and
// yield an empty list.
func (a *App) Recommendations(ctx context.Context, p products.Product) []products.Product {
	related, err := a.catalog.Related(ctx, p)
	if err != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{"component": "catalog", "product_id": p.ID.String()})
		a.logg.Error(ctx, "failed to load recommendations", err)
		return []products.Product{}
	}
	return related
}

// AddToCart adds p and shows the matching notice.
func (a *App) AddToCart(ctx context.Context, p products.Product) ([]cart.LineItem, error) {
	items, err := a.Cart.Dispatch(ctx, cart.AddToCart{Product: p})
	if items != nil {
		a.Notices.Show(notice.AddedToCart)
	}
	return items, err
}

// RemoveFromCart removes the line item and shows the matching notice.
func (a *App) RemoveFromCart(ctx context.Context, id products.ID) ([]cart.LineItem, error) {
	items, err := a.Cart.Dispatch(ctx, cart.RemoveFromCart{ID: id})
	if items != nil {
		a.Notices.Show(notice.RemovedFromCart)
	}
	return items, err
}

// ToggleWishlist flips p in the wishlist.
func (a *App) ToggleWishlist(ctx context.Context, p products.Product) []products.Product {
	return a.Wishlist.Dispatch(ctx, wishlist.Toggle{Product: p})
}

// Logout ends the session. The cart and wishlist are left as they are.
func (a *App) Logout(ctx context.Context) error {
	return a.Session.Logout(ctx)
}

// Close stops pending notices and releases the store.
func (a *App) Close() error {
	a.Notices.Stop()
	return a.store.Close()
}
