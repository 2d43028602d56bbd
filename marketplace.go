// Package marketplace is the Go client for the Circulab B2B circular-economy
// marketplace API. It bundles the authenticated HTTP client, the query cache
// with stale-while-revalidate and optimistic mutations, and the page-level
// views that presentation code consumes.
package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/circulab/marketplace-go/internal/api"
	"github.com/circulab/marketplace-go/internal/auth"
	"github.com/circulab/marketplace-go/internal/cache"
	"github.com/circulab/marketplace-go/internal/config"
	"github.com/circulab/marketplace-go/internal/mutation"
	"github.com/circulab/marketplace-go/internal/views"
	"github.com/circulab/marketplace-go/pkg/logger"
	"github.com/circulab/marketplace-go/pkg/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config re-exports the client configuration.
type Config = config.Config

// LoadConfig reads configuration from the environment.
func LoadConfig() *Config {
	return config.Load()
}

// LoadConfigFile reads configuration from the environment with a YAML file
// overlay.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// Client is the assembled marketplace client.
type Client struct {
	Suggestions *views.SuggestionsView
	Assistant   *views.AssistantView
	Profile     *views.ProfileView
	Admin       *views.AdminView
	Dashboard   *views.DashboardView
	Imports     *views.ImportView

	api    *api.Client
	cache  *cache.Cache
	tokens auth.TokenStore
	logger *logger.Logger
	tracer *sdktrace.TracerProvider
}

// Option customizes the assembled client.
type Option func(*options)

type options struct {
	tokens   auth.TokenStore
	notify   mutation.Notifier
	log      *logger.Logger
	httpOpts []api.Option
}

// WithTokenStore replaces the default file-backed token store.
func WithTokenStore(store auth.TokenStore) Option {
	return func(o *options) { o.tokens = store }
}

// WithNotifier receives success/error notifications (the toast surface).
func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) { o.notify = n }
}

// WithLogger replaces the default logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpOpts = append(o.httpOpts, api.WithHTTPClient(hc)) }
}

// New assembles a client from configuration.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Load()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.log
	if log == nil {
		var err error
		log, err = logger.New(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		logger.SetGlobal(log)
	}

	var tracerProvider *sdktrace.TracerProvider
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "marketplace-client", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			tracerProvider = tp
			o.httpOpts = append(o.httpOpts, api.WithTransport(tracing.NewTransport(nil)))
		}
	}

	tokens := o.tokens
	if tokens == nil {
		tokens = auth.NewFileStore(cfg.TokenPath)
	}

	apiClient, err := api.NewClient(cfg.BaseURL, tokens, log, o.httpOpts...)
	if err != nil {
		return nil, err
	}

	queryCache := cache.New(cache.Options{
		MaxEntries:       cfg.CacheMaxEntries,
		DefaultStaleTime: cfg.DefaultStaleTime,
		RetryMax:         cfg.RetryMax,
		RetryInterval:    cfg.RetryInterval,
		PermanentError: func(err error) bool {
			return api.IsAuthError(err) || api.IsRateLimited(err)
		},
		Logger: log,
	})
	views.RegisterEdges(queryCache)

	deps := &views.Deps{
		API:    apiClient,
		Cache:  queryCache,
		Tokens: tokens,
		Notify: o.notify,
		Logger: log,
	}

	return &Client{
		Suggestions: views.NewSuggestionsView(deps),
		Assistant:   views.NewAssistantView(deps, cfg.PollInterval),
		Profile:     views.NewProfileView(deps, cfg.MaxAvatarBytes),
		Admin:       views.NewAdminView(deps),
		Dashboard:   views.NewDashboardView(deps),
		Imports:     views.NewImportView(deps),
		api:         apiClient,
		cache:       queryCache,
		tokens:      tokens,
		logger:      log,
		tracer:      tracerProvider,
	}, nil
}

// Login stores the access token for subsequent requests.
func (c *Client) Login(token string) error {
	if auth.Expired(token, time.Now()) {
		return fmt.Errorf("token is already expired")
	}
	return c.tokens.SetToken(token)
}

// Logout tells the backend to revoke the session, then clears the local token
// and the whole cache so subsequent reads treat the user as logged out. The
// logout request itself authenticates with the http-only cookie, not the
// bearer token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.api.Do(ctx, http.MethodPost, "/logout", nil)
	c.tokens.Clear()
	c.cache.Clear()
	return err
}

// Close releases background resources: the assistant poll loop and the tracer
// provider.
func (c *Client) Close(ctx context.Context) error {
	c.Assistant.Close()
	if c.tracer != nil {
		return tracing.Shutdown(ctx, c.tracer)
	}
	return nil
}
