package dmsclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/dmsclient/api"
	"github.com/MrEthical07/dmsclient/jwt"
	"github.com/MrEthical07/dmsclient/navigation"
	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/refresh"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/MrEthical07/dmsclient/transport"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Builder assembles a [Client].
//
// Builder instances are configured during initialization and used once;
// a second Build returns [ErrBuilderUsed].
type Builder struct {
	config Config
	redis  redis.UniversalClient
	tokens tokenstore.Store

	httpClient     *http.Client
	logger         zerolog.Logger
	eventSink      EventSink
	notifier       transport.Notifier
	tracerProvider trace.TracerProvider
	clock          refresh.Clock
	routes         []navigation.Route

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Transport.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Transport.BaseURL = baseURL
	return b
}

// WithRedis supplies the client used by the Redis token store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenStore overrides the configured token store.
func (b *Builder) WithTokenStore(store tokenstore.Store) *Builder {
	b.tokens = store
	return b
}

func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// WithEventSink sets where session events go. Events must also be enabled
// in the config.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithNotifier sets the receiver of user-facing request failures.
func (b *Builder) WithNotifier(n transport.Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithClock replaces the wall clock used by the freshness monitor.
func (b *Builder) WithClock(c refresh.Clock) *Builder {
	b.clock = c
	return b
}

// WithRoutes replaces the route table. It takes precedence over
// Navigation.RoutesFile.
func (b *Builder) WithRoutes(routes []navigation.Route) *Builder {
	b.routes = routes
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
//
// Build performs no network I/O; call [Client.Initialize] to restore a
// persisted session.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := b.tokenStore(cfg.TokenStore)
	if err != nil {
		return nil, err
	}

	routes, err := b.routeTable(cfg.Navigation)
	if err != nil {
		return nil, err
	}
	router, err := navigation.NewRouter(routes)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:    cloneConfig(cfg),
		logger:    b.logger,
		tokens:    tokens,
		router:    router,
		evaluator: permission.NewEvaluator(cfg.bypassRoles()),
		metrics:   NewMetrics(cfg.Metrics),
		events:    newEventDispatcher(cfg.Events, b.eventSink),
	}

	// -------- TRANSPORT --------
	topts := []transport.Option{
		transport.WithLogger(b.logger.With().Str("component", "transport").Logger()),
		transport.WithObserver(c.metrics),
		transport.WithUnauthorizedHandler(c.handleUnauthorized),
		transport.WithLoginScreenProbe(c.onLoginScreen),
	}
	if b.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(b.httpClient))
	}
	if b.notifier != nil {
		topts = append(topts, transport.WithNotifier(b.notifier))
	}
	if b.tracerProvider != nil {
		topts = append(topts, transport.WithTracerProvider(b.tracerProvider))
	}
	tc, err := transport.New(transport.Config{
		BaseURL:         cfg.Transport.BaseURL,
		Timeout:         cfg.Transport.Timeout,
		WithCredentials: cfg.Transport.WithCredentials,
		UserAgent:       cfg.Transport.UserAgent,
	}, tokens, topts...)
	if err != nil {
		return nil, err
	}
	c.transport = tc
	c.api = api.New(tc)

	// -------- SESSION --------
	store, err := session.New(c.api.Auth, tokens,
		session.WithLogger(b.logger.With().Str("component", "session").Logger()),
		session.WithEventSink(fanoutSink{c.metrics, c.events}),
	)
	if err != nil {
		c.events.Close()
		return nil, err
	}
	c.store = store

	// -------- NAVIGATION --------
	c.guard = navigation.NewGuard(store, c.evaluator, cfg.guardConfig(),
		b.logger.With().Str("component", "guard").Logger())
	c.navigator = navigation.NewNavigator(router, c.guard,
		navigation.WithMaxHops(cfg.Navigation.MaxHops),
		navigation.WithNavigatorLogger(b.logger.With().Str("component", "navigator").Logger()),
		navigation.WithNavigationObserver(c.metrics),
	)

	// -------- FRESHNESS MONITOR --------
	if cfg.Refresh.Enabled {
		mopts := []refresh.Option{
			refresh.WithThreshold(cfg.Refresh.Threshold),
			refresh.WithLogger(b.logger.With().Str("component", "refresh").Logger()),
			refresh.WithObserver(c.metrics),
		}
		if b.clock != nil {
			mopts = append(mopts, refresh.WithClock(b.clock))
		}
		c.monitor = refresh.New(store, jwt.NewDecoder(), mopts...)
		c.stopTokens = store.OnToken(c.onTokenChange)
	}

	b.built = true

	return c, nil
}

func (b *Builder) tokenStore(cfg TokenStoreConfig) (tokenstore.Store, error) {
	if b.tokens != nil {
		return b.tokens, nil
	}
	switch cfg.Kind {
	case TokenStoreFile:
		return tokenstore.NewFile(cfg.FilePath, cfg.Key)
	case TokenStoreRedis:
		if b.redis == nil {
			return nil, ErrRedisRequired
		}
		return tokenstore.NewRedis(b.redis, tokenstore.RedisConfig{
			Prefix: cfg.RedisPrefix,
			Key:    cfg.Key,
			TTL:    cfg.RedisTTL,
		})
	default:
		return &tokenstore.Memory{}, nil
	}
}

func (b *Builder) routeTable(cfg NavigationConfig) ([]navigation.Route, error) {
	if len(b.routes) > 0 {
		return b.routes, nil
	}
	if cfg.RoutesFile != "" {
		routes, err := navigation.LoadRoutesFile(cfg.RoutesFile)
		if err != nil {
			return nil, fmt.Errorf("load routes: %w", err)
		}
		return routes, nil
	}
	return navigation.DefaultRoutes(), nil
}

// fanoutSink delivers each event to every sink in order.
type fanoutSink []EventSink

func (f fanoutSink) Emit(ctx context.Context, ev session.Event) {
	for _, s := range f {
		s.Emit(ctx, ev)
	}
}
