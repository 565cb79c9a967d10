package dmsclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/dmsclient/navigation"
	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/refresh"
)

// Config is the complete client configuration.
//
// A Config is copied into the [Client] at build time; later mutation of the
// caller's value has no effect.
type Config struct {
	Transport     TransportConfig
	TokenStore    TokenStoreConfig
	Authorization AuthorizationConfig
	Refresh       RefreshConfig
	Navigation    NavigationConfig
	Session       SessionConfig
	Events        EventsConfig
	Metrics       MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the HTTP client.
type TransportConfig struct {
	// BaseURL is the absolute API root, e.g. http://localhost:8080/api.
	BaseURL         string
	Timeout         time.Duration
	WithCredentials bool
	UserAgent       string
}

/*
====================================
TOKEN STORE CONFIG
====================================
*/

// TokenStoreKind selects where the access token is persisted.
type TokenStoreKind string

const (
	// TokenStoreMemory keeps the token for the life of the process.
	TokenStoreMemory TokenStoreKind = "memory"
	// TokenStoreFile keeps the token in a YAML credentials file.
	TokenStoreFile TokenStoreKind = "file"
	// TokenStoreRedis keeps the token in Redis. The client is supplied with
	// [Builder.WithRedis].
	TokenStoreRedis TokenStoreKind = "redis"
)

// TokenStoreConfig configures token persistence. It is ignored when a store
// is supplied with [Builder.WithTokenStore].
type TokenStoreConfig struct {
	Kind TokenStoreKind
	// Key names the token inside the file or Redis namespace.
	Key         string
	FilePath    string
	RedisPrefix string
	RedisTTL    time.Duration
}

/*
====================================
AUTHORIZATION CONFIG
====================================
*/

// AuthorizationConfig lists the role names that bypass permission checks.
type AuthorizationConfig struct {
	// BypassRoles match case-insensitively.
	BypassRoles []string
	// BypassRolesExact match byte for byte.
	BypassRolesExact []string
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures the token freshness monitor.
type RefreshConfig struct {
	Enabled   bool
	Threshold time.Duration
}

/*
====================================
NAVIGATION CONFIG
====================================
*/

// NavigationConfig configures the route table and the guard.
type NavigationConfig struct {
	LoginPath     string
	LandingPath   string
	RedirectParam string
	// RoutesFile, when set, replaces the built-in route table.
	RoutesFile string
	MaxHops    int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures session presentation.
type SessionConfig struct {
	// UnknownUserLabel is the display name when no user is loaded.
	UnknownUserLabel string
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig configures asynchronous delivery of session events.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	bypass := permission.DefaultBypassRoles()
	guard := navigation.DefaultGuardConfig()
	return Config{
		Transport: TransportConfig{
			BaseURL:         "http://localhost:8080/api",
			Timeout:         30 * time.Second,
			WithCredentials: true,
			UserAgent:       "dmsclient",
		},
		TokenStore: TokenStoreConfig{
			Kind:        TokenStoreMemory,
			Key:         "token",
			RedisPrefix: "dms",
		},
		Authorization: AuthorizationConfig{
			BypassRoles:      bypass.Folded,
			BypassRolesExact: bypass.Exact,
		},
		Refresh: RefreshConfig{
			Enabled:   true,
			Threshold: refresh.DefaultThreshold,
		},
		Navigation: NavigationConfig{
			LoginPath:     guard.LoginPath,
			LandingPath:   guard.LandingPath,
			RedirectParam: guard.RedirectParam,
			MaxHops:       navigation.DefaultMaxHops,
		},
		Session: SessionConfig{
			UnknownUserLabel: "Unknown user",
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Authorization.BypassRoles = cloneStrings(cfg.Authorization.BypassRoles)
	out.Authorization.BypassRolesExact = cloneStrings(cfg.Authorization.BypassRolesExact)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func (c *Config) bypassRoles() permission.BypassRoles {
	return permission.BypassRoles{
		Folded: cloneStrings(c.Authorization.BypassRoles),
		Exact:  cloneStrings(c.Authorization.BypassRolesExact),
	}
}

func (c *Config) guardConfig() navigation.GuardConfig {
	return navigation.GuardConfig{
		LoginPath:     c.Navigation.LoginPath,
		LandingPath:   c.Navigation.LandingPath,
		RedirectParam: c.Navigation.RedirectParam,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting, wrapped in [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Transport
	if strings.TrimSpace(c.Transport.BaseURL) == "" {
		return errors.New("Transport BaseURL must be set")
	}
	u, err := url.Parse(c.Transport.BaseURL)
	if err != nil {
		return fmt.Errorf("Transport BaseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("Transport BaseURL must be an absolute http(s) URL")
	}
	if u.Host == "" {
		return errors.New("Transport BaseURL must include a host")
	}
	if c.Transport.Timeout < 0 {
		return errors.New("Transport Timeout must be >= 0")
	}

	// Token store
	switch c.TokenStore.Kind {
	case TokenStoreMemory:
	case TokenStoreFile:
		if strings.TrimSpace(c.TokenStore.FilePath) == "" {
			return errors.New("TokenStore FilePath must be set for the file store")
		}
		if strings.TrimSpace(c.TokenStore.Key) == "" {
			return errors.New("TokenStore Key must be set")
		}
	case TokenStoreRedis:
		if strings.TrimSpace(c.TokenStore.Key) == "" {
			return errors.New("TokenStore Key must be set")
		}
		if c.TokenStore.RedisTTL < 0 {
			return errors.New("TokenStore RedisTTL must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported TokenStore Kind %q", c.TokenStore.Kind)
	}

	// Refresh
	if c.Refresh.Enabled && c.Refresh.Threshold <= 0 {
		return errors.New("Refresh Threshold must be > 0 when Refresh is enabled")
	}

	// Navigation
	if !strings.HasPrefix(c.Navigation.LoginPath, "/") {
		return errors.New("Navigation LoginPath must start with /")
	}
	if !strings.HasPrefix(c.Navigation.LandingPath, "/") {
		return errors.New("Navigation LandingPath must start with /")
	}
	if c.Navigation.LoginPath == c.Navigation.LandingPath {
		return errors.New("Navigation LoginPath and LandingPath must differ")
	}
	if strings.TrimSpace(c.Navigation.RedirectParam) == "" {
		return errors.New("Navigation RedirectParam must be set")
	}
	if c.Navigation.MaxHops <= 0 {
		return errors.New("Navigation MaxHops must be > 0")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when Events are enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
