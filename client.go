package dmsclient

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/dmsclient/api"
	"github.com/MrEthical07/dmsclient/navigation"
	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/refresh"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/MrEthical07/dmsclient/transport"
	"github.com/rs/zerolog"
)

// Client is a signed-in view of the document management backend: REST
// endpoints, the session, the route guard and the token freshness monitor,
// wired together.
//
// Client methods are safe for concurrent use after [Builder.Build].
type Client struct {
	config Config
	logger zerolog.Logger

	tokens    tokenstore.Store
	transport *transport.Client
	api       *api.Client
	store     *session.Store
	evaluator *permission.Evaluator
	router    *navigation.Router
	guard     *navigation.Guard
	navigator *navigation.Navigator
	monitor   *refresh.Monitor
	events    *eventDispatcher
	metrics   *Metrics

	stopTokens func()
	closed     atomic.Bool
}

// Close stops the freshness monitor and drains queued events. The persisted
// token is left in place.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.stopTokens != nil {
		c.stopTokens()
	}
	if c.monitor != nil {
		c.monitor.Close()
	}
	c.events.Close()
}

func (c *Client) ready() error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	return nil
}

// API returns the REST endpoint groups.
func (c *Client) API() *api.Client { return c.api }

// Session returns the session store.
func (c *Client) Session() *session.Store { return c.store }

// Navigator returns the guarded navigator.
func (c *Client) Navigator() *navigation.Navigator { return c.navigator }

// Evaluator returns the permission evaluator.
func (c *Client) Evaluator() *permission.Evaluator { return c.evaluator }

// Snapshot returns the current session.
func (c *Client) Snapshot() session.Session { return c.store.Snapshot() }

// Config returns a copy of the configuration.
func (c *Client) Config() Config { return cloneConfig(c.config) }

// Initialize restores a persisted token and loads the current user. It
// reports whether a signed-in session is available.
func (c *Client) Initialize(ctx context.Context) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.store.Initialize(ctx), nil
}

// Login signs in from the login route and then moves to the route named by
// the redirect parameter of the current location, or to the landing route.
// Rejected credentials yield an error wrapping ErrLoginRejected with the
// backend's message.
func (c *Client) Login(ctx context.Context, username, password string) (navigation.Location, error) {
	if err := c.ready(); err != nil {
		return navigation.Location{}, err
	}
	// A 401 for bad credentials must not trigger the sign-out policy.
	if !c.navigator.OnLoginScreen() {
		c.navigator.ToLogin(ctx)
	}
	res, err := c.store.SignIn(ctx, session.Credentials{Username: username, Password: password})
	if err != nil {
		return navigation.Location{}, err
	}
	if !res.OK {
		if res.Message != "" {
			return navigation.Location{}, fmt.Errorf("%w: %s", ErrLoginRejected, res.Message)
		}
		return navigation.Location{}, ErrLoginRejected
	}
	return c.navigator.Push(ctx, c.postLoginTarget())
}

func (c *Client) postLoginTarget() string {
	target := c.config.Navigation.LandingPath
	if cur, ok := c.navigator.Current(); ok {
		if r := cur.Query.Get(c.config.Navigation.RedirectParam); strings.HasPrefix(r, "/") && !strings.HasPrefix(r, "//") {
			target = r
		}
	}
	return target
}

// Logout ends the session and moves to the login route.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.store.Logout(ctx)
	c.navigator.ToLogin(ctx)
	return nil
}

// Navigate runs a guarded transition to path.
func (c *Client) Navigate(ctx context.Context, path string) (navigation.Location, error) {
	if err := c.ready(); err != nil {
		return navigation.Location{}, err
	}
	return c.navigator.Push(ctx, path)
}

// Menu returns the navigation entries visible to the current session.
func (c *Client) Menu() []navigation.MenuEntry {
	return c.router.Menu(c.evaluator.Bind(c.store.Snapshot()))
}

// DisplayName is the nickname or username of the signed-in user.
func (c *Client) DisplayName() string {
	return c.store.Snapshot().DisplayName(c.config.Session.UnknownUserLabel)
}

func (c *Client) IsAdmin() bool {
	return c.evaluator.IsAdmin(c.store.Snapshot())
}

func (c *Client) HasPermission(code string) bool {
	return c.evaluator.HasPermission(c.store.Snapshot(), code)
}

func (c *Client) HasRole(name string) bool {
	return c.evaluator.HasRole(c.store.Snapshot(), name)
}

func (c *Client) HasAnyPermission(codes ...string) bool {
	return c.evaluator.HasAnyPermission(c.store.Snapshot(), codes)
}

func (c *Client) HasAllPermissions(codes ...string) bool {
	return c.evaluator.HasAllPermissions(c.store.Snapshot(), codes)
}

// Require returns ErrNotAuthenticated without a signed-in user and
// ErrPermissionDenied when code is not granted.
func (c *Client) Require(code string) error {
	snap := c.store.Snapshot()
	if !snap.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if !c.evaluator.HasPermission(snap, code) {
		return ErrPermissionDenied
	}
	return nil
}

// NextRefresh returns when the monitor will refresh the token, if a refresh
// is scheduled.
func (c *Client) NextRefresh() (time.Time, bool) {
	if c.monitor == nil {
		return time.Time{}, false
	}
	return c.monitor.NextRefresh()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// EventsDropped is the number of session events dropped under back-pressure.
func (c *Client) EventsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.events.Dropped()
}

func (c *Client) onTokenChange(change session.TokenChange) {
	if change.Reason == session.ReasonCleared || change.Token == "" {
		c.monitor.Disarm()
		return
	}
	if change.Reason == session.ReasonRefresh {
		c.monitor.ArmRefreshed(change.Token)
		return
	}
	c.monitor.Arm(change.Token)
}

// handleUnauthorized runs after the transport has deleted the persisted
// token in response to a 401.
func (c *Client) handleUnauthorized(ctx context.Context, err *transport.APIError) {
	c.logger.Warn().Str("request_id", err.RequestID).Msg("session rejected by backend; signing out")
	c.store.Clear(ctx)
	c.navigator.ToLogin(ctx)
}

func (c *Client) onLoginScreen() bool {
	return c.navigator != nil && c.navigator.OnLoginScreen()
}
