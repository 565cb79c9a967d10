package navigation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultMaxHops bounds redirect chains.
const DefaultMaxHops = 8

// Observer is told about every settled navigation.
type Observer interface {
	ObserveNavigation(to Location, redirects int, cause Cause)
}

// Navigator tracks the current location and routes every transition through
// the guard.
type Navigator struct {
	router   *Router
	guard    *Guard
	maxHops  int
	logger   zerolog.Logger
	observer Observer

	mu      sync.RWMutex
	current *Location
}

// NavigatorOption customizes a [Navigator].
type NavigatorOption func(*Navigator)

// WithMaxHops overrides DefaultMaxHops.
func WithMaxHops(n int) NavigatorOption {
	return func(nv *Navigator) {
		if n > 0 {
			nv.maxHops = n
		}
	}
}

// WithNavigatorLogger sets the logger.
func WithNavigatorLogger(l zerolog.Logger) NavigatorOption {
	return func(nv *Navigator) { nv.logger = l }
}

// WithNavigationObserver sets the observer.
func WithNavigationObserver(o Observer) NavigatorOption {
	return func(nv *Navigator) { nv.observer = o }
}

// NewNavigator returns a Navigator with no current location.
func NewNavigator(router *Router, guard *Guard, opts ...NavigatorOption) *Navigator {
	nv := &Navigator{
		router:  router,
		guard:   guard,
		maxHops: DefaultMaxHops,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(nv)
	}
	return nv
}

// Push navigates to raw and returns where navigation settled.
func (nv *Navigator) Push(ctx context.Context, raw string) (Location, error) {
	nv.mu.RLock()
	from := nv.current
	nv.mu.RUnlock()
	return nv.navigate(ctx, raw, from)
}

// Reload navigates to raw as if the application had just started, which is
// what a hard redirect does.
func (nv *Navigator) Reload(ctx context.Context, raw string) (Location, error) {
	return nv.navigate(ctx, raw, nil)
}

func (nv *Navigator) navigate(ctx context.Context, raw string, from *Location) (Location, error) {
	target := raw
	cause := CauseAllowed
	for hops := 0; hops <= nv.maxHops; hops++ {
		to, err := nv.router.Resolve(target)
		if err != nil {
			return Location{}, err
		}
		if to.Redirect != "" {
			target = to.Redirect
			continue
		}

		d := nv.guard.Check(ctx, to, from)
		if !d.Allowed() {
			nv.logger.Debug().
				Str("from", target).
				Str("to", d.To).
				Str("cause", string(d.Cause)).
				Msg("navigation redirected")
			target = d.To
			cause = d.Cause
			continue
		}

		nv.mu.Lock()
		nv.current = &to
		nv.mu.Unlock()
		if nv.observer != nil {
			nv.observer.ObserveNavigation(to, hops, cause)
		}
		return to, nil
	}
	return Location{}, fmt.Errorf("%w: from %s", ErrTooManyRedirects, raw)
}

// Current returns the current location.
func (nv *Navigator) Current() (Location, bool) {
	nv.mu.RLock()
	defer nv.mu.RUnlock()
	if nv.current == nil {
		return Location{}, false
	}
	return *nv.current, true
}

// OnLoginScreen reports whether the current location is the login route.
func (nv *Navigator) OnLoginScreen() bool {
	cur, ok := nv.Current()
	return ok && strings.HasPrefix(cur.Path, nv.guard.cfg.LoginPath)
}

// ToLogin performs a hard redirect to the login route.
func (nv *Navigator) ToLogin(ctx context.Context) {
	if _, err := nv.Reload(ctx, nv.guard.cfg.LoginPath); err != nil {
		nv.logger.Error().Err(err).Msg("redirect to login failed")
	}
}
