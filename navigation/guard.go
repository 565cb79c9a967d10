package navigation

import (
	"context"
	"net/url"

	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/rs/zerolog"
)

// SessionSource is the part of session.Store the guard needs.
type SessionSource interface {
	Snapshot() session.Session
	FetchCurrentUser(ctx context.Context) bool
}

// Outcome is the guard's verdict.
type Outcome uint8

const (
	Allow Outcome = iota
	Redirect
)

// Cause explains a decision.
type Cause string

const (
	CausePublicEntry     Cause = "public_entry"
	CauseNoToken         Cause = "no_token"
	CauseUserUnavailable Cause = "user_unavailable"
	CauseNotAdmin        Cause = "not_admin"
	CauseAlreadySignedIn Cause = "already_signed_in"
	CauseAllowed         Cause = "allowed"
)

// Decision is the result of [Guard.Check]. To is set for redirects.
type Decision struct {
	Outcome Outcome
	To      string
	Cause   Cause
}

// Allowed reports whether the transition may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// GuardConfig names the login and landing routes.
type GuardConfig struct {
	LoginPath   string
	LandingPath string
	// RedirectParam carries the original target on login redirects.
	RedirectParam string
}

// DefaultGuardConfig matches DefaultRoutes.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{LoginPath: LoginPath, LandingPath: LandingPath, RedirectParam: "redirect"}
}

// Guard decides whether a transition may proceed.
type Guard struct {
	sessions  SessionSource
	evaluator *permission.Evaluator
	cfg       GuardConfig
	logger    zerolog.Logger
}

// NewGuard returns a Guard. Empty config fields take their defaults.
func NewGuard(sessions SessionSource, evaluator *permission.Evaluator, cfg GuardConfig, logger zerolog.Logger) *Guard {
	def := DefaultGuardConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = def.LandingPath
	}
	if cfg.RedirectParam == "" {
		cfg.RedirectParam = def.RedirectParam
	}
	return &Guard{sessions: sessions, evaluator: evaluator, cfg: cfg, logger: logger}
}

// Config returns the guard's configuration.
func (g *Guard) Config() GuardConfig { return g.cfg }

// Check runs before every transition. from is nil on the first navigation.
func (g *Guard) Check(ctx context.Context, to Location, from *Location) Decision {
	if from == nil && !to.Meta.AuthRequired() {
		return Decision{Outcome: Allow, Cause: CausePublicEntry}
	}

	snap := g.sessions.Snapshot()

	if to.Meta.AuthRequired() {
		if !snap.HasToken() {
			return g.toLogin(to, CauseNoToken)
		}
		if !snap.UserLoaded() {
			if !g.sessions.FetchCurrentUser(ctx) {
				return g.toLogin(to, CauseUserUnavailable)
			}
			snap = g.sessions.Snapshot()
		}
		if to.Meta.AdminRequired() && !g.evaluator.IsAdmin(snap) {
			g.logger.Debug().Str("path", to.Path).Msg("admin route denied; sending to landing")
			return Decision{Outcome: Redirect, To: g.cfg.LandingPath, Cause: CauseNotAdmin}
		}
	} else if snap.HasToken() && to.Path == g.cfg.LoginPath {
		return Decision{Outcome: Redirect, To: g.cfg.LandingPath, Cause: CauseAlreadySignedIn}
	}

	return Decision{Outcome: Allow, Cause: CauseAllowed}
}

func (g *Guard) toLogin(to Location, cause Cause) Decision {
	q := url.Values{g.cfg.RedirectParam: {to.FullPath()}}
	return Decision{
		Outcome: Redirect,
		To:      g.cfg.LoginPath + "?" + encodeQuery(q),
		Cause:   cause,
	}
}
