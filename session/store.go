package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/MrEthical07/dmsclient/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrStale is returned when the session changed while a login was in
	// flight and the reply was discarded.
	ErrStale = errors.New("session changed while request was in flight")
	// ErrNoUser is logged when a current-user reply carries no user and none
	// is loaded.
	ErrNoUser = errors.New("current-user reply carried no user")
)

// Store holds the authentication state of one client.
//
// Store is safe for concurrent use. Network calls run without locks held;
// their results are committed only if the generation they started under is
// still current.
type Store struct {
	api    AuthAPI
	tokens tokenstore.Store
	logger zerolog.Logger
	sink   EventSink
	now    func() time.Time

	// writeMu serialises commits (token persistence plus state swap).
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   Session

	flight singleflight.Group

	listenersMu  sync.Mutex
	listeners    map[uint64]func(TokenChange)
	nextListener uint64
}

// Option customizes a [Store].
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithEventSink sets the destination for session events.
func WithEventSink(sink EventSink) Option {
	return func(s *Store) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store.
func New(api AuthAPI, tokens tokenstore.Store, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("session: auth api required")
	}
	if tokens == nil {
		return nil, errors.New("session: token store required")
	}
	s := &Store{
		api:       api,
		tokens:    tokens,
		logger:    zerolog.Nop(),
		sink:      noopSink{},
		now:       time.Now,
		listeners: make(map[uint64]func(TokenChange)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnToken registers fn to be called after every token change. The returned
// func unregisters it. Listeners run synchronously on the mutating goroutine.
func (s *Store) OnToken(fn func(TokenChange)) (cancel func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify(change TokenChange) {
	s.listenersMu.Lock()
	fns := make([]func(TokenChange), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (s *Store) emit(ctx context.Context, typ EventType, snap Session, err error) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		At:         s.now(),
		Generation: snap.generation,
		Success:    err == nil,
	}
	if snap.user != nil {
		ev.Username = snap.user.Username
		ev.UserID = snap.user.ID
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.sink.Emit(ctx, ev)
}

// LoginResult is the outcome of a login attempt the backend answered.
type LoginResult struct {
	OK bool
	// Message is the backend's reason for a rejection, if it gave one.
	Message string
}

// Login authenticates with the backend, persists the token and loads the
// full identity. A backend rejection yields (false, nil); transport failures
// are returned.
func (s *Store) Login(ctx context.Context, creds Credentials) (bool, error) {
	res, err := s.SignIn(ctx, creds)
	return res.OK, err
}

// rejection reports whether err is the backend refusing the credentials:
// a success:false envelope or a 401 reply. Either carries a server message.
func rejection(err error) (string, bool) {
	if !errors.Is(err, transport.ErrBusiness) && !errors.Is(err, transport.ErrUnauthorized) {
		return "", false
	}
	if apiErr, ok := transport.AsAPIError(err); ok {
		if apiErr.Detail != "" {
			return apiErr.Detail, true
		}
		return apiErr.Message, true
	}
	return "", true
}

// SignIn is Login that also reports the backend's rejection message.
func (s *Store) SignIn(ctx context.Context, creds Credentials) (LoginResult, error) {
	startGen := s.Snapshot().generation

	id, err := s.api.Login(ctx, creds)
	if err != nil {
		s.emit(ctx, EventLoginFailed, Session{user: &User{Username: creds.Username}}, err)
		if msg, ok := rejection(err); ok {
			s.logger.Warn().Str("username", creds.Username).Err(err).Msg("login rejected")
			return LoginResult{Message: msg}, nil
		}
		s.logger.Error().Str("username", creds.Username).Err(err).Msg("login failed")
		return LoginResult{}, err
	}
	if id.Token == "" {
		s.logger.Warn().Str("username", creds.Username).Msg("login reply carried no token")
		s.emit(ctx, EventLoginFailed, Session{user: &User{Username: creds.Username}}, errors.New("no token"))
		return LoginResult{}, nil
	}

	s.writeMu.Lock()
	if s.Snapshot().generation != startGen {
		s.writeMu.Unlock()
		s.logger.Warn().Str("username", creds.Username).Msg("discarding stale login reply")
		return LoginResult{}, ErrStale
	}
	if err := s.tokens.Save(ctx, id.Token); err != nil {
		s.writeMu.Unlock()
		return LoginResult{}, fmt.Errorf("session: persist token: %w", err)
	}
	s.mu.Lock()
	s.state = Session{
		token:       id.Token,
		user:        id.User,
		permissions: id.Permissions,
		roles:       id.Roles,
		generation:  s.state.generation + 1,
	}
	gen := s.state.generation
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(TokenChange{Token: id.Token, Reason: ReasonLogin, Generation: gen})

	ok := s.FetchCurrentUser(ctx)
	snap := s.Snapshot()
	if !ok {
		s.emit(ctx, EventLoginFailed, Session{user: &User{Username: creds.Username}}, errors.New("current user unavailable after login"))
		return LoginResult{}, nil
	}
	s.emit(ctx, EventLogin, snap, nil)
	s.logger.Info().Str("username", creds.Username).Uint64("generation", gen).Msg("login succeeded")
	return LoginResult{OK: true}, nil
}

// Logout notifies the backend and clears local state. Backend failures are
// logged; local state is cleared regardless.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("logout call failed")
	}
	prev := s.Snapshot()
	s.clear(ctx)
	s.emit(ctx, EventLogout, prev, nil)
}

// Clear drops the session and the persisted token without contacting the
// backend. It is what a 401 on a regular request leads to.
func (s *Store) Clear(ctx context.Context) {
	prev := s.Snapshot()
	s.clear(ctx)
	s.emit(ctx, EventCleared, prev, nil)
}

func (s *Store) clear(ctx context.Context) {
	s.writeMu.Lock()
	gen := s.commitClear(ctx)
	s.writeMu.Unlock()
	s.notify(TokenChange{Reason: ReasonCleared, Generation: gen})
}

// commitClear must be called with writeMu held.
func (s *Store) commitClear(ctx context.Context) uint64 {
	s.mu.Lock()
	gen := s.state.generation + 1
	s.state = Session{generation: gen}
	s.mu.Unlock()

	if err := s.tokens.Delete(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete persisted token")
	}
	return gen
}

// clearIf clears only if gen is still current.
func (s *Store) clearIf(ctx context.Context, gen uint64, cause error) bool {
	s.writeMu.Lock()
	if s.Snapshot().generation != gen {
		s.writeMu.Unlock()
		return false
	}
	prev := s.Snapshot()
	newGen := s.commitClear(ctx)
	s.writeMu.Unlock()

	s.notify(TokenChange{Reason: ReasonCleared, Generation: newGen})
	s.emit(ctx, EventCleared, prev, cause)
	return true
}

// FetchCurrentUser reloads the user, permissions and roles. Any failure
// clears the session. Concurrent callers share one round trip.
func (s *Store) FetchCurrentUser(ctx context.Context) bool {
	gen := s.Snapshot().generation
	v, _, _ := s.flight.Do("me:"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.fetchCurrentUser(ctx, gen), nil
	})
	return v.(bool)
}

func (s *Store) fetchCurrentUser(ctx context.Context, gen uint64) bool {
	id, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("fetch current user failed; clearing session")
		s.clearIf(ctx, gen, err)
		return false
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if s.state.generation != gen {
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding stale current-user reply")
		return false
	}
	user := id.User
	if user == nil {
		user = s.state.user
	}
	if user == nil {
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.logger.Warn().Err(ErrNoUser).Msg("fetch current user failed; clearing session")
		s.clearIf(ctx, gen, ErrNoUser)
		return false
	}
	u := *user
	s.state = Session{
		token:       s.state.token,
		user:        &u,
		permissions: id.Permissions,
		roles:       id.Roles,
		generation:  gen,
	}
	s.mu.Unlock()
	s.writeMu.Unlock()
	return true
}

// RefreshToken exchanges the current token for a fresh one. Failure leaves
// the session untouched. Concurrent callers share one round trip.
func (s *Store) RefreshToken(ctx context.Context) bool {
	gen := s.Snapshot().generation
	v, _, _ := s.flight.Do("refresh:"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.refreshToken(ctx, gen), nil
	})
	return v.(bool)
}

func (s *Store) refreshToken(ctx context.Context, gen uint64) bool {
	token, err := s.api.Refresh(ctx)
	if err == nil && token == "" {
		err = errors.New("refresh reply carried no token")
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("token refresh failed")
		s.emit(ctx, EventRefreshError, s.Snapshot(), err)
		return false
	}

	s.writeMu.Lock()
	if s.Snapshot().generation != gen {
		s.writeMu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding stale refresh reply")
		return false
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		s.writeMu.Unlock()
		s.logger.Error().Err(err).Msg("failed to persist refreshed token")
		s.emit(ctx, EventRefreshError, s.Snapshot(), err)
		return false
	}
	s.mu.Lock()
	s.state.token = token
	snap := s.state
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(TokenChange{Token: token, Reason: ReasonRefresh, Generation: gen})
	s.emit(ctx, EventRefresh, snap, nil)
	return true
}

// UpdateProfile sends the update and merges the result into the loaded user.
// Backend failures are returned.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (bool, error) {
	gen := s.Snapshot().generation

	reply, err := s.api.UpdateProfile(ctx, update)
	if err != nil {
		s.logger.Warn().Err(err).Msg("update profile failed")
		return false, err
	}
	patch := User{Nickname: update.Nickname, Email: update.Email}
	if reply != nil {
		patch = *reply
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if s.state.generation == gen && s.state.user != nil {
		merged := s.state.user.merge(patch)
		s.state.user = &merged
	}
	snap := s.state
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.emit(ctx, EventProfile, snap, nil)
	return true, nil
}

// ChangePassword is a passthrough; backend failures are returned.
func (s *Store) ChangePassword(ctx context.Context, oldPassword, newPassword string) (bool, error) {
	if err := s.api.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		s.logger.Warn().Err(err).Msg("change password failed")
		return false, err
	}
	s.emit(ctx, EventPassword, s.Snapshot(), nil)
	return true, nil
}

// ForgotPassword asks the backend to send a reset link.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	return s.api.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset with the emailed token.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.api.ResetPassword(ctx, token, newPassword)
}

// Restore loads the persisted token into memory without validating it.
// The user is loaded later, on demand. It reports whether a token was found.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("session: load token: %w", err)
	}
	if token == "" {
		return false, nil
	}

	s.writeMu.Lock()
	s.mu.Lock()
	s.state = Session{token: token, generation: s.state.generation + 1}
	gen := s.state.generation
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(TokenChange{Token: token, Reason: ReasonRestore, Generation: gen})
	return true, nil
}

// Initialize restores the persisted token and validates it. Without a
// persisted token it returns false without any network call.
func (s *Store) Initialize(ctx context.Context) bool {
	found, err := s.Restore(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not read persisted token")
		return false
	}
	if !found {
		return false
	}

	ok := s.FetchCurrentUser(ctx)
	if ok {
		s.emit(ctx, EventRestore, s.Snapshot(), nil)
	}
	return ok
}
