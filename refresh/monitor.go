package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultThreshold is how long before expiry a token is refreshed.
const DefaultThreshold = 5 * time.Minute

// State is the monitor's scheduling state.
type State uint8

const (
	StateIdle State = iota
	StateScheduled
)

func (s State) String() string {
	if s == StateScheduled {
		return "scheduled"
	}
	return "idle"
}

// Trigger says what started a refresh.
type Trigger string

const (
	TriggerImmediate Trigger = "immediate"
	TriggerTimer     Trigger = "timer"
)

// Refresher performs the refresh. session.Store implements it.
type Refresher interface {
	RefreshToken(ctx context.Context) bool
}

// ExpiryDecoder extracts a token's expiry. jwt.Decoder implements it.
type ExpiryDecoder interface {
	ExpiresAt(token string) (time.Time, error)
}

// Observer is told about scheduling decisions and refresh outcomes.
type Observer interface {
	ObserveSchedule(state State, wait time.Duration)
	ObserveRefresh(trigger Trigger, ok bool)
}

// Option customizes a [Monitor].
type Option func(*Monitor)

// WithThreshold overrides DefaultThreshold. Non-positive values are ignored.
func WithThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithObserver sets the observer.
func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observer = o }
}

// Monitor schedules proactive token refreshes.
type Monitor struct {
	refresher Refresher
	decoder   ExpiryDecoder
	clock     Clock
	threshold time.Duration
	logger    zerolog.Logger
	observer  Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	gen    uint64
	state  State
	timer  Timer
	due    time.Time
	closed bool
}

// New returns an idle Monitor.
func New(refresher Refresher, decoder ExpiryDecoder, opts ...Option) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		refresher: refresher,
		decoder:   decoder,
		clock:     systemClock{},
		threshold: DefaultThreshold,
		logger:    zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Arm replaces any pending schedule with one derived from token. A token
// already inside the threshold is refreshed at once.
func (m *Monitor) Arm(token string) { m.arm(token, false) }

// ArmRefreshed is Arm for a token that a refresh just produced. Such a token
// is never refreshed again at once, even when it is already near expiry.
func (m *Monitor) ArmRefreshed(token string) { m.arm(token, true) }

func (m *Monitor) arm(token string, refreshed bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	gen := m.resetLocked()

	exp, err := m.decoder.ExpiresAt(token)
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(err).Msg("cannot read token expiry; refresh not scheduled")
		m.observe(StateIdle, 0)
		return
	}

	until := exp.Sub(m.clock.Now())
	switch {
	case until <= 0:
		m.mu.Unlock()
		m.logger.Debug().Time("expires_at", exp).Msg("token already expired; refresh not scheduled")
		m.observe(StateIdle, 0)

	case until < m.threshold:
		if refreshed {
			m.mu.Unlock()
			m.logger.Warn().Dur("expires_in", until).Msg("refreshed token is already near expiry; not refreshing again")
			m.observe(StateIdle, 0)
			return
		}
		m.wg.Add(1)
		m.mu.Unlock()
		m.logger.Debug().Dur("expires_in", until).Msg("token near expiry; refreshing now")
		m.observe(StateIdle, 0)
		go func() {
			defer m.wg.Done()
			m.fire(gen, TriggerImmediate)
		}()

	default:
		wait := until - m.threshold
		m.state = StateScheduled
		m.due = exp.Add(-m.threshold)
		m.timer = m.clock.AfterFunc(wait, func() {
			if !m.enter() {
				return
			}
			defer m.wg.Done()
			m.fire(gen, TriggerTimer)
		})
		m.mu.Unlock()
		m.logger.Debug().Dur("wait", wait).Msg("token refresh scheduled")
		m.observe(StateScheduled, wait)
	}
}

// Disarm cancels any pending refresh.
func (m *Monitor) Disarm() {
	m.mu.Lock()
	m.resetLocked()
	m.mu.Unlock()
}

// resetLocked stops the timer and bumps the generation.
func (m *Monitor) resetLocked() uint64 {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = StateIdle
	m.due = time.Time{}
	return m.gen
}

// enter registers a running callback unless the monitor is closed.
func (m *Monitor) enter() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.wg.Add(1)
	return true
}

func (m *Monitor) fire(gen uint64, trigger Trigger) {
	m.mu.Lock()
	if m.closed || m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = StateIdle
	m.due = time.Time{}
	m.mu.Unlock()

	ok := m.refresher.RefreshToken(m.ctx)

	if !ok {
		m.logger.Warn().Str("trigger", string(trigger)).Msg("proactive token refresh failed")
	}
	if m.observer != nil {
		m.observer.ObserveRefresh(trigger, ok)
	}
}

func (m *Monitor) observe(state State, wait time.Duration) {
	if m.observer != nil {
		m.observer.ObserveSchedule(state, wait)
	}
}

// State returns the current scheduling state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// NextRefresh returns when the pending refresh fires, if one is scheduled.
func (m *Monitor) NextRefresh() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.due, m.state == StateScheduled
}

// Close cancels any pending refresh and waits for a running one to return.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.closed = true
	m.resetLocked()
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}
