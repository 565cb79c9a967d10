package session

import (
	"context"
	"time"
)

// Reason says why the token changed.
type Reason string

const (
	ReasonLogin   Reason = "login"
	ReasonRestore Reason = "restore"
	ReasonRefresh Reason = "refresh"
	ReasonCleared Reason = "cleared"
)

// TokenChange is delivered to token listeners. Token is "" for
// ReasonCleared.
type TokenChange struct {
	Token      string
	Reason     Reason
	Generation uint64
}

// EventType names a session lifecycle event.
type EventType string

const (
	EventLogin        EventType = "login"
	EventLoginFailed  EventType = "login_failed"
	EventLogout       EventType = "logout"
	EventRestore      EventType = "restore"
	EventRefresh      EventType = "refresh"
	EventRefreshError EventType = "refresh_failed"
	EventCleared      EventType = "cleared"
	EventProfile      EventType = "profile_updated"
	EventPassword     EventType = "password_changed"
)

// Event describes a session lifecycle transition.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	At         time.Time `json:"at"`
	Username   string    `json:"username,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Generation uint64    `json:"generation"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// EventSink receives session events. Implementations must not block.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

type noopSink struct{}

func (noopSink) Emit(context.Context, Event) {}
