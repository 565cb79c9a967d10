package tokenstore

import (
	"context"
	"errors"
	"sync"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "token"

// ErrEmptyKey is returned by constructors given a blank key.
var ErrEmptyKey = errors.New("tokenstore: empty key")

// Store is durable storage for the current access token.
//
// Load returns "" with a nil error when no token is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Memory is a process-local Store. The zero value is ready to use.
type Memory struct {
	mu    sync.RWMutex
	token string
}

// NewMemory returns a Memory store seeded with token.
func NewMemory(token string) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
