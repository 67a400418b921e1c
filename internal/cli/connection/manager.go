package connection

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/minikv/internal/client"
)

// ErrNotConnected is returned by Current when no server is selected.
var ErrNotConnected = errors.New("not connected")

// DialFunc opens a RESP client.
type DialFunc func(ctx context.Context, addr string) (*client.Client, error)

// Manager manages the connection to the current server.
type Manager struct {
	dial DialFunc

	mu     sync.Mutex
	addr   string
	client *client.Client
}

// NewManager creates a manager targeting addr. Nothing is dialled until
// Client is first called.
func NewManager(addr string) *Manager {
	return &Manager{dial: client.Dial, addr: addr}
}

// Addr returns the current server address.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Client returns the open client, dialling the current address if needed.
func (m *Manager) Client(ctx context.Context) (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	if m.addr == "" {
		return nil, ErrNotConnected
	}
	c, err := m.dial(ctx, m.addr)
	if err != nil {
		return nil, err
	}
	m.client = c
	return c, nil
}

// Connect switches to addr. The new server is dialled before the old
// connection is dropped, so a failed switch leaves the manager unchanged.
func (m *Manager) Connect(ctx context.Context, addr string) error {
	c, err := m.dial(ctx, addr)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.client
	m.addr, m.client = addr, c
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Detach hands the open client to the caller and forgets it. The next
// Client call dials again. Used when a command takes over the connection,
// as SUBSCRIBE does.
func (m *Manager) Detach() {
	m.mu.Lock()
	m.client = nil
	m.mu.Unlock()
}

// Reset closes the open client after an I/O failure so the next call
// reconnects.
func (m *Manager) Reset() {
	m.mu.Lock()
	c := m.client
	m.client = nil
	m.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// Close closes the open client, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	c := m.client
	m.client = nil
	m.mu.Unlock()
	if c != nil {
		return c.Close()
	}
	return nil
}

// IsConnected returns true if a client is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}
