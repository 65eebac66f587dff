package manager

import "github.com/cliair-memcore/memcore/memtypes"

// GetSessionID returns the current session identifier, per spec.md §6.
func (m *Manager) GetSessionID() string {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	return m.sessionID
}

// SetSessionID overrides the current session identifier, per spec.md §6.
func (m *Manager) SetSessionID(id string) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	m.sessionID = id
}

// NewSession mints and adopts a fresh opaque session id, per spec.md §6
// ("session identifiers are opaque strings (UUID by default)").
func (m *Manager) NewSession() string {
	id := memtypes.NewID()
	m.SetSessionID(id)
	return id
}
