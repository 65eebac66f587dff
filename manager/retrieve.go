package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/retriever"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Retrieve assembles a context bundle for q, defaulting q.SessionID to the
// manager's current session when unset, per spec.md §4.6/§6.
func (m *Manager) Retrieve(ctx context.Context, q memtypes.RetrieveQuery) (memtypes.Bundle, error) {
	if q.SessionID == "" {
		q.SessionID = m.GetSessionID()
	}
	return m.retr.Retrieve(ctx, q)
}

// Inject renders bundle into the fixed Markdown sections an LLM prompt
// expects, per spec.md §4.6.
func Inject(bundle memtypes.Bundle) string {
	return retriever.Inject(bundle)
}
