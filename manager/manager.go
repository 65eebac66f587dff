// Package manager implements the Manager façade spec.md §6 describes: the
// single entry point composing every store, the ranking/retrieval
// pipeline, the write-policy engine, and the compaction controller behind
// one session-scoped API. Grounded on the teacher's top-level wiring in
// cmd/cliairmonitor/main.go, generalized from "construct two databases and
// a spawner" into "construct one Manager owning every store".
package manager

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cliair-memcore/memcore/internal/compact"
	"github.com/cliair-memcore/memcore/internal/eventstore"
	"github.com/cliair-memcore/memcore/internal/policy"
	"github.com/cliair-memcore/memcore/internal/profilestore"
	"github.com/cliair-memcore/memcore/internal/retriever"
	"github.com/cliair-memcore/memcore/internal/semanticstore"
	"github.com/cliair-memcore/memcore/internal/summarystore"
	"github.com/cliair-memcore/memcore/internal/taskstore"
	"github.com/cliair-memcore/memcore/internal/treeindex"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Manager is the library's external surface, per spec.md §6.
type Manager struct {
	logger *slog.Logger

	events    *eventstore.Store
	tasks     *taskstore.Store
	summaries *summarystore.Store
	profiles  *profilestore.Store
	chunks    *semanticstore.Store
	tree      *treeindex.Store

	policy    *policy.Engine
	compactor *compact.Controller
	retr      *retriever.Retriever

	sessionMu sync.Mutex
	sessionID string

	observerMu     sync.Mutex
	observers      map[int]func(memtypes.Event)
	nextObserverID int
}

// New opens every store at cfg.DBPath (a single SQLite file, per spec.md
// §6) and wires the retriever, write-policy engine, and compaction
// controller around them.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events, err := eventstore.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}
	tasks, err := taskstore.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}
	summaries, err := summarystore.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}
	profiles, err := profilestore.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}

	semCfg := semanticstore.DefaultConfig()
	if cfg.Dimension > 0 {
		semCfg.Dimension = cfg.Dimension
	}
	if cfg.Provider != "" {
		semCfg.Provider = cfg.Provider
	}
	if cfg.Model != "" {
		semCfg.Model = cfg.Model
	}
	chunks, err := semanticstore.Open(ctx, cfg.DBPath, semCfg, logger.With("component", "semanticstore"))
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}

	tree, err := treeindex.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "manager.New", err)
	}
	tree.SetChunkSearcher(chunks)

	writePolicy := cfg.WritePolicy
	compactor := compact.NewController(cfg.Flush)

	retr := retriever.New(events, tasks, summaries, profiles, chunks)
	retr.Budget = cfg.Budget
	if cfg.RecentEventLimit > 0 {
		retr.RecentEventLimit = cfg.RecentEventLimit
	}
	if cfg.RecentEventWindowMillis > 0 {
		retr.RecentEventWindowMillis = cfg.RecentEventWindowMillis
	}
	if cfg.ChunkLimit > 0 {
		retr.ChunkLimit = cfg.ChunkLimit
	}
	retr.EnableSemantic = cfg.EnableSemantic
	retr.RankOptions.EnableMMR = cfg.EnableRerank

	m := &Manager{
		logger:    logger,
		events:    events,
		tasks:     tasks,
		summaries: summaries,
		profiles:  profiles,
		chunks:    chunks,
		tree:      tree,
		policy:    &writePolicy,
		compactor: compactor,
		retr:      retr,
		sessionID: memtypes.NewID(),
		observers: make(map[int]func(memtypes.Event)),
	}
	return m, nil
}

// Close releases every underlying store handle.
func (m *Manager) Close() error {
	var firstErr error
	for _, closer := range []func() error{m.events.Close, m.tasks.Close, m.summaries.Close, m.profiles.Close, m.chunks.Close, m.tree.Close} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
