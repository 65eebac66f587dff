// Package retriever assembles a Bundle from the other stores and packs it
// to a token budget, per spec.md §4.6. It depends on its collaborators
// through narrow local interfaces rather than importing their concrete
// store types directly, the same capability-interface pattern treeindex
// uses for its ChunkSearcher (spec.md §9).
package retriever

import (
	"context"

	"github.com/cliair-memcore/memcore/internal/rank"
	"github.com/cliair-memcore/memcore/memtypes"
)

// DefaultRecentEventLimit is N in spec.md §4.6 step 3.
const DefaultRecentEventLimit = 10

// DefaultRecentEventWindowMillis is W in spec.md §4.6 step 3 (30 minutes).
const DefaultRecentEventWindowMillis = 30 * 60 * 1000

// DefaultChunkLimit is M in spec.md §4.6 step 5.
const DefaultChunkLimit = 5

// EventSource supplies recent events for a session.
type EventSource interface {
	GetRecent(ctx context.Context, limit int, sessionID string) ([]memtypes.Event, error)
}

// TaskSource supplies the current task for a session.
type TaskSource interface {
	GetCurrent(ctx context.Context, sessionID string) (memtypes.TaskState, error)
	Get(ctx context.Context, id string) (memtypes.TaskState, error)
}

// SummarySource supplies the latest summary for a session.
type SummarySource interface {
	GetLatest(ctx context.Context, sessionID string) (memtypes.Summary, error)
}

// ProfileSource supplies the full profile.
type ProfileSource interface {
	GetAll(ctx context.Context) ([]memtypes.ProfileItem, error)
}

// ChunkSearcher runs semantic search, the same narrow shape treeindex
// consumes.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, opts memtypes.ChunkSearchOptions) ([]memtypes.ScoredChunk, error)
}

// Retriever composes the other stores into Bundle assembly, per spec.md
// §4.6.
type Retriever struct {
	Events    EventSource
	Tasks     TaskSource
	Summaries SummarySource
	Profiles  ProfileSource
	Chunks    ChunkSearcher

	Budget    Budget
	Estimator Estimator

	RecentEventLimit        int
	RecentEventWindowMillis int64
	ChunkLimit              int

	RankOptions rank.Options

	// EnableSemantic toggles step 5 (spec.md §6 "enable flags"); when
	// false, retrieve never calls Chunks.Search even if a query is given.
	EnableSemantic bool
}

// New builds a Retriever with spec.md §4.6 defaults. Any of the source
// interfaces may be nil; Retrieve skips the corresponding bundle section
// rather than panicking, so partially wired configurations (e.g. no
// semantic store configured) still work.
func New(events EventSource, tasks TaskSource, summaries SummarySource, profiles ProfileSource, chunks ChunkSearcher) *Retriever {
	return &Retriever{
		Events:                  events,
		Tasks:                   tasks,
		Summaries:               summaries,
		Profiles:                profiles,
		Chunks:                  chunks,
		Budget:                  DefaultBudget(),
		Estimator:               DefaultEstimator,
		RecentEventLimit:        DefaultRecentEventLimit,
		RecentEventWindowMillis: DefaultRecentEventWindowMillis,
		ChunkLimit:              DefaultChunkLimit,
		EnableSemantic:          true,
	}
}

// Retrieve assembles and packs a Bundle, per spec.md §4.6.
func (r *Retriever) Retrieve(ctx context.Context, q memtypes.RetrieveQuery) (memtypes.Bundle, error) {
	now := memtypes.NowMillis()
	bundle := memtypes.Bundle{Timestamp: now}

	if r.Profiles != nil {
		profile, err := r.Profiles.GetAll(ctx)
		if err != nil {
			return memtypes.Bundle{}, memtypes.Wrap(memtypes.KindDatabase, "retriever.Retrieve", err)
		}
		bundle.Profile = profile
	}

	if r.Tasks != nil {
		task, err := r.loadTask(ctx, q)
		if err != nil {
			return memtypes.Bundle{}, err
		}
		bundle.TaskState = task
	}

	if r.Events != nil {
		limit := r.RecentEventLimit
		if limit <= 0 {
			limit = DefaultRecentEventLimit
		}
		events, err := r.Events.GetRecent(ctx, limit, q.SessionID)
		if err != nil {
			return memtypes.Bundle{}, memtypes.Wrap(memtypes.KindDatabase, "retriever.Retrieve", err)
		}
		window := r.RecentEventWindowMillis
		if window <= 0 {
			window = DefaultRecentEventWindowMillis
		}
		cutoff := now - window
		var inWindow []memtypes.Event
		for _, ev := range events {
			if ev.Timestamp >= cutoff {
				inWindow = append(inWindow, ev)
			}
		}
		bundle.RecentEvents = inWindow
	}

	if r.Summaries != nil {
		summary, err := r.Summaries.GetLatest(ctx, q.SessionID)
		if err != nil {
			if !memtypes.Is(err, memtypes.KindNotFound) {
				return memtypes.Bundle{}, memtypes.Wrap(memtypes.KindDatabase, "retriever.Retrieve", err)
			}
		} else {
			bundle.Summary = &summary
		}
	}

	if r.EnableSemantic && r.Chunks != nil && q.Query != "" {
		limit := r.ChunkLimit
		if limit <= 0 {
			limit = DefaultChunkLimit
		}
		candidates, err := r.Chunks.Search(ctx, q.Query, memtypes.ChunkSearchOptions{SessionID: q.SessionID, Limit: limit})
		if err != nil {
			return memtypes.Bundle{}, memtypes.Wrap(memtypes.KindSemanticSearch, "retriever.Retrieve", err)
		}
		opts := r.RankOptions
		opts.Now = now
		if opts.Limit <= 0 {
			opts.Limit = limit
		}
		ranked, _ := rank.Run(candidates, opts)
		scored := make([]memtypes.ScoredChunk, len(ranked))
		for i, item := range ranked {
			scored[i] = memtypes.ScoredChunk{Chunk: item.Chunk, Score: item.Score, MatchType: memtypes.MatchHybrid}
		}
		bundle.RetrievedChunks = scored
	}

	budget := r.Budget
	if budget.Total == 0 {
		budget = DefaultBudget()
	}
	estimator := r.Estimator
	if estimator == nil {
		estimator = DefaultEstimator
	}
	pack(&bundle, budget, estimator)

	return bundle, nil
}

func (r *Retriever) loadTask(ctx context.Context, q memtypes.RetrieveQuery) (*memtypes.TaskState, error) {
	var task memtypes.TaskState
	var err error
	if q.TaskID != "" {
		task, err = r.Tasks.Get(ctx, q.TaskID)
	} else {
		task, err = r.Tasks.GetCurrent(ctx, q.SessionID)
	}
	if err != nil {
		if memtypes.Is(err, memtypes.KindNotFound) {
			return nil, nil
		}
		return nil, memtypes.Wrap(memtypes.KindDatabase, "retriever.Retrieve", err)
	}
	return &task, nil
}
