package manager

import (
	"log/slog"

	"github.com/cliair-memcore/memcore/internal/compact"
	"github.com/cliair-memcore/memcore/internal/policy"
	"github.com/cliair-memcore/memcore/internal/retriever"
	"github.com/cliair-memcore/memcore/internal/semanticstore"
)

// Config is the construction-time configuration for a Manager, per
// spec.md §6 ("configuration accepted at construction (all with
// defaults)"). Mirrors the teacher's Config/ContextBudget option-struct
// pattern rather than a CLI flag/env parser — this is a library.
type Config struct {
	// DBPath is the single SQLite database file backing every store, per
	// spec.md §6 "persistence layout".
	DBPath string

	Budget retriever.Budget

	RecentEventLimit        int
	RecentEventWindowMillis int64
	ChunkLimit              int
	EnableSemantic          bool
	EnableRerank            bool

	WritePolicy policy.Engine

	Flush compact.Config

	Dimension int
	Provider  string
	Model     string

	Debug bool

	Logger *slog.Logger
}

// DefaultConfig returns a Config wired with every component's spec.md
// default, backed by a SQLite file at dbPath.
func DefaultConfig(dbPath string) Config {
	engine := *policy.NewEngine()
	semCfg := semanticstore.DefaultConfig()
	return Config{
		DBPath:                  dbPath,
		Budget:                  retriever.DefaultBudget(),
		RecentEventLimit:        retriever.DefaultRecentEventLimit,
		RecentEventWindowMillis: retriever.DefaultRecentEventWindowMillis,
		ChunkLimit:              retriever.DefaultChunkLimit,
		EnableSemantic:          true,
		EnableRerank:            true,
		WritePolicy:             engine,
		Flush:                   compact.DefaultConfig(),
		Dimension:               semCfg.Dimension,
		Provider:                semCfg.Provider,
		Model:                   semCfg.Model,
	}
}
