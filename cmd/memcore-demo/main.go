package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cliair-memcore/memcore/manager"
	"github.com/cliair-memcore/memcore/memtypes"
)

func main() {
	configPath := flag.String("config", "configs/memcore.yaml", "Path to configuration file")
	flag.Parse()

	log.Println("===============================================")
	log.Println("  memcore - agent memory demo")
	log.Println("===============================================")

	var cfg *DemoConfig
	if _, err := os.Stat(*configPath); err == nil {
		cfg, err = LoadConfig(*configPath)
		if err != nil {
			log.Printf("[MAIN] Warning: failed to load config from %s: %v", *configPath, err)
			log.Println("[MAIN] Using default configuration")
			cfg = DefaultDemoConfig()
		} else {
			log.Printf("[MAIN] Loaded configuration from %s", *configPath)
		}
	} else {
		log.Println("[MAIN] Config file not found, using defaults")
		cfg = DefaultDemoConfig()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("[MAIN] Failed to create data directory: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	mgrCfg := manager.DefaultConfig(filepath.Join(cfg.DataDir, "memcore.db"))
	mgrCfg.Logger = logger
	mgrCfg.EnableSemantic = cfg.Semantic.Enabled
	if cfg.Semantic.Dimension > 0 {
		mgrCfg.Dimension = cfg.Semantic.Dimension
	}
	if cfg.Semantic.Provider != "" {
		mgrCfg.Provider = cfg.Semantic.Provider
	}
	if cfg.Semantic.Model != "" {
		mgrCfg.Model = cfg.Semantic.Model
	}
	if cfg.Budget.Total > 0 {
		mgrCfg.Budget.Total = cfg.Budget.Total
	}
	if cfg.Budget.Profile > 0 {
		mgrCfg.Budget.Profile = cfg.Budget.Profile
	}
	if cfg.Budget.Task > 0 {
		mgrCfg.Budget.Task = cfg.Budget.Task
	}
	if cfg.Budget.RecentEvents > 0 {
		mgrCfg.Budget.RecentEvents = cfg.Budget.RecentEvents
	}
	if cfg.Budget.Chunks > 0 {
		mgrCfg.Budget.Chunks = cfg.Budget.Chunks
	}
	if cfg.Budget.Summary > 0 {
		mgrCfg.Budget.Summary = cfg.Budget.Summary
	}
	if cfg.Flush.MaxContextTokens > 0 {
		mgrCfg.Flush.MaxContextTokens = cfg.Flush.MaxContextTokens
	}
	if cfg.Flush.SoftThresholdTokens > 0 {
		mgrCfg.Flush.SoftThresholdTokens = cfg.Flush.SoftThresholdTokens
	}
	if cfg.Flush.HardThresholdTokens > 0 {
		mgrCfg.Flush.HardThresholdTokens = cfg.Flush.HardThresholdTokens
	}

	ctx := context.Background()
	mgr, err := manager.New(ctx, mgrCfg)
	if err != nil {
		log.Fatalf("[MAIN] Failed to initialize manager: %v", err)
	}
	defer mgr.Close()

	log.Println("[MAIN] Memory system initialized (events, tasks, summaries, profile, chunks, tree)")
	log.Printf("[MAIN] Session: %s", mgr.GetSessionID())

	unsub := mgr.OnEvent(func(ev memtypes.Event) {
		logger.Info("event recorded", "type", ev.Type, "id", ev.ID, "summary", ev.Summary)
	})
	defer unsub()

	runDemo(ctx, mgr)
}

// runDemo walks through a small end-to-end scenario: record a task and a
// handful of events, set an explicit preference, retrieve a context
// bundle, and inject it as Markdown.
func runDemo(ctx context.Context, mgr *manager.Manager) {
	task, err := mgr.CreateTask(ctx, memtypes.TaskInput{
		Goal: "wire the retriever into the demo CLI",
		Constraints: []memtypes.Constraint{
			{Kind: memtypes.ConstraintMust, Description: "keep the context bundle under its token budget"},
		},
	})
	if err != nil {
		log.Fatalf("[MAIN] CreateTask: %v", err)
	}
	log.Printf("[MAIN] Created task %s: %s", task.ID, task.Goal)

	if _, err := mgr.SetProfile(ctx, memtypes.ProfileInput{
		Key:        "verbosity",
		Value:      "concise",
		Confidence: 1.0,
		Explicit:   true,
	}); err != nil {
		log.Printf("[MAIN] SetProfile: %v", err)
	}

	events := []memtypes.EventInput{
		{Type: memtypes.EventUserMsg, Summary: "from now on always use tabs for indentation"},
		{Type: memtypes.EventDecision, Summary: "decided to build the Markdown injector with fixed section headers"},
		{Type: memtypes.EventToolResult, Summary: "ran the retriever test suite, all packing tests passed"},
	}
	for _, input := range events {
		if _, err := mgr.RecordEvent(ctx, input); err != nil {
			log.Printf("[MAIN] RecordEvent: %v", err)
		}
	}

	bundle, err := mgr.Retrieve(ctx, memtypes.RetrieveQuery{Query: "retriever token budget"})
	if err != nil {
		log.Fatalf("[MAIN] Retrieve: %v", err)
	}

	fmt.Println()
	fmt.Println(manager.Inject(bundle))

	health := mgr.Health()
	log.Printf("[MAIN] Context health: used_fraction=%.2f recommendation=%s", health.UsedFraction, health.Recommendation)
}
