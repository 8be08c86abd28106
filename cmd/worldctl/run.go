package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/api"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/config"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/episodic"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/llm"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/store"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/world"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the tick loop and HTTP/WS surface",
		Long:  "Boots the world, seeds agents from the persistence store (or a small demo population if none are persisted), and serves the operator HTTP/WS surface until interrupted.",
		RunE:  runRunCommand,
	}
	cmd.Flags().String("config", "", "path to config.yaml (default: ./config.yaml, /etc/worldctl/config.yaml)")
	return cmd
}

func runRunCommand(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	advisor := buildAdvisor(cfg)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	w := world.New(advisor, logger)
	seedAgents(w, db, advisor, logger)
	wireEpisodicStore(w, cfg, logger)

	srv := api.New(w, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	defer w.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Engine()}

	fmt.Printf("🧠 world engine listening on http://%s\n", addr)
	fmt.Printf("   time_speed=%.2f  llm_provider=%s  store=%s\n", cfg.World.TimeSpeed, cfg.LLM.Provider, cfg.Store.Path)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		fmt.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func loadRunConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildLogger(levelStr string) (*zap.Logger, error) {
	if levelStr == "" {
		return zap.NewProduction()
	}
	level, err := config.ParseLogLevel(levelStr)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func buildAdvisor(cfg *config.Config) llm.Advisor {
	switch cfg.LLM.Provider {
	case "anthropic":
		return llm.NewAnthropicProvider(cfg.LLM.AnthropicModel)
	case "multi":
		return llm.NewMultiProvider(llm.NewAnthropicProvider(cfg.LLM.AnthropicModel))
	default:
		return llm.NewFallbackProvider()
	}
}

// wireEpisodicStore installs the optional supabase-backed episodic memory
// collaborator when the operator has both enabled it in config.yaml and set
// SUPABASE_URL/SUPABASE_KEY in the environment. Left unwired, the world
// simply never records episodic turns (spec §1 "a vector store for episodic
// memory" is strictly optional side-channel, never a dependency).
func wireEpisodicStore(w *world.World, cfg *config.Config, logger *zap.Logger) {
	if !cfg.Episodic.Enabled {
		return
	}
	url, key := config.SupabaseCredentialsFromEnv()
	if url == "" || key == "" {
		logger.Warn("episodic_enabled_but_unconfigured", zap.String("hint", "set SUPABASE_URL and SUPABASE_KEY"))
		return
	}
	episodicStore, err := episodic.NewStore(url, key)
	if err != nil {
		logger.Warn("episodic_store_init_failed", zap.Error(err))
		return
	}
	w.SetEpisodicStore(episodicStore)
}

// seedAgents restores persisted agents if any exist, otherwise creates a
// small demo population so a fresh `run` has something to observe.
func seedAgents(w *world.World, db *store.Store, advisor llm.Advisor, logger *zap.Logger) {
	persisted, err := db.ListAgents()
	if err != nil {
		logger.Warn("list_agents_failed", zap.Error(err))
	}
	if len(persisted) > 0 {
		for _, rec := range persisted {
			a := agent.New(rec.Name, emotion.Personality{
				Openness: rec.Openness, Conscientiousness: rec.Conscientiousness,
				Extraversion: rec.Extraversion, Agreeableness: rec.Agreeableness,
				Neuroticism: rec.Neuroticism,
			}, advisor)
			w.AddAgent(a)
		}
		return
	}

	demo := []struct {
		name        string
		personality emotion.Personality
	}{
		{"Alice", emotion.Personality{Openness: 0.7, Conscientiousness: 0.6, Extraversion: 0.8, Agreeableness: 0.6, Neuroticism: 0.3}},
		{"Bob", emotion.Personality{Openness: 0.4, Conscientiousness: 0.8, Extraversion: 0.3, Agreeableness: 0.5, Neuroticism: 0.5}},
	}
	for _, d := range demo {
		a := agent.New(d.name, d.personality, advisor)
		w.AddAgent(a)
		_ = db.UpsertAgent(store.AgentRecord{
			ID: a.ID, Name: a.Name,
			Openness: d.personality.Openness, Conscientiousness: d.personality.Conscientiousness,
			Extraversion: d.personality.Extraversion, Agreeableness: d.personality.Agreeableness,
			Neuroticism: d.personality.Neuroticism,
		})
	}
}
