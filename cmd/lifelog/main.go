package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lifelog_agent/internal/agent"
	"lifelog_agent/internal/api"
	"lifelog_agent/internal/app"
	"lifelog_agent/internal/config"
	"lifelog_agent/internal/lifelog"
	"lifelog_agent/internal/logger"
	"lifelog_agent/internal/pending"
	"lifelog_agent/internal/promote"
	"lifelog_agent/internal/ratelimit"
	"lifelog_agent/internal/session"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifelog",
		Short: "Proactive daily update agent",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daily update HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := logger.Init(cfg.Log); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := lifelog.Open(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	domainStore, err := lifelog.NewStore(db)
	if err != nil {
		return fmt.Errorf("init domain store: %w", err)
	}
	pendingStore, err := pending.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("init pending store: %w", err)
	}

	sessionTTL := time.Duration(cfg.Session.TTLSeconds) * time.Second
	var sessionStore session.Store
	redisStore, err := session.NewRedisStore(ctx, cfg.Redis.URL, sessionTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory sessions")
		sessionStore = session.NewMemoryStore()
	} else {
		defer redisStore.Close()
		sessionStore = redisStore
	}

	sessions := session.NewManager(sessionStore, app.NewEntryCounter(pendingStore))
	promoter := promote.New(promote.Stores{
		Tasks:    domainStore,
		Expenses: domainStore,
		Events:   domainStore,
		Journal:  domainStore,
	})
	entries := pending.NewService(pendingStore, promoter, app.NewSessionMarker(sessions))

	engine, err := agent.NewOpenAIEngine(ctx, cfg.Model)
	if err != nil {
		return fmt.Errorf("init extraction engine: %w", err)
	}

	limits := ratelimit.NewDisabledManager()
	if cfg.RateLimit.Enabled {
		limits = ratelimit.NewManager(
			cfg.RateLimit.DefaultRequests,
			time.Duration(cfg.RateLimit.DefaultWindowSeconds)*time.Second,
		)
	}
	chatGuard := limits.Guard(app.ChatFeature,
		ratelimit.WithQuota(cfg.RateLimit.ChatRequests),
		ratelimit.WithWindow(time.Duration(cfg.RateLimit.ChatWindowSeconds)*time.Second),
	)

	// One turn is a user/assistant message pair.
	updates := app.NewService(sessions, entries, engine, chatGuard,
		app.WithHistoryLimit(cfg.Session.HistoryMaxTurns*2))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(updates, entries),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("daily update server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Info().Msg("shutting down")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			return err
		}
	}
	return nil
}
