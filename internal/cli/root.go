// Package cli implements the ai-tutor CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ai-tutor/internal/api"
	"github.com/rcliao/ai-tutor/internal/catalog"
	"github.com/rcliao/ai-tutor/internal/chat"
	"github.com/rcliao/ai-tutor/internal/config"
	"github.com/rcliao/ai-tutor/internal/logger"
	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/render"
	"github.com/rcliao/ai-tutor/internal/store"
)

var (
	dbPath     string
	formatFlag string
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ai-tutor",
	Short: "Terminal client for the AI tutor",
	Long:  "Chat with per-course AI tutors, browse course roadmaps and manage enrollment from the terminal.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AI_TUTOR_DB or ~/.ai-tutor/tutor.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text, json or yaml")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.ai-tutor/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr")
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s: %v\n", errLabel("error"), msg, err)
	os.Exit(1)
}

// app bundles what a command needs to talk to the tutor.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.SQLiteStore
	client  *api.Client
	session *api.Session
	catalog *catalog.Cache
}

func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

// openApp loads config, logging, the local store and the saved session.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	log, err := logger.New(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	s, err := store.NewSQLiteStore(getDBPath(cfg))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  s,
		client: api.NewClient(cfg.APIURL, cfg.RequestTimeout, logger.Module(log, "api")),
	}
	a.catalog = catalog.New(a.client, cfg.CatalogTTL)

	a.session, err = loadSession(ctx, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	a.log.Sync()
	a.store.Close()
}

// controller builds a chat controller with the saved session restored.
func (a *app) controller(ctx context.Context, onScroll func(string)) (*chat.Controller, error) {
	c := chat.New(chat.Options{
		Backend:            a.client,
		Catalog:            a.catalog,
		Session:            a.session,
		Renderer:           render.New(a.cfg.Render),
		Logger:             logger.Module(a.log, "chat"),
		AskTimeout:         a.cfg.AskTimeout,
		NoticeTTL:          a.cfg.NoticeTTL,
		HistoryConcurrency: a.cfg.HistoryConcurrency,
		OnScroll:           onScroll,
	})

	st, err := a.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(st.Sidebar) == 0 {
		// Saved transcripts (imported ones included) survive a fresh load.
		c.Restore(*st)
		if err := c.Load(ctx); err != nil {
			return nil, fmt.Errorf("load courses: %w", err)
		}
		return c, nil
	}

	if _, err := a.catalog.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	c.Restore(*st)
	return c, nil
}

func (a *app) saveState(ctx context.Context, c *chat.Controller) {
	if err := a.store.SaveState(ctx, c.State()); err != nil {
		a.log.Error("failed to save session", zap.Error(err))
		fmt.Fprintf(os.Stderr, "%s: could not save session: %v\n", warnLabel("warning"), err)
	}
}

func mustApp(cmd *cobra.Command) *app {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("init", err)
	}
	return a
}

func requireLogin(a *app) {
	if !a.session.Authorized() {
		a.Close()
		exitErr("not logged in", api.ErrNoToken)
	}
}

func userLabel(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
