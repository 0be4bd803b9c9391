package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dkillam05/farmvista-copilot/internal/config"
	"github.com/dkillam05/farmvista-copilot/internal/engine"
	"github.com/dkillam05/farmvista-copilot/internal/planner"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

var (
	// Global flags
	configPath   string
	snapshotPath string
	verbose      bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "FarmVista Copilot - conversational queries over farm operations data",
	Long: `FarmVista Copilot answers natural-language questions about fields, farms,
equipment, grain storage, boundary requests, and towers from a read-only
snapshot database.

Routing is deterministic: every answer comes from an explicit handler over
snapshot rows, and the engine refuses rather than guesses. An optional
Gemini-backed planner handles questions no deterministic route covers.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "text" {
			zcfg = zap.NewDevelopmentConfig()
		}
		if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if cfg.Logging.File != "" {
			zcfg.OutputPaths = []string{cfg.Logging.File}
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat(cmd.Context())
	},
}

// askCmd answers a single question and exits
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Long: `Answers a single question against the snapshot and prints the result.

Example:
  copilot ask "tillable acres by county"
  copilot ask how many fields do we have`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "copilot.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "override the snapshot database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if snapshotPath != "" {
		cfg.Snapshot.Path = snapshotPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEngine opens the snapshot and assembles the query engine. The
// returned cleanup closes everything in reverse order.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	snap, err := snapshot.Open(cfg.Snapshot.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = snap.Close() }

	opts := []engine.Option{engine.WithPageSize(cfg.Answers.PageSize)}
	if cfg.Planner.Enabled {
		pl, err := planner.New(ctx, snap, planner.Options{
			APIKey: cfg.Planner.APIKey,
			Model:  cfg.Planner.Model,
			RowCap: cfg.Planner.RowCap,
			Logger: logger,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, engine.WithPlanner(pl))
		prev := cleanup
		cleanup = func() {
			_ = pl.Close()
			prev()
		}
	}

	if cfg.Snapshot.Watch {
		watcher, err := snapshot.NewWatcher(snap, logger)
		if err != nil {
			logger.Warn("snapshot watcher unavailable", zap.Error(err))
		} else if err := watcher.Start(); err != nil {
			logger.Warn("snapshot watcher failed to start", zap.Error(err))
		} else {
			prev := cleanup
			cleanup = func() {
				watcher.Stop()
				prev()
			}
		}
	}

	return engine.New(snap, logger, opts...), cleanup, nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	conv := engine.NewConversation(eng)
	resp := conv.Ask(ctx, strings.Join(args, " "))
	fmt.Println(resp.Answer)
	return nil
}
