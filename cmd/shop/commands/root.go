package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-shop/cmd/shop/output"
	"github.com/marshallshelly/pebble-shop/internal/config"
	"github.com/marshallshelly/pebble-shop/internal/models"
	"github.com/marshallshelly/pebble-shop/internal/shop"
	"github.com/marshallshelly/pebble-shop/pkg/session"
)

var (
	// Global flags
	dbURL   string
	verbose bool
	reset   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Seed and query a small customer, catalog and purchase store",
	Long: `Shop creates the customers, catalog_items and purchases tables, inserts
sample rows and runs a fixed sequence of queries, one update and one delete.

The store is a SQLite file (shop.db) unless --db or SHOP_DATABASE_URL points
somewhere else, including a postgres:// URL.

Environment:
  SHOP_DATABASE_URL   storage location (default shop.db)
  SHOP_LOG_LEVEL      debug, info, warn or error (default warn)
  SHOP_BUSY_TIMEOUT   SQLite busy timeout (default 5s)
  SHOP_RESET          drop existing tables before running`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShop,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		output.New(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&dbURL, "db", "", "Storage location: file path, sqlite:// or postgres:// URL (overrides SHOP_DATABASE_URL)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every statement to stderr")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Drop existing tables before running")
}

func runShop(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabaseURL = dbURL
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	if cmd.Flags().Changed("reset") {
		cfg.Reset = reset
	}

	ctx := cmd.Context()
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	sess, err := session.Open(ctx, cfg.Runtime(logger))
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DatabaseURL, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("close session", "error", err)
		}
	}()

	out := output.New(cmd.OutOrStdout())

	if cfg.Reset {
		if err := models.RegisterAll(); err != nil {
			return err
		}
		if err := sess.ResetSchema(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		out.Warning("Dropped existing tables in %s", sess.DB().Target())
	}

	_, err = shop.Run(ctx, sess, out)
	return err
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
