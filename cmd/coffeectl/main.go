package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"coffee_configurator/internal/app"
	"coffee_configurator/internal/config"
	"coffee_configurator/internal/storage/postgresql"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var (
	okMsg   = color.New(color.FgGreen).SprintfFunc()
	failMsg = color.New(color.FgRed, color.Bold).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:           "coffeectl",
	Short:         "Maintenance commands for the coffee configurator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and add missing columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(ctx context.Context, s *postgresql.Storage) error {
			if err := s.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println(okMsg("schema is up to date"))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample machines into an empty catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(cmd.Context(), func(ctx context.Context, s *postgresql.Storage) error {
			if err := s.Migrate(ctx); err != nil {
				return err
			}

			n, err := s.Seed(ctx)
			if err != nil {
				return err
			}

			if n == 0 {
				fmt.Println(color.YellowString("catalog is not empty, nothing seeded"))
				return nil
			}
			fmt.Println(okMsg("seeded %d machines", n))
			return nil
		})
	},
}

var refreshCacheCmd = &cobra.Command{
	Use:   "refresh-cache",
	Short: "Re-download media of every machine into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Machines.RefreshAllMedia(ctx)
			if err != nil {
				return err
			}
			fmt.Println(okMsg("refreshed media for %d machines", n))
			return nil
		})
	},
}

var syncPricesCmd = &cobra.Command{
	Use:   "sync-prices",
	Short: "Update machine prices from Ozon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Machines.SyncAllPrices(ctx)
			if err != nil {
				return err
			}
			fmt.Println(okMsg("updated prices for %d machines", n))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(migrateCmd, seedCmd, refreshCacheCmd, syncPricesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, failMsg("error: %v", err))
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_PATH")
	}
	if cfgFile != "" {
		return config.MustLoadPath(cfgFile)
	}

	return config.MustLoadEnv()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func withStorage(ctx context.Context, fn func(context.Context, *postgresql.Storage) error) error {
	cfg := loadConfig()

	s, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer s.Stop()

	return fn(ctx, s)
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg := loadConfig()

	a, err := app.New(ctx, newLogger(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
