// authgatectl is the operations CLI: connectivity checks and manual sweeps
// against the same store the server uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maticastro/authgate/internal/cleanup"
	"github.com/maticastro/authgate/internal/config"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/store"

	_ "github.com/maticastro/authgate/internal/store/memory"
	_ "github.com/maticastro/authgate/internal/store/pg"
)

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "authgatectl",
		Short:         "Operations CLI for the authgate service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(pingCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(logger.Config{Env: "dev", Level: "warn", ServiceName: "authgatectl"})

	return store.Open(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	})
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check store connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired refresh tokens and one-time codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			sweeper := cleanup.New(cleanup.Deps{Tokens: st.Tokens(), Otps: st.Otps()})
			stats, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("refresh tokens removed: %d\n", stats.RefreshTokens)
			fmt.Printf("otp challenges removed: %d\n", stats.OtpChallenges)
			return nil
		},
	}
}
