// npass-mock-api serves an in-memory NeuroPassword API for local development
// and demos.
//
//	npass-mock-api --addr 127.0.0.1:8765
//	npass --api-url http://127.0.0.1:8765/api/ login --seed "<printed seed phrase>"
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/neuropassword/npass/internal/logging"
	"github.com/neuropassword/npass/internal/mockapi"
	"github.com/neuropassword/npass/internal/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string
	var verbose bool

	cmd := &cobra.Command{
		Use:          "npass-mock-api",
		Short:        "Serve an in-memory NeuroPassword API",
		Version:      version.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("mock-api", nil)
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, addr, mockapi.New(logger), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8765", "Listen address")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")

	return cmd
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().Str("addr", addr).Msg("Mock API listening")
	fmt.Fprintf(os.Stderr, "API base URL: http://%s/api/\nSeed phrase:  %s\n", addr, mockapi.DefaultSeedPhrase)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
