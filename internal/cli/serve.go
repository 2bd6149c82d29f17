package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pamonha-express/server/internal/handler"
	logx "github.com/pamonha-express/server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := Build(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: handler.NewRouter(app.Engine, handler.Config{
				AllowedOrigin: cfg.AllowedOrigin,
				TurnTimeout:   cfg.TurnTimeout,
				Quota:         app.Quota,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logx.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logx.Info().Msg("shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Dur("timeout", shutdownTimeout).Msg("graceful shutdown did not complete")
			return srv.Close()
		}
		logx.Info().Msg("http server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address, overrides HTTP_ADDR")
}
