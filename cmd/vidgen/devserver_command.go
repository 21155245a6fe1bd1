package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/devbackend"
	"github.com/better-hash/ai-video-generator/internal/logging"
)

func newDevServerCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var step time.Duration
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run the simulated generation backend locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(false)
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) == "" {
				bind = cfg.DevServer.Bind
			}
			if !cmd.Flags().Changed("step") {
				step = cfg.DevServerStep()
			}

			listener, err := net.Listen("tcp", bind)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", bind, err)
			}
			server := &http.Server{
				Handler:           devbackend.New(devbackend.Options{StepInterval: step, Logger: logger}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dev backend listening on http://%s/api (step %s)\n", listener.Addr(), step)
			logger.Info("dev backend started", logging.String("bind", listener.Addr().String()), logging.Duration("step", step))

			errCh := make(chan error, 1)
			go func() { errCh <- server.Serve(listener) }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown dev backend: %w", err)
			}
			logger.Info("dev backend stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to dev_server.bind)")
	cmd.Flags().DurationVar(&step, "step", 0, "Time per progress step (defaults to dev_server.step_millis)")
	return cmd
}
