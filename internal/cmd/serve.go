package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/ralphui/internal/config"
	"github.com/Iron-Ham/ralphui/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the panel and sidebar over HTTP",
	Long: `Serve the panel and sidebar views over HTTP.

Each view exposes a Server-Sent Events stream of outbound messages and
accepts inbound commands as JSON:

  GET  /views                       list views
  GET  /views/{view}/events         outbound message stream
  POST /views/{view}/commands       inbound command
  POST /views/{view}/visibility     {"visible": true|false}
  GET  /views/{view}/state          persisted panel state
  GET  /views/{view}/render         text rendering (sidebar)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := newHost(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:        cfg.Server.Addr,
		EventBuffer: cfg.Server.EventBuffer,
		Logger:      h.logger,
	}, h.panel, h.sidebar)
	if err := srv.Start(); err != nil {
		closeHost(h)
		return fmt.Errorf("failed to start server: %w", err)
	}

	printBanner(cmd, srv)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		h.logger.Warn("server shutdown incomplete", "error", err)
	}
	h.close(shutdownCtx)

	fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
	return nil
}

func closeHost(h *host) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.close(ctx)
}

func printBanner(cmd *cobra.Command, srv *server.Server) {
	out := cmd.OutOrStdout()
	title := color.New(color.Bold, color.FgCyan)
	faint := color.New(color.Faint)

	_, _ = title.Fprintf(out, "ralphui serving on http://%s\n", srv.Addr())
	for _, name := range srv.Views() {
		_, _ = faint.Fprintf(out, "  %-8s http://%s/views/%s/events\n", name, srv.Addr(), name)
	}
	_, _ = faint.Fprintln(out, "Press Ctrl+C to stop.")
}
