package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/ralphui/internal/config"
	"github.com/Iron-Ham/ralphui/internal/server"
	"github.com/Iron-Ham/ralphui/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Drive the panel from the terminal",
	Long: `Attach a terminal surface to the panel view.

Keys send the same commands a web view would (s start, p pause, n next,
g generate PRD, ...). Press ? inside the view for the full list.

With --serve, the HTTP view host runs alongside so other surfaces can
attach to the sidebar at the same time.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var tuiServe bool

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiServe, "serve", false, "also serve the views over HTTP")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("ralphui tui needs a terminal; use 'ralphui serve' instead")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	h, err := newHost(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHost(h)

	if tuiServe {
		srv := server.New(server.Options{
			Addr:        cfg.Server.Addr,
			EventBuffer: cfg.Server.EventBuffer,
			Logger:      h.logger,
		}, h.panel, h.sidebar)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			_ = srv.Stop(stopCtx)
		}()
	}

	app := tui.New(h.panel, cfg.Views.LogLimit, h.logger)
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
