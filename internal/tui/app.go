// Package tui is the terminal view surface. It attaches to a view controller
// like any other surface: outbound messages arrive through a Transport and
// key presses are dispatched as inbound commands.
package tui

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/logging"
)

// App runs the terminal view against a host.
type App struct {
	host     Host
	logger   *logging.Logger
	logLimit int
	options  []tea.ProgramOption
}

// New creates an App for host. opts are passed to tea.NewProgram after the
// defaults, so tests can swap input and output.
func New(host Host, logLimit int, logger *logging.Logger, opts ...tea.ProgramOption) *App {
	return &App{
		host:     host,
		logger:   logging.OrNop(logger).WithComponent("tui"),
		logLimit: logLimit,
		options:  opts,
	}
}

// Run attaches to the host and blocks until the user quits or ctx ends.
// The host is detached, not disposed, on return.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	}, a.options...)
	program := tea.NewProgram(NewModel(ctx, a.host, a.logLimit), opts...)

	transport := NewTransport(DefaultBuffer)
	defer transport.Close()
	go transport.Pump(ctx, program.Send)

	a.host.Attach(transport)
	defer a.host.Detach(transport)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			program.Send(tea.Quit())
		case <-ctx.Done():
		}
	}()

	a.logger.Info("terminal view started")
	_, err := program.Run()
	a.host.SetVisible(false)
	a.logger.Info("terminal view stopped")
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
