package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Iron-Ham/ralphui/internal/config"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/orchestrator"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
	"github.com/Iron-Ham/ralphui/internal/prd"
	"github.com/Iron-Ham/ralphui/internal/tracing"
	"github.com/Iron-Ham/ralphui/internal/tui"
	"github.com/Iron-Ham/ralphui/internal/view"
)

// host is everything serve and tui share: both views bound to one
// orchestrator driving the PRD checklist.
type host struct {
	cfg       *config.Config
	logger    *logging.Logger
	tracing   *tracing.Provider
	storage   *panelstate.DiskStorage
	checklist *prd.Checklist
	orch      *orchestrator.Orchestrator
	panel     *view.Panel
	sidebar   *view.Sidebar
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// newHost wires the views for cfg. ctx bounds the task loop and the PRD
// watcher; call close when done.
func newHost(ctx context.Context, cfg *config.Config) (*host, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tp, err := tracing.New(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		tp = tracing.Noop()
	}

	h := &host{
		cfg:       cfg,
		logger:    logger,
		tracing:   tp,
		storage:   panelstate.NewDiskStorage(cfg.State.ResolveDir(), cfg.State.CacheSizeKB),
		checklist: prd.NewChecklist(cfg.PRD.Path),
	}

	h.orch = orchestrator.New(ctx, orchestrator.Options{
		Loop:     h.checklist,
		Tasks:    h.checklist.File(),
		Exporter: orchestrator.FileExporter{Dir: filepath.Join(config.ConfigDir(), "exports")},
		Logger:   logger,
	})

	opts := view.Options{
		Visible:  cfg.Views.StartVisible,
		LogLimit: cfg.Views.LogLimit,
		Storage:  h.storage,
		StateKey: cfg.State.Key,
		Logger:   logger,
		Tracer:   tp.Tracer(),
	}

	panelOpts := opts
	panelOpts.Name = "panel"
	// The panel does not replay its model, so a surface attaching after
	// startup gets fresh stats and the missing-PRD hint here.
	panelOpts.OnAttach = func() {
		file := h.checklist.File()
		h.panel.CheckPrdAvailability(ctx, file)
		h.panel.RefreshStats(ctx, file)
	}
	h.panel = view.NewPanel(panelOpts)

	sidebarOpts := opts
	sidebarOpts.Name = "sidebar"
	sidebarOpts.Renderer = tui.Renderer{}
	sidebarOpts.OnOpenPanel = func() {
		logger.Info("open panel requested from sidebar")
		h.panel.SetVisible(true)
	}
	h.sidebar = view.NewSidebar(sidebarOpts)

	h.orch.Bind(h.panel)
	h.orch.Bind(h.sidebar)

	h.orch.CheckPrd(ctx)
	h.orch.RefreshStats(ctx)

	if cfg.PRD.Watch {
		if err := h.watch(ctx); err != nil {
			logger.Warn("PRD watch disabled", "path", cfg.PRD.Path, "error", err)
		}
	}

	logger.Info("host ready",
		"prd", cfg.PRD.Path,
		"state_dir", h.storage.BasePath(),
		"tracing", tp.Exporting(),
	)
	return h, nil
}

// watch refreshes PRD availability and task stats whenever the PRD changes
// on disk, until ctx ends.
func (h *host) watch(ctx context.Context) error {
	changes, err := prd.NewWatcher(h.cfg.PRD.Path, prd.DefaultDebounce, h.logger).Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for kind := range changes {
			h.logger.Debug("PRD changed", "change", kind.String())
			h.orch.CheckPrd(ctx)
			h.orch.RefreshStats(ctx)
		}
	}()
	return nil
}

// close disposes both views and flushes traces.
func (h *host) close(ctx context.Context) {
	if err := h.checklist.Stop(); err != nil {
		h.logger.Debug("checklist already stopped", "error", err)
	}
	h.sidebar.Dispose()
	h.panel.Dispose()
	if err := h.tracing.Shutdown(ctx); err != nil {
		h.logger.Warn("failed to flush traces", "error", err)
	}
	_ = h.logger.Close()
}
