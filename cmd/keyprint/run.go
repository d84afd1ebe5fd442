package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nixlim/keyprint/internal/config"
	"github.com/nixlim/keyprint/internal/history"
	"github.com/nixlim/keyprint/internal/keysource"
	"github.com/nixlim/keyprint/internal/logging"
	"github.com/nixlim/keyprint/internal/submit"
	"github.com/nixlim/keyprint/internal/tui"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal; use 'keyprint submit' to send a saved capture")
	}

	cfg, err := loadConfig(opts.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to the configured file or nowhere.
	_, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}

	store, isPersistent, err := history.NewStore(cfg.History)
	if err != nil {
		_ = closeLog()
		return fmt.Errorf("history: %w", err)
	}

	debugLog, closeDebug, err := openDebugLog(opts.debugPath)
	if err != nil {
		_ = store.Close()
		_ = closeLog()
		return err
	}

	submitter := submit.New(submit.NewClient(cfg.Server),
		submit.WithHistory(store),
		submit.WithLogger(debugLog),
	)

	srcCtx, stopSource := context.WithCancel(context.Background())
	defer stopSource()

	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.StopSource = stopSource
	shutdownMgr.CloseHistory = store.Close
	shutdownMgr.Cleanup = func() {
		_ = closeDebug()
		_ = closeLog()
	}

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			if err := shutdownMgr.Shutdown(); err != nil {
				slog.Warn("shutdown incomplete", "err", err)
			}
		})
	}
	defer shutdown()

	model := tui.NewModel(cfg, submitter,
		tui.WithHistoryProvider(store),
		tui.WithPersistenceFlag(isPersistent),
		tui.WithOnShutdown(shutdown),
	)

	p := tea.NewProgram(model, tea.WithAltScreen())

	if cfg.Capture.Source == config.SourceEvdev {
		go streamKeys(srcCtx, p, keysource.Evdev{Device: cfg.Capture.Device})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			shutdown()
			p.Quit()
		case <-srcCtx.Done():
		}
	}()

	slog.Info("keyprint started", "source", cfg.Capture.Source, "server", cfg.Server.BaseURL, "persistent_history", isPersistent)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// streamKeys forwards transitions from src into the program until ctx ends.
func streamKeys(ctx context.Context, p *tea.Program, src keysource.Source) {
	err := src.Stream(ctx, func(tr keysource.Transition) error {
		p.Send(tui.TransitionMsg(tr))
		return nil
	})
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	slog.Error("key source stopped", "err", err)
	p.Send(tui.SourceErrMsg{Err: err})
}
