package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/flowtime/internal/config"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/i18n"
	"github.com/sadopc/flowtime/internal/reminder"
	"github.com/sadopc/flowtime/internal/store"
	"github.com/sadopc/flowtime/internal/timer"
	"github.com/sadopc/flowtime/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// The terminal belongs to the TUI; only an explicit log file gets output.
	logger, logCloser, err := cfg.NewLogger(nil)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	dbPath := cfg.DBPath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}

	s, err := store.New(dbPath, store.Options{Driver: cfg.DBDriver, Logger: logger})
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
	lang, err := tui.LoadLanguage(loadCtx, s, cfg.Language)
	if err != nil {
		logger.Warn("using default language", "err", err)
	}
	settings, err := reminder.LoadSettings(loadCtx, s)
	if err != nil {
		logger.Warn("using default break reminder settings", "err", err)
	}
	loadCancel()

	tr := i18n.New(lang)
	journal := history.NewJournal(s, logger)

	sampler := &timer.ManualSampler{}
	ctl := timer.New(timer.Options{Sampler: sampler, TickInterval: cfg.TickInterval})

	// p is assigned before the monitor goroutine starts.
	var p *tea.Program
	monitor := reminder.NewMonitor(reminder.Options{
		Timer:      ctl,
		Translator: tr,
		Settings:   settings,
		Logger:     logger,
		Notifier: reminder.NotifierFunc(func(n reminder.Notification) {
			p.Send(tui.ReminderMsg(n))
		}),
	})

	app := tui.NewApp(tui.Options{
		Journal:      journal,
		Settings:     s,
		Timer:        ctl,
		Sampler:      sampler,
		Monitor:      monitor,
		Translator:   tr,
		Reminder:     settings,
		Logger:       logger,
		TickInterval: cfg.TickInterval,
	})
	defer app.Close()

	p = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("break reminder stopped", "err", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
