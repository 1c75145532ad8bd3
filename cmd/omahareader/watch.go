package main

import (
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/omahareader/internal/monitor"
	"github.com/lox/omahareader/internal/watch"
)

type WatchCmd struct {
	Server   string `short:"s" default:"http://localhost:5001" help:"Server URL"`
	Plain    bool   `help:"Print updates line by line instead of running the TUI"`
	LogFile  string `help:"Write logs to this file (logs are discarded in TUI mode otherwise)"`
	LogLevel string `short:"l" default:"info" help:"Log level"`
}

func (c *WatchCmd) Run() error {
	var logOut io.Writer = os.Stderr
	if !c.Plain {
		logOut = io.Discard
	}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	logger, err := newLogger(logOut, c.LogLevel)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(logger)
	defer cancel()

	client := watch.NewClient(c.Server, logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	if c.Plain {
		console := monitor.New(os.Stdout)
		return client.Listen(ctx, func(u watch.Update) {
			if err := console.Handle(u.Payload); err != nil {
				logger.Error("Failed to print update", "error", err)
			}
		})
	}

	p := tea.NewProgram(watch.NewModel(c.Server, client.Refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		p.Send(watch.ConnectionMsg{Connected: true})
		err := client.Listen(ctx, func(u watch.Update) { p.Send(watch.UpdateMsg(u)) })
		if err == nil {
			err = errors.New("server closed the connection")
		}
		logger.Debug("Listener stopped", "error", err)
		p.Send(watch.ConnectionMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return err
	}
	return nil
}
