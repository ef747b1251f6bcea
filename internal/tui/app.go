package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Iron-Ham/linebridge/internal/config"
	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/logging"
)

// TTYPath is the controlling terminal. The console draws here because the
// process's stdin and stdout carry the bridged protocol.
const TTYPath = "/dev/tty"

// App wraps the Bubbletea program
type App struct {
	bus    *event.Bus
	model  Model
	logger *logging.Logger
	tty    *os.File
}

// New creates a console application that shows bus traffic and hands each
// submitted line to send.
func New(bus *event.Bus, cfg config.UIConfig, send func(string), logger *logging.Logger) *App {
	if bus == nil {
		panic("tui: event.Bus must not be nil")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &App{
		bus:    bus,
		model:  NewModel(cfg, send),
		logger: logger.WithComponent("tui"),
	}
}

// OpenTTY opens the controlling terminal and checks that it is one.
func OpenTTY() (*os.File, error) {
	tty, err := os.OpenFile(TTYPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("console mode needs a controlling terminal: %w", err)
	}
	if !term.IsTerminal(int(tty.Fd())) {
		_ = tty.Close()
		return nil, apperrors.NewValidationError("ui.mode", config.UIModeConsole,
			TTYPath+" is not a terminal")
	}
	return tty, nil
}

// Run opens the terminal and runs the program until the user quits or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	tty, err := OpenTTY()
	if err != nil {
		return err
	}
	a.tty = tty
	defer func() { _ = tty.Close() }()

	return a.run(ctx, tea.WithInput(tty), tea.WithOutput(tty), tea.WithAltScreen())
}

func (a *App) run(ctx context.Context, opts ...tea.ProgramOption) error {
	opts = append(opts, tea.WithContext(ctx))
	program := tea.NewProgram(a.model, opts...)

	// Bus events arrive on the reactor loop; Send hands them to the
	// program's own goroutine.
	subID := a.bus.SubscribeAll(func(e event.Event) {
		program.Send(EventMsg{Event: e})
	})
	defer a.bus.Unsubscribe(subID)

	if a.tty != nil {
		if w, h, err := term.GetSize(int(a.tty.Fd())); err == nil {
			go program.Send(tea.WindowSizeMsg{Width: w, Height: h})
		}
	}

	a.logger.Info("console started")
	_, err := program.Run()
	if err != nil && ctx.Err() != nil &&
		(apperrors.Is(err, tea.ErrProgramKilled) || apperrors.Is(err, ctx.Err())) {
		err = nil
	}
	a.logger.Info("console stopped")
	return err
}
