package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/linebridge/internal/bridge"
	"github.com/Iron-Ham/linebridge/internal/config"
	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/heartbeat"
	"github.com/Iron-Ham/linebridge/internal/logging"
	"github.com/Iron-Ham/linebridge/internal/reactor"
	"github.com/Iron-Ham/linebridge/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge on this process's stdin and stdout",
	Long: `Run the bridge on this process's stdin and stdout.

The bridge owns both streams while it runs. In headless mode (the default)
traffic is written to the log only and the bridge exits when its input
closes. In console mode a terminal view opens on /dev/tty where lines can
be typed and sent.

Examples:
  # Bridge stdio, logging traffic at debug level
  linebridge run --log-level debug

  # Open the console view
  linebridge run --ui console

  # Announce ourselves, then echo nothing further
  linebridge run --send "ready"`,
	RunE: runBridge,
}

// Flags that map onto configuration keys. Bound to viper when the command
// runs, so root and run can share them.
var runFlagKeys = map[string]string{
	"policy":             "bridge.completion_policy",
	"ui":                 "ui.mode",
	"log-level":          "logging.level",
	"heartbeat-interval": "heartbeat.interval_ms",
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(c *cobra.Command) {
	c.Flags().String("policy", "", "end-of-stream policy: distinct_eof or always_publish")
	c.Flags().String("ui", "", "ui mode: headless or console")
	c.Flags().String("log-level", "", "log level: debug, info, warn, error")
	c.Flags().Int("heartbeat-interval", 0, "heartbeat interval in milliseconds (0 disables)")
	c.Flags().StringArray("send", nil, "message to send once the bridge is up (repeatable)")
}

func bindRunFlags(c *cobra.Command) error {
	for flag, key := range runFlagKeys {
		if f := c.Flags().Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	if err := bindRunFlags(cmd); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	greetings, _ := cmd.Flags().GetStringArray("send")

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(cfg, logger, bridge.NewStdio)
	if err != nil {
		return err
	}
	defer s.close()

	s.watchConfig()
	for _, msg := range greetings {
		s.post(msg)
	}

	if cfg.UI.Mode == config.UIModeConsole {
		return s.runConsole(ctx)
	}
	return s.runHeadless(ctx)
}

// newLogger builds the process logger from configuration. Disabled logging
// yields a no-op logger. Stdout is never a log destination.
func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLoggerWithRotation(cfg.ResolveDir(), cfg.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// openFunc opens a bridge on a notifier; bridge.NewStdio in production.
type openFunc func(n reactor.Notifier, bus *event.Bus, opts ...bridge.Option) (*bridge.Bridge, error)

// session is one running bridge with its loop, bus, and heartbeat.
type session struct {
	cfg     *config.Config
	logger  *logging.Logger
	loop    *reactor.Loop
	bus     *event.Bus
	bridge  *bridge.Bridge
	monitor *heartbeat.Monitor
}

func newSession(cfg *config.Config, logger *logging.Logger, open openFunc) (*session, error) {
	policy, err := bridge.ParsePolicy(cfg.Bridge.CompletionPolicy)
	if err != nil {
		return nil, err
	}

	loop := reactor.New(
		reactor.WithPollInterval(cfg.Bridge.PollInterval()),
		reactor.WithLogger(logger),
	)
	bus := event.NewBus(event.WithLogger(logger))

	b, err := open(loop, bus,
		bridge.WithPolicy(policy),
		bridge.WithCapacityHint(cfg.Bridge.CapacityHint),
		bridge.WithLogger(logger),
	)
	if err != nil {
		loop.Stop()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		loop:    loop,
		bus:     bus,
		bridge:  b,
		monitor: heartbeat.New(b, bus, cfg.Heartbeat, heartbeat.WithLogger(logger)),
	}, nil
}

// post schedules a send on the loop. It never blocks on a stopped loop.
func (s *session) post(msg string) {
	s.loop.Post(func() { _ = s.bridge.Send(msg) })
}

// watchConfig applies config file changes while running: the log level
// takes effect at once and a reload event is published. Other keys apply
// on the next start.
func (s *session) watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	config.Watch(func(path string, cfg *config.Config) {
		s.loop.Post(func() {
			s.logger.SetLevel(cfg.Logging.Level)
			s.logger.Info("config reloaded", "path", path, "level", s.logger.Level())
			s.bus.Publish(event.NewConfigReloadedEvent(path))
		})
	}, func(err error) {
		s.logger.Warn("ignoring invalid config change", "error", err.Error())
	})
}

// runHeadless logs traffic and runs until the bridge can do no more work or
// ctx is cancelled.
func (s *session) runHeadless(ctx context.Context) error {
	subID := logTraffic(s.bus, s.logger)
	defer s.bus.Unsubscribe(subID)
	stopID := stopWhenFinished(s.bus, s.loop)
	defer s.bus.Unsubscribe(stopID)

	if err := s.monitor.Start(s.loop); err != nil {
		return err
	}
	defer s.monitor.Stop()

	return ignoreCancel(s.loop.Run(ctx))
}

// runConsole runs the loop in the background and the console in front.
// Quitting the console stops the bridge.
func (s *session) runConsole(ctx context.Context) error {
	subID := logTraffic(s.bus, s.logger)
	defer s.bus.Unsubscribe(subID)

	if err := s.monitor.Start(s.loop); err != nil {
		return err
	}
	defer s.monitor.Stop()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.loop.Run(ctx) }()

	app := tui.New(s.bus, s.cfg.UI, s.post, s.logger)
	uiErr := app.Run(ctx)

	s.loop.Stop()
	runErr := ignoreCancel(<-loopErr)
	if uiErr != nil {
		return uiErr
	}
	return runErr
}

func (s *session) close() {
	s.logSummary()
	_ = s.bridge.Close()
	s.loop.Stop()
	if n := s.bus.SubscriptionCount(); n > 0 {
		s.logger.Debug("handlers still subscribed at close", "count", n)
	}
}

// logSummary records the traffic totals and how each side ended.
func (s *session) logSummary() {
	stats := s.bridge.Stats()
	args := []any{
		"received", stats.Received,
		"sent", stats.Sent,
		"input", s.bridge.State().String(),
	}
	if err := s.bridge.WriteErr(); err != nil {
		args = append(args, "write_error", err.Error())
	}
	s.logger.Info("bridge finished", args...)
}

// ignoreCancel treats cancellation, and a loop stopped before it got to
// run, as a clean exit.
func ignoreCancel(err error) error {
	if apperrors.Is(err, context.Canceled) || apperrors.Is(err, apperrors.ErrLoopStopped) {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------
// Bus wiring
// -----------------------------------------------------------------------------

// logTraffic logs every bus event. Message payloads are logged at debug
// level only.
func logTraffic(bus *event.Bus, logger *logging.Logger) string {
	traffic := logger.WithComponent("traffic")
	return bus.SubscribeAll(func(e event.Event) {
		switch ev := e.(type) {
		case event.MessageReceivedEvent:
			traffic.WithDirection("inbound").Debug("message received", "event_type", e.EventType(), "message", ev.Message)
		case event.MessageSentEvent:
			traffic.WithDirection("outbound").Debug("message sent", "event_type", e.EventType(), "message", ev.Message)
		case event.ReadErrorEvent:
			logAtSeverity(traffic, apperrors.GetSeverity(ev.Err), "input failed", "event_type", e.EventType(), "error", ev.Err.Error())
		case event.WriteFailedEvent:
			logAtSeverity(traffic, apperrors.GetSeverity(ev.Err), "output failed", "event_type", e.EventType(), "error", ev.Err.Error())
		case event.PeerLostEvent:
			traffic.Warn("peer lost", "event_type", e.EventType())
		default:
			traffic.Info("bridge event", "event_type", e.EventType())
		}
	})
}

// logAtSeverity logs msg at the level matching an error's severity.
func logAtSeverity(logger *logging.Logger, sev apperrors.Severity, msg string, args ...any) {
	switch sev {
	case apperrors.SeverityDebug:
		logger.Debug(msg, args...)
	case apperrors.SeverityInfo:
		logger.Info(msg, args...)
	case apperrors.SeverityWarning:
		logger.Warn(msg, args...)
	default:
		logger.Error(msg, args...)
	}
}

// stopper is the part of reactor.Loop that stopWhenFinished needs.
type stopper interface {
	Stop()
}

// stopWhenFinished stops the loop once the bridge has nothing left to do
// headless: the input closed or failed, or the output broke.
func stopWhenFinished(bus *event.Bus, s stopper) string {
	return bus.SubscribeAll(func(e event.Event) {
		switch ev := e.(type) {
		case event.EndOfStreamEvent:
			s.Stop()
		case event.ReadErrorEvent:
			if apperrors.IsTerminal(ev.Err) {
				s.Stop()
			}
		case event.WriteFailedEvent:
			if apperrors.IsTerminal(ev.Err) {
				s.Stop()
			}
		}
	})
}
