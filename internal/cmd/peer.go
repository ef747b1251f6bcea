package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/linebridge/internal/bridge"
	"github.com/Iron-Ham/linebridge/internal/config"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/heartbeat"
	"github.com/Iron-Ham/linebridge/internal/logging"
	"github.com/Iron-Ham/linebridge/internal/reactor"
)

var peerCmd = &cobra.Command{
	Use:   "peer -- <command> [args...]",
	Short: "Run a command and talk to it line by line",
	Long: `Run a command with its stdin and stdout bridged to this process.

Lines the command prints are written to stdout, except heartbeat lines,
which are echoed straight back so the command knows its peer is alive.
Lines typed on stdin are sent to the command. peer exits when the
command's output closes.

With --pty the command runs on a pseudo-terminal in raw mode, so programs
that buffer output when it is not a terminal still print line by line.
Closing stdin then hangs up the command instead of closing its input.

Examples:
  # Drive another linebridge from the terminal
  linebridge peer -- linebridge run --heartbeat-interval 1000

  # Talk to any line-oriented program
  linebridge peer --pty -- python3 core.py`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runPeer,
}

var peerUsePTY bool

func init() {
	rootCmd.AddCommand(peerCmd)
	peerCmd.Flags().BoolVar(&peerUsePTY, "pty", false, "run the command on a pseudo-terminal")
}

// lineSender is the part of a bridge the router writes to.
type lineSender interface {
	Send(msg string) error
}

// peerRouter moves lines between the command and the user.
type peerRouter struct {
	child       lineSender // the command's stdin
	user        lineSender // our stdout
	isHeartbeat func(string) bool
	logger      *logging.Logger
}

// fromChild handles a line the command printed.
func (r *peerRouter) fromChild(msg string) {
	if r.isHeartbeat(msg) {
		if err := r.child.Send(msg); err != nil {
			r.logger.Debug("heartbeat echo failed", "error", err.Error())
		}
		return
	}
	if err := r.user.Send(msg); err != nil {
		r.logger.Debug("forward to user failed", "error", err.Error())
	}
}

// fromUser handles a line typed on our stdin.
func (r *peerRouter) fromUser(msg string) {
	if err := r.child.Send(msg); err != nil {
		r.logger.Debug("forward to command failed", "error", err.Error())
	}
}

func (r *peerRouter) subscribe(childBus, userBus *event.Bus) {
	childBus.Subscribe(event.TypeMessageReceived, func(e event.Event) {
		r.fromChild(e.(event.MessageReceivedEvent).Message)
	})
	userBus.Subscribe(event.TypeMessageReceived, func(e event.Event) {
		r.fromUser(e.(event.MessageReceivedEvent).Message)
	})
}

func runPeer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()
	logger = logger.WithComponent("peer")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stderr = os.Stderr
	childOut, childIn, err := startChild(child, peerUsePTY)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	defer func() { _ = childOut.Close() }()
	logger.Info("command started", "command", args[0], "pid", child.Process.Pid, "pty", peerUsePTY)

	runErr := servePeer(ctx, cfg, logger, childOut, childIn)

	_ = childIn.Close()
	waitErr := child.Wait()
	if runErr != nil {
		return runErr
	}
	if waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("%s: %w", args[0], waitErr)
	}
	return nil
}

// startChild starts child and returns the descriptor its output arrives on
// and the writer feeding its input. Both are owned by the caller.
//
// On a pseudo-terminal both are the terminal's master side, switched to raw
// mode so input is not echoed back and "\n" is not rewritten to "\r\n".
// Otherwise child's stdout is a pipe we create, so the bridge gets a
// pollable descriptor.
func startChild(child *exec.Cmd, usePTY bool) (*os.File, io.WriteCloser, error) {
	if usePTY {
		ptmx, err := pty.Start(child)
		if err != nil {
			return nil, nil, err
		}
		if _, err := term.MakeRaw(int(ptmx.Fd())); err != nil {
			_ = child.Process.Kill()
			_ = child.Wait()
			_ = ptmx.Close()
			return nil, nil, fmt.Errorf("raw mode on pty: %w", err)
		}
		return ptmx, ptmx, nil
	}

	childIn, err := child.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	childOut, childOutW, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	child.Stdout = childOutW
	if err := child.Start(); err != nil {
		_ = childOut.Close()
		_ = childOutW.Close()
		return nil, nil, err
	}
	_ = childOutW.Close()
	return childOut, childIn, nil
}

// servePeer bridges the command's output and input to our stdio and runs
// until the command's output closes or ctx is cancelled.
//
// Both bridges use PolicyDistinctEOF regardless of configuration: peer
// needs end-of-stream to know when to exit.
func servePeer(ctx context.Context, cfg *config.Config, logger *logging.Logger, childOut *os.File, childIn io.WriteCloser) error {
	loop := reactor.New(
		reactor.WithPollInterval(cfg.Bridge.PollInterval()),
		reactor.WithLogger(logger),
	)
	defer loop.Stop()

	opts := []bridge.Option{
		bridge.WithPolicy(bridge.PolicyDistinctEOF),
		bridge.WithCapacityHint(cfg.Bridge.CapacityHint),
		bridge.WithLogger(logger),
	}

	childBus := event.NewBus(event.WithLogger(logger))
	childBridge, err := bridge.NewFile(loop, childOut, childIn, childBus, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = childBridge.Close() }()

	userBus := event.NewBus(event.WithLogger(logger))
	userBridge, err := bridge.NewStdio(loop, userBus, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = userBridge.Close() }()

	router := &peerRouter{
		child:       childBridge,
		user:        userBridge,
		isHeartbeat: heartbeat.Matcher(cfg.Heartbeat.Prefix),
		logger:      logger,
	}
	router.subscribe(childBus, userBus)

	// The command's output ending is what ends the session. Our own input
	// closing only closes the command's stdin, and a write to a command
	// that stopped reading is not fatal while it still prints.
	stopOnInputEnd := func(event.Event) { loop.Stop() }
	childBus.Subscribe(event.TypeEndOfStream, stopOnInputEnd)
	childBus.Subscribe(event.TypeReadError, stopOnInputEnd)
	userBus.Subscribe(event.TypeEndOfStream, func(event.Event) {
		logger.Debug("stdin closed, closing command input")
		_ = childIn.Close()
	})

	return ignoreCancel(loop.Run(ctx))
}
