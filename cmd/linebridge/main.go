package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/linebridge/internal/cmd"
)

func main() {
	// A vanished reader must surface as a write error, not kill the process.
	signal.Ignore(syscall.SIGPIPE)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
