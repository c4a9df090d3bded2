package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/vyra/internal/logging"
	"github.com/llehouerou/vyra/internal/stderr"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Capture stderr before the audio libraries initialize so their noise
	// ends up in the log instead of on the terminal.
	captured := stderr.Start() == nil
	logger := logging.New(stderr.Original(), log.InfoLevel)
	if captured {
		go logging.Forward(logger, "stderr", stderr.Messages)
		defer stderr.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := &cli.Command{
		Name:     "vyra",
		Usage:    "Stream music from YouTube Music in the terminal",
		Version:  version,
		Flags:    globalFlags(),
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("vyra failed", "err", err)
		return 1
	}
	return 0
}
