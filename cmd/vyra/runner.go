package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/config"
	"github.com/llehouerou/vyra/internal/state"
)

// Runner holds the dependencies shared by every command.
type Runner struct {
	logger *log.Logger
	input  io.Reader
	output io.Writer
}

// RunnerOpts configures a Runner. Nil fields get the process defaults.
type RunnerOpts struct {
	Logger *log.Logger
	Input  io.Reader
	Output io.Writer
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{logger: opts.Logger, input: opts.Input, output: opts.Output}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playCommand, resumeCommand, statusCommand, likesCommand, recentCommand,
		downloadCommand, downloadsCommand, cacheCommand, eqCommand, lastfmCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// open loads the configuration and the state database. The caller closes
// the returned manager.
func (r *Runner) open(cmd *cli.Command) (*config.Config, *state.Manager, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel()
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	r.logger.SetLevel(level)

	var st *state.Manager
	if path := cmd.String("db"); path != "" {
		st, err = state.OpenPath(path)
	} else {
		st, err = state.Open()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}
	return cfg, st, nil
}

func (r *Runner) writeln(format string, args ...any) {
	fmt.Fprintf(r.output, format+"\n", args...)
}

// writeTracks prints a numbered track list.
func (r *Runner) writeTracks(tracks []catalog.Track, empty string) {
	if len(tracks) == 0 {
		r.writeln("%s", empty)
		return
	}
	for i, t := range tracks {
		r.writeln("%3d. %s", i+1, formatTrack(t))
	}
}

func formatTrack(t catalog.Track) string {
	s := t.Title
	if artists := t.ArtistNames(); artists != "" {
		s += " - " + artists
	}
	if t.Duration > 0 {
		s += " (" + formatDuration(t.Duration) + ")"
	}
	return s
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
