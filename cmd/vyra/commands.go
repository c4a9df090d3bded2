package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to an extra configuration file",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to the state database (default: $XDG_DATA_HOME/vyra/vyra.db)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level",
		},
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play tracks by video id or URL, a playlist, or the liked tracks",
		ArgsUsage: "[id|url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist or album id to play",
			},
			&cli.BoolFlag{
				Name:    "shuffle",
				Aliases: []string{"s"},
				Usage:   "Enable shuffle",
			},
		},
		Action: r.Play,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "resume",
		Usage:  "Resume the last session where it stopped",
		Action: r.Resume,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the saved session",
		Action: r.Status,
	}
}

func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "likes",
		Usage:  "List liked tracks",
		Action: r.Likes,
	}
}

func recentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "recent",
		Usage:  "List recently played tracks",
		Action: r.Recent,
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download tracks by video id or URL",
		ArgsUsage: "<id|url...>",
		Action:    r.Download,
	}
}

func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "downloads",
		Usage:  "List downloaded tracks",
		Action: r.Downloads,
		Commands: []*cli.Command{
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a downloaded track",
				ArgsUsage: "<id>",
				Action:    r.RemoveDownload,
			},
		},
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "cache",
		Usage:  "List cached tracks",
		Action: r.Cache,
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Delete every cached file",
				Action: r.ClearCache,
			},
		},
	}
}

func eqCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "eq",
		Usage:     "Show the equalizer or select a preset",
		ArgsUsage: "[preset]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "on",
				Usage: "Enable the equalizer",
			},
			&cli.BoolFlag{
				Name:  "off",
				Usage: "Disable the equalizer",
			},
		},
		Action: r.Equalizer,
	}
}

func lastfmCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lastfm",
		Usage: "Last.fm scrobbling",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Link a Last.fm account",
				Action: r.LastfmLogin,
			},
			{
				Name:   "logout",
				Usage:  "Unlink the Last.fm account",
				Action: r.LastfmLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the linked account and pending scrobbles",
				Action: r.LastfmStatus,
			},
		},
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file helpers",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
