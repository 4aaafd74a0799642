// treeset runs scripts of set operations against an actor-backed tree.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dogmatiq/treeset/treeset"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "treeset",
		Usage: "run set operations against a tree of element workers",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"TREESET_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "run",
			Usage:     "execute a script of operations, one per line",
			ArgsUsage: "[<script>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "set",
					Usage:   "name of the set to operate on",
					Value:   "default",
					EnvVars: []string{"TREESET_SET_NAME"},
				},
				&cli.StringFlag{
					Name:    "prefix",
					Usage:   "prefix added to the name of the set within the store",
					EnvVars: []string{"TREESET_SET_PREFIX"},
				},
			},
			Action: runScript,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cctx.String("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}

func runScript(cctx *cli.Context) error {
	logger, err := configLogger(cctx)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if cctx.Args().Len() > 0 {
		f, err := os.Open(cctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	store := &treeset.Store[int64]{}
	defer store.Close()

	r := &runner{
		Store:  store,
		Prefix: cctx.String("prefix"),
		Set:    cctx.String("set"),
		Out:    os.Stdout,
		Logger: logger,
	}

	return r.Run(cctx.Context, in)
}
