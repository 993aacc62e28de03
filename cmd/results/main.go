// Command results parses race-results reports and manages stored reports.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "results",
		Usage:     "parse and import race-results reports",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"RESULTS_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log per-line parser diagnostics",
			},
		},
		Commands: []*cli.Command{
			parseCommand(),
			importCommand(),
			importDirCommand(),
			exportCommand(),
			chartCommand(),
			tokenCommand(),
		},
	}
}
