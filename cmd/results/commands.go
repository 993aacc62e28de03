package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	resultsservice "github.com/Black-And-White-Club/mtb-results/app/modules/results/application"
	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/exporters"
	"github.com/Black-And-White-Club/mtb-results/app/modules/results/application/parsers"
	"github.com/Black-And-White-Club/mtb-results/pkg/jwt"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse a report and print its records",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "first-page-only", Usage: "stop after the first page of records"},
			&cli.IntFlag{Name: "page-size", Value: parsers.DefaultPageSize, Usage: "records on the first page"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "output format: json, csv or xlsx"},
			&cli.StringFlag{Name: "out", Usage: "output file; defaults to stdout"},
		},
		Action: func(c *cli.Context) error {
			data, source, err := readInput(c)
			if err != nil {
				return err
			}

			format := c.String("format")
			if c.String("out") != "" && !c.IsSet("format") {
				format = c.String("out")
			}
			exporter, err := exporters.NewFactory().GetExporter(format)
			if err != nil {
				return err
			}

			service := parseOnlyService(newLogger(c), c.Int("page-size"))
			parsed, err := service.ParseReport(c.Context, resultsservice.ParseRequest{
				Source:        source,
				Data:          data,
				FirstPageOnly: firstPageFlag(c),
			})
			if err != nil {
				return err
			}

			w, closeOut, err := output(c.String("out"), c.App.Writer)
			if err != nil {
				return err
			}
			if err := exporter.Export(w, parsed.Records); err != nil {
				closeOut()
				return fmt.Errorf("failed to write records: %w", err)
			}
			if err := closeOut(); err != nil {
				return err
			}

			fmt.Fprintf(c.App.ErrWriter, "%s: %d records (%d DNF, %d skipped lines)\n",
				source, len(parsed.Records), parsed.Stats.DNFRows, parsed.Stats.SkippedLines)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "parse a report and store it",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "first-page-only", Usage: "stop after the first page of records"},
		},
		Action: func(c *cli.Context) error {
			data, source, err := readInput(c)
			if err != nil {
				return err
			}

			env, err := openEnvironment(c.Context, c)
			if err != nil {
				return err
			}
			defer env.close()

			imported, err := env.service.ImportReport(c.Context, resultsservice.ParseRequest{
				Source:        source,
				Data:          data,
				FirstPageOnly: firstPageFlag(c),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "%s\t%s\t%d records\n", imported.ReportID, source, imported.RecordCount)
			return nil
		},
	}
}

// importOutcome is one line of the import-dir summary.
type importOutcome struct {
	file     string
	reportID uuid.UUID
	records  int
	err      error
}

func importDirCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-dir",
		Usage:     "import every *.txt and *.txt.xz report in a directory",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "first-page-only", Usage: "stop after the first page of records"},
			&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "reports imported at once"},
		},
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				return errors.New("missing DIR argument")
			}

			files, err := reportFiles(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(c.App.ErrWriter, "no reports in %s\n", dir)
				return nil
			}

			env, err := openEnvironment(c.Context, c)
			if err != nil {
				return err
			}
			defer env.close()

			outcomes := make([]importOutcome, len(files))
			g, ctx := errgroup.WithContext(c.Context)
			g.SetLimit(max(1, c.Int("concurrency")))

			for i, file := range files {
				g.Go(func() error {
					outcomes[i].file = file

					data, source, err := readReportFile(file)
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", file, err)
					}

					imported, err := env.service.ImportReport(ctx, resultsservice.ParseRequest{
						Source:        source,
						Data:          data,
						FirstPageOnly: firstPageFlag(c),
					})
					if err != nil {
						if resultsservice.IsRejection(err) {
							outcomes[i].err = err
							return nil
						}
						return fmt.Errorf("failed to import %s: %w", file, err)
					}

					outcomes[i].reportID = imported.ReportID
					outcomes[i].records = imported.RecordCount
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}

			for _, o := range outcomes {
				if o.err != nil {
					fmt.Fprintf(c.App.Writer, "skipped\t%s\t%v\n", filepath.Base(o.file), o.err)
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s\t%s\t%d records\n", o.reportID, filepath.Base(o.file), o.records)
			}
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the stored rows of a report as csv, xlsx or json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Required: true, Usage: "report id"},
			&cli.StringFlag{Name: "format", Value: "csv", Usage: "output format: json, csv or xlsx"},
			&cli.StringFlag{Name: "category", Usage: "only rows of this race category"},
			&cli.StringFlag{Name: "team", Usage: "only rows of this team"},
			&cli.StringFlag{Name: "out", Usage: "output file; defaults to stdout"},
		},
		Action: func(c *cli.Context) error {
			id, err := uuid.Parse(c.String("report"))
			if err != nil {
				return fmt.Errorf("invalid report id: %w", err)
			}

			env, err := openEnvironment(c.Context, c)
			if err != nil {
				return err
			}
			defer env.close()

			w, closeOut, err := output(c.String("out"), c.App.Writer)
			if err != nil {
				return err
			}
			_, err = env.service.ExportReport(c.Context, id, resultsservice.ResultQuery{
				Category: c.String("category"),
				Team:     c.String("team"),
			}, c.String("format"), w)
			if err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}
}

func chartCommand() *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "render finisher times of one category as a PNG bar chart",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Required: true, Usage: "report id"},
			&cli.StringFlag{Name: "category", Required: true, Usage: "race category, e.g. \"Varsity Boys\""},
			&cli.StringFlag{Name: "out", Value: "chart.png", Usage: "output PNG file"},
		},
		Action: func(c *cli.Context) error {
			id, err := uuid.Parse(c.String("report"))
			if err != nil {
				return fmt.Errorf("invalid report id: %w", err)
			}

			env, err := openEnvironment(c.Context, c)
			if err != nil {
				return err
			}
			defer env.close()

			png, err := env.service.RenderCategoryChart(c.Context, id, c.String("category"))
			if err != nil {
				return err
			}

			if err := os.WriteFile(c.String("out"), png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "wrote %s (%d bytes)\n", c.String("out"), len(png))
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint an API bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true, Usage: "who the token is for"},
			&cli.StringFlag{Name: "role", Value: string(jwt.RoleImporter), Usage: "viewer, importer or admin"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"JWT_SECRET"}, Usage: "signing secret"},
			&cli.StringFlag{Name: "issuer", Value: "mtb-results", Usage: "token issuer"},
		},
		Action: func(c *cli.Context) error {
			if c.String("secret") == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}

			role := jwt.Role(c.String("role"))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := jwt.NewService(c.String("secret"), c.String("issuer"), c.Duration("ttl")).
				GenerateToken(c.String("subject"), role, c.Duration("ttl"))
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

// readInput reads the FILE argument, or stdin when it is "-".
func readInput(c *cli.Context) ([]byte, string, error) {
	path := c.Args().First()
	switch path {
	case "":
		return nil, "", errors.New("missing FILE argument")
	case "-":
		data, err := io.ReadAll(c.App.Reader)
		return data, "stdin", err
	}

	return readReportFile(path)
}

// firstPageFlag is nil when --first-page-only was not given, leaving the configured default.
func firstPageFlag(c *cli.Context) *bool {
	if !c.IsSet("first-page-only") {
		return nil
	}
	b := c.Bool("first-page-only")
	return &b
}
