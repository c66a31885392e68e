// Command runner connects to the capstone database and runs the exploration
// workflow, or one step of it.
//
//	runner                          full workflow: tables, desc, samples, both reports
//	runner tables
//	runner desc <table>
//	runner sample <table> [n]
//	runner query <sql...>
//	runner report base|comparables [year]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"capstone/internal/adapters/observability"
	"capstone/internal/app"
	"capstone/internal/domain"
	"capstone/internal/export"
	"capstone/internal/shared"
	"capstone/internal/storage/sqldb"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("runner failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg shared.Config, args []string, out io.Writer) error {
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}

	url, err := withPrompt(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	runner, err := sqldb.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer runner.Close()
	// one session, statements strictly in order
	runner.DB().SetMaxOpenConns(1)
	runner.WithTimeout(cfg.QueryTimeout)

	explorer := app.NewExplorerService(runner, cfg.SampleLimit)
	reports := app.NewReportService(runner, nil, cfg.CacheTTL)
	exporter := export.NewFileExporter(cfg.ExportDir, format)

	return dispatch(ctx, cfg, args, out, explorer, reports, exporter)
}

func dispatch(ctx context.Context, cfg shared.Config, args []string, out io.Writer,
	explorer *app.ExplorerService, reports *app.ReportService, exporter domain.Exporter) error {
	if len(args) == 0 {
		res, err := app.NewWorkflow(explorer, reports, exporter, cfg.Year, cfg.ExpectedRows).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tables: %d\nbase rows: %d -> %s\ncomparable rows: %d -> %s\n",
			len(res.Tables), res.BaseRows, res.BaseExport, res.ComparableRows, res.ComparableExport)
		return nil
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "tables":
		tables, err := explorer.Tables(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Fprintln(out, t)
		}
		return nil

	case "desc", "describe":
		if len(rest) != 1 {
			return usage("desc <table>")
		}
		cols, err := explorer.Describe(ctx, rest[0])
		if err != nil {
			return err
		}
		return printColumns(out, cols)

	case "sample":
		if len(rest) < 1 || len(rest) > 2 {
			return usage("sample <table> [n]")
		}
		n := 0
		if len(rest) == 2 {
			v, err := strconv.Atoi(rest[1])
			if err != nil || v <= 0 {
				return usage("sample <table> [n]")
			}
			n = v
		}
		rs, err := explorer.Sample(ctx, rest[0], n)
		if err != nil {
			return err
		}
		return printResultSet(out, rs)

	case "query":
		if len(rest) == 0 {
			return usage("query <sql...>")
		}
		rs, err := explorer.Query(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return printResultSet(out, rs)

	case "report":
		return report(ctx, cfg, rest, out, reports, exporter)

	default:
		return usage("[tables | desc | sample | query | report]")
	}
}

func report(ctx context.Context, cfg shared.Config, args []string, out io.Writer, reports *app.ReportService, exporter domain.Exporter) error {
	if len(args) == 0 || len(args) > 2 {
		return usage("report base|comparables [year]")
	}
	var (
		name string
		rs   domain.ResultSet
	)
	switch args[0] {
	case "base":
		rows, err := reports.Base(ctx)
		if err != nil {
			return err
		}
		name, rs = "base_report", domain.BaseResultSet(rows)
	case "comparables":
		year := cfg.Year
		if len(args) == 2 {
			y, err := strconv.Atoi(args[1])
			if err != nil {
				return usage("report comparables [year]")
			}
			year = y
		}
		rows, err := reports.Comparables(ctx, year)
		if err != nil {
			return err
		}
		s := app.Summarize(rows)
		log.Info().Int("rows", s.Rows).Int("no_comparable", s.NoComparable).Int("zero_occupancy", s.ZeroOccupancy).
			Float64("min_occupancy", s.MinOccupancy).Float64("max_occupancy", s.MaxOccupancy).Msg("comparables summary")
		name, rs = fmt.Sprintf("comparables_%d", year), domain.ComparableResultSet(rows)
	default:
		return usage("report base|comparables [year]")
	}
	path, err := exporter.Export(name, rs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d rows -> %s\n", rs.Len(), path)
	return nil
}

func usage(s string) error {
	return fmt.Errorf("%w: usage: runner %s", domain.ErrQuery, s)
}

// withPrompt asks for the database password when the URL names a user without
// one and stdin is a terminal.
func withPrompt(raw string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !sqldb.NeedsPassword(raw) || !term.IsTerminal(fd) {
		return raw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return sqldb.WithPassword(raw, string(pw))
}

func printColumns(out io.Writer, cols []domain.Column) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Field\tType\tNull\tKey\tDefault\tExtra")
	for _, c := range cols {
		null, def := "NO", "NULL"
		if c.Nullable {
			null = "YES"
		}
		if c.Default != nil {
			def = *c.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, null, c.Key, def, c.Extra)
	}
	return tw.Flush()
}

func printResultSet(out io.Writer, rs domain.ResultSet) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
	cells := make([]string, len(rs.Columns))
	for i := range rs.Rows {
		for j, v := range rs.Values(i) {
			if v == nil {
				cells[j] = "NULL"
			} else {
				cells[j] = export.FormatValue(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "(%d rows)\n", rs.Len())
	return err
}
