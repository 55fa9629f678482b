// Command pipeline-report loads one pipeline export and prints its forecast
// summary or the records matching a query.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"pipeline/internal/cli"
	"pipeline/internal/core"
	applog "pipeline/internal/log"
	"pipeline/internal/sheets/file"
)

func main() {
	cli.LoadEnvFile()
	cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "pipeline-report:", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for usage errors, 3 for unusable input and 1 otherwise.
func exitCode(err error) int {
	var schemaErr *core.SchemaError
	switch {
	case errors.Is(err, flag.ErrHelp), errors.Is(err, errUsage):
		return 2
	case errors.As(err, &schemaErr), errors.Is(err, core.ErrEmptyInput), errors.Is(err, file.ErrUnsupportedFormat):
		return 3
	}
	return 1
}

var errUsage = errors.New("usage: pipeline-report [flags] <file.xlsx|file.csv>")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pipeline-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		titleRows = fs.Int("title-rows", core.DefaultTitleRows, "banner rows above the header")
		query     = fs.String("q", "", "list records containing this text (case-insensitive)")
		records   = fs.Bool("records", false, "list records instead of the summary")
		format    = fs.String("format", "json", "output format: json or text")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *titleRows < 0 || (*format != "json" && *format != "text") {
		fs.Usage()
		return errUsage
	}

	grid, err := file.New(fs.Arg(0)).ReadRows(ctx)
	if err != nil {
		return err
	}
	ds, err := core.Normalize(core.FromGrid(grid, *titleRows))
	if err != nil {
		return err
	}

	if *records || *query != "" {
		return writeRecords(stdout, *format, ds, core.Search(ds.Records, *query))
	}
	return writeSummary(stdout, *format, core.Aggregate(ds.Records))
}

func writeSummary(w io.Writer, format string, sum core.Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Records\t%d\n", sum.Count)
	fmt.Fprintf(tw, "Raw total\t%s\n", money(sum.RawTotal))
	fmt.Fprintf(tw, "Weighted total\t%s\n\n", money(sum.WeightedTotal))
	fmt.Fprintln(tw, "Month\tRaw\tWeighted")
	for _, m := range sum.Trend {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Month, money(m.Raw), money(m.Weighted))
	}
	return tw.Flush()
}

func writeRecords(w io.Writer, format string, ds *core.Dataset, records []core.Opportunity) error {
	columns := ds.DisplayColumns()
	if format == "json" {
		rows := make([]core.Row, 0, len(records))
		for _, o := range records {
			rows = append(rows, o.Row(columns))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Columns []string   `json:"columns"`
			Rows    []core.Row `json:"rows"`
		}{columns, rows})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, o := range records {
		row := o.Row(columns)
		for i, c := range columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			text, _ := core.Text(row[c])
			fmt.Fprint(tw, text)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
