package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/config"
	"github.com/farhapartex/adlibrary-proxy/internal/export"
	"github.com/farhapartex/adlibrary-proxy/internal/formbody"
	"github.com/farhapartex/adlibrary-proxy/internal/handlers"
	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"github.com/farhapartex/adlibrary-proxy/internal/normalize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// DefaultPreviewRows is how many records the summary table shows.
const DefaultPreviewRows = 20

type options struct {
	mode       string
	items      string
	status     string
	country    string
	start      string
	end        string
	formFile   string
	formFormat string
	out        string
	noExport   bool
	preview    int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "adscan",
		Short: "Search the ad library and export normalized ads",
		Long: `adscan searches the ad library for each keyword or page id, follows
the result cursor to the end, normalizes every ad and writes a spreadsheet
sorted by collation count.

Session values (cookie, session id, version) come from the environment or a
.env file, see AD_LIBRARY_* variables.

Examples:
  # Keywords, last month, active ads only
  adscan --mode keyword --items "running shoes, trail shoes" --status Active \
    --start 2024-03-01 --end 2024-03-31

  # Page ids with a captured form body
  adscan --mode page --items 1234567890 --form-file body.txt --form-format urlencoded
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	today := time.Now().UTC().Format(models.DateLayout)

	flags := cmd.Flags()
	flags.StringVarP(&opts.mode, "mode", "m", "keyword", "Search mode: keyword or page")
	flags.StringVarP(&opts.items, "items", "i", "", "Comma separated keywords or page ids (required)")
	flags.StringVar(&opts.status, "status", "Both", "Ad status: Active, Paused or Both")
	flags.StringVar(&opts.country, "country", "", "Country code (defaults to AD_LIBRARY_COUNTRY)")
	flags.StringVar(&opts.start, "start", today, "Start date, YYYY-MM-DD")
	flags.StringVar(&opts.end, "end", today, "End date, YYYY-MM-DD")
	flags.StringVar(&opts.formFile, "form-file", "", "File holding the request form body")
	flags.StringVar(&opts.formFormat, "form-format", "json", "Form body format: json or urlencoded")
	flags.StringVarP(&opts.out, "out", "o", "", "Spreadsheet path (defaults to EXPORT_FILENAME)")
	flags.BoolVar(&opts.noExport, "no-export", false, "Skip writing the spreadsheet")
	flags.IntVar(&opts.preview, "preview", DefaultPreviewRows, "Rows to show in the summary table")

	if err := cmd.MarkFlagRequired("items"); err != nil {
		fmt.Fprintf(os.Stderr, "Error marking items flag as required: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	req, err := buildBatchRequest(cfg, opts)
	if err != nil {
		return err
	}

	result := handlers.NewBatchHandler(cfg, log).Run(cmd.Context(), req)

	out := cmd.OutOrStdout()
	renderItems(out, result)
	renderRecords(out, result.Records, opts.preview)

	if !opts.noExport {
		path := opts.out
		if path == "" {
			path = cfg.Export.Filename
		}
		if err := export.SaveXLSX(path, result.Records); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Fprintf(out, "\nWrote %d records to %s\n", len(result.Records), path)
	}

	if failed := result.Failed(); len(failed) > 0 && len(failed) == len(req.Items) {
		return errors.New("every item failed")
	}
	return nil
}

func buildBatchRequest(cfg *config.Config, opts *options) (handlers.BatchRequest, error) {
	mode, err := models.ParseSearchMode(opts.mode)
	if err != nil {
		return handlers.BatchRequest{}, err
	}

	items := handlers.SplitItems(opts.items)
	if len(items) == 0 {
		return handlers.BatchRequest{}, errors.New("no items given")
	}

	filters := handlers.DefaultFilters(cfg)
	filters.Status = opts.status
	if opts.country != "" {
		filters.Country = opts.country
	}
	if filters.StartDate, err = time.Parse(models.DateLayout, opts.start); err != nil {
		return handlers.BatchRequest{}, fmt.Errorf("invalid --start: %w", err)
	}
	if filters.EndDate, err = time.Parse(models.DateLayout, opts.end); err != nil {
		return handlers.BatchRequest{}, fmt.Errorf("invalid --end: %w", err)
	}

	form, err := readForm(opts.formFile, opts.formFormat)
	if err != nil {
		return handlers.BatchRequest{}, err
	}

	return handlers.BatchRequest{
		Mode:    mode,
		Items:   items,
		Filters: filters,
		Session: handlers.DefaultSession(cfg),
		Form:    form,
	}, nil
}

func readForm(path, format string) (url.Values, error) {
	f, err := formbody.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return url.Values{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	return formbody.Parse(f, string(data))
}

func renderItems(w io.Writer, result *handlers.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Item", "Status", "Pages", "Records", "Duration", "Error"})

	for _, item := range result.Items {
		state := "ok"
		errText := ""
		if !item.OK() {
			state = "failed"
			errText = item.Error.Error()
		}
		t.AppendRow(table.Row{
			item.Item,
			state,
			item.Pages,
			item.RawCount,
			item.Duration.Round(time.Millisecond),
			truncate(errText, 60),
		})
	}
	t.AppendFooter(table.Row{"Run", result.RunID, "", len(result.Records), result.Duration.Round(time.Millisecond), ""})

	fmt.Fprintf(w, "\nItems:\n")
	t.Render()
}

func renderRecords(w io.Writer, records []models.CanonicalRecord, limit int) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No ads found")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 30},
		{Number: 4, WidthMax: 40},
	})
	t.AppendHeader(table.Row{"#", "Page", "Domain", "Title", "Collation", "Days"})

	for i, row := range export.Rows(records) {
		if limit > 0 && i >= limit {
			break
		}
		days := "-"
		if row.DaysRunning != nil {
			days = fmt.Sprintf("%d", *row.DaysRunning)
		}
		t.AppendRow(table.Row{
			i + 1,
			row.PageName,
			normalize.Domain(row.LinkURL),
			strings.TrimSpace(row.Title),
			row.CollationCount,
			days,
		})
	}
	t.AppendFooter(table.Row{"Total", len(records), "", "", "", ""})

	fmt.Fprintf(w, "\nAds:\n")
	t.Render()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
