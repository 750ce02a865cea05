package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhomen368/overseerr-mcp/internal/dedupe"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var (
		file        string
		autoRequest bool
		dryRun      bool
		noNormalize bool
		language    string
		fields      []string
		seasons     string
	)

	cmd := &cobra.Command{
		Use:   "dedupe [titles...]",
		Short: "Classify titles as pass or blocked against the Overseerr library",
		Long: "Classify titles as pass or blocked against the Overseerr library.\n\n" +
			"Titles come from the arguments, from --file (one per line) or from stdin with --file -.",
		RunE: func(cmd *cobra.Command, args []string) error {
			titles, err := collectTitles(cmd, args, file)
			if err != nil {
				return err
			}

			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			defer ctx.close()

			opts := dedupe.Options{
				AutoRequest: autoRequest,
				Language:    language,
				RequestDefaults: dedupe.RequestDefaults{
					DryRun: dryRun,
				},
			}
			if noNormalize {
				off := false
				opts.AutoNormalize = &off
			}
			if len(fields) > 0 {
				opts.IncludeDetails = &dedupe.DetailsOptions{Fields: fields}
			}
			if seasons != "" {
				sel, err := requests.ParseSeasonSelection(seasons)
				if err != nil {
					return err
				}
				opts.RequestDefaults.Seasons = sel
			}

			report, err := svc.dedupe.ClassifyTitles(cmd.Context(), titles, opts)
			if err != nil {
				return err
			}
			return ctx.writeOutput(cmd, report, func() string { return renderDedupe(report) })
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read titles from a file, one per line (- for stdin)")
	cmd.Flags().BoolVar(&autoRequest, "auto-request", false, "Request every actionable title")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "With --auto-request, report what would be requested without submitting")
	cmd.Flags().BoolVar(&noNormalize, "no-normalize", false, "Search titles exactly as given")
	cmd.Flags().StringVar(&language, "language", "", "Search language (defaults to the configured language)")
	cmd.Flags().StringSliceVar(&fields, "details", nil, "Detail fields to include for each match")
	cmd.Flags().StringVar(&seasons, "seasons", "", `Seasons to auto-request for shows without a season hint ("all" or "1,2")`)

	return cmd
}

func collectTitles(cmd *cobra.Command, args []string, file string) ([]string, error) {
	titles := append([]string(nil), args...)
	if file == "" {
		if len(titles) == 0 {
			return nil, fmt.Errorf("no titles given")
		}
		return titles, nil
	}

	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open titles file: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("no titles given")
	}
	return titles, nil
}

func renderDedupe(report *dedupe.Report) string {
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		match := r.MatchedTitle
		if r.ID != 0 {
			match = fmt.Sprintf("%s (%s %d)", r.MatchedTitle, r.MediaType, r.ID)
		}
		rows = append(rows, []string{
			r.Title,
			orDash(match),
			string(r.Status),
			string(r.ReasonCode),
			orDash(r.FranchiseSummary),
			orDash(r.Note),
		})
	}

	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"Title", "Match", "Status", "Reason", "Franchise", "Note"},
		rows, nil,
	))
	s := report.Summary
	fmt.Fprintf(&b, "\n%d titles: %d pass, %d blocked, %d failed (pass rate %s)",
		s.Total, s.Pass, s.Blocked, s.Failed, s.PassRate)

	if ar := report.AutoRequest; ar != nil {
		mode := ""
		if ar.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(&b, "\nauto-request%s: %d attempted, %d succeeded, %d need confirmation, %d failed",
			mode, ar.Attempted, ar.Succeeded, ar.NeedsConfirmation, ar.Failed)
		for _, e := range ar.Errors {
			fmt.Fprintf(&b, "\n  %s: %s", e.Item, e.Error)
		}
	}
	return b.String()
}

func formatSeasons(seasons []int) string {
	if len(seasons) == 0 {
		return "-"
	}
	parts := make([]string, len(seasons))
	for i, n := range seasons {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
