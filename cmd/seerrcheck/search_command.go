package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhomen368/overseerr-mcp/internal/details"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		page     int
		language string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies and shows by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			defer ctx.close()

			out, err := svc.details.Search(cmd.Context(), details.SearchArgs{
				Query:    strings.Join(args, " "),
				Page:     page,
				Language: language,
			})
			if err != nil {
				return err
			}
			return ctx.writeOutput(cmd, out, func() string { return renderSearch(out) })
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().StringVar(&language, "language", "", "Metadata language")

	return cmd
}

func renderSearch(r *details.SearchResult) string {
	if len(r.Results) == 0 {
		return fmt.Sprintf("No movies or shows found for %q", r.Query)
	}

	rows := make([][]string, 0, len(r.Results))
	for _, c := range r.Results {
		year := "-"
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		rating := "-"
		if c.Rating > 0 {
			rating = strconv.FormatFloat(c.Rating, 'f', 1, 64)
		}
		rows = append(rows, []string{strconv.Itoa(c.ID), string(c.MediaType), c.Title, year, rating})
	}

	return renderTable(
		[]string{"ID", "Type", "Title", "Year", "Rating"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	) + fmt.Sprintf("\nPage %d of %d (%d results)", r.Page, r.TotalPages, r.TotalResults)
}
