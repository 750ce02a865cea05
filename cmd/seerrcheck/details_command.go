package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

func newDetailsCommand(ctx *commandContext) *cobra.Command {
	var (
		level    string
		fields   []string
		language string
	)

	cmd := &cobra.Command{
		Use:       "details <movie|tv> <id>",
		Short:     "Show metadata for a movie or show",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"movie", "tv"},
		RunE: func(cmd *cobra.Command, pos []string) error {
			id, err := parseID(pos[1])
			if err != nil {
				return err
			}

			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			defer ctx.close()

			out, err := svc.details.GetMediaDetails(cmd.Context(), details.Args{
				MediaType: media.MediaType(pos[0]),
				MediaID:   id,
				Level:     details.Level(level),
				Fields:    fields,
				Language:  language,
			})
			if err != nil {
				return err
			}
			return ctx.writeOutput(cmd, out, func() string { return renderDetails(out) })
		},
	}

	cmd.Flags().StringVar(&level, "level", string(details.LevelStandard), "basic, standard or full")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Explicit fields, replacing the level preset")
	cmd.Flags().StringVar(&language, "language", "", "Metadata language")

	return cmd
}

func renderDetails(r *details.Result) string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(r.Fields[k])})
	}
	return fmt.Sprintf("%s (%s %d)\n%s", r.Title, r.MediaType, r.ID,
		renderTable([]string{"Field", "Value"}, rows, nil))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return orDash(val)
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}
