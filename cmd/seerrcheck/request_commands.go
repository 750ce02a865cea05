package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhomen368/overseerr-mcp/internal/media"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
)

func newRequestCommand(ctx *commandContext) *cobra.Command {
	var (
		args      requests.Args
		seasons   string
		serverID  int
		profileID int
		confirmed bool
	)

	cmd := &cobra.Command{
		Use:       "request <movie|tv> <id>",
		Short:     "Request a movie or show",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"movie", "tv"},
		RunE: func(cmd *cobra.Command, pos []string) error {
			id, err := parseID(pos[1])
			if err != nil {
				return err
			}
			args.MediaType = media.MediaType(pos[0])
			args.MediaID = id
			args.Confirmed = confirmed
			if seasons != "" {
				sel, err := requests.ParseSeasonSelection(seasons)
				if err != nil {
					return err
				}
				args.Seasons = sel
			}
			if cmd.Flags().Changed("server") {
				args.ServerID = &serverID
			}
			if cmd.Flags().Changed("profile") {
				args.ProfileID = &profileID
			}

			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			defer ctx.close()

			out, err := svc.requests.RequestMedia(cmd.Context(), args)
			if err != nil {
				return err
			}
			return ctx.writeOutput(cmd, out, func() string { return renderOutcome(out) })
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&seasons, "seasons", "", `Seasons to request for shows ("all" or "1,2,3")`)
	flags.BoolVar(&args.Is4K, "4k", false, "Request the 4K version")
	flags.IntVar(&serverID, "server", 0, "Target server id")
	flags.IntVar(&profileID, "profile", 0, "Quality profile id")
	flags.StringVar(&args.RootFolder, "root-folder", "", "Root folder path")
	flags.BoolVar(&args.ValidateFirst, "validate-first", false, "Skip seasons that are already available or requested")
	flags.BoolVar(&args.DryRun, "dry-run", false, "Report what would be requested without submitting")
	flags.BoolVarP(&confirmed, "yes", "y", false, "Confirm large requests")

	return cmd
}

func renderOutcome(o *requests.Outcome) string {
	rows := [][]string{
		{"Status", string(o.Status)},
		{"Title", orDash(o.Title)},
		{"Media", fmt.Sprintf("%s %d", o.MediaType, o.MediaID)},
	}
	if o.ReasonCode != "" {
		rows = append(rows, []string{"Reason", string(o.ReasonCode)})
	}
	if len(o.SeasonsRequested) > 0 {
		rows = append(rows, []string{"Seasons", formatSeasons(o.SeasonsRequested)})
	}
	if len(o.SkippedSeasons) > 0 {
		rows = append(rows, []string{"Skipped", formatSeasons(o.SkippedSeasons)})
	}
	if o.TotalEpisodes > 0 {
		rows = append(rows, []string{"Episodes", strconv.Itoa(o.TotalEpisodes)})
	}
	if o.Request != nil {
		rows = append(rows, []string{"Request", strconv.Itoa(o.Request.ID)})
	}

	out := renderTable([]string{"Field", "Value"}, rows, nil) + "\n" + o.Message
	if o.RequiresConfirmation {
		out += "\nRe-run with --yes to submit."
	}
	return out
}

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List and manage Overseerr requests",
	}

	var list requests.ManageArgs
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list.Action = requests.ActionList
			return ctx.manage(cmd, list)
		},
	}
	listCmd.Flags().StringVar(&list.Filter, "filter", "all", "all, pending, approved, available, processing, unavailable or failed")
	listCmd.Flags().IntVar(&list.Take, "take", 20, "Page size (max 100)")
	listCmd.Flags().IntVar(&list.Skip, "skip", 0, "Rows to skip")
	listCmd.Flags().StringVar(&list.Sort, "sort", "added", "added or modified")
	listCmd.Flags().BoolVar(&list.Summary, "summary", false, "Only count requests by status")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.manage(cmd, requests.ManageArgs{Action: requests.ActionGet, RequestID: id})
		},
	}

	cmd.AddCommand(listCmd, getCmd)
	for _, action := range []requests.Action{requests.ActionApprove, requests.ActionDecline, requests.ActionDelete} {
		cmd.AddCommand(newMutationCommand(ctx, action))
	}
	return cmd
}

func newMutationCommand(ctx *commandContext, action requests.Action) *cobra.Command {
	verb := string(action)
	return &cobra.Command{
		Use:   verb + " <id> [id...]",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " one or more requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.manage(cmd, requests.ManageArgs{Action: action, RequestIDs: ids})
		},
	}
}

func (c *commandContext) manage(cmd *cobra.Command, args requests.ManageArgs) error {
	svc, err := c.ensureServices()
	if err != nil {
		return err
	}
	defer c.close()

	out, err := svc.requests.ManageRequests(cmd.Context(), args)
	if err != nil {
		return err
	}
	return c.writeOutput(cmd, out, func() string { return renderManage(out) })
}

func renderManage(r *requests.ManageResult) string {
	var views []requests.RequestView
	switch {
	case r.Request != nil:
		views = []requests.RequestView{*r.Request}
	case len(r.Requests) > 0:
		views = r.Requests
	}

	var b strings.Builder
	if r.Summary != nil {
		rows := make([][]string, 0, len(r.Summary.ByStatus))
		for status, n := range r.Summary.ByStatus {
			rows = append(rows, []string{status, strconv.Itoa(n)})
		}
		sortRows(rows)
		b.WriteString(renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
		fmt.Fprintf(&b, "\n%d requests in total", r.Summary.Total)
		return b.String()
	}

	if len(views) > 0 {
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			rows = append(rows, []string{
				strconv.Itoa(v.ID),
				fmt.Sprintf("%s %d", v.MediaType, v.TmdbID),
				v.StatusLabel,
				orDash(v.MediaStatusLabel),
				formatSeasons(v.RequestedSeasons),
				yesNo(v.Is4K),
			})
		}
		b.WriteString(renderTable(
			[]string{"ID", "Media", "Status", "Media Status", "Seasons", "4K"},
			rows, []columnAlignment{alignRight},
		))
	}
	if r.PageInfo != nil {
		fmt.Fprintf(&b, "\npage %d of %d (%d results)", r.PageInfo.Page, r.PageInfo.Pages, r.PageInfo.Results)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\nrequest %s: %s", e.Item, e.Error)
	}
	if r.Message != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Message)
	}
	return b.String()
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", raw)
	}
	return id, nil
}
