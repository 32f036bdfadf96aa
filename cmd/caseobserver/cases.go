package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

func newCasesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cases",
		Aliases: []string{"case"},
		Short:   "List and track court cases",
	}
	cmd.AddCommand(
		newCasesListCmd(rt),
		newCasesShowCmd(rt),
		newCasesAddCmd(rt),
		newCasesFetchCmd(rt),
		newCasesRefetchCmd(rt),
		newCasesMonitorCmd(rt),
	)
	return cmd
}

func newCasesListCmd(rt *runtime) *cobra.Command {
	var (
		filter     domain.CaseFilter
		sortBy     string
		monitoring string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.SortBy = domain.CaseSort(sortBy)
			if monitoring != "" {
				v, err := strconv.ParseBool(monitoring)
				if err != nil {
					return domain.NewValidationError("monitoring", "must be true or false")
				}
				filter.MonitoringEnabled = &v
			}

			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			cases, err := a.Cases.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printCases(rt, cases)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.Search, "search", "", "free text search")
	f.StringVar(&filter.Status, "status", "", "case status")
	f.StringVar(&filter.CourtName, "court", "", "court name")
	f.StringVar(&monitoring, "monitoring", "", "only cases with monitoring on (true) or off (false)")
	f.StringVar(&sortBy, "sort", "", "sort by lastUpdated, caseNumber or status")
	return cmd
}

func printCases(rt *runtime, cases []domain.CourtCase) {
	if len(cases) == 0 {
		rt.printf("no cases\n")
		return
	}
	tw := newTable(rt.stdout)
	fmt.Fprintln(tw, "ID\tNUMBER\tCOURT\tSTATUS\tMONITORED\tUPDATED")
	for _, c := range cases {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.CaseNumber, orDash(c.CourtName), orDash(c.Status),
			yesNo(c.MonitoringEnabled), backendTime(c.LastUpdated, c.LastUpdatedTime()))
	}
	_ = tw.Flush()
}

func newCasesShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved case with its hearings and parties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			c, err := a.Cases.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printCase(rt, c)
			return nil
		},
	}
}

func printCase(rt *runtime, c *domain.CourtCase) {
	tw := newTable(rt.stdout)
	fmt.Fprintf(tw, "id\t%d\n", c.ID)
	fmt.Fprintf(tw, "number\t%s\n", c.CaseNumber)
	fmt.Fprintf(tw, "title\t%s\n", orDash(c.ImposedName))
	fmt.Fprintf(tw, "court\t%s\n", orDash(c.CourtName))
	fmt.Fprintf(tw, "department\t%s\n", orDash(c.Department))
	fmt.Fprintf(tw, "category\t%s\n", orDash(c.Category))
	fmt.Fprintf(tw, "stage\t%s\n", orDash(c.ProceduralStage))
	fmt.Fprintf(tw, "subject\t%s\n", orDash(c.Subject))
	fmt.Fprintf(tw, "status\t%s\n", orDash(c.Status))
	fmt.Fprintf(tw, "monitored\t%s\n", yesNo(c.MonitoringEnabled))
	fmt.Fprintf(tw, "updated\t%s\n", backendTime(c.LastUpdated, c.LastUpdatedTime()))
	_ = tw.Flush()

	printHearings(rt, c.Hearings)
	printParties(rt, c.Parties)
}

func printHearings(rt *runtime, hearings []domain.Hearing) {
	if len(hearings) == 0 {
		return
	}
	rt.printf("\nhearings:\n")
	tw := newTable(rt.stdout)
	fmt.Fprintln(tw, "DATE\tPANEL\tSOLUTION")
	for _, h := range hearings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", orDash(h.HearingDate), orDash(h.JudicialPanel), orDash(h.Solution))
	}
	_ = tw.Flush()
}

func printParties(rt *runtime, parties []domain.Party) {
	if len(parties) == 0 {
		return
	}
	rt.printf("\nparties:\n")
	tw := newTable(rt.stdout)
	fmt.Fprintln(tw, "NAME\tROLE")
	for _, p := range parties {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, orDash(p.Role))
	}
	_ = tw.Flush()
}

func newCasesAddCmd(rt *runtime) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add <case-number> <institution>",
		Short: "Save a case for tracking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			c, err := a.Cases.Create(cmd.Context(), domain.NewCase{
				CaseNumber:  args[0],
				Institution: args[1],
				CustomTitle: title,
			})
			if err != nil {
				return err
			}
			rt.printf("case %s saved with id %d\n", c.CaseNumber, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "custom title")
	return cmd
}

func newCasesFetchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <case-number> <institution>",
		Short: "Look a case up on the court portal without saving it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.Cases.FetchFromPortal(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			tw := newTable(rt.stdout)
			fmt.Fprintf(tw, "number\t%s\n", orDash(d.Number))
			fmt.Fprintf(tw, "institution\t%s\n", orDash(d.Institution))
			fmt.Fprintf(tw, "department\t%s\n", orDash(d.Department))
			fmt.Fprintf(tw, "category\t%s\n", orDash(firstNonEmpty(d.CaseCategoryName, d.CaseCategory)))
			fmt.Fprintf(tw, "stage\t%s\n", orDash(firstNonEmpty(d.ProceduralStageName, d.ProceduralStage)))
			fmt.Fprintf(tw, "subject\t%s\n", orDash(d.Subject))
			fmt.Fprintf(tw, "modified\t%s\n", orDash(d.ModificationDateTime))
			_ = tw.Flush()

			printHearings(rt, d.Hearings)
			printParties(rt, d.Parties)
			return nil
		},
	}
}

func newCasesRefetchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refetch <id>",
		Short: "Refresh a saved case from the court portal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			c, err := a.Cases.Refetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			printCase(rt, c)
			return nil
		},
	}
}

func newCasesMonitorCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Turn periodic portal checks on or off",
	}

	var interval int
	start := &cobra.Command{
		Use:   "start <id>",
		Short: "Start monitoring a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Cases.StartMonitoring(cmd.Context(), id, interval); err != nil {
				return err
			}
			rt.printf("monitoring case %d\n", id)
			return nil
		},
	}
	start.Flags().IntVar(&interval, "interval", domain.DefaultMonitoringIntervalMinutes, "check interval in minutes")

	stop := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop monitoring a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Cases.StopMonitoring(cmd.Context(), id); err != nil {
				return err
			}
			rt.printf("monitoring of case %d stopped\n", id)
			return nil
		},
	}

	cmd.AddCommand(start, stop)
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
