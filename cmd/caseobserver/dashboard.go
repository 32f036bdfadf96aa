package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const dashboardRecent = 5

func newDashboardCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summary of cases and recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}

			var (
				cases []domain.CourtCase
				notes []domain.Notification
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				cases, err = a.Cases.List(ctx, domain.CaseFilter{SortBy: domain.CaseSortLastUpdated})
				return err
			})
			g.Go(func() error {
				var err error
				notes, err = a.Notifications.List(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			monitored := 0
			for _, c := range cases {
				if c.MonitoringEnabled {
					monitored++
				}
			}
			pending := unread(notes)

			tw := newTable(rt.stdout)
			fmt.Fprintf(tw, "cases\t%d\n", len(cases))
			fmt.Fprintf(tw, "monitored\t%d\n", monitored)
			fmt.Fprintf(tw, "unread notifications\t%d\n", len(pending))
			_ = tw.Flush()

			if len(notes) == 0 {
				return nil
			}
			sort.SliceStable(notes, func(i, j int) bool {
				return notes[i].SentAtTime().After(notes[j].SentAtTime())
			})
			if len(notes) > dashboardRecent {
				notes = notes[:dashboardRecent]
			}
			rt.printf("\nrecent notifications:\n")
			printNotifications(rt, notes)
			return nil
		},
	}
}
