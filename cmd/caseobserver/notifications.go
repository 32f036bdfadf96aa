package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

func newNotificationsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read case change notifications",
	}
	cmd.AddCommand(
		newNotificationsListCmd(rt),
		newNotificationsReadCmd(rt),
		newNotificationSettingsCmd(rt),
	)
	return cmd
}

func newNotificationsListCmd(rt *runtime) *cobra.Command {
	var (
		caseID     int64
		unreadOnly bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}

			var items []domain.Notification
			if caseID > 0 {
				items, err = a.Notifications.ListForCase(cmd.Context(), caseID)
			} else {
				items, err = a.Notifications.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			if unreadOnly {
				items = unread(items)
			}
			printNotifications(rt, items)
			return nil
		},
	}
	cmd.Flags().Int64Var(&caseID, "case", 0, "only notifications of this case id")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "only unread notifications")
	return cmd
}

func unread(items []domain.Notification) []domain.Notification {
	out := make([]domain.Notification, 0, len(items))
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

func printNotifications(rt *runtime, items []domain.Notification) {
	if len(items) == 0 {
		rt.printf("no notifications\n")
		return
	}
	tw := newTable(rt.stdout)
	fmt.Fprintln(tw, "ID\tCASE\tSENT\tREAD\tMESSAGE")
	for _, n := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			n.ID, orDash(n.CaseNumber), backendTime(n.SentAt, n.SentAtTime()), yesNo(n.Read), n.Message)
	}
	_ = tw.Flush()
}

func newNotificationsReadCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
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
			if err := a.Notifications.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
			rt.printf("notification %d marked as read\n", id)
			return nil
		},
	}
}

func newNotificationSettingsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Per-case notification settings",
	}

	get := &cobra.Command{
		Use:   "get <case-id>",
		Short: "Show the notification settings of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Notifications.CaseSettings(cmd.Context(), caseID)
			if err != nil {
				return err
			}
			printSettings(rt, s)
			return nil
		},
	}

	var (
		interval                         int
		email, sms                       bool
		hearings, status, parties, stage bool
	)
	set := &cobra.Command{
		Use:   "set <case-id>",
		Short: "Change the notification settings of a case",
		Long:  "Change the notification settings of a case. Flags that are not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := rt.openAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.Notifications.CaseSettings(cmd.Context(), caseID)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("interval") {
				s.NotificationIntervalMinutes = interval
			}
			if f.Changed("email") {
				s.EmailEnabled = email
			}
			if f.Changed("sms") {
				s.SMSEnabled = sms
			}
			if f.Changed("hearings") {
				s.NotifyOnHearingChanges = hearings
			}
			if f.Changed("status") {
				s.NotifyOnStatusChanges = status
			}
			if f.Changed("parties") {
				s.NotifyOnPartyChanges = parties
			}
			if f.Changed("stage") {
				s.NotifyOnProceduralStageChanges = stage
			}

			if err := a.Notifications.UpdateCaseSettings(cmd.Context(), caseID, s); err != nil {
				return err
			}
			printSettings(rt, s)
			return nil
		},
	}
	sf := set.Flags()
	sf.IntVar(&interval, "interval", domain.DefaultMonitoringIntervalMinutes, "notification interval in minutes")
	sf.BoolVar(&email, "email", true, "send email notifications")
	sf.BoolVar(&sms, "sms", false, "send SMS notifications")
	sf.BoolVar(&hearings, "hearings", true, "notify on hearing changes")
	sf.BoolVar(&status, "status", true, "notify on status changes")
	sf.BoolVar(&parties, "parties", true, "notify on party changes")
	sf.BoolVar(&stage, "stage", true, "notify on procedural stage changes")

	cmd.AddCommand(get, set)
	return cmd
}

func printSettings(rt *runtime, s domain.NotificationSettings) {
	tw := newTable(rt.stdout)
	fmt.Fprintf(tw, "interval\t%d min\n", s.NotificationIntervalMinutes)
	fmt.Fprintf(tw, "email\t%s\n", yesNo(s.EmailEnabled))
	fmt.Fprintf(tw, "sms\t%s\n", yesNo(s.SMSEnabled))
	fmt.Fprintf(tw, "hearings\t%s\n", yesNo(s.NotifyOnHearingChanges))
	fmt.Fprintf(tw, "status\t%s\n", yesNo(s.NotifyOnStatusChanges))
	fmt.Fprintf(tw, "parties\t%s\n", yesNo(s.NotifyOnPartyChanges))
	fmt.Fprintf(tw, "stage\t%s\n", yesNo(s.NotifyOnProceduralStageChanges))
	_ = tw.Flush()
}
