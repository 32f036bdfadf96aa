package main

import (
	"github.com/spf13/cobra"

	"github.com/signsofter/caseobserver-dashboard/internal/app"
)

func newVersionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			rt.printf("caseobserver %s\n", app.BuildVersion())
		},
	}
}
