package main

import (
	"github.com/spf13/cobra"
)

func newScheduleCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on scheduler.cronExpression until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := flags.newApplication(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer func() { _ = application.Close() }()

			return application.RunScheduled(cmd.Context())
		},
	}
}
