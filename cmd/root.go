package cmd

import (
	"github.com/carousell/ct-go/pkg/logger/log"
	"github.com/spf13/cobra"

	"github.com/tranbn/slackline/internal/app"
	"github.com/tranbn/slackline/internal/kafka"
	"github.com/tranbn/slackline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:           "slackline",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(
			server.StartServer,
			kafka.StartConsumeEvents,
		).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
