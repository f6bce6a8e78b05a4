package cmd

import (
	"context"
	"log"

	"theater_inventory/app"
	"theater_inventory/routes"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		application := app.MustNew()
		defer application.Close()

		app.BootstrapDefaultStorage(context.Background(), application.Config, application.Repo)
		routes.RegisterRoutes(application.Router, application)

		log.Printf("listening on :%s", application.Config.Port)
		return application.Router.Run(":" + application.Config.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
