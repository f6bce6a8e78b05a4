package cmd

import (
	"context"
	"fmt"

	"theater_inventory/app"
	"theater_inventory/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and the default storage location",
	Run: func(cmd *cobra.Command, args []string) {
		conn := db.ConnectDB()
		app.BootstrapDefaultStorage(context.Background(), app.LoadConfig(), db.NewRepo(conn))
		fmt.Println("Schema is up to date.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
