package cmd

import (
	"fmt"

	"theater_inventory/app"
	"theater_inventory/db"
	"theater_inventory/session"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var issueAdmin bool

var sessionIssueCmd = &cobra.Command{
	Use:   "session:issue <username>",
	Short: "Create an actor if needed and print a session id for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()
		repo := db.NewRepo(db.ConnectDB())
		rdb := app.MustRedis(cfg)
		defer rdb.Close()

		ctx := cmd.Context()
		u, err := repo.FindOrCreateUser(ctx, args[0], uuid.NewString())
		if err != nil {
			return err
		}
		if issueAdmin && !u.IsAdmin {
			if err := repo.SetUserAdmin(ctx, u.ID, true); err != nil {
				return err
			}
		}
		sid, err := session.NewAppSessionStore(rdb, cfg.SessionTTL).Issue(ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", color.New(color.FgHiGreen).Sprint("session"), sid, u.Username)
		fmt.Fprintf(cmd.OutOrStdout(), "use: Authorization: Bearer %s\n", sid)
		return nil
	},
}

func init() {
	sessionIssueCmd.Flags().BoolVar(&issueAdmin, "admin", false, "grant admin rights to the user")
	rootCmd.AddCommand(sessionIssueCmd)
	rootCmd.AddCommand(sessionRevokeCmd)
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "session:revoke <username>",
	Short: "Drop every session of an actor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.LoadConfig()
		repo := db.NewRepo(db.ConnectDB())
		rdb := app.MustRedis(cfg)
		defer rdb.Close()

		ctx := cmd.Context()
		u, err := repo.FindUserByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		n, err := session.NewAppSessionStore(rdb, cfg.SessionTTL).RevokeAllForUser(ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d session(s) of %s\n", color.New(color.FgYellow).Sprint("revoked"), n, u.Username)
		return nil
	},
}
