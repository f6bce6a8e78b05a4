package cmd

import (
	"fmt"
	"io"
	"sort"

	"theater_inventory/db"
	"theater_inventory/inventory"
	"theater_inventory/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var availabilityCmd = &cobra.Command{
	Use:   "availability <itemID>",
	Short: "Print an item's availability and warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewRepo(db.ConnectDB())
		v, err := repo.GetAvailability(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderView(cmd.OutOrStdout(), v)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <itemID>",
	Short: "Print the latest audit entries for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := db.NewRepo(db.ConnectDB())
		entries, err := repo.GetHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(availabilityCmd)
	rootCmd.AddCommand(historyCmd)
}

func levelColor(l inventory.Level) *color.Color {
	switch l {
	case inventory.LevelError:
		return color.New(color.FgRed, color.Bold)
	case inventory.LevelWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func renderView(w io.Writer, v inventory.View) {
	fmt.Fprintf(w, "item %s\n", v.ItemID)
	fmt.Fprintf(w, "  total      %d\n", v.TotalQuantity)
	fmt.Fprintf(w, "  installed  %d\n", v.InstallationQuantity)
	fmt.Fprintf(w, "  committed  %d\n", v.UnavailableQuantity)
	fmt.Fprintf(w, "  available  %s\n", color.New(color.FgHiGreen).Sprint(v.AvailableQuantity))
	if v.ReservedQuantity > 0 {
		fmt.Fprintf(w, "  reserved   %d (effectively available %d)\n", v.ReservedQuantity, v.EffectivelyAvailable)
	}
	renderTotals(w, "location", v.LocationStatusTotals)
	renderTotals(w, "event", v.EventStatusTotals)
	for _, warn := range v.Warnings {
		fmt.Fprintf(w, "  %s %s\n", levelColor(warn.Level).Sprintf("[%s]", warn.Level), warn.Message)
	}
}

func renderTotals(w io.Writer, ledger string, totals map[models.AllocationStatus]int) {
	if len(totals) == 0 {
		return
	}
	keys := make([]string, 0, len(totals))
	for s := range totals {
		keys = append(keys, string(s))
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "  %s ledger:", ledger)
	for _, k := range keys {
		fmt.Fprintf(w, " %s=%d", k, totals[models.AllocationStatus(k)])
	}
	fmt.Fprintln(w)
}

func renderHistory(w io.Writer, entries []models.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no history")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-14s", e.CreatedAt.Format("2006-01-02 15:04:05"), color.New(color.FgHiBlue).Sprint(e.Action))
		if e.PreviousStatus != "" || e.NewStatus != "" {
			line += fmt.Sprintf("  %s -> %s", orDash(e.PreviousStatus), orDash(e.NewStatus))
		}
		if e.NewQuantity != nil {
			line += fmt.Sprintf("  qty=%d", *e.NewQuantity)
		}
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
