package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"theater_inventory/inventory"
	"theater_inventory/models"

	"github.com/fatih/color"
)

func TestRenderView(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	renderView(&buf, inventory.View{
		ItemID: "it-1", TotalQuantity: 10, InstallationQuantity: 2,
		UnavailableQuantity: 8, AvailableQuantity: 0,
		LocationStatusTotals: map[models.AllocationStatus]int{"in-use": 5, "checked-out": 3},
		Warnings: []inventory.Warning{
			{Level: inventory.LevelError, Code: inventory.WarnNoUnitsAvailable, Message: "nothing left"},
		},
	})
	out := buf.String()
	for _, want := range []string{"item it-1", "available  0", "location ledger: checked-out=3 in-use=5", "[error] nothing left"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "event ledger") {
		t.Errorf("empty ledger printed:\n%s", out)
	}
}

func TestRenderHistory(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	if got := strings.TrimSpace(buf.String()); got != "no history" {
		t.Fatalf("empty history = %q", got)
	}

	buf.Reset()
	qty := 2
	renderHistory(&buf, []models.AuditEntry{{
		Action: models.AuditStatusChanged, NewStatus: "in-use", NewQuantity: &qty,
		CreatedAt: time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC),
	}})
	out := buf.String()
	if !strings.Contains(out, "2024-05-01 19:30:00") || !strings.Contains(out, "- -> in-use") || !strings.Contains(out, "qty=2") {
		t.Fatalf("history line = %q", out)
	}
}
