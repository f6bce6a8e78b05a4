package inventory

import (
	"testing"

	"theater_inventory/models"
)

func hasWarning(ws []Warning, code string) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestCompute(t *testing.T) {
	calc := NewCalculator(nil)

	t.Run("no allocations", func(t *testing.T) {
		v := calc.Compute(models.Item{ID: "a", TotalQuantity: 5}, nil)
		if v.AvailableQuantity != 5 || len(v.Warnings) != 0 {
			t.Fatalf("got available=%d warnings=%v", v.AvailableQuantity, v.Warnings)
		}
	})

	t.Run("event allocation", func(t *testing.T) {
		allocs := []Allocation{{Kind: KindEvent, ID: "e1", EventID: "ev", Status: models.StatusAllocated, QuantityNeeded: 3, QuantityAllocated: 3}}
		v := calc.Compute(models.Item{ID: "b", TotalQuantity: 5}, allocs)
		if v.AvailableQuantity != 2 {
			t.Fatalf("available = %d, want 2", v.AvailableQuantity)
		}
		if v.EventStatusTotals[models.StatusAllocated] != 3 {
			t.Fatalf("event totals = %v", v.EventStatusTotals)
		}
	})

	t.Run("installation", func(t *testing.T) {
		item := models.Item{ID: "d", TotalQuantity: 10, InstallationKind: models.Fixed, InstallationQuantity: 4}
		v := calc.Compute(item, nil)
		if v.AvailableQuantity != 6 || len(v.Warnings) != 0 {
			t.Fatalf("got available=%d warnings=%v", v.AvailableQuantity, v.Warnings)
		}
	})

	t.Run("returned rows are ignored", func(t *testing.T) {
		allocs := []Allocation{
			{Kind: KindLocation, ID: "l1", Status: models.StatusReturned, Quantity: 4},
			{Kind: KindEvent, ID: "e1", Status: models.StatusCancelled, QuantityNeeded: 2, QuantityAllocated: 2},
		}
		v := calc.Compute(models.Item{ID: "r", TotalQuantity: 4}, allocs)
		if v.AvailableQuantity != 4 || v.UnavailableQuantity != 0 {
			t.Fatalf("got available=%d unavailable=%d", v.AvailableQuantity, v.UnavailableQuantity)
		}
	})

	t.Run("overcommitted clamps to zero", func(t *testing.T) {
		allocs := []Allocation{
			{Kind: KindLocation, ID: "l1", Status: models.StatusCheckedOut, Quantity: 3},
			{Kind: KindEvent, ID: "e1", Status: models.StatusAllocated, QuantityNeeded: 2, QuantityAllocated: 2},
		}
		v := calc.Compute(models.Item{ID: "o", TotalQuantity: 4}, allocs)
		if v.AvailableQuantity != 0 || v.EffectivelyAvailable != 0 {
			t.Fatalf("got available=%d effective=%d", v.AvailableQuantity, v.EffectivelyAvailable)
		}
		if !v.Overcommitted() || !hasWarning(v.Warnings, WarnOvercommitted) || !hasWarning(v.Warnings, WarnNoUnitsAvailable) {
			t.Fatalf("warnings = %v", v.Warnings)
		}
	})

	t.Run("low availability", func(t *testing.T) {
		allocs := []Allocation{{Kind: KindLocation, ID: "l1", Status: models.StatusAllocated, Quantity: 9}}
		v := calc.Compute(models.Item{ID: "l", TotalQuantity: 10}, allocs)
		if v.AvailableQuantity != 1 || !hasWarning(v.Warnings, WarnLowAvailability) {
			t.Fatalf("got available=%d warnings=%v", v.AvailableQuantity, v.Warnings)
		}
	})

	t.Run("informational warnings", func(t *testing.T) {
		allocs := []Allocation{
			{Kind: KindEvent, ID: "e1", Status: models.StatusRequested, QuantityNeeded: 3, QuantityAllocated: 1},
			{Kind: KindLocation, ID: "l1", Status: models.StatusInUse, Quantity: 1},
			{Kind: KindLocation, ID: "l2", Status: models.StatusCheckedOut, Quantity: 1},
		}
		v := calc.Compute(models.Item{ID: "i", TotalQuantity: 20}, allocs)
		for _, code := range []string{WarnRequestedUnallocated, WarnInUse, WarnCheckedOutPendingReturn} {
			if !hasWarning(v.Warnings, code) {
				t.Fatalf("missing %s in %v", code, v.Warnings)
			}
		}
		if v.AvailableQuantity != 17 {
			t.Fatalf("available = %d, want 17", v.AvailableQuantity)
		}
	})
}
