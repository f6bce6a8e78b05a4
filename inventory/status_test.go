package inventory

import (
	"testing"

	"theater_inventory/models"
)

func TestDefaultClassification(t *testing.T) {
	c := DefaultClassification()
	cases := []struct {
		status models.AllocationStatus
		want   Class
	}{
		{models.StatusRequested, ClassUnavailable},
		{models.StatusAllocated, ClassUnavailable},
		{models.StatusCheckedOut, ClassUnavailable},
		{models.StatusInUse, ClassUnavailable},
		{models.StatusReturned, ClassReleasing},
		{models.StatusCancelled, ClassReleasing},
		{models.StatusReserved, ClassNeutral},
		{models.StatusMaintenance, ClassNeutral},
		{models.AllocationStatus("bogus"), ClassNeutral},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := c.Of(tc.status); got != tc.want {
				t.Fatalf("Of(%q) = %s, want %s", tc.status, got, tc.want)
			}
		})
	}

	if got := c.Statuses(ClassReserved); len(got) != 0 {
		t.Fatalf("reserved class should be empty, got %v", got)
	}
	if got := c.Statuses(ClassReleasing); len(got) != 2 {
		t.Fatalf("releasing statuses = %v", got)
	}
}

func TestCustomReservedClass(t *testing.T) {
	c := DefaultClassification()
	c[models.StatusReserved] = ClassReserved

	item := models.Item{ID: "it", TotalQuantity: 10}
	allocs := []Allocation{
		{Kind: KindLocation, ID: "a", Status: models.StatusReserved, Quantity: 3},
		{Kind: KindLocation, ID: "b", Status: models.StatusAllocated, Quantity: 2},
	}
	v := NewCalculator(c).Compute(item, allocs)
	if v.AvailableQuantity != 8 {
		t.Fatalf("available = %d, want 8", v.AvailableQuantity)
	}
	if v.ReservedQuantity != 3 || v.EffectivelyAvailable != 5 {
		t.Fatalf("reserved = %d effective = %d, want 3 and 5", v.ReservedQuantity, v.EffectivelyAvailable)
	}
}
