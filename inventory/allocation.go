package inventory

import "theater_inventory/models"

// Kind tags which ledger an Allocation came from.
type Kind string

const (
	KindLocation Kind = "location"
	KindEvent    Kind = "event"
)

// Allocation is a ledger row from either table. Location rows carry Quantity;
// event rows carry QuantityNeeded and QuantityAllocated.
type Allocation struct {
	Kind       Kind
	ID         string
	ItemID     string
	Status     models.AllocationStatus
	LocationID string
	EventID    string

	Quantity          int
	QuantityNeeded    int
	QuantityAllocated int
}

func FromLocation(a models.LocationAllocation) Allocation {
	out := Allocation{
		Kind:       KindLocation,
		ID:         a.ID,
		ItemID:     a.ItemID,
		Status:     a.Status,
		LocationID: a.LocationID,
		Quantity:   a.Quantity,
	}
	if a.EventID != nil {
		out.EventID = *a.EventID
	}
	return out
}

func FromEvent(a models.EventAllocation) Allocation {
	return Allocation{
		Kind:              KindEvent,
		ID:                a.ID,
		ItemID:            a.ItemID,
		Status:            a.Status,
		EventID:           a.EventID,
		QuantityNeeded:    a.QuantityNeeded,
		QuantityAllocated: a.QuantityAllocated,
	}
}

// Committed is the number of units the record holds against the pool.
func (a Allocation) Committed() int {
	if a.Kind == KindEvent {
		return a.QuantityAllocated
	}
	return a.Quantity
}

// Shortfall is how many needed units an event record still lacks.
func (a Allocation) Shortfall() int {
	if a.Kind != KindEvent || a.QuantityNeeded <= a.QuantityAllocated {
		return 0
	}
	return a.QuantityNeeded - a.QuantityAllocated
}

// FromLedgers flattens both ledgers into one slice, location rows first.
func FromLedgers(locs []models.LocationAllocation, events []models.EventAllocation) []Allocation {
	out := make([]Allocation, 0, len(locs)+len(events))
	for _, a := range locs {
		out = append(out, FromLocation(a))
	}
	for _, a := range events {
		out = append(out, FromEvent(a))
	}
	return out
}
