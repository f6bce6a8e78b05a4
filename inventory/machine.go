package inventory

import "theater_inventory/models"

// eventTransitions is the event-ledger workflow. returned and cancelled close a
// cycle; the only way out of them is a fresh request.
var eventTransitions = map[models.AllocationStatus][]models.AllocationStatus{
	models.StatusRequested:  {models.StatusAllocated, models.StatusCancelled},
	models.StatusAllocated:  {models.StatusCheckedOut, models.StatusCancelled},
	models.StatusCheckedOut: {models.StatusInUse, models.StatusReturned},
	models.StatusInUse:      {models.StatusReturned},
	models.StatusReturned:   {models.StatusRequested},
	models.StatusCancelled:  {models.StatusRequested},
}

// InitialStatus is the status every event allocation starts in.
func InitialStatus() models.AllocationStatus { return models.StatusRequested }

// CanTransition reports whether the event ledger allows from -> to.
func CanTransition(from, to models.AllocationStatus) bool {
	for _, s := range eventTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from the given status.
func NextStatuses(from models.AllocationStatus) []models.AllocationStatus {
	next := eventTransitions[from]
	out := make([]models.AllocationStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether s ends the allocation's cycle.
func IsTerminal(s models.AllocationStatus) bool {
	return s == models.StatusReturned || s == models.StatusCancelled
}
