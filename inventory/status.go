// Package inventory holds the allocation and availability rules for equipment items.
// Nothing in this package touches the database: callers load ledger rows, hand them
// over as Allocation values, and persist whatever the rules decide.
package inventory

import "theater_inventory/models"

// Class describes how an allocation status affects an item's pool.
type Class int

const (
	// ClassNeutral statuses are reported but never counted against the pool.
	ClassNeutral Class = iota
	// ClassUnavailable statuses hold units away from the pool.
	ClassUnavailable
	// ClassReserved statuses are subtracted only from the effectively-available figure.
	ClassReserved
	// ClassReleasing statuses end a cycle and are excluded entirely.
	ClassReleasing
)

func (c Class) String() string {
	switch c {
	case ClassUnavailable:
		return "unavailable"
	case ClassReserved:
		return "reserved"
	case ClassReleasing:
		return "releasing"
	default:
		return "neutral"
	}
}

// Classification maps allocation statuses to their pool class.
// Statuses missing from the table are neutral.
type Classification map[models.AllocationStatus]Class

// DefaultClassification returns the production table. The reserved class is
// deliberately empty; it exists so deployments can start holding units back
// without touching the calculator or the validator.
func DefaultClassification() Classification {
	return Classification{
		models.StatusRequested:  ClassUnavailable,
		models.StatusAllocated:  ClassUnavailable,
		models.StatusCheckedOut: ClassUnavailable,
		models.StatusInUse:      ClassUnavailable,
		models.StatusReturned:   ClassReleasing,
		models.StatusCancelled:  ClassReleasing,
	}
}

// Of returns the class of s.
func (c Classification) Of(s models.AllocationStatus) Class { return c[s] }

func (c Classification) Unavailable(s models.AllocationStatus) bool {
	return c.Of(s) == ClassUnavailable
}

func (c Classification) Reserved(s models.AllocationStatus) bool { return c.Of(s) == ClassReserved }

func (c Classification) Releasing(s models.AllocationStatus) bool {
	return c.Of(s) == ClassReleasing
}

// Statuses lists every status assigned to class k, in table order of the
// canonical status list.
func (c Classification) Statuses(k Class) []models.AllocationStatus {
	var out []models.AllocationStatus
	for _, s := range allStatuses {
		if c.Of(s) == k {
			out = append(out, s)
		}
	}
	return out
}

var allStatuses = []models.AllocationStatus{
	models.StatusRequested,
	models.StatusAllocated,
	models.StatusCheckedOut,
	models.StatusInUse,
	models.StatusReserved,
	models.StatusReturned,
	models.StatusMaintenance,
	models.StatusCancelled,
}
