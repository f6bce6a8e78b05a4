package inventory

import (
	"fmt"

	"theater_inventory/models"
)

// Level grades a warning.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Warning codes shared by the calculator and the validator.
const (
	WarnNoUnitsAvailable        = "no-units-available"
	WarnLowAvailability         = "low-availability"
	WarnRequestedUnallocated    = "requested-unallocated"
	WarnInUse                   = "in-use"
	WarnCheckedOutPendingReturn = "checked-out-pending-return"
	WarnOvercommitted           = "overcommitted"
	WarnOverAllocation          = "over-allocation"
	WarnConcurrentEvents        = "concurrent-events"
)

type Warning struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// lowStockDivisor: fewer than 1/5 (20%) of total units left counts as low.
const lowStockDivisor = 5

// View is the availability of one item at the moment it was computed.
type View struct {
	ItemID               string `json:"itemId"`
	TotalQuantity        int    `json:"totalQuantity"`
	InstallationQuantity int    `json:"installationQuantity"`
	UnavailableQuantity  int    `json:"unavailableQuantity"`
	ReservedQuantity     int    `json:"reservedQuantity"`
	AvailableQuantity    int    `json:"availableQuantity"`
	EffectivelyAvailable int    `json:"effectivelyAvailable"`

	LocationStatusTotals map[models.AllocationStatus]int `json:"locationStatusTotals"`
	EventStatusTotals    map[models.AllocationStatus]int `json:"eventStatusTotals"`

	Warnings []Warning `json:"warnings"`
}

// Overcommitted reports whether allocations plus installations exceed the stock.
func (v View) Overcommitted() bool {
	return v.UnavailableQuantity+v.InstallationQuantity > v.TotalQuantity
}

// Calculator aggregates ledger rows into a View.
type Calculator struct {
	classes Classification
}

func NewCalculator(classes Classification) *Calculator {
	if classes == nil {
		classes = DefaultClassification()
	}
	return &Calculator{classes: classes}
}

// Compute builds the availability view for item from all of its ledger rows.
// It never fails: an inconsistent ledger yields clamped figures and an
// overcommitted warning.
func (c *Calculator) Compute(item models.Item, allocs []Allocation) View {
	v := View{
		ItemID:               item.ID,
		TotalQuantity:        item.TotalQuantity,
		InstallationQuantity: item.InstallationQuantity,
		LocationStatusTotals: map[models.AllocationStatus]int{},
		EventStatusTotals:    map[models.AllocationStatus]int{},
		Warnings:             []Warning{},
	}

	var unallocated, inUse, checkedOut int
	for _, a := range allocs {
		q := a.Committed()
		if a.Kind == KindEvent {
			v.EventStatusTotals[a.Status] += q
		} else {
			v.LocationStatusTotals[a.Status] += q
		}

		switch c.classes.Of(a.Status) {
		case ClassUnavailable:
			v.UnavailableQuantity += q
		case ClassReserved:
			v.ReservedQuantity += q
		}

		switch a.Status {
		case models.StatusRequested:
			unallocated += a.Shortfall()
		case models.StatusInUse:
			inUse += q
		case models.StatusCheckedOut:
			checkedOut += q
		}
	}

	v.AvailableQuantity = max(0, item.TotalQuantity-v.UnavailableQuantity-item.InstallationQuantity)
	v.EffectivelyAvailable = max(0, v.AvailableQuantity-v.ReservedQuantity)

	if v.Overcommitted() {
		v.Warnings = append(v.Warnings, Warning{
			Level: LevelError,
			Code:  WarnOvercommitted,
			Message: fmt.Sprintf("%d units committed (%d allocated, %d installed) but only %d owned",
				v.UnavailableQuantity+v.InstallationQuantity, v.UnavailableQuantity, v.InstallationQuantity, v.TotalQuantity),
		})
	}
	if v.AvailableQuantity == 0 {
		v.Warnings = append(v.Warnings, Warning{
			Level:   LevelError,
			Code:    WarnNoUnitsAvailable,
			Message: fmt.Sprintf("no units available (%d owned)", v.TotalQuantity),
		})
	} else if v.AvailableQuantity*lowStockDivisor < v.TotalQuantity {
		v.Warnings = append(v.Warnings, Warning{
			Level:   LevelWarning,
			Code:    WarnLowAvailability,
			Message: fmt.Sprintf("only %d of %d units remaining (%s)", v.AvailableQuantity, v.TotalQuantity, percent(v.AvailableQuantity, v.TotalQuantity)),
		})
	}
	if unallocated > 0 {
		v.Warnings = append(v.Warnings, Warning{
			Level:   LevelInfo,
			Code:    WarnRequestedUnallocated,
			Message: fmt.Sprintf("%d requested units not yet allocated", unallocated),
		})
	}
	if inUse > 0 {
		v.Warnings = append(v.Warnings, Warning{
			Level:   LevelInfo,
			Code:    WarnInUse,
			Message: fmt.Sprintf("%d units currently in use", inUse),
		})
	}
	if checkedOut > 0 {
		v.Warnings = append(v.Warnings, Warning{
			Level:   LevelWarning,
			Code:    WarnCheckedOutPendingReturn,
			Message: fmt.Sprintf("%d units checked out and pending return", checkedOut),
		})
	}
	return v
}

func percent(part, whole int) string {
	if whole <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(part)*100/float64(whole))
}
