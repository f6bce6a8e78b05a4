// models/allocation.go
package models

import "time"

const (
	LocationAllocationTable = "inv_location_allocations"
	EventAllocationTable    = "inv_event_allocations"
)

// AllocationStatus is shared by both ledgers; each table constrains its own subset.
type AllocationStatus string

const (
	StatusRequested   AllocationStatus = "requested"
	StatusAllocated   AllocationStatus = "allocated"
	StatusCheckedOut  AllocationStatus = "checked-out"
	StatusInUse       AllocationStatus = "in-use"
	StatusReserved    AllocationStatus = "reserved"
	StatusReturned    AllocationStatus = "returned"
	StatusMaintenance AllocationStatus = "maintenance"
	StatusCancelled   AllocationStatus = "cancelled"
)

// LocationStatuses is the closed set accepted by the location ledger.
var LocationStatuses = []AllocationStatus{
	StatusAllocated, StatusCheckedOut, StatusInUse, StatusReserved, StatusReturned, StatusMaintenance,
}

// EventStatuses is the closed set accepted by the event ledger.
var EventStatuses = []AllocationStatus{
	StatusRequested, StatusAllocated, StatusCheckedOut, StatusInUse, StatusReturned, StatusCancelled,
}

func (s AllocationStatus) In(set []AllocationStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type AllocationKind string

const (
	KindGeneral     AllocationKind = "general"
	KindEvent       AllocationKind = "event"
	KindMaintenance AllocationKind = "maintenance"
	KindStorage     AllocationKind = "storage"
)

func (k AllocationKind) Valid() bool {
	switch k {
	case KindGeneral, KindEvent, KindMaintenance, KindStorage:
		return true
	}
	return false
}

// LocationAllocation commits a quantity of an item to a location.
type LocationAllocation struct {
	ID         string           `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     string           `gorm:"type:uuid;index;not null" json:"itemId"`
	LocationID string           `gorm:"type:uuid;index;not null" json:"locationId"`
	EventID    *string          `gorm:"type:uuid;index" json:"eventId,omitempty"`
	Quantity   int              `gorm:"not null;check:chk_location_allocation_quantity,quantity >= 1" json:"quantity"`
	Status     AllocationStatus `gorm:"size:20;not null;check:chk_location_allocation_status,status IN ('allocated','checked-out','in-use','reserved','returned','maintenance')" json:"status"`
	Kind       AllocationKind   `gorm:"size:20;not null;default:'general';check:chk_location_allocation_kind,kind IN ('general','event','maintenance','storage')" json:"kind"`

	AllocatedBy      string     `gorm:"type:uuid;not null" json:"allocatedBy"`
	AllocatedAt      time.Time  `gorm:"index;not null" json:"allocatedAt"`
	ExpectedReturnAt *time.Time `json:"expectedReturnAt,omitempty"`
	ReturnedAt       *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	ReturnedBy       *string    `gorm:"type:uuid" json:"returnedBy,omitempty"`

	Notes     string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Item     *Item     `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"-"`
	Location *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:RESTRICT" json:"-"`
	Event    *Event    `gorm:"foreignKey:EventID;constraint:OnDelete:SET NULL" json:"-"`
}

// EventAllocation tracks what an event needs of an item and how much it holds.
type EventAllocation struct {
	ID                string           `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID            string           `gorm:"type:uuid;index;not null" json:"itemId"`
	EventID           string           `gorm:"type:uuid;index;not null" json:"eventId"`
	QuantityNeeded    int              `gorm:"not null;check:chk_event_allocation_needed,quantity_needed >= 1" json:"quantityNeeded"`
	QuantityAllocated int              `gorm:"not null;default:0;check:chk_event_allocation_allocated,quantity_allocated >= 0" json:"quantityAllocated"`
	Status            AllocationStatus `gorm:"size:20;not null;check:chk_event_allocation_status,status IN ('requested','allocated','checked-out','in-use','returned','cancelled')" json:"status"`

	RequestedBy  string     `gorm:"type:uuid;not null" json:"requestedBy"`
	RequestedAt  time.Time  `gorm:"not null" json:"requestedAt"`
	CheckedOutAt *time.Time `json:"checkedOutAt,omitempty"`
	CheckedOutBy *string    `gorm:"type:uuid" json:"checkedOutBy,omitempty"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
	ReturnedBy   *string    `gorm:"type:uuid" json:"returnedBy,omitempty"`

	Notes     string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Item  *Item  `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"-"`
	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (LocationAllocation) TableName() string { return LocationAllocationTable }
func (EventAllocation) TableName() string    { return EventAllocationTable }
