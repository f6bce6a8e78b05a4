// models/item.go
package models

import "time"

const (
	ItemTable     = "inv_items"
	LocationTable = "inv_locations"
	EventTable    = "inv_events"
)

// ItemStatus is the intrinsic condition of an item, independent of its allocations.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemInUse       ItemStatus = "in-use"
	ItemMaintenance ItemStatus = "maintenance"
	ItemUnavailable ItemStatus = "unavailable"
	ItemBroken      ItemStatus = "broken"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemInUse, ItemMaintenance, ItemUnavailable, ItemBroken:
		return true
	}
	return false
}

// InstallationKind tells whether units of an item can leave their installation.
type InstallationKind string

const (
	Portable      InstallationKind = "portable"
	Fixed         InstallationKind = "fixed"
	SemiPermanent InstallationKind = "semi-permanent"
)

func (k InstallationKind) Valid() bool {
	switch k {
	case Portable, Fixed, SemiPermanent:
		return true
	}
	return false
}

// Installed reports whether the kind removes units from the pool permanently.
func (k InstallationKind) Installed() bool { return k == Fixed || k == SemiPermanent }

type Item struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	Serial        string     `gorm:"size:120;uniqueIndex;not null" json:"serial"`
	Name          string     `gorm:"size:200;not null" json:"name"`
	TotalQuantity int        `gorm:"not null;check:chk_item_total_quantity,total_quantity >= 1" json:"totalQuantity"`
	Status        ItemStatus `gorm:"size:20;not null;default:'available';check:chk_item_status,status IN ('available','in-use','maintenance','unavailable','broken')" json:"status"`

	InstallationKind       InstallationKind `gorm:"size:20;not null;default:'portable';check:chk_item_installation_kind,installation_kind IN ('portable','fixed','semi-permanent')" json:"installationKind"`
	InstallationQuantity   int              `gorm:"not null;default:0;check:chk_item_installation_quantity,installation_quantity >= 0" json:"installationQuantity"`
	InstallationLocationID *string          `gorm:"type:uuid" json:"installationLocationId,omitempty"`

	// 展示位置：安装位置优先于仓储位置
	LocationID   *string `gorm:"type:uuid;index" json:"locationId,omitempty"`
	LocationName string  `gorm:"size:200" json:"locationName"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Location struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	IsDefaultStorage bool      `gorm:"not null;default:false" json:"isDefaultStorage"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Event struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"size:200;not null" json:"name"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Item) TableName() string     { return ItemTable }
func (Location) TableName() string { return LocationTable }
func (Event) TableName() string    { return EventTable }
