package models

import (
	"time"

	"gorm.io/datatypes"
)

const AuditTable = "inv_audit_log"

type AuditAction string

const (
	AuditAllocated     AuditAction = "allocated"
	AuditRequested     AuditAction = "requested"
	AuditRerequested   AuditAction = "re-requested"
	AuditStatusChanged AuditAction = "status-changed"
	AuditReturned      AuditAction = "returned"
	AuditMoved         AuditAction = "moved"
	AuditPlacement     AuditAction = "placement"
)

// AuditEntry 记录每一次成功的变更，只追加、不修改
type AuditEntry struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ItemID       string      `gorm:"type:uuid;index;not null" json:"itemId"`
	AllocationID *string     `gorm:"type:uuid;index" json:"allocationId,omitempty"`
	ActorID      string      `gorm:"type:uuid;not null" json:"actorId"`
	Action       AuditAction `gorm:"size:32;not null;index" json:"action"`

	PreviousStatus     string  `gorm:"size:20" json:"previousStatus,omitempty"`
	NewStatus          string  `gorm:"size:20" json:"newStatus,omitempty"`
	PreviousLocationID *string `gorm:"type:uuid" json:"previousLocationId,omitempty"`
	NewLocationID      *string `gorm:"type:uuid" json:"newLocationId,omitempty"`
	PreviousQuantity   *int    `json:"previousQuantity,omitempty"`
	NewQuantity        *int    `json:"newQuantity,omitempty"`

	Detail    string         `gorm:"type:text" json:"detail,omitempty"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"` // warnings seen at commit time
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (AuditEntry) TableName() string { return AuditTable }
