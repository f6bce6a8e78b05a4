package db

import (
	"context"

	"theater_inventory/inventory"
	"theater_inventory/models"

	"gorm.io/gorm"
)

// GetAvailability computes the item's availability from the committed ledgers.
func (r *Repo) GetAvailability(ctx context.Context, itemID string) (inventory.View, error) {
	tx := r.DB.WithContext(ctx)
	var item models.Item
	if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
		return inventory.View{}, notFound(err, "item", itemID)
	}
	allocs, err := r.loadAllocations(tx, item.ID)
	if err != nil {
		return inventory.View{}, err
	}
	return r.calc.Compute(item, allocs), nil
}

// ValidateInput describes a transition to check without applying it. An empty
// AllocationID checks a new record.
type ValidateInput struct {
	ItemID       string
	AllocationID string
	Status       models.AllocationStatus
	Quantity     int
	EventID      string
}

// ValidateTransition reports every conflict and warning the proposed change
// would raise. Conflicts are part of the result, not an error.
func (r *Repo) ValidateTransition(ctx context.Context, in ValidateInput) (inventory.Result, error) {
	if in.Status == "" {
		return inventory.Result{}, invalid("status is required")
	}
	var res inventory.Result
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, "id = ?", in.ItemID).Error; err != nil {
			return notFound(err, "item", in.ItemID)
		}

		var target *inventory.Allocation
		if in.AllocationID != "" {
			rec, err := findRecordReadOnly(tx, in.AllocationID)
			if err != nil {
				return err
			}
			if rec.ItemID() != item.ID {
				return notFound(gorm.ErrRecordNotFound, "allocation", in.AllocationID)
			}
			a := rec.Allocation()
			target = &a
		}

		allocs, err := r.loadAllocations(tx, item.ID)
		if err != nil {
			return err
		}
		names, err := eventNames(tx, allocs)
		if err != nil {
			return err
		}
		res = r.validator.Validate(inventory.Proposal{
			Item:        item,
			Target:      target,
			Allocations: allocs,
			Status:      in.Status,
			Quantity:    in.Quantity,
			EventID:     in.EventID,
			EventNames:  names,
		})
		return nil
	})
	return res, err
}

func findRecordReadOnly(tx *gorm.DB, id string) (*AllocationRecord, error) {
	var la models.LocationAllocation
	if err := tx.Limit(1).Find(&la, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if la.ID != "" {
		return &AllocationRecord{Kind: inventory.KindLocation, Location: &la}, nil
	}
	var ea models.EventAllocation
	if err := tx.First(&ea, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "allocation", id)
	}
	return &AllocationRecord{Kind: inventory.KindEvent, Event: &ea}, nil
}

// InventoryLine is one open allocation at a location, with its item's labels.
type InventoryLine struct {
	models.LocationAllocation
	ItemName   string `json:"itemName"`
	ItemSerial string `json:"itemSerial"`
}

// GetLocationInventory lists the open allocations held at a location.
func (r *Repo) GetLocationInventory(ctx context.Context, locationID string) ([]InventoryLine, error) {
	tx := r.DB.WithContext(ctx)
	if _, err := findLocation(tx, locationID); err != nil {
		return nil, err
	}
	var rows []models.LocationAllocation
	if err := tx.Preload("Item").
		Where("location_id = ? AND status <> ?", locationID, models.StatusReturned).
		Order("allocated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]InventoryLine, 0, len(rows))
	for _, row := range rows {
		line := InventoryLine{LocationAllocation: row}
		if row.Item != nil {
			line.ItemName = row.Item.Name
			line.ItemSerial = row.Item.Serial
		}
		out = append(out, line)
	}
	return out, nil
}
