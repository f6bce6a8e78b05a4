package inventory

import "theater_inventory/models"

// PlacementContext carries the resolved locations for an item whose location
// or installation fields are being set. Nil means "not set by reference".
type PlacementContext struct {
	Location             *models.Location
	InstallationLocation *models.Location
}

// Derivation is the status and display location an item should be saved with.
type Derivation struct {
	Status              models.ItemStatus
	StatusChanged       bool
	LocationID          *string
	LocationName        string
	InstallationApplies bool
}

// heldStatuses are never overridden by derivation.
func heldStatus(s models.ItemStatus) bool {
	return s == models.ItemMaintenance || s == models.ItemBroken || s == models.ItemUnavailable
}

// DeriveStatus suggests an item's intrinsic status and display location from
// its installation fields and resolved location. item carries the
// caller-supplied status and free-text location name.
func DeriveStatus(item models.Item, ctx PlacementContext) Derivation {
	d := Derivation{
		Status:       item.Status,
		LocationID:   item.LocationID,
		LocationName: item.LocationName,
	}

	// 位置按 id 设置时，名称总是取登记表里的规范名称
	if ctx.Location != nil {
		id := ctx.Location.ID
		d.LocationID = &id
		d.LocationName = ctx.Location.Name
	}

	installed := item.InstallationKind.Installed() && item.InstallationQuantity > 0
	switch {
	case installed:
		d.InstallationApplies = true
		if ctx.InstallationLocation != nil {
			id := ctx.InstallationLocation.ID
			d.LocationID = &id
			d.LocationName = ctx.InstallationLocation.Name
		}
		if !heldStatus(item.Status) {
			d.Status = models.ItemInUse
		}
	case ctx.Location != nil && ctx.Location.IsDefaultStorage:
		if !heldStatus(item.Status) {
			d.Status = models.ItemAvailable
		}
	}

	d.StatusChanged = d.Status != item.Status
	return d
}
