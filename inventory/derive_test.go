package inventory

import (
	"testing"

	"theater_inventory/models"
)

func TestDeriveStatus(t *testing.T) {
	storage := &models.Location{ID: "loc-store", Name: "Main Storage", IsDefaultStorage: true}
	stage := &models.Location{ID: "loc-stage", Name: "Stage Left"}

	cases := []struct {
		name       string
		item       models.Item
		ctx        PlacementContext
		wantStatus models.ItemStatus
		wantName   string
		installed  bool
	}{
		{
			name:       "fixed installation is in use at its installation",
			item:       models.Item{Status: models.ItemAvailable, InstallationKind: models.Fixed, InstallationQuantity: 2},
			ctx:        PlacementContext{Location: storage, InstallationLocation: stage},
			wantStatus: models.ItemInUse,
			wantName:   "Stage Left",
			installed:  true,
		},
		{
			name:       "portable item in storage becomes available",
			item:       models.Item{Status: models.ItemInUse, InstallationKind: models.Portable},
			ctx:        PlacementContext{Location: storage},
			wantStatus: models.ItemAvailable,
			wantName:   "Main Storage",
		},
		{
			name:       "maintenance is kept",
			item:       models.Item{Status: models.ItemMaintenance, InstallationKind: models.SemiPermanent, InstallationQuantity: 1},
			ctx:        PlacementContext{InstallationLocation: stage},
			wantStatus: models.ItemMaintenance,
			wantName:   "Stage Left",
			installed:  true,
		},
		{
			name:       "installation kind without quantity does not apply",
			item:       models.Item{Status: models.ItemAvailable, InstallationKind: models.Fixed},
			ctx:        PlacementContext{Location: stage},
			wantStatus: models.ItemAvailable,
			wantName:   "Stage Left",
		},
		{
			name:       "free text location is left alone",
			item:       models.Item{Status: models.ItemAvailable, LocationName: "storage"},
			wantStatus: models.ItemAvailable,
			wantName:   "storage",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DeriveStatus(tc.item, tc.ctx)
			if d.Status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", d.Status, tc.wantStatus)
			}
			if d.LocationName != tc.wantName {
				t.Fatalf("location = %q, want %q", d.LocationName, tc.wantName)
			}
			if d.InstallationApplies != tc.installed {
				t.Fatalf("installation applies = %v", d.InstallationApplies)
			}
			if d.StatusChanged != (d.Status != tc.item.Status) {
				t.Fatal("StatusChanged out of sync")
			}
		})
	}
}
