package db

import (
	"context"
	"errors"
	"testing"

	"theater_inventory/inventory"
	"theater_inventory/models"
)

func TestCreateItemDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored := &models.Item{Name: "Lectern", Serial: "LEC-1", TotalQuantity: 1, Status: models.ItemInUse, LocationID: &f.storage.ID}
	if err := f.repo.CreateItem(ctx, stored); err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.Status != models.ItemAvailable || stored.LocationName != "Main Storage" {
		t.Fatalf("stored item = %+v", stored)
	}

	rig := &models.Item{
		Name: "Lighting bar", Serial: "BAR-1", TotalQuantity: 10,
		InstallationKind: models.Fixed, InstallationQuantity: 4, InstallationLocationID: &f.stage.ID,
	}
	if err := f.repo.CreateItem(ctx, rig); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rig.Status != models.ItemInUse || rig.LocationName != "Stage Left" {
		t.Fatalf("installed item = %+v", rig)
	}
	if got := available(t, f.repo, rig.ID); got != 6 {
		t.Fatalf("available = %d, want 6", got)
	}
}

func TestCreateItemRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := "nope"

	cases := []struct {
		name string
		item models.Item
		want error
	}{
		{"no serial", models.Item{Name: "x", TotalQuantity: 1}, inventory.ErrInvalidInput},
		{"zero total", models.Item{Name: "x", Serial: "x", TotalQuantity: 0}, inventory.ErrInvalidInput},
		{"installation above total", models.Item{Name: "x", Serial: "x", TotalQuantity: 1, InstallationQuantity: 2}, inventory.ErrInvalidInput},
		{"bad status", models.Item{Name: "x", Serial: "x", TotalQuantity: 1, Status: "lost"}, inventory.ErrInvalidInput},
		{"unknown location", models.Item{Name: "x", Serial: "x", TotalQuantity: 1, LocationID: &missing}, inventory.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := tc.item
			if err := f.repo.CreateItem(ctx, &it); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSetItemPlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.item(t, "RISER-1", 5)
	f.allocate(t, it.ID, 3, "")

	kind := models.SemiPermanent
	qty := 2
	got, err := f.repo.SetItemPlacement(ctx, PlacementInput{
		ItemID: it.ID, InstallationKind: &kind, InstallationQuantity: &qty,
		InstallationLocationID: &f.stage.ID, Actor: f.actor,
	})
	if err != nil {
		t.Fatalf("placement: %v", err)
	}
	if got.Status != models.ItemInUse || got.LocationName != "Stage Left" {
		t.Fatalf("placed item = %+v", got)
	}
	if a := available(t, f.repo, it.ID); a != 0 {
		t.Fatalf("available = %d, want 0", a)
	}

	more := 3
	_, err = f.repo.SetItemPlacement(ctx, PlacementInput{ItemID: it.ID, InstallationQuantity: &more, Actor: f.actor})
	if !errors.Is(err, inventory.ErrInsufficientQuantity) {
		t.Fatalf("overcommitting installation: %v", err)
	}

	none := 0
	broken := models.ItemBroken
	got, err = f.repo.SetItemPlacement(ctx, PlacementInput{
		ItemID: it.ID, InstallationQuantity: &none, LocationID: &f.storage.ID, Status: &broken, Actor: f.actor,
	})
	if err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if got.Status != models.ItemBroken || got.LocationName != "Main Storage" {
		t.Fatalf("uninstalled item = %+v", got)
	}

	hist, err := f.repo.GetHistory(ctx, it.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	placements := 0
	for _, e := range hist {
		if e.Action == models.AuditPlacement {
			placements++
		}
	}
	if placements != 2 {
		t.Fatalf("placement entries = %d, want 2", placements)
	}
}

func TestEnsureDefaultStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loc, err := f.repo.EnsureDefaultStorage(ctx, "Warehouse")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if loc.ID != f.storage.ID {
		t.Fatalf("got %s, want the existing default %s", loc.Name, f.storage.Name)
	}

	other := &models.Location{Name: "Dock", IsDefaultStorage: true}
	if err := f.repo.CreateLocation(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	old, err := f.repo.FindLocationByID(ctx, f.storage.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if old.IsDefaultStorage {
		t.Fatal("two default storage locations")
	}
}

func TestListItems(t *testing.T) {
	f := newFixture(t)
	f.item(t, "SPOT-1", 1)
	f.item(t, "SPOT-2", 1)
	f.item(t, "MIC-1", 1)

	page, err := f.repo.ListItems(context.Background(), ItemsQuery{Q: "spot", Size: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 {
		t.Fatalf("page = total %d, %d items", page.Total, len(page.Items))
	}
}
