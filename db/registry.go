package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"theater_inventory/inventory"
	"theater_inventory/metrics"
	"theater_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Items

func (r *Repo) CreateItem(ctx context.Context, it *models.Item) error {
	if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.Serial) == "" {
		return invalid("item name and serial are required")
	}
	if it.TotalQuantity < 1 {
		return invalid("total quantity must be at least 1")
	}
	if it.Status == "" {
		it.Status = models.ItemAvailable
	}
	if it.InstallationKind == "" {
		it.InstallationKind = models.Portable
	}
	if !it.Status.Valid() || !it.InstallationKind.Valid() {
		return invalid("unknown status %q or installation kind %q", it.Status, it.InstallationKind)
	}
	if it.InstallationQuantity < 0 || it.InstallationQuantity > it.TotalQuantity {
		return invalid("installation quantity must be between 0 and %d", it.TotalQuantity)
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pc, err := resolvePlacement(tx, it.LocationID, it.InstallationLocationID)
		if err != nil {
			return err
		}
		d := inventory.DeriveStatus(*it, pc)
		it.Status, it.LocationID, it.LocationName = d.Status, d.LocationID, d.LocationName
		if err := tx.Create(it).Error; err != nil {
			return err
		}
		metrics.LedgerMutations.WithLabelValues("create_item").Inc()
		return nil
	})
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "item", id)
	}
	return &it, nil
}

type ItemsQuery struct {
	Q      string // 模糊搜索：serial/name
	Status models.ItemStatus
	Page   int
	Size   int
}

type PagedItems struct {
	Total int64         `json:"total"`
	Items []models.Item `json:"items"`
}

func (r *Repo) ListItems(ctx context.Context, q ItemsQuery) (*PagedItems, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	qry := r.DB.WithContext(ctx).Model(&models.Item{})
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(serial) LIKE ? OR LOWER(name) LIKE ?", pat, pat)
	}
	if q.Status != "" {
		qry = qry.Where("status = ?", q.Status)
	}

	qry = qry.Session(&gorm.Session{})

	var total int64
	if err := qry.Count(&total).Error; err != nil {
		return nil, err
	}
	var items []models.Item
	if err := qry.Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return &PagedItems{Total: total, Items: items}, nil
}

// PlacementInput changes where an item lives and how much of it is installed.
// Nil fields are left unchanged.
type PlacementInput struct {
	ItemID                 string
	Status                 *models.ItemStatus
	InstallationKind       *models.InstallationKind
	InstallationQuantity   *int
	InstallationLocationID *string
	LocationID             *string
	LocationName           *string
	Actor                  string
}

// SetItemPlacement updates location and installation fields, derives the
// item's status from them and records a placement audit entry.
func (r *Repo) SetItemPlacement(ctx context.Context, in PlacementInput) (*models.Item, error) {
	var out models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := lockItem(tx, in.ItemID)
		if err != nil {
			return err
		}
		prev := *it

		if in.Status != nil {
			it.Status = *in.Status
		}
		if in.InstallationKind != nil {
			it.InstallationKind = *in.InstallationKind
		}
		if in.InstallationQuantity != nil {
			it.InstallationQuantity = *in.InstallationQuantity
		}
		if in.InstallationLocationID != nil {
			it.InstallationLocationID = blankToNil(*in.InstallationLocationID)
		}
		if in.LocationID != nil {
			it.LocationID = blankToNil(*in.LocationID)
		}
		if in.LocationName != nil {
			it.LocationName = strings.TrimSpace(*in.LocationName)
		}
		if !it.Status.Valid() || !it.InstallationKind.Valid() {
			return invalid("unknown status %q or installation kind %q", it.Status, it.InstallationKind)
		}
		if it.InstallationQuantity < 0 || it.InstallationQuantity > it.TotalQuantity {
			return invalid("installation quantity must be between 0 and %d", it.TotalQuantity)
		}

		// 安装数量增加时不能挤占已分配的库存
		if it.InstallationQuantity > prev.InstallationQuantity {
			allocs, err := r.loadAllocations(tx, it.ID)
			if err != nil {
				return err
			}
			if v := r.calc.Compute(*it, allocs); v.Overcommitted() {
				free := max(0, prev.TotalQuantity-v.UnavailableQuantity-prev.InstallationQuantity)
				return r.reject(inventory.Result{
					Conflicts: []inventory.Conflict{{
						Code:      inventory.ConflictInsufficientQuantity,
						Message:   fmt.Sprintf("cannot install %d more units: only %d free", it.InstallationQuantity-prev.InstallationQuantity, free),
						Shortfall: it.InstallationQuantity - prev.InstallationQuantity - free,
					}},
					Warnings: v.Warnings,
				})
			}
		}

		pc, err := resolvePlacement(tx, it.LocationID, it.InstallationLocationID)
		if err != nil {
			return err
		}
		d := inventory.DeriveStatus(*it, pc)
		it.Status, it.LocationID, it.LocationName = d.Status, d.LocationID, d.LocationName
		it.UpdatedAt = r.now()
		if err := tx.Save(it).Error; err != nil {
			return err
		}

		r.appendAudit(tx, &models.AuditEntry{
			ItemID:             it.ID,
			ActorID:            in.Actor,
			Action:             models.AuditPlacement,
			PreviousStatus:     string(prev.Status),
			NewStatus:          string(it.Status),
			PreviousLocationID: prev.LocationID,
			NewLocationID:      it.LocationID,
			PreviousQuantity:   intPtr(prev.InstallationQuantity),
			NewQuantity:        intPtr(it.InstallationQuantity),
			Detail:             placementDetail(prev, *it),
		}, nil)
		out = *it
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.LedgerMutations.WithLabelValues("set_placement").Inc()
	return &out, nil
}

func placementDetail(prev, next models.Item) string {
	if prev.LocationName == next.LocationName {
		return "at " + next.LocationName
	}
	return fmt.Sprintf("%s -> %s", prev.LocationName, next.LocationName)
}

func resolvePlacement(tx *gorm.DB, locationID, installationID *string) (inventory.PlacementContext, error) {
	var pc inventory.PlacementContext
	if locationID != nil {
		loc, err := findLocation(tx, *locationID)
		if err != nil {
			return pc, err
		}
		pc.Location = loc
	}
	if installationID != nil {
		loc, err := findLocation(tx, *installationID)
		if err != nil {
			return pc, err
		}
		pc.InstallationLocation = loc
	}
	return pc, nil
}

func blankToNil(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// Locations

func (r *Repo) CreateLocation(ctx context.Context, l *models.Location) error {
	if l.Name = strings.TrimSpace(l.Name); l.Name == "" {
		return invalid("location name is required")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 默认仓储位置只能有一个
		if l.IsDefaultStorage {
			if err := tx.Model(&models.Location{}).
				Where("is_default_storage = ?", true).
				Update("is_default_storage", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		metrics.LedgerMutations.WithLabelValues("create_location").Inc()
		return nil
	})
}

func (r *Repo) FindLocationByID(ctx context.Context, id string) (*models.Location, error) {
	return findLocation(r.DB.WithContext(ctx), id)
}

func findLocation(tx *gorm.DB, id string) (*models.Location, error) {
	var l models.Location
	if err := tx.First(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "location", id)
	}
	return &l, nil
}

// EnsureDefaultStorage makes sure exactly one location carries the default
// storage flag, creating or flagging one called name if none does.
func (r *Repo) EnsureDefaultStorage(ctx context.Context, name string) (*models.Location, error) {
	var l models.Location
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("is_default_storage = ?", true).First(&l).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = tx.Where("name = ?", name).First(&l).Error
		switch {
		case err == nil:
			log.Printf("[BOOTSTRAP] flagging %q as default storage", name)
			return tx.Model(&l).Update("is_default_storage", true).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Printf("[BOOTSTRAP] creating default storage location %q", name)
			l = models.Location{ID: uuid.NewString(), Name: name, IsDefaultStorage: true}
			return tx.Create(&l).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Events

func (r *Repo) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.Name = strings.TrimSpace(e.Name); e.Name == "" {
		return invalid("event name is required")
	}
	if e.StartsAt != nil && e.EndsAt != nil && e.EndsAt.Before(*e.StartsAt) {
		return invalid("event ends before it starts")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(e).Error; err != nil {
		return err
	}
	metrics.LedgerMutations.WithLabelValues("create_event").Inc()
	return nil
}

func findEvent(tx *gorm.DB, id string) (*models.Event, error) {
	var e models.Event
	if err := tx.First(&e, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "event", id)
	}
	return &e, nil
}

// eventNames resolves display names for the events referenced by allocs.
func eventNames(tx *gorm.DB, allocs []inventory.Allocation) (map[string]string, error) {
	var ids []string
	seen := map[string]bool{}
	for _, a := range allocs {
		if a.EventID != "" && !seen[a.EventID] {
			seen[a.EventID] = true
			ids = append(ids, a.EventID)
		}
	}
	names := map[string]string{}
	if len(ids) == 0 {
		return names, nil
	}
	var events []models.Event
	if err := tx.Where("id IN ?", ids).Find(&events).Error; err != nil {
		return nil, err
	}
	for _, e := range events {
		names[e.ID] = e.Name
	}
	return names, nil
}
