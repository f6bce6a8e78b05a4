package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"theater_inventory/inventory"
	"theater_inventory/metrics"
	"theater_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRecord is a row from either ledger; exactly one pointer is set.
type AllocationRecord struct {
	Kind     inventory.Kind             `json:"kind"`
	Location *models.LocationAllocation `json:"location,omitempty"`
	Event    *models.EventAllocation    `json:"event,omitempty"`
}

func (a AllocationRecord) ItemID() string {
	if a.Event != nil {
		return a.Event.ItemID
	}
	return a.Location.ItemID
}

func (a AllocationRecord) Allocation() inventory.Allocation {
	if a.Event != nil {
		return inventory.FromEvent(*a.Event)
	}
	return inventory.FromLocation(*a.Location)
}

// lockingRead takes row locks where the database has them. SQLite serialises
// writers on its own.
func lockingRead(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockItem loads the item and holds its row for the rest of the transaction,
// so ledger writes for one item run one at a time.
func lockItem(tx *gorm.DB, itemID string) (*models.Item, error) {
	var it models.Item
	if err := lockingRead(tx).First(&it, "id = ?", itemID).Error; err != nil {
		return nil, notFound(err, "item", itemID)
	}
	return &it, nil
}

// findRecord looks an allocation id up in the location ledger, then the event ledger.
func findRecord(tx *gorm.DB, id string) (*AllocationRecord, error) {
	var la models.LocationAllocation
	err := lockingRead(tx).First(&la, "id = ?", id).Error
	if err == nil {
		return &AllocationRecord{Kind: inventory.KindLocation, Location: &la}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var ea models.EventAllocation
	if err := lockingRead(tx).First(&ea, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "allocation", id)
	}
	return &AllocationRecord{Kind: inventory.KindEvent, Event: &ea}, nil
}

// loadAllocations returns every ledger row of the item that still counts,
// skipping statuses classified as releasing.
func (r *Repo) loadAllocations(tx *gorm.DB, itemID string) ([]inventory.Allocation, error) {
	closed := r.classes.Statuses(inventory.ClassReleasing)

	lq := tx.Where("item_id = ?", itemID)
	eq := tx.Where("item_id = ?", itemID)
	if len(closed) > 0 {
		lq = lq.Where("status NOT IN ?", closed)
		eq = eq.Where("status NOT IN ?", closed)
	}
	var locs []models.LocationAllocation
	if err := lq.Order("allocated_at").Find(&locs).Error; err != nil {
		return nil, fmt.Errorf("load location allocations: %w", err)
	}
	var events []models.EventAllocation
	if err := eq.Order("requested_at").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load event allocations: %w", err)
	}
	return inventory.FromLedgers(locs, events), nil
}

// AllocateInput commits units of an item to a location.
type AllocateInput struct {
	ItemID           string
	LocationID       string
	EventID          *string
	Quantity         int
	Kind             models.AllocationKind
	Status           models.AllocationStatus
	Actor            string
	Notes            string
	ExpectedReturnAt *time.Time
}

// Allocate validates and inserts a location allocation. Status defaults to
// allocated. The item row stays locked from validation to insert.
func (r *Repo) Allocate(ctx context.Context, in AllocateInput) (*models.LocationAllocation, []inventory.Warning, error) {
	if in.Quantity < 1 {
		return nil, nil, invalid("quantity must be at least 1")
	}
	if in.Kind == "" {
		in.Kind = models.KindGeneral
	}
	if in.Status == "" {
		in.Status = models.StatusAllocated
	}
	if !in.Kind.Valid() {
		return nil, nil, invalid("unknown allocation kind %q", in.Kind)
	}
	if !in.Status.In(models.LocationStatuses) || in.Status == models.StatusReturned {
		return nil, nil, invalid("cannot open a location allocation as %q", in.Status)
	}

	var (
		out      models.LocationAllocation
		warnings []inventory.Warning
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, in.ItemID)
		if err != nil {
			return err
		}
		if _, err := findLocation(tx, in.LocationID); err != nil {
			return err
		}
		eventID := ""
		if in.EventID != nil && *in.EventID != "" {
			if _, err := findEvent(tx, *in.EventID); err != nil {
				return err
			}
			eventID = *in.EventID
		}

		allocs, err := r.loadAllocations(tx, item.ID)
		if err != nil {
			return err
		}
		names, err := eventNames(tx, allocs)
		if err != nil {
			return err
		}
		res := r.validator.Validate(inventory.Proposal{
			Item:        *item,
			Allocations: allocs,
			Status:      in.Status,
			Quantity:    in.Quantity,
			EventID:     eventID,
			EventNames:  names,
		})
		if !res.Valid {
			return r.reject(res)
		}

		// 插入前用计算器再核一次
		if r.classes.Unavailable(in.Status) {
			view := r.calc.Compute(*item, allocs)
			if in.Quantity > view.AvailableQuantity {
				res.Valid = false
				res.Conflicts = append(res.Conflicts, inventory.Conflict{
					Code:      inventory.ConflictInsufficientQuantity,
					Message:   fmt.Sprintf("requested %d units but only %d available", in.Quantity, view.AvailableQuantity),
					Shortfall: in.Quantity - view.AvailableQuantity,
				})
				return r.reject(res)
			}
		}

		now := r.now()
		out = models.LocationAllocation{
			ID:               uuid.NewString(),
			ItemID:           item.ID,
			LocationID:       in.LocationID,
			EventID:          blankToNil(eventID),
			Quantity:         in.Quantity,
			Status:           in.Status,
			Kind:             in.Kind,
			AllocatedBy:      in.Actor,
			AllocatedAt:      now,
			ExpectedReturnAt: in.ExpectedReturnAt,
			Notes:            appendNote("", in.Notes),
		}
		if err := tx.Create(&out).Error; err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}

		r.appendAudit(tx, &models.AuditEntry{
			ItemID:        item.ID,
			AllocationID:  strPtr(out.ID),
			ActorID:       in.Actor,
			Action:        models.AuditAllocated,
			NewStatus:     string(out.Status),
			NewLocationID: strPtr(out.LocationID),
			NewQuantity:   intPtr(out.Quantity),
			Detail:        out.Notes,
		}, res.Warnings)
		warnings = res.Warnings
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.LedgerMutations.WithLabelValues("allocate").Inc()
	log.Printf("[ledger] allocated %d of item %s to location %s (%s)", out.Quantity, out.ItemID, out.LocationID, out.ID)
	return &out, warnings, nil
}

// Return closes an allocation. Returning an already returned allocation is a
// no-op. Location rows may be returned from any open status; event rows follow
// their workflow.
func (r *Repo) Return(ctx context.Context, allocationID, actor, notes string) (*AllocationRecord, error) {
	var (
		rec     *AllocationRecord
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = findRecord(tx, allocationID)
		if err != nil {
			return err
		}
		now := r.now()

		// 幂等：已归还直接返回
		if rec.Location != nil {
			la := rec.Location
			if la.Status == models.StatusReturned {
				return nil
			}
			prev := la.Status
			la.Status = models.StatusReturned
			la.ReturnedAt = &now
			la.ReturnedBy = strPtr(actor)
			la.Notes = appendNote(la.Notes, notes)
			if err := tx.Save(la).Error; err != nil {
				return err
			}
			r.appendAudit(tx, &models.AuditEntry{
				ItemID:             la.ItemID,
				AllocationID:       strPtr(la.ID),
				ActorID:            actor,
				Action:             models.AuditReturned,
				PreviousStatus:     string(prev),
				NewStatus:          string(la.Status),
				PreviousLocationID: strPtr(la.LocationID),
				PreviousQuantity:   intPtr(la.Quantity),
				Detail:             strings.TrimSpace(notes),
			}, nil)
			changed = true
			return nil
		}

		ea := rec.Event
		if ea.Status == models.StatusReturned {
			return nil
		}
		item, err := lockItem(tx, ea.ItemID)
		if err != nil {
			return err
		}
		target := inventory.FromEvent(*ea)
		res := r.validator.Validate(inventory.Proposal{
			Item:   *item,
			Target: &target,
			Status: models.StatusReturned,
		})
		if !res.Valid {
			return r.reject(res)
		}
		prev := ea.Status
		ea.Status = models.StatusReturned
		ea.ReturnedAt = &now
		ea.ReturnedBy = strPtr(actor)
		ea.Notes = appendNote(ea.Notes, notes)
		if err := tx.Save(ea).Error; err != nil {
			return err
		}
		r.appendAudit(tx, &models.AuditEntry{
			ItemID:           ea.ItemID,
			AllocationID:     strPtr(ea.ID),
			ActorID:          actor,
			Action:           models.AuditReturned,
			PreviousStatus:   string(prev),
			NewStatus:        string(ea.Status),
			PreviousQuantity: intPtr(ea.QuantityAllocated),
			Detail:           strings.TrimSpace(notes),
		}, nil)
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.LedgerMutations.WithLabelValues("return").Inc()
	}
	return rec, nil
}

// Move relocates an open location allocation. Moving to the current location
// changes nothing.
func (r *Repo) Move(ctx context.Context, allocationID, newLocationID, actor, notes string) (*models.LocationAllocation, error) {
	var (
		la      models.LocationAllocation
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockingRead(tx).First(&la, "id = ?", allocationID).Error; err != nil {
			return notFound(err, "location allocation", allocationID)
		}
		if la.Status == models.StatusReturned {
			return r.reject(inventory.Result{
				Conflicts: []inventory.Conflict{{
					Code:         inventory.ConflictIllegalTransition,
					Message:      "returned allocations cannot be moved",
					AllocationID: la.ID,
				}},
				Warnings: []inventory.Warning{},
			})
		}
		if _, err := findLocation(tx, newLocationID); err != nil {
			return err
		}
		if la.LocationID == newLocationID {
			return nil
		}

		prev := la.LocationID
		la.LocationID = newLocationID
		la.Notes = appendNote(la.Notes, notes)
		if err := tx.Model(&la).Updates(map[string]any{
			"location_id": la.LocationID,
			"notes":       la.Notes,
		}).Error; err != nil {
			return err
		}
		r.appendAudit(tx, &models.AuditEntry{
			ItemID:             la.ItemID,
			AllocationID:       strPtr(la.ID),
			ActorID:            actor,
			Action:             models.AuditMoved,
			PreviousStatus:     string(la.Status),
			NewStatus:          string(la.Status),
			PreviousLocationID: strPtr(prev),
			NewLocationID:      strPtr(la.LocationID),
			Detail:             strings.TrimSpace(notes),
		}, nil)
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.LedgerMutations.WithLabelValues("move").Inc()
	}
	return &la, nil
}

// RequestInput asks for units of an item for an event.
type RequestInput struct {
	ItemID         string
	EventID        string
	QuantityNeeded int
	Actor          string
	Notes          string
}

// RequestEventAllocation opens an event allocation in the initial workflow status.
func (r *Repo) RequestEventAllocation(ctx context.Context, in RequestInput) (*models.EventAllocation, []inventory.Warning, error) {
	if in.QuantityNeeded < 1 {
		return nil, nil, invalid("quantity needed must be at least 1")
	}
	var (
		out      models.EventAllocation
		warnings []inventory.Warning
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockItem(tx, in.ItemID)
		if err != nil {
			return err
		}
		if _, err := findEvent(tx, in.EventID); err != nil {
			return err
		}
		res, err := r.validateNew(tx, *item, inventory.InitialStatus(), in.EventID)
		if err != nil {
			return err
		}
		if !res.Valid {
			return r.reject(res)
		}

		out = models.EventAllocation{
			ID:             uuid.NewString(),
			ItemID:         item.ID,
			EventID:        in.EventID,
			QuantityNeeded: in.QuantityNeeded,
			Status:         inventory.InitialStatus(),
			RequestedBy:    in.Actor,
			RequestedAt:    r.now(),
			Notes:          appendNote("", in.Notes),
		}
		if err := tx.Create(&out).Error; err != nil {
			return fmt.Errorf("insert event allocation: %w", err)
		}
		r.appendAudit(tx, &models.AuditEntry{
			ItemID:       item.ID,
			AllocationID: strPtr(out.ID),
			ActorID:      in.Actor,
			Action:       models.AuditRequested,
			NewStatus:    string(out.Status),
			NewQuantity:  intPtr(out.QuantityNeeded),
			Detail:       out.Notes,
		}, res.Warnings)
		warnings = res.Warnings
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.LedgerMutations.WithLabelValues("request").Inc()
	return &out, warnings, nil
}

func (r *Repo) validateNew(tx *gorm.DB, item models.Item, status models.AllocationStatus, eventID string) (inventory.Result, error) {
	allocs, err := r.loadAllocations(tx, item.ID)
	if err != nil {
		return inventory.Result{}, err
	}
	names, err := eventNames(tx, allocs)
	if err != nil {
		return inventory.Result{}, err
	}
	return r.validator.Validate(inventory.Proposal{
		Item:        item,
		Allocations: allocs,
		Status:      status,
		EventID:     eventID,
		EventNames:  names,
	}), nil
}

// TransitionInput moves an allocation to another status. Quantity, when
// positive, becomes the units the record holds: quantity_allocated on event
// rows, quantity on location rows. Zero keeps the current figure.
type TransitionInput struct {
	AllocationID string
	Status       models.AllocationStatus
	Quantity     int
	Actor        string
	Notes        string
}

// TransitionStatus validates and applies a status change on either ledger.
func (r *Repo) TransitionStatus(ctx context.Context, in TransitionInput) (*AllocationRecord, []inventory.Warning, error) {
	if in.Quantity < 0 {
		return nil, nil, invalid("quantity cannot be negative")
	}
	if !in.Status.In(models.LocationStatuses) && !in.Status.In(models.EventStatuses) {
		return nil, nil, invalid("unknown status %q", in.Status)
	}

	var (
		rec      *AllocationRecord
		warnings []inventory.Warning
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = findRecord(tx, in.AllocationID); err != nil {
			return err
		}
		item, err := lockItem(tx, rec.ItemID())
		if err != nil {
			return err
		}
		allocs, err := r.loadAllocations(tx, item.ID)
		if err != nil {
			return err
		}
		names, err := eventNames(tx, allocs)
		if err != nil {
			return err
		}
		target := rec.Allocation()
		res := r.validator.Validate(inventory.Proposal{
			Item:        *item,
			Target:      &target,
			Allocations: allocs,
			Status:      in.Status,
			Quantity:    in.Quantity,
			EventNames:  names,
		})
		if !res.Valid {
			return r.reject(res)
		}

		// 提交前按变更后的账目再核一次库存
		if c, ok := r.recheckPool(*item, allocs, target, in.Status, in.Quantity); !ok {
			res.Valid = false
			res.Conflicts = append(res.Conflicts, c)
			return r.reject(res)
		}

		now := r.now()
		entry := &models.AuditEntry{
			ItemID:           item.ID,
			AllocationID:     strPtr(target.ID),
			ActorID:          in.Actor,
			Action:           models.AuditStatusChanged,
			PreviousStatus:   string(target.Status),
			NewStatus:        string(in.Status),
			PreviousQuantity: intPtr(target.Committed()),
			Detail:           strings.TrimSpace(in.Notes),
		}
		if la := rec.Location; la != nil {
			la.Status = in.Status
			if in.Quantity > 0 {
				la.Quantity = in.Quantity
			}
			if in.Status == models.StatusReturned {
				la.ReturnedAt = &now
				la.ReturnedBy = strPtr(in.Actor)
			}
			la.Notes = appendNote(la.Notes, in.Notes)
			if err := tx.Save(la).Error; err != nil {
				return err
			}
			entry.PreviousLocationID = strPtr(la.LocationID)
			entry.NewLocationID = strPtr(la.LocationID)
			entry.NewQuantity = intPtr(la.Quantity)
		} else {
			ea := rec.Event
			ea.Status = in.Status
			if in.Quantity > 0 {
				ea.QuantityAllocated = in.Quantity
			}
			switch in.Status {
			case models.StatusCheckedOut:
				ea.CheckedOutAt = &now
				ea.CheckedOutBy = strPtr(in.Actor)
			case models.StatusReturned:
				ea.ReturnedAt = &now
				ea.ReturnedBy = strPtr(in.Actor)
			}
			ea.Notes = appendNote(ea.Notes, in.Notes)
			if err := tx.Save(ea).Error; err != nil {
				return err
			}
			entry.NewQuantity = intPtr(ea.QuantityAllocated)
		}
		r.appendAudit(tx, entry, res.Warnings)
		warnings = res.Warnings
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.LedgerMutations.WithLabelValues("transition").Inc()
	return rec, warnings, nil
}

// recheckPool applies the proposed change to the loaded ledger and runs the
// calculator over the result. A change that adds units to an unavailable
// status must not leave the item overcommitted.
func (r *Repo) recheckPool(item models.Item, allocs []inventory.Allocation, target inventory.Allocation, status models.AllocationStatus, quantity int) (inventory.Conflict, bool) {
	if !r.classes.Unavailable(status) {
		return inventory.Conflict{}, true
	}
	held := 0
	if r.classes.Unavailable(target.Status) {
		held = target.Committed()
	}

	next := target
	next.Status = status
	if quantity > 0 {
		if next.Kind == inventory.KindEvent {
			next.QuantityAllocated = quantity
		} else {
			next.Quantity = quantity
		}
	}
	added := next.Committed() - held
	if added <= 0 {
		return inventory.Conflict{}, true
	}

	after := make([]inventory.Allocation, 0, len(allocs)+1)
	for _, a := range allocs {
		if a.ID != target.ID {
			after = append(after, a)
		}
	}
	after = append(after, next)
	v := r.calc.Compute(item, after)
	if !v.Overcommitted() {
		return inventory.Conflict{}, true
	}
	over := v.UnavailableQuantity + v.InstallationQuantity - v.TotalQuantity
	return inventory.Conflict{
		Code:         inventory.ConflictInsufficientQuantity,
		Message:      fmt.Sprintf("%s with %d units would commit %d more than the %d owned", status, next.Committed(), over, v.TotalQuantity),
		AllocationID: target.ID,
		Shortfall:    min(over, added),
	}, false
}

// Rerequest opens a fresh request for the same item and event as a returned
// or cancelled one. The closed record is left as it was.
func (r *Repo) Rerequest(ctx context.Context, eventAllocationID, actor string) (*models.EventAllocation, []inventory.Warning, error) {
	var (
		out      models.EventAllocation
		warnings []inventory.Warning
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.EventAllocation
		if err := tx.First(&old, "id = ?", eventAllocationID).Error; err != nil {
			return notFound(err, "event allocation", eventAllocationID)
		}
		next := inventory.InitialStatus()
		if !inventory.CanTransition(old.Status, next) {
			return r.reject(inventory.Result{
				Conflicts: []inventory.Conflict{inventory.IllegalTransition(old.Status, next, "only returned or cancelled requests can be requested again")},
				Warnings:  []inventory.Warning{},
			})
		}
		item, err := lockItem(tx, old.ItemID)
		if err != nil {
			return err
		}
		res, err := r.validateNew(tx, *item, next, old.EventID)
		if err != nil {
			return err
		}
		if !res.Valid {
			return r.reject(res)
		}

		out = models.EventAllocation{
			ID:             uuid.NewString(),
			ItemID:         old.ItemID,
			EventID:        old.EventID,
			QuantityNeeded: old.QuantityNeeded,
			Status:         next,
			RequestedBy:    actor,
			RequestedAt:    r.now(),
			Notes:          old.Notes,
		}
		if err := tx.Create(&out).Error; err != nil {
			return fmt.Errorf("insert event allocation: %w", err)
		}
		r.appendAudit(tx, &models.AuditEntry{
			ItemID:         out.ItemID,
			AllocationID:   strPtr(out.ID),
			ActorID:        actor,
			Action:         models.AuditRerequested,
			PreviousStatus: string(old.Status),
			NewStatus:      string(out.Status),
			NewQuantity:    intPtr(out.QuantityNeeded),
			Detail:         "re-requested from " + old.ID,
		}, res.Warnings)
		warnings = res.Warnings
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.LedgerMutations.WithLabelValues("rerequest").Inc()
	return &out, warnings, nil
}

// maxNotes matches the notes column size.
const maxNotes = 500

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	out := existing
	switch {
	case note == "":
	case existing == "":
		out = note
	default:
		out = existing + "\n" + note
	}
	if r := []rune(out); len(r) > maxNotes {
		out = string(r[len(r)-maxNotes:])
	}
	return out
}
