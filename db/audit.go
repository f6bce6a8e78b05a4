package db

import (
	"context"
	"encoding/json"
	"log"

	"theater_inventory/inventory"
	"theater_inventory/metrics"
	"theater_inventory/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HistoryLimit is how many audit entries GetHistory returns.
const HistoryLimit = 50

// appendAudit writes e inside the caller's transaction under a savepoint. A
// failed insert rolls back to the savepoint only; the mutation still commits.
func (r *Repo) appendAudit(tx *gorm.DB, e *models.AuditEntry, warnings []inventory.Warning) {
	if len(warnings) > 0 {
		if b, err := json.Marshal(warnings); err == nil {
			e.Metadata = datatypes.JSON(b)
		}
	}
	e.CreatedAt = r.now()

	err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(e).Error
	})
	if err != nil {
		metrics.AuditFailures.Inc()
		log.Printf("[audit] %s item=%s actor=%s not recorded: %v", e.Action, e.ItemID, e.ActorID, err)
	}
}

// GetHistory returns the most recent audit entries for an item, newest first.
func (r *Repo) GetHistory(ctx context.Context, itemID string) ([]models.AuditEntry, error) {
	if _, err := r.FindItemByID(ctx, itemID); err != nil {
		return nil, err
	}
	var out []models.AuditEntry
	err := r.DB.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		Limit(HistoryLimit).
		Find(&out).Error
	return out, err
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
