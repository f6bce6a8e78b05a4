// app/bootstrap.go
package app

import (
	"context"
	"log"

	"theater_inventory/db"
)

// BootstrapDefaultStorage makes sure one location is flagged as default storage.
func BootstrapDefaultStorage(ctx context.Context, cfg Config, repo *db.Repo) {
	loc, err := repo.EnsureDefaultStorage(ctx, cfg.DefaultStorageName)
	if err != nil {
		log.Printf("[BOOTSTRAP] default storage failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] default storage is %q (%s)", loc.Name, loc.ID)
}
