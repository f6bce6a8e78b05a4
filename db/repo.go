package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"theater_inventory/inventory"
	"theater_inventory/metrics"
	"theater_inventory/models"

	"gorm.io/gorm"
)

// Repo is the only component that talks to the database. Rule decisions are
// delegated to the inventory package.
type Repo struct {
	DB *gorm.DB

	classes   inventory.Classification
	calc      *inventory.Calculator
	validator *inventory.Validator
	now       func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return NewRepoWithClasses(db, inventory.DefaultClassification())
}

// NewRepoWithClasses injects a custom status classification into both the
// calculator and the validator.
func NewRepoWithClasses(db *gorm.DB, classes inventory.Classification) *Repo {
	return &Repo{
		DB:        db,
		classes:   classes,
		calc:      inventory.NewCalculator(classes),
		validator: inventory.NewValidator(classes),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, inventory.ErrNotFound)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), inventory.ErrInvalidInput)
}

// reject turns a failed validation into an error and counts its conflicts.
func (r *Repo) reject(res inventory.Result) error {
	for _, c := range res.Conflicts {
		metrics.ValidationConflicts.WithLabelValues(string(c.Code)).Inc()
	}
	return &inventory.ConflictError{Result: res}
}

// Users

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", r.now()).Error
}

// 按 ID 查
func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (r *Repo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username=?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user", username)
	}
	return &u, nil
}

func (r *Repo) FindOrCreateUser(ctx context.Context, username string, newID string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = models.User{ID: newID, Username: username, DisplayName: username}
		if err := r.DB.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	return &u, err
}

func (r *Repo) SetUserAdmin(ctx context.Context, userID string, admin bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_admin", admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, inventory.ErrNotFound)
	}
	return nil
}
