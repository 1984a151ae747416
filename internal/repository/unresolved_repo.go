package repository

import (
	"context"
	"errors"
	"time"

	"safaristay/internal/domain"

	"gorm.io/gorm"
)

// UnresolvedRepository stores gateway notifications that matched no booking.
type UnresolvedRepository struct {
	db *gorm.DB
}

func NewUnresolvedRepository(db *gorm.DB) *UnresolvedRepository {
	return &UnresolvedRepository{db: db}
}

// Record stores n, or bumps the attempt counter of an open entry for the same
// tracking id.
func (r *UnresolvedRepository) Record(ctx context.Context, n *domain.UnresolvedNotification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.UnresolvedNotification
		err := tx.Where("order_tracking_id = ? AND resolved_at IS NULL", n.OrderTrackingID).
			First(&existing).Error
		if err == nil {
			n.ID = existing.ID
			n.Attempts = existing.Attempts + 1
			return tx.Model(&existing).Updates(map[string]any{
				"payload":    n.Payload,
				"attempts":   n.Attempts,
				"last_error": n.LastError,
				"updated_at": time.Now(),
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if n.Attempts == 0 {
			n.Attempts = 1
		}
		return tx.Create(n).Error
	})
}

func (r *UnresolvedRepository) GetByID(ctx context.Context, id int64) (*domain.UnresolvedNotification, error) {
	var n domain.UnresolvedNotification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// ListOpen returns unresolved entries, oldest first.
func (r *UnresolvedRepository) ListOpen(ctx context.Context, limit int) ([]domain.UnresolvedNotification, error) {
	var rows []domain.UnresolvedNotification
	q := r.db.WithContext(ctx).Where("resolved_at IS NULL").Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UnresolvedRepository) MarkResolved(ctx context.Context, id, bookingID int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.UnresolvedNotification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"resolved_at":         now,
			"resolved_booking_id": bookingID,
			"last_error":          "",
			"updated_at":          now,
		}).Error
}

func (r *UnresolvedRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&domain.UnresolvedNotification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"updated_at": time.Now(),
		}).Error
}

// PurgeResolved deletes entries resolved before the cutoff.
func (r *UnresolvedRepository) PurgeResolved(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("resolved_at IS NOT NULL AND resolved_at < ?", before).
		Delete(&domain.UnresolvedNotification{})
	return res.RowsAffected, res.Error
}
