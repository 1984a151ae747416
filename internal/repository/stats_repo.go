package repository

import (
	"context"
	"time"

	"safaristay/internal/domain"

	"github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// StatsRepository runs the aggregate queries behind the admin dashboard.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type BookingTotals struct {
	Bookings    int64   `json:"bookings"`
	Revenue     float64 `json:"revenue"`
	Outstanding float64 `json:"outstanding"`
}

// PaymentRow is the minimal projection used for time bucketing in Go, which
// keeps the query portable across SQLite and PostgreSQL.
type PaymentRow struct {
	BookingType string    `json:"bookingType"`
	AmountPaid  float64   `json:"amountPaid"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *StatsRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	query, args, err := squirrel.
		Select("status", "COUNT(*) AS count").
		From("bookings").
		GroupBy("status").
		OrderBy("status").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []StatusCount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Totals sums paid and outstanding amounts over live bookings.
func (r *StatsRepository) Totals(ctx context.Context) (BookingTotals, error) {
	query, args, err := squirrel.
		Select(
			"COUNT(*) AS bookings",
			"COALESCE(SUM(amount_paid), 0) AS revenue",
			"COALESCE(SUM(total - amount_paid), 0) AS outstanding",
		).
		From("bookings").
		Where(squirrel.NotEq{"status": string(domain.BookingCancelled)}).
		ToSql()
	if err != nil {
		return BookingTotals{}, err
	}

	var out BookingTotals
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&out).Error; err != nil {
		return BookingTotals{}, err
	}
	return out, nil
}

func (r *StatsRepository) CountCheckInsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("bookings").
		Where(squirrel.And{
			squirrel.GtOrEq{"check_in_date": from},
			squirrel.Lt{"check_in_date": to},
			squirrel.NotEq{"status": string(domain.BookingCancelled)},
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// PaymentsSince returns live bookings created at or after since.
func (r *StatsRepository) PaymentsSince(ctx context.Context, since time.Time) ([]PaymentRow, error) {
	query, args, err := squirrel.
		Select("booking_type", "amount_paid", "total", "created_at").
		From("bookings").
		Where(squirrel.And{
			squirrel.GtOrEq{"created_at": since},
			squirrel.NotEq{"status": string(domain.BookingCancelled)},
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []PaymentRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *StatsRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ?", domain.RoleCustomer).
		Count(&n).Error
	return n, err
}

func (r *StatsRepository) CountProperties(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Count(&n).Error
	return n, err
}
