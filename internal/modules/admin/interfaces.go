package admin

import (
	"context"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/repository"
)

type StatsRepository interface {
	CountByStatus(ctx context.Context) ([]repository.StatusCount, error)
	Totals(ctx context.Context) (repository.BookingTotals, error)
	CountCheckInsBetween(ctx context.Context, from, to time.Time) (int64, error)
	PaymentsSince(ctx context.Context, since time.Time) ([]repository.PaymentRow, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountProperties(ctx context.Context) (int64, error)
}

type BookingRepository interface {
	List(ctx context.Context, f repository.BookingFilter) ([]*domain.Booking, int64, error)
}
