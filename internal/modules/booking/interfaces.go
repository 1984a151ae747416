package booking

import (
	"context"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/notification"
	"safaristay/internal/repository"
)

// BookingRepository defines the persistence operations the service needs
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]*domain.Booking, int64, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Booking, error)
	ApplyStatusChange(ctx context.Context, id int64, change domain.StatusChange) error
}

// CatalogRepository resolves catalog prices used to recompute costs
type CatalogRepository interface {
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	RoomsByID(ctx context.Context, propertyID string, ids []string) (map[string]domain.Room, error)
	AmenitiesByID(ctx context.Context, ids []string) (map[string]domain.Amenity, error)
}

type UserRepository interface {
	RecordBooking(ctx context.Context, id int64, at time.Time) error
}

// Notifier queues customer notifications without blocking.
type Notifier interface {
	Notify(ev notification.Event) bool
}
