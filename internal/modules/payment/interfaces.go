package payment

import (
	"context"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/integrations/pesapal"
	"safaristay/internal/notification"
)

// Gateway is the payment provider as the service uses it.
type Gateway interface {
	SubmitOrder(ctx context.Context, spec pesapal.OrderSpec) (*pesapal.OrderResult, error)
	GetTransactionStatus(ctx context.Context, trackingID string) (*pesapal.TransactionStatus, error)
	DebugAuth(ctx context.Context) pesapal.AuthReport
	RegisterIPN(ctx context.Context, ipnURL, method string) (string, error)
}

type bookingRepo interface {
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Booking, error)
	MutatePayment(ctx context.Context, id int64, fn func(b *domain.Booking) error) (*domain.Booking, error)
	ListStalePayments(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error)
}

type unresolvedRepo interface {
	Record(ctx context.Context, n *domain.UnresolvedNotification) error
	GetByID(ctx context.Context, id int64) (*domain.UnresolvedNotification, error)
	ListOpen(ctx context.Context, limit int) ([]domain.UnresolvedNotification, error)
	MarkResolved(ctx context.Context, id, bookingID int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Locker collapses concurrent deliveries of the same notification.
type Locker interface {
	AcquireNotificationLock(ctx context.Context, trackingID string, ttl time.Duration) (bool, error)
	ReleaseNotificationLock(ctx context.Context, trackingID string) error
}

type Notifier interface {
	Notify(ev notification.Event) bool
}
