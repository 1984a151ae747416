package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"safaristay/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	b := sampleBooking("BK00000001AAAAAA")
	require.NoError(t, repo.Create(ctx, b))
	require.NotZero(t, b.ID)
	assert.Equal(t, "amani@example.com", b.CustomerEmail)

	got, err := repo.GetByReference(ctx, "BK00000001AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, 275.0, got.Costs.Total)
	assert.Equal(t, 82.5, got.PaymentSchedule.DepositAmount)
	require.Len(t, got.Rooms, 1)
	assert.Equal(t, "tent", got.Rooms[0].RoomID)
	require.Len(t, got.Amenities, 1)
	assert.Equal(t, "spa", got.Amenities[0].AmenityID)
	assert.Equal(t, "mara-camp", got.PropertyRef)
	assert.Empty(t, got.PackageRef)

	_, err = repo.GetByReference(ctx, "BK-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepository_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	require.NoError(t, repo.Create(ctx, sampleBooking("BK00000002AAAAAA")))
	err := repo.Create(ctx, sampleBooking("BK00000002AAAAAA"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestBookingRepository_ApplyStatusChange(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	b := sampleBooking("BK00000003AAAAAA")
	require.NoError(t, repo.Create(ctx, b))

	change, err := domain.PlanTransition(b, domain.TransitionDepositPaid, domain.TransitionInput{}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.ApplyStatusChange(ctx, b.ID, change))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingDepositPaid, got.Status)
	assert.Equal(t, 82.5, got.AmountPaid)

	// Planned against a stale status.
	err = repo.ApplyStatusChange(ctx, b.ID, change)
	assert.ErrorIs(t, err, ErrStatusConflict)

	err = repo.ApplyStatusChange(ctx, 9999, change)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepository_MutatePaymentAndTrackingLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	b := sampleBooking("BK00000004AAAAAA")
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.MutatePayment(ctx, b.ID, func(bk *domain.Booking) error {
		bk.PaymentDetails.OrderTrackingID = "trk-1"
		bk.PaymentDetails.Status = domain.PaymentInitiated
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = repo.MutatePayment(ctx, b.ID, func(bk *domain.Booking) error {
			bk.PaymentDetails.IPN = append(bk.PaymentDetails.IPN, domain.IPNEntry{
				ReceivedAt: time.Now(),
				Payload:    json.RawMessage(`{"OrderTrackingId":"trk-1"}`),
			})
			return nil
		})
		require.NoError(t, err)
	}

	got, err := repo.GetByTrackingID(ctx, "trk-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Len(t, got.PaymentDetails.IPN, 2)
	assert.Equal(t, domain.PaymentInitiated, got.PaymentDetails.Status)

	_, err = repo.GetByTrackingID(ctx, "trk-unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	for _, ref := range []string{"BK00000005AAAAAA", "BK00000006AAAAAA", "BK00000007AAAAAA"} {
		require.NoError(t, repo.Create(ctx, sampleBooking(ref)))
	}
	other := sampleBooking("BK00000008AAAAAA")
	other.CustomerEmail = "other@example.com"
	other.Status = domain.BookingConfirmed
	require.NoError(t, repo.Create(ctx, other))

	items, total, err := repo.List(ctx, BookingFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, BookingFilter{Status: domain.BookingConfirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "BK00000008AAAAAA", items[0].BookingRef)

	_, total, err = repo.List(ctx, BookingFilter{Search: "bk00000006"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	mine, err := repo.ListByEmail(ctx, "AMANI@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestBookingRepository_ListStalePayments(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(testDB(t))

	b := sampleBooking("BK00000009AAAAAA")
	b.PaymentDetails = domain.PaymentDetails{OrderTrackingID: "trk-9", Status: domain.PaymentInitiated}
	require.NoError(t, repo.Create(ctx, b))

	done := sampleBooking("BK00000010AAAAAA")
	done.PaymentDetails = domain.PaymentDetails{OrderTrackingID: "trk-10", Status: domain.PaymentCompleted}
	require.NoError(t, repo.Create(ctx, done))

	stale, err := repo.ListStalePayments(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "trk-9", stale[0].PaymentDetails.OrderTrackingID)

	fresh, err := repo.ListStalePayments(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}
