package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStats struct {
	mock.Mock
}

func (m *mockStats) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.StatusCount), args.Error(1)
}

func (m *mockStats) Totals(ctx context.Context) (repository.BookingTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.BookingTotals), args.Error(1)
}

func (m *mockStats) CountCheckInsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStats) PaymentsSince(ctx context.Context, since time.Time) ([]repository.PaymentRow, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]repository.PaymentRow), args.Error(1)
}

func (m *mockStats) CountCustomers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStats) CountProperties(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) List(ctx context.Context, f repository.BookingFilter) ([]*domain.Booking, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]*domain.Booking), args.Get(1).(int64), args.Error(2)
}

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(stats *mockStats, bookings *mockBookings) *Service {
	s := NewService(stats, bookings)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestDashboard(t *testing.T) {
	stats := new(mockStats)
	bookings := new(mockBookings)
	svc := newTestService(stats, bookings)

	stats.On("CountByStatus", mock.Anything).Return([]repository.StatusCount{
		{Status: "cancelled", Count: 1},
		{Status: "confirmed", Count: 3},
		{Status: "pending", Count: 2},
	}, nil)
	stats.On("Totals", mock.Anything).Return(repository.BookingTotals{Bookings: 5, Revenue: 412.504, Outstanding: 962.5}, nil)
	stats.On("CountCustomers", mock.Anything).Return(int64(4), nil)
	stats.On("CountProperties", mock.Anything).Return(int64(2), nil)
	stats.On("CountCheckInsBetween", mock.Anything, fixedNow, fixedNow.Add(30*24*time.Hour)).Return(int64(1), nil)
	recent := []*domain.Booking{{BookingRef: "BK1"}, {BookingRef: "BK2"}}
	bookings.On("List", mock.Anything, repository.BookingFilter{Page: 1, Limit: 10}).Return(recent, int64(6), nil)

	out, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.TotalBookings)
	assert.Equal(t, int64(4), out.TotalCustomers)
	assert.Equal(t, int64(2), out.TotalProperties)
	assert.Equal(t, 412.5, out.Revenue)
	assert.Equal(t, 962.5, out.Outstanding)
	assert.Equal(t, int64(1), out.UpcomingCheckIns)
	assert.Equal(t, int64(3), out.BookingsByStatus["confirmed"])
	assert.Len(t, out.RecentBookings, 2)

	stats.AssertExpectations(t)
	bookings.AssertExpectations(t)
}

func TestDashboard_PropagatesErrors(t *testing.T) {
	stats := new(mockStats)
	svc := newTestService(stats, new(mockBookings))
	boom := errors.New("db down")
	stats.On("CountByStatus", mock.Anything).Return([]repository.StatusCount(nil), boom)

	_, err := svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAnalytics_BucketsByMonth(t *testing.T) {
	stats := new(mockStats)
	svc := newTestService(stats, new(mockBookings))

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.On("PaymentsSince", mock.Anything, since).Return([]repository.PaymentRow{
		{BookingType: "property", AmountPaid: 82.5, Total: 275, CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{BookingType: "package", AmountPaid: 0, Total: 112, CreatedAt: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)},
		{BookingType: "property", AmountPaid: 275, Total: 275, CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	}, nil)

	out, err := svc.Analytics(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out.Bookings, 3)

	assert.Equal(t, MonthBucket{Month: "2026-01", Count: 2, Total: 387, Paid: 82.5, Property: 1, Package: 1}, out.Bookings[0])
	assert.Equal(t, MonthBucket{Month: "2026-02"}, out.Bookings[1])
	assert.Equal(t, MonthBucket{Month: "2026-03", Count: 1, Total: 275, Paid: 275, Property: 1}, out.Bookings[2])
}

func TestAnalytics_ClampsMonths(t *testing.T) {
	stats := new(mockStats)
	svc := newTestService(stats, new(mockBookings))
	stats.On("PaymentsSince", mock.Anything, mock.Anything).Return([]repository.PaymentRow{}, nil)

	out, err := svc.Analytics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 12, out.Months)
	assert.Equal(t, "2025-04", out.Bookings[0].Month)
	assert.Equal(t, "2026-03", out.Bookings[11].Month)

	out, err = svc.Analytics(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, out.Bookings, 36)
}
