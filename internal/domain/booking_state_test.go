package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(status BookingStatus) *Booking {
	return &Booking{
		ID:          1,
		Status:      status,
		BookingType: BookingTypeProperty,
		Costs:       Costs{Total: 275},
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestPlanTransition_CancelledBookingRejectsEverythingButReopen(t *testing.T) {
	now := time.Now()
	for _, tr := range []Transition{TransitionDepositPaid, TransitionConfirm, TransitionFullyPaid, TransitionComplete, TransitionCancel} {
		_, err := PlanTransition(newTestBooking(BookingCancelled), tr, TransitionInput{}, now)
		assert.ErrorIs(t, err, ErrInvalidTransition, "transition %s", tr)
	}

	change, err := PlanTransition(newTestBooking(BookingCancelled), TransitionReopen, TransitionInput{}, now)
	require.NoError(t, err)
	assert.Equal(t, BookingPending, change.To)
	assert.Equal(t, BookingCancelled, change.From)
}

func TestPlanTransition_DepositFallsBackToThirtyPercent(t *testing.T) {
	b := newTestBooking(BookingPending)

	change, err := PlanTransition(b, TransitionDepositPaid, TransitionInput{}, time.Now())
	require.NoError(t, err)
	change.Apply(b)

	assert.Equal(t, BookingDepositPaid, b.Status)
	assert.Equal(t, 82.5, b.AmountPaid)
	assert.Equal(t, PaymentTermDeposit, b.PaymentTerm)
}

func TestPlanTransition_DepositPrefersCallerThenSchedule(t *testing.T) {
	b := newTestBooking(BookingPending)
	b.PaymentSchedule.DepositAmount = 90
	b.PaymentTerm = PaymentTermFull

	change, err := PlanTransition(b, TransitionDepositPaid, TransitionInput{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 90.0, *change.AmountPaid)
	assert.Equal(t, PaymentTermFull, *change.PaymentTerm)

	change, err = PlanTransition(b, TransitionDepositPaid, TransitionInput{Amount: floatPtr(100)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, *change.AmountPaid)
}

func TestPlanTransition_FullyPaid(t *testing.T) {
	b := newTestBooking(BookingDepositPaid)

	change, err := PlanTransition(b, TransitionFullyPaid, TransitionInput{}, time.Now())
	require.NoError(t, err)
	change.Apply(b)

	assert.Equal(t, BookingFullyPaid, b.Status)
	assert.Equal(t, 275.0, b.AmountPaid)
	assert.Equal(t, PaymentTermFull, b.PaymentTerm)
}

func TestPlanTransition_ConfirmLeavesAmountAlone(t *testing.T) {
	b := newTestBooking(BookingDepositPaid)
	b.AmountPaid = 82.5

	change, err := PlanTransition(b, TransitionConfirm, TransitionInput{}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, change.AmountPaid)
	change.Apply(b)
	assert.Equal(t, 82.5, b.AmountPaid)
	assert.Equal(t, BookingConfirmed, b.Status)
}

func TestPlanTransition_CompleteSetsCheckIn(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	b := newTestBooking(BookingFullyPaid)

	change, err := PlanTransition(b, TransitionComplete, TransitionInput{}, now)
	require.NoError(t, err)
	change.Apply(b)

	require.NotNil(t, b.CheckedInAt)
	assert.Equal(t, now, *b.CheckedInAt)
	assert.Equal(t, BookingCompleted, b.Status)
}

func TestPlanTransition_CancelRecordsAudit(t *testing.T) {
	now := time.Now()
	b := newTestBooking(BookingConfirmed)

	change, err := PlanTransition(b, TransitionCancel, TransitionInput{Actor: ActorCustomer, Reason: "change of plans"}, now)
	require.NoError(t, err)
	change.Apply(b)

	assert.Equal(t, BookingCancelled, b.Status)
	assert.Equal(t, "customer", b.CancelledBy)
	assert.Equal(t, "change of plans", b.CancellationReason)
	require.NotNil(t, b.CancelledAt)

	anon, err := PlanTransition(newTestBooking(BookingPending), TransitionCancel, TransitionInput{}, now)
	require.NoError(t, err)
	assert.Equal(t, "unknown", anon.CancelledBy)
}

func TestPlanTransition_ReopenKeepsAmountPaid(t *testing.T) {
	b := newTestBooking(BookingFullyPaid)
	b.AmountPaid = 275

	change, err := PlanTransition(b, TransitionReopen, TransitionInput{}, time.Now())
	require.NoError(t, err)
	change.Apply(b)

	assert.Equal(t, BookingPending, b.Status)
	assert.Equal(t, 275.0, b.AmountPaid)
}

func TestPlanTransition_RejectsUnknownAndNegativeAmount(t *testing.T) {
	_, err := PlanTransition(newTestBooking(BookingPending), Transition("teleport"), TransitionInput{}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = PlanTransition(newTestBooking(BookingPending), TransitionFullyPaid, TransitionInput{Amount: floatPtr(-3)}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBooking_OwnedByAndAmountDue(t *testing.T) {
	b := newTestBooking(BookingPending)
	b.CustomerEmail = "Guest@Example.com"
	b.PaymentSchedule = ComputeSchedule(275)

	assert.True(t, b.OwnedBy(" guest@example.COM "))
	assert.False(t, b.OwnedBy("other@example.com"))
	assert.False(t, b.OwnedBy(""))

	assert.Equal(t, 82.5, b.AmountDue())
	b.AmountPaid = 82.5
	assert.Equal(t, 192.5, b.AmountDue())
	b.AmountPaid = 300
	assert.Equal(t, 0.0, b.AmountDue())
}
