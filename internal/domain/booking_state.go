package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Transition names double as notification types.
type Transition string

const (
	TransitionDepositPaid Transition = "deposit_paid"
	TransitionConfirm     Transition = "confirmed"
	TransitionFullyPaid   Transition = "fully_paid"
	TransitionComplete    Transition = "completed"
	TransitionReopen      Transition = "reopened"
	TransitionCancel      Transition = "cancelled"
)

func (t Transition) Valid() bool {
	switch t {
	case TransitionDepositPaid, TransitionConfirm, TransitionFullyPaid, TransitionComplete, TransitionReopen, TransitionCancel:
		return true
	}
	return false
}

// Target is the status a transition moves the booking to.
func (t Transition) Target() BookingStatus {
	switch t {
	case TransitionDepositPaid:
		return BookingDepositPaid
	case TransitionConfirm:
		return BookingConfirmed
	case TransitionFullyPaid:
		return BookingFullyPaid
	case TransitionComplete:
		return BookingCompleted
	case TransitionCancel:
		return BookingCancelled
	default:
		return BookingPending
	}
}

type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
	ActorUnknown  Actor = "unknown"
	ActorGateway  Actor = "gateway"
)

type TransitionInput struct {
	Amount *float64
	Actor  Actor
	Reason string
}

// StatusChange is the set of fields a transition writes. From is the status the
// change was planned against and is used as the optimistic guard on update.
type StatusChange struct {
	Transition         Transition
	From               BookingStatus
	To                 BookingStatus
	AmountPaid         *float64
	PaymentTerm        *PaymentTerm
	CheckedInAt        *time.Time
	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string
}

// PlanTransition validates t against the booking's current status and returns
// the resulting change. Every transition except reopen is rejected on a
// cancelled booking.
func PlanTransition(b *Booking, t Transition, in TransitionInput, now time.Time) (StatusChange, error) {
	if !t.Valid() {
		return StatusChange{}, fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, t)
	}
	if t != TransitionReopen && b.Status.IsCancelled() {
		if t == TransitionCancel {
			return StatusChange{}, fmt.Errorf("%w: booking is already cancelled", ErrInvalidTransition)
		}
		return StatusChange{}, fmt.Errorf("%w: cannot update a cancelled booking", ErrInvalidTransition)
	}
	if in.Amount != nil && !validAmount(*in.Amount) {
		return StatusChange{}, fmt.Errorf("%w: amount %v", ErrInvalidInput, *in.Amount)
	}

	change := StatusChange{Transition: t, From: b.Status, To: t.Target()}

	switch t {
	case TransitionDepositPaid:
		amount := depositAmountFor(b, in.Amount)
		change.AmountPaid = &amount
		term := b.PaymentTerm
		if term == "" {
			term = PaymentTermDeposit
		}
		change.PaymentTerm = &term
	case TransitionFullyPaid:
		amount := b.Costs.Total
		if in.Amount != nil {
			amount = Round2(*in.Amount)
		}
		change.AmountPaid = &amount
		term := PaymentTermFull
		change.PaymentTerm = &term
	case TransitionComplete:
		at := now
		change.CheckedInAt = &at
	case TransitionCancel:
		at := now
		change.CancelledAt = &at
		actor := in.Actor
		if actor == "" {
			actor = ActorUnknown
		}
		change.CancelledBy = string(actor)
		change.CancellationReason = in.Reason
	}
	return change, nil
}

// Apply writes the change onto b in memory.
func (c StatusChange) Apply(b *Booking) {
	b.Status = c.To
	if c.AmountPaid != nil {
		b.AmountPaid = *c.AmountPaid
	}
	if c.PaymentTerm != nil {
		b.PaymentTerm = *c.PaymentTerm
	}
	if c.CheckedInAt != nil {
		b.CheckedInAt = c.CheckedInAt
	}
	if c.CancelledAt != nil {
		b.CancelledAt = c.CancelledAt
		b.CancelledBy = c.CancelledBy
		b.CancellationReason = c.CancellationReason
	}
}

func depositAmountFor(b *Booking, explicit *float64) float64 {
	if explicit != nil {
		return Round2(*explicit)
	}
	if b.PaymentSchedule.DepositAmount > 0 {
		return b.PaymentSchedule.DepositAmount
	}
	return Round2(b.Costs.Total * DepositRate)
}
