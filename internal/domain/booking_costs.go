package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	ServiceFeeRate  = 0.10
	PropertyTaxRate = 0.15
	PackageTaxRate  = 0.12
	DepositRate     = 0.30

	balanceLeadTime = 30 * 24 * time.Hour
)

// Round2 rounds half-up to two decimal places. The epsilon absorbs binary
// representation error such as 1.005*100 == 100.49999999999999.
func Round2(v float64) float64 {
	if v < 0 {
		return -Round2(-v)
	}
	return math.Floor(v*100+0.5+1e-9) / 100
}

func TaxRate(t BookingType) float64 {
	if t == BookingTypeProperty {
		return PropertyTaxRate
	}
	return PackageTaxRate
}

func ComputeCosts(basePrice float64, amenities []AmenityLine, bookingType BookingType) (Costs, error) {
	if !validAmount(basePrice) {
		return Costs{}, fmt.Errorf("%w: basePrice %v", ErrInvalidInput, basePrice)
	}

	var amenitiesTotal float64
	for i, line := range amenities {
		if !validAmount(line.Quantity) || !validAmount(line.PricePerUnit) {
			return Costs{}, fmt.Errorf("%w: amenity line %d", ErrInvalidInput, i)
		}
		amenitiesTotal += Round2(line.Quantity * line.PricePerUnit)
	}
	amenitiesTotal = Round2(amenitiesTotal)

	subtotal := Round2(basePrice + amenitiesTotal)
	serviceFee := Round2(subtotal * ServiceFeeRate)
	taxes := Round2(subtotal * TaxRate(bookingType))

	return Costs{
		BasePrice:      Round2(basePrice),
		AmenitiesTotal: amenitiesTotal,
		Subtotal:       subtotal,
		ServiceFee:     serviceFee,
		Taxes:          taxes,
		Total:          Round2(subtotal + serviceFee + taxes),
	}, nil
}

func ComputeSchedule(total float64) PaymentSchedule {
	deposit := Round2(total * DepositRate)
	return PaymentSchedule{
		DepositAmount: deposit,
		BalanceAmount: Round2(total - deposit),
	}
}

// ScheduleDueDates sets the deposit as due now and the balance 30 days before
// check-in, or at check-in when that point has already passed.
func ScheduleDueDates(s PaymentSchedule, now, checkIn time.Time) PaymentSchedule {
	depositDue := now
	balanceDue := checkIn.Add(-balanceLeadTime)
	if balanceDue.Before(now) {
		balanceDue = checkIn
	}
	s.DepositDueDate = &depositDue
	s.BalanceDueDate = &balanceDue
	return s
}

// RoomsBasePrice prices room lines per person per night.
func RoomsBasePrice(rooms []RoomLine, nights int) (float64, []RoomLine, error) {
	if nights < 1 {
		nights = 1
	}
	out := make([]RoomLine, len(rooms))
	var base float64
	for i, r := range rooms {
		if r.Quantity < 0 || r.Guests < 0 || !validAmount(r.PricePerNightPerPerson) {
			return 0, nil, fmt.Errorf("%w: room line %d", ErrInvalidInput, i)
		}
		qty := r.Quantity
		if qty == 0 {
			qty = 1
		}
		guests := r.Guests
		if guests == 0 {
			guests = 1
		}
		r.Subtotal = Round2(r.PricePerNightPerPerson * float64(guests*qty*nights))
		base += r.Subtotal
		out[i] = r
	}
	return Round2(base), out, nil
}

// PriceAmenities fills TotalPrice on every line.
func PriceAmenities(lines []AmenityLine) []AmenityLine {
	out := make([]AmenityLine, len(lines))
	for i, l := range lines {
		l.TotalPrice = Round2(l.Quantity * l.PricePerUnit)
		out[i] = l
	}
	return out
}

func NightsBetween(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
