package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"safaristay/internal/database"
	"safaristay/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleBooking(ref string) *domain.Booking {
	checkIn := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Booking{
		BookingRef:         ref,
		ConfirmationNumber: "SB" + ref,
		BookingType:        domain.BookingTypeProperty,
		PropertyRef:        "mara-camp",
		CustomerName:       "Amani Njoroge",
		CustomerEmail:      " Amani@Example.com ",
		CustomerPhone:      "+254700000000",
		CheckInDate:        checkIn,
		CheckOutDate:       checkIn.AddDate(0, 0, 2),
		Nights:             2,
		TotalGuests:        2,
		Adults:             2,
		Rooms:              []domain.RoomLine{{RoomID: "tent", Quantity: 1, Guests: 2, PricePerNightPerPerson: 50, Subtotal: 200}},
		Amenities:          []domain.AmenityLine{{AmenityID: "spa", Quantity: 2, PricePerUnit: 10, TotalPrice: 20}},
		Costs:              domain.Costs{BasePrice: 200, AmenitiesTotal: 20, Subtotal: 220, ServiceFee: 22, Taxes: 33, Total: 275},
		PaymentTerm:        domain.PaymentTermDeposit,
		PaymentSchedule:    domain.ComputeSchedule(275),
		Status:             domain.BookingPending,
	}
}
