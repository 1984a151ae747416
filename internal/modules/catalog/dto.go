package catalog

import "safaristay/internal/domain"

// PropertyDetail is a property with the rooms that can currently be booked.
type PropertyDetail struct {
	domain.Property
	Rooms []domain.Room `json:"rooms"`
}

// PackageDetail adds the accommodation property when the package names one.
type PackageDetail struct {
	domain.Package
	Accommodation *domain.Property `json:"accommodation,omitempty"`
}

type ListQuery struct {
	Location string `form:"location"`
	Category string `form:"category"`
	Type     string `form:"type"`
	Guests   int    `form:"guests" binding:"omitempty,min=0"`
}

// Inputs for admin writes. Updates replace every field except the id (and a
// room's property).

type PropertyInput struct {
	ID                string  `json:"id" validate:"omitempty,max=64"`
	Name              string  `json:"name" validate:"required,notblank,max=255"`
	Location          string  `json:"location"`
	Type              string  `json:"type" validate:"omitempty,max=20"`
	BasePricePerNight float64 `json:"basePricePerNight" validate:"gte=0"`
	Currency          string  `json:"currency" validate:"omitempty,len=3"`
	MaxGuests         int     `json:"maxGuests" validate:"gte=0"`
}

type RoomInput struct {
	ID            string  `json:"id" validate:"omitempty,max=64"`
	Name          string  `json:"name" validate:"required,notblank,max=255"`
	RoomType      string  `json:"roomType" validate:"omitempty,max=32"`
	PricePerNight float64 `json:"pricePerNight" validate:"gte=0"`
	MaxGuests     int     `json:"maxGuests" validate:"gte=0"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
	Available     *bool   `json:"availableForBooking"`
}

type PackageInput struct {
	ID         string  `json:"id" validate:"omitempty,max=64"`
	Name       string  `json:"name" validate:"required,notblank,max=255"`
	Duration   string  `json:"duration"`
	Location   string  `json:"location"`
	PropertyID *string `json:"accommodationProperty" validate:"omitempty,max=64"`
	Category   string  `json:"category" validate:"omitempty,max=32"`
	Price      float64 `json:"price" validate:"gte=0"`
	MaxGuests  int     `json:"maxGuests" validate:"gte=0"`
}

type AmenityInput struct {
	ID       string  `json:"id" validate:"omitempty,max=64"`
	Name     string  `json:"name" validate:"required,notblank,max=255"`
	Price    float64 `json:"price" validate:"gte=0"`
	Category string  `json:"category" validate:"omitempty,max=32"`
	Active   *bool   `json:"active"`
}
