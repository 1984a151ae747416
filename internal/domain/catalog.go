package domain

import "time"

// Catalog entities are read-only here; they are used to price bookings.

type Property struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name              string    `json:"name" gorm:"not null"`
	Location          string    `json:"location,omitempty"`
	Type              string    `json:"type,omitempty" gorm:"type:varchar(20)"`
	BasePricePerNight float64   `json:"basePricePerNight"`
	Currency          string    `json:"currency" gorm:"type:varchar(8);default:'USD'"`
	MaxGuests         int       `json:"maxGuests"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Property) TableName() string { return "properties" }

type Room struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	PropertyID    string    `json:"propertyId" gorm:"type:varchar(64);index;not null"`
	Name          string    `json:"name" gorm:"not null"`
	RoomType      string    `json:"roomType,omitempty" gorm:"type:varchar(32)"`
	PricePerNight float64   `json:"pricePerNight"`
	MaxGuests     int       `json:"maxGuests"`
	Quantity      int       `json:"quantity" gorm:"default:1"`
	Available     bool      `json:"availableForBooking" gorm:"default:true"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Room) TableName() string { return "rooms" }

type Package struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name       string    `json:"name" gorm:"not null"`
	Duration   string    `json:"duration,omitempty"`
	Location   string    `json:"location,omitempty"`
	PropertyID *string   `json:"accommodationProperty,omitempty" gorm:"type:varchar(64)"`
	Category   string    `json:"category,omitempty" gorm:"type:varchar(32)"`
	Price      float64   `json:"price"`
	MaxGuests  int       `json:"maxGuests"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Package) TableName() string { return "packages" }

type Amenity struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"not null"`
	Price     float64   `json:"price"`
	Category  string    `json:"category,omitempty" gorm:"type:varchar(32)"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Amenity) TableName() string { return "amenities" }
