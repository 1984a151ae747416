package domain

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	FullName      string     `json:"fullName" gorm:"type:varchar(255);not null"`
	Email         string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone         string     `json:"phone,omitempty" gorm:"type:varchar(32)"`
	PasswordHash  string     `json:"-" gorm:"column:password_hash;not null"`
	Role          UserRole   `json:"role" gorm:"type:varchar(20);default:'customer';index"`
	Status        UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	TotalBookings int        `json:"totalBookings" gorm:"default:0"`
	LastBookingAt *time.Time `json:"lastBooking,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
