package auth

import "safaristay/internal/domain"

type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserPublic struct {
	ID            int64           `json:"id"`
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	Role          domain.UserRole `json:"role"`
	TotalBookings int             `json:"totalBookings"`
}

type AuthResponse struct {
	User  UserPublic `json:"user"`
	Token string     `json:"token"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		TotalBookings: u.TotalBookings,
	}
}
