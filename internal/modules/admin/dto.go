package admin

import (
	"safaristay/internal/domain"
	"safaristay/internal/repository"
)

type DashboardResponse struct {
	TotalBookings    int64                    `json:"totalBookings"`
	TotalCustomers   int64                    `json:"totalCustomers"`
	TotalProperties  int64                    `json:"totalProperties"`
	Revenue          float64                  `json:"revenue"`
	Outstanding      float64                  `json:"outstanding"`
	UpcomingCheckIns int64                    `json:"upcomingCheckIns"`
	BookingsByStatus map[string]int64         `json:"bookingsByStatus"`
	StatusBreakdown  []repository.StatusCount `json:"statusBreakdown"`
	RecentBookings   []*domain.Booking        `json:"recentBookings"`
}

// MonthBucket aggregates the live bookings created in one calendar month.
type MonthBucket struct {
	Month    string  `json:"month"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Paid     float64 `json:"paid"`
	Property int     `json:"property"`
	Package  int     `json:"package"`
}

type AnalyticsResponse struct {
	Months   int           `json:"months"`
	Bookings []MonthBucket `json:"bookings"`
}
