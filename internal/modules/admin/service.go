package admin

import (
	"context"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/repository"
)

const (
	recentBookingsLimit = 10
	upcomingWindow      = 30 * 24 * time.Hour
	defaultMonths       = 12
	maxMonths           = 36
)

type Service struct {
	stats    StatsRepository
	bookings BookingRepository
	now      func() time.Time
}

func NewService(stats StatsRepository, bookings BookingRepository) *Service {
	return &Service{stats: stats, bookings: bookings, now: time.Now}
}

// -------------------- Dashboard --------------------

func (s *Service) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	counts, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.stats.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}
	properties, err := s.stats.CountProperties(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming, err := s.stats.CountCheckInsBetween(ctx, now, now.Add(upcomingWindow))
	if err != nil {
		return nil, err
	}

	recent, _, err := s.bookings.List(ctx, repository.BookingFilter{Page: 1, Limit: recentBookingsLimit})
	if err != nil {
		return nil, err
	}

	out := &DashboardResponse{
		TotalCustomers:   customers,
		TotalProperties:  properties,
		Revenue:          domain.Round2(totals.Revenue),
		Outstanding:      domain.Round2(totals.Outstanding),
		UpcomingCheckIns: upcoming,
		BookingsByStatus: make(map[string]int64, len(counts)),
		StatusBreakdown:  counts,
		RecentBookings:   recent,
	}
	for _, c := range counts {
		out.TotalBookings += c.Count
		out.BookingsByStatus[c.Status] = c.Count
	}
	return out, nil
}

// -------------------- Analytics --------------------

// Analytics buckets live bookings by creation month over the last months
// calendar months, oldest first. Months without bookings are present with
// zero values.
func (s *Service) Analytics(ctx context.Context, months int) (*AnalyticsResponse, error) {
	if months < 1 {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	rows, err := s.stats.PaymentsSince(ctx, start)
	if err != nil {
		return nil, err
	}

	buckets := make([]MonthBucket, months)
	index := make(map[string]int, months)
	for i := range buckets {
		key := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i].Month = key
		index[key] = i
	}

	for _, r := range rows {
		i, ok := index[r.CreatedAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.Count++
		b.Total += r.Total
		b.Paid += r.AmountPaid
		switch domain.BookingType(r.BookingType) {
		case domain.BookingTypeProperty:
			b.Property++
		case domain.BookingTypePackage:
			b.Package++
		}
	}
	for i := range buckets {
		buckets[i].Total = domain.Round2(buckets[i].Total)
		buckets[i].Paid = domain.Round2(buckets[i].Paid)
	}

	return &AnalyticsResponse{Months: months, Bookings: buckets}, nil
}
