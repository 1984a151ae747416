package repository

import (
	"context"
	"strings"
	"time"

	"safaristay/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64   `gorm:"column:id;primaryKey"`
	BookingRef         string  `gorm:"column:booking_id;type:varchar(32);uniqueIndex;not null"`
	ConfirmationNumber string  `gorm:"column:confirmation_number;type:varchar(32);uniqueIndex;not null"`
	BookingType        string  `gorm:"column:booking_type;type:varchar(16);not null"`
	PropertyRef        *string `gorm:"column:property_ref;type:varchar(64)"`
	PackageRef         *string `gorm:"column:package_ref;type:varchar(64)"`
	CustomerID         *int64  `gorm:"column:customer_id;index"`

	CustomerName        string `gorm:"column:customer_name;not null"`
	CustomerEmail       string `gorm:"column:customer_email;type:varchar(255);index;not null"`
	CustomerPhone       string `gorm:"column:customer_phone;type:varchar(32)"`
	CustomerCountryCode string `gorm:"column:customer_country_code;type:varchar(8)"`

	CheckInDate     time.Time `gorm:"column:check_in_date;index"`
	CheckOutDate    time.Time `gorm:"column:check_out_date"`
	Nights          int       `gorm:"column:nights"`
	TotalGuests     int       `gorm:"column:total_guests"`
	Adults          int       `gorm:"column:adults"`
	Children        int       `gorm:"column:children"`
	SpecialRequests string    `gorm:"column:special_requests;type:text"`

	Rooms           datatypes.JSONType[[]domain.RoomLine]      `gorm:"column:rooms"`
	Amenities       datatypes.JSONType[[]domain.AmenityLine]   `gorm:"column:amenities"`
	AirportTransfer datatypes.JSONType[domain.AirportTransfer] `gorm:"column:airport_transfer"`
	PaymentDetails  datatypes.JSONType[domain.PaymentDetails]  `gorm:"column:payment_details"`

	BasePrice      float64 `gorm:"column:base_price"`
	AmenitiesTotal float64 `gorm:"column:amenities_total"`
	Subtotal       float64 `gorm:"column:subtotal"`
	ServiceFee     float64 `gorm:"column:service_fee"`
	Taxes          float64 `gorm:"column:taxes"`
	Total          float64 `gorm:"column:total"`

	PaymentTerm    string     `gorm:"column:payment_term;type:varchar(16);default:'deposit'"`
	DepositAmount  float64    `gorm:"column:deposit_amount"`
	BalanceAmount  float64    `gorm:"column:balance_amount"`
	DepositDueDate *time.Time `gorm:"column:deposit_due_date"`
	BalanceDueDate *time.Time `gorm:"column:balance_due_date"`
	AmountPaid     float64    `gorm:"column:amount_paid;default:0"`
	Status         string     `gorm:"column:status;type:varchar(20);index;not null"`

	// Copies of paymentDetails.orderTrackingId and paymentDetails.status so
	// webhook lookups and the sweeper hit plain indexed columns.
	PaymentTrackingID *string `gorm:"column:payment_tracking_id;type:varchar(128);index"`
	PaymentStatus     string  `gorm:"column:payment_status;type:varchar(20);index"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancelledBy        string     `gorm:"column:cancelled_by;type:varchar(16)"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CheckedInAt        *time.Time `gorm:"column:checked_in_at"`

	Notes         string `gorm:"column:notes;type:text"`
	InternalNotes string `gorm:"column:internal_notes;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:                  m.ID,
		BookingRef:          m.BookingRef,
		ConfirmationNumber:  m.ConfirmationNumber,
		BookingType:         domain.BookingType(m.BookingType),
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		CustomerEmail:       m.CustomerEmail,
		CustomerPhone:       m.CustomerPhone,
		CustomerCountryCode: m.CustomerCountryCode,
		CheckInDate:         m.CheckInDate,
		CheckOutDate:        m.CheckOutDate,
		Nights:              m.Nights,
		TotalGuests:         m.TotalGuests,
		Adults:              m.Adults,
		Children:            m.Children,
		SpecialRequests:     m.SpecialRequests,
		Rooms:               m.Rooms.Data(),
		Amenities:           m.Amenities.Data(),
		AirportTransfer:     m.AirportTransfer.Data(),
		Costs: domain.Costs{
			BasePrice:      m.BasePrice,
			AmenitiesTotal: m.AmenitiesTotal,
			Subtotal:       m.Subtotal,
			ServiceFee:     m.ServiceFee,
			Taxes:          m.Taxes,
			Total:          m.Total,
		},
		PaymentTerm: domain.PaymentTerm(m.PaymentTerm),
		PaymentSchedule: domain.PaymentSchedule{
			DepositAmount:  m.DepositAmount,
			BalanceAmount:  m.BalanceAmount,
			DepositDueDate: m.DepositDueDate,
			BalanceDueDate: m.BalanceDueDate,
		},
		AmountPaid:         m.AmountPaid,
		Status:             domain.BookingStatus(m.Status),
		PaymentDetails:     m.PaymentDetails.Data(),
		CancelledAt:        m.CancelledAt,
		CancelledBy:        m.CancelledBy,
		CancellationReason: m.CancellationReason,
		CheckedInAt:        m.CheckedInAt,
		Notes:              m.Notes,
		InternalNotes:      m.InternalNotes,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.PropertyRef != nil {
		b.PropertyRef = *m.PropertyRef
	}
	if m.PackageRef != nil {
		b.PackageRef = *m.PackageRef
	}
	if b.Rooms == nil {
		b.Rooms = []domain.RoomLine{}
	}
	if b.Amenities == nil {
		b.Amenities = []domain.AmenityLine{}
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	rooms := b.Rooms
	if rooms == nil {
		rooms = []domain.RoomLine{}
	}
	amenities := b.Amenities
	if amenities == nil {
		amenities = []domain.AmenityLine{}
	}

	return bookingModel{
		ID:                  b.ID,
		BookingRef:          b.BookingRef,
		ConfirmationNumber:  b.ConfirmationNumber,
		BookingType:         string(b.BookingType),
		PropertyRef:         optionalString(b.PropertyRef),
		PackageRef:          optionalString(b.PackageRef),
		CustomerID:          b.CustomerID,
		CustomerName:        b.CustomerName,
		CustomerEmail:       domain.NormalizeEmail(b.CustomerEmail),
		CustomerPhone:       b.CustomerPhone,
		CustomerCountryCode: b.CustomerCountryCode,
		CheckInDate:         b.CheckInDate,
		CheckOutDate:        b.CheckOutDate,
		Nights:              b.Nights,
		TotalGuests:         b.TotalGuests,
		Adults:              b.Adults,
		Children:            b.Children,
		SpecialRequests:     b.SpecialRequests,
		Rooms:               datatypes.NewJSONType(rooms),
		Amenities:           datatypes.NewJSONType(amenities),
		AirportTransfer:     datatypes.NewJSONType(b.AirportTransfer),
		PaymentDetails:      datatypes.NewJSONType(b.PaymentDetails),
		BasePrice:           b.Costs.BasePrice,
		AmenitiesTotal:      b.Costs.AmenitiesTotal,
		Subtotal:            b.Costs.Subtotal,
		ServiceFee:          b.Costs.ServiceFee,
		Taxes:               b.Costs.Taxes,
		Total:               b.Costs.Total,
		PaymentTerm:         string(b.PaymentTerm),
		DepositAmount:       b.PaymentSchedule.DepositAmount,
		BalanceAmount:       b.PaymentSchedule.BalanceAmount,
		DepositDueDate:      b.PaymentSchedule.DepositDueDate,
		BalanceDueDate:      b.PaymentSchedule.BalanceDueDate,
		AmountPaid:          b.AmountPaid,
		Status:              string(b.Status),
		PaymentTrackingID:   optionalString(b.PaymentDetails.OrderTrackingID),
		PaymentStatus:       b.PaymentDetails.Status,
		CancelledAt:         b.CancelledAt,
		CancelledBy:         b.CancelledBy,
		CancellationReason:  b.CancellationReason,
		CheckedInAt:         b.CheckedInAt,
		Notes:               b.Notes,
		InternalNotes:       b.InternalNotes,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts b. A clash on booking_id or confirmation_number is reported
// as ErrDuplicate so the caller can regenerate the references.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", strings.TrimSpace(ref)).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Where("payment_tracking_id = ?", strings.TrimSpace(trackingID)).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

type BookingFilter struct {
	Page   int
	Limit  int
	Status domain.BookingStatus
	Search string
}

func (f BookingFilter) normalized() BookingFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// List returns one page of bookings, newest first, with the total count of
// rows matching the filter.
func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]*domain.Booking, int64, error) {
	f = f.normalized()

	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(booking_id) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(customer_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []bookingModel
	err := q.Order("created_at DESC").Order("id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toDomainBookings(rows), total, nil
}

func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", domain.NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// ListStalePayments returns live bookings whose last payment attempt is still
// initiated or pending and has not been touched since before.
func (r *BookingRepository) ListStalePayments(ctx context.Context, before time.Time, limit int) ([]*domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("payment_tracking_id IS NOT NULL AND payment_tracking_id <> ''").
		Where("payment_status IN ?", []string{domain.PaymentInitiated, domain.PaymentPending}).
		Where("status <> ?", string(domain.BookingCancelled)).
		Where("updated_at < ?", before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// ApplyStatusChange persists a planned transition in one conditional update.
// It fails with ErrStatusConflict when the row is no longer in change.From.
func (r *BookingRepository) ApplyStatusChange(ctx context.Context, id int64, change domain.StatusChange) error {
	updates := map[string]any{
		"status":     string(change.To),
		"updated_at": time.Now(),
	}
	if change.AmountPaid != nil {
		updates["amount_paid"] = *change.AmountPaid
	}
	if change.PaymentTerm != nil {
		updates["payment_term"] = string(*change.PaymentTerm)
	}
	if change.CheckedInAt != nil {
		updates["checked_in_at"] = *change.CheckedInAt
	}
	if change.CancelledAt != nil {
		updates["cancelled_at"] = *change.CancelledAt
		updates["cancelled_by"] = change.CancelledBy
		updates["cancellation_reason"] = change.CancellationReason
	}

	res := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status = ?", id, string(change.From)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// MutatePayment loads the booking under a row lock, lets fn change its
// payment fields and status, and writes them back in the same transaction.
// Cancellation details are written too when fn cancels the booking.
func (r *BookingRepository) MutatePayment(ctx context.Context, id int64, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	var out *domain.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
			return translate(err)
		}

		b := toDomainBooking(m)
		if err := fn(b); err != nil {
			return err
		}

		next := toBookingModel(b)
		updates := map[string]any{
			"status":              next.Status,
			"amount_paid":         next.AmountPaid,
			"payment_term":        next.PaymentTerm,
			"payment_details":     next.PaymentDetails,
			"payment_tracking_id": next.PaymentTrackingID,
			"payment_status":      next.PaymentStatus,
			"updated_at":          time.Now(),
		}
		if next.CancelledAt != nil {
			updates["cancelled_at"] = *next.CancelledAt
			updates["cancelled_by"] = next.CancelledBy
			updates["cancellation_reason"] = next.CancellationReason
		}
		if err := tx.Model(&bookingModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		out = toDomainBooking(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDomainBookings(rows []bookingModel) []*domain.Booking {
	out := make([]*domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainBooking(m))
	}
	return out
}
