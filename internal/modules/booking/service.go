package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/metrics"
	"safaristay/internal/notification"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/validator"
	"safaristay/internal/repository"

	"github.com/sirupsen/logrus"
)

const refAttempts = 3

// Caller is the authenticated user behind a request, nil for guests.
type Caller struct {
	UserID int64
	Email  string
	Role   string
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == string(domain.RoleAdmin)
}

func (c *Caller) actor() domain.Actor {
	switch {
	case c == nil:
		return domain.ActorUnknown
	case c.IsAdmin():
		return domain.ActorAdmin
	default:
		return domain.ActorCustomer
	}
}

type Service struct {
	bookings BookingRepository
	catalog  CatalogRepository
	users    UserRepository
	notifier Notifier
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = logger.OrDiscard(l).WithField("component", "booking") }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	bookings BookingRepository,
	catalog CatalogRepository,
	users UserRepository,
	notifier Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		bookings: bookings,
		catalog:  catalog,
		users:    users,
		notifier: notifier,
		log:      logger.OrDiscard(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req CreateBookingRequest, caller *Caller) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, invalid("Invalid booking request", fields)
	}

	bookingType := domain.BookingType(req.BookingType)
	switch bookingType {
	case domain.BookingTypeProperty:
		if strings.TrimSpace(req.PropertyID) == "" || len(req.Rooms) == 0 {
			return nil, invalid("Property booking requires propertyId and rooms", map[string]string{"propertyId": "required", "rooms": "required"})
		}
	case domain.BookingTypePackage:
		if strings.TrimSpace(req.PackageID) == "" {
			return nil, invalid("Package booking requires packageId", map[string]string{"packageId": "required"})
		}
	}

	checkIn, err := parseDate(req.CheckInDate)
	if err != nil {
		return nil, invalid("Invalid checkInDate", map[string]string{"checkInDate": "date"})
	}
	checkOut, err := parseDate(req.CheckOutDate)
	if err != nil {
		return nil, invalid("Invalid checkOutDate", map[string]string{"checkOutDate": "date"})
	}
	if !checkOut.After(checkIn) {
		return nil, invalid("checkOutDate must be after checkInDate", map[string]string{"checkOutDate": "gtfield"})
	}
	nights := domain.NightsBetween(checkIn, checkOut)

	base, rooms, amenities, err := s.price(ctx, bookingType, req, nights)
	if err != nil {
		return nil, err
	}

	costs, err := domain.ComputeCosts(base, amenities, bookingType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	now := s.now()
	schedule := domain.ScheduleDueDates(domain.ComputeSchedule(costs.Total), now, checkIn)

	term := domain.PaymentTerm(req.PaymentTerm)
	if term == "" {
		term = domain.PaymentTermDeposit
	}

	b := &domain.Booking{
		BookingType:         bookingType,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerEmail:       domain.NormalizeEmail(req.CustomerEmail),
		CustomerPhone:       strings.TrimSpace(req.CustomerPhone),
		CustomerCountryCode: req.CustomerCountryCode,
		CheckInDate:         checkIn,
		CheckOutDate:        checkOut,
		Nights:              nights,
		TotalGuests:         req.TotalGuests,
		Adults:              req.Adults,
		Children:            req.Children,
		SpecialRequests:     req.SpecialRequests,
		Rooms:               rooms,
		Amenities:           amenities,
		AirportTransfer:     req.AirportTransfer,
		Costs:               costs,
		PaymentTerm:         term,
		PaymentSchedule:     schedule,
		Status:              domain.BookingPending,
		Notes:               req.Notes,
	}
	if bookingType == domain.BookingTypeProperty {
		b.PropertyRef = req.PropertyID
	} else {
		b.PackageRef = req.PackageID
	}
	if caller != nil && caller.UserID > 0 {
		id := caller.UserID
		b.CustomerID = &id
	}

	if err := s.insert(ctx, b, now); err != nil {
		return nil, err
	}

	if b.CustomerID != nil && s.users != nil {
		if err := s.users.RecordBooking(ctx, *b.CustomerID, now); err != nil {
			s.log.WithFields(logrus.Fields{"booking_id": b.BookingRef, "error": err.Error()}).Warn("record_user_booking_failed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.BookingRef,
		"type":       b.BookingType,
		"total":      b.Costs.Total,
	}).Info("booking_created")
	s.notify(notification.TypeCreated, b)

	return b, nil
}

// insert retries with fresh identifiers when a generated reference collides.
func (s *Service) insert(ctx context.Context, b *domain.Booking, now time.Time) error {
	var err error
	for i := 0; i < refAttempts; i++ {
		b.BookingRef = domain.NewBookingRef(now)
		b.ConfirmationNumber = domain.NewConfirmationNumber(now)
		err = s.bookings.Create(ctx, b)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.log.WithField("booking_id", b.BookingRef).Warn("booking_reference_collision")
	}
	return err
}

// price recomputes line prices from the catalog. Room ids must belong to the
// property; amenity ids that do not resolve keep the client unit price.
func (s *Service) price(ctx context.Context, t domain.BookingType, req CreateBookingRequest, nights int) (float64, []domain.RoomLine, []domain.AmenityLine, error) {
	var (
		base  float64
		rooms = []domain.RoomLine{}
	)

	switch t {
	case domain.BookingTypeProperty:
		prop, err := s.catalog.GetProperty(ctx, req.PropertyID)
		if err != nil {
			return 0, nil, nil, notFound(err, "property")
		}

		ids := make([]string, 0, len(req.Rooms))
		for _, r := range req.Rooms {
			ids = append(ids, r.RoomID)
		}
		known, err := s.catalog.RoomsByID(ctx, prop.ID, ids)
		if err != nil {
			return 0, nil, nil, err
		}

		lines := make([]domain.RoomLine, 0, len(req.Rooms))
		for _, r := range req.Rooms {
			room, ok := known[r.RoomID]
			if !ok {
				return 0, nil, nil, invalid("Unknown room for property", map[string]string{"rooms": r.RoomID})
			}
			price := room.PricePerNight
			if price <= 0 {
				price = prop.BasePricePerNight
			}
			name := r.RoomName
			if name == "" {
				name = room.Name
			}
			lines = append(lines, domain.RoomLine{
				RoomID:                 r.RoomID,
				RoomName:               name,
				Quantity:               r.Quantity,
				Guests:                 r.Guests,
				PricePerNightPerPerson: price,
			})
		}
		base, rooms, err = domain.RoomsBasePrice(lines, nights)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

	case domain.BookingTypePackage:
		pkg, err := s.catalog.GetPackage(ctx, req.PackageID)
		if err != nil {
			return 0, nil, nil, notFound(err, "package")
		}
		base = domain.Round2(pkg.Price * float64(req.TotalGuests))
	}

	amenities, err := s.priceAmenities(ctx, req.Amenities)
	if err != nil {
		return 0, nil, nil, err
	}
	return base, rooms, amenities, nil
}

func (s *Service) priceAmenities(ctx context.Context, in []AmenityInput) ([]domain.AmenityLine, error) {
	if len(in) == 0 {
		return []domain.AmenityLine{}, nil
	}
	ids := make([]string, 0, len(in))
	for _, a := range in {
		ids = append(ids, a.AmenityID)
	}
	known, err := s.catalog.AmenitiesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.AmenityLine, 0, len(in))
	for _, a := range in {
		line := domain.AmenityLine{
			AmenityID:    a.AmenityID,
			AmenityName:  a.AmenityName,
			Quantity:     a.Quantity,
			PricePerUnit: a.PricePerUnit,
		}
		if cat, ok := known[a.AmenityID]; ok {
			line.PricePerUnit = cat.Price
			if line.AmenityName == "" {
				line.AmenityName = cat.Name
			}
		}
		lines = append(lines, line)
	}
	return domain.PriceAmenities(lines), nil
}

// Get loads a booking by database id or reference without an ownership check.
func (s *Service) Get(ctx context.Context, idOrRef string) (*domain.Booking, error) {
	return s.resolve(ctx, idOrRef)
}

func (s *Service) GetByReference(ctx context.Context, ref string, caller *Caller) (*domain.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, ref)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	if err := authorize(caller, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Receipt(ctx context.Context, ref string, caller *Caller) (*Receipt, error) {
	b, err := s.GetByReference(ctx, ref, caller)
	if err != nil {
		return nil, err
	}
	return s.buildReceipt(ctx, b), nil
}

func (s *Service) buildReceipt(ctx context.Context, b *domain.Booking) *Receipt {
	r := &Receipt{
		BookingID:          b.BookingRef,
		ConfirmationNumber: b.ConfirmationNumber,
		CustomerName:       b.CustomerName,
		CustomerEmail:      b.CustomerEmail,
		CustomerPhone:      b.CustomerPhone,
		BookingType:        b.BookingType,
		PropertyName:       "N/A",
		PackageName:        "N/A",
		CheckInDate:        b.CheckInDate,
		CheckOutDate:       b.CheckOutDate,
		Nights:             b.Nights,
		TotalGuests:        b.TotalGuests,
		Adults:             b.Adults,
		Children:           b.Children,
		SpecialRequests:    b.SpecialRequests,
		AirportTransfer:    "No",
		Amenities:          b.Amenities,
		Costs:              b.Costs,
		PaymentTerm:        b.PaymentTerm,
		PaymentSchedule:    b.PaymentSchedule,
		AmountPaid:         b.AmountPaid,
		Status:             b.Status,
		CreatedAt:          b.CreatedAt,
		GeneratedAt:        s.now(),
	}
	if strings.TrimSpace(r.SpecialRequests) == "" {
		r.SpecialRequests = "None"
	}
	if b.AirportTransfer.Needed {
		r.AirportTransfer = "Yes"
	}
	if r.Amenities == nil {
		r.Amenities = []domain.AmenityLine{}
	}
	if b.PropertyRef != "" {
		if p, err := s.catalog.GetProperty(ctx, b.PropertyRef); err == nil {
			r.PropertyName = p.Name
		}
	}
	if b.PackageRef != "" {
		if p, err := s.catalog.GetPackage(ctx, b.PackageRef); err == nil {
			r.PackageName = p.Name
		}
	}
	return r
}

// EmailReceipt queues a receipt when email matches the booking's customer.
func (s *Service) EmailReceipt(ctx context.Context, idOrRef, email string) error {
	if fields := validator.Validate(EmailReceiptRequest{Email: email}); fields != nil {
		return invalid("A valid email is required", fields)
	}
	b, err := s.resolve(ctx, idOrRef)
	if err != nil {
		return err
	}
	if !b.OwnedBy(email) {
		return ErrForbidden
	}
	s.notify(notification.TypeReceipt, b)
	return nil
}

func (s *Service) ListMine(ctx context.Context, caller *Caller) ([]*domain.Booking, error) {
	if caller == nil || caller.Email == "" {
		return nil, ErrForbidden
	}
	return s.bookings.ListByEmail(ctx, caller.Email)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]*domain.Booking, int64, repository.BookingFilter, error) {
	f := repository.BookingFilter{
		Page:   req.Page,
		Limit:  req.Limit,
		Status: domain.BookingStatus(req.Status),
		Search: req.Search,
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, f, invalid("Unknown status filter", map[string]string{"status": "oneof"})
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	items, total, err := s.bookings.List(ctx, f)
	return items, total, f, err
}

// Transition applies t to the booking identified by idOrRef. Non-admin
// callers may only act on their own bookings.
func (s *Service) Transition(ctx context.Context, idOrRef string, t domain.Transition, req TransitionRequest, caller *Caller) (*domain.Booking, error) {
	b, err := s.resolve(ctx, idOrRef)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, b, t, req, caller)
}

func (s *Service) apply(ctx context.Context, b *domain.Booking, t domain.Transition, req TransitionRequest, caller *Caller) (*domain.Booking, error) {
	if err := authorize(caller, b); err != nil {
		return nil, err
	}

	change, err := domain.PlanTransition(b, t, domain.TransitionInput{
		Amount: req.Amount,
		Actor:  caller.actor(),
		Reason: strings.TrimSpace(req.Reason),
	}, s.now())
	if err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.bookings.ApplyStatusChange(ctx, b.ID, change); err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, fmt.Errorf("%w: booking changed concurrently", ErrConflict)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}
	change.Apply(b)

	s.metrics.IncTransition(string(t), string(caller.actor()))
	s.log.WithFields(logrus.Fields{
		"booking_id": b.BookingRef,
		"from":       change.From,
		"status":     change.To,
		"actor":      caller.actor(),
	}).Info("booking_transition")
	s.notify(string(t), b)

	return b, nil
}

func (s *Service) Cancel(ctx context.Context, idOrRef, reason string, caller *Caller) (*CancelResult, error) {
	b, err := s.resolve(ctx, idOrRef)
	if err != nil {
		return nil, err
	}
	previous := b.Status
	updated, err := s.apply(ctx, b, domain.TransitionCancel, TransitionRequest{Reason: reason}, caller)
	if err != nil {
		return nil, err
	}
	return &CancelResult{PreviousStatus: previous, Booking: updated}, nil
}

// Notify resends a notification of the given type; empty means receipt.
func (s *Service) Notify(ctx context.Context, idOrRef, kind string, caller *Caller) error {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = notification.TypeReceipt
	}
	if !notification.ValidType(kind) {
		return invalid("Unknown notification type", map[string]string{"type": "oneof"})
	}
	b, err := s.resolve(ctx, idOrRef)
	if err != nil {
		return err
	}
	if err := authorize(caller, b); err != nil {
		return err
	}
	if !s.notify(kind, b) {
		return ErrNotifyUnavailable
	}
	return nil
}

func (s *Service) notify(kind string, b *domain.Booking) bool {
	if s.notifier == nil {
		return false
	}
	return s.notifier.Notify(notification.NewEvent(kind, b))
}

func (s *Service) resolve(ctx context.Context, idOrRef string) (*domain.Booking, error) {
	idOrRef = strings.TrimSpace(idOrRef)
	if idOrRef == "" {
		return nil, ErrNotFound
	}
	var (
		b   *domain.Booking
		err error
	)
	if id, perr := strconv.ParseInt(idOrRef, 10, 64); perr == nil {
		b, err = s.bookings.GetByID(ctx, id)
	} else {
		b, err = s.bookings.GetByReference(ctx, idOrRef)
	}
	if err != nil {
		return nil, notFound(err, "booking")
	}
	return b, nil
}

func authorize(caller *Caller, b *domain.Booking) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller != nil && b.OwnedBy(caller.Email) {
		return nil
	}
	return ErrForbidden
}

func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
