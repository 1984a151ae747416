package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/integrations/pesapal"
	"safaristay/internal/metrics"
	"safaristay/internal/notification"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/validator"
	"safaristay/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	lockTTL        = 30 * time.Second
	staleAfter     = 10 * time.Minute
	sweepBatchSize = 50
)

type Service struct {
	gateway    Gateway
	bookings   bookingRepo
	unresolved unresolvedRepo
	locker     Locker
	notifier   Notifier
	metrics    *metrics.Metrics
	log        logrus.FieldLogger

	processTimeout time.Duration
	now            func() time.Time

	inflight sync.WaitGroup
}

type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = logger.OrDiscard(l).WithField("component", "payment") }
}

// WithProcessTimeout bounds one asynchronous notification run.
func WithProcessTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.processTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gateway Gateway, bookings bookingRepo, unresolved unresolvedRepo, opts ...Option) *Service {
	s := &Service{
		gateway:        gateway,
		bookings:       bookings,
		unresolved:     unresolved,
		log:            logger.OrDiscard(nil),
		processTimeout: 60 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate submits an order to the gateway and records it on the booking
// when one is referenced. A gateway answer without a redirect target is still
// recorded as initiated so it can be reconciled later.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, fields)
	}

	var b *domain.Booking
	if ref := strings.TrimSpace(req.BookingReference); ref != "" {
		found, err := s.bookings.GetByReference(ctx, ref)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, err
		}
		if found.Status.IsCancelled() {
			return nil, fmt.Errorf("%w: booking is cancelled", ErrValidation)
		}
		b = found
	}

	spec := orderSpec(req, b)
	if spec.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if spec.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	res, err := s.gateway.SubmitOrder(ctx, spec)
	noRedirect := errors.Is(err, pesapal.ErrNoRedirectTarget)
	if err != nil && !(noRedirect && res != nil) {
		s.log.WithFields(logrus.Fields{"booking_id": spec.Reference, "error": err.Error()}).Warn("payment_initiate_failed")
		return nil, err
	}

	if b != nil {
		if _, merr := s.bookings.MutatePayment(ctx, b.ID, func(cur *domain.Booking) error {
			recordInitiation(cur, res, spec, s.now())
			return nil
		}); merr != nil {
			return nil, merr
		}
	}

	out := &InitiateResponse{
		RedirectURL:      res.RedirectURL,
		EmbedURL:         res.EmbedURL,
		OrderTrackingID:  res.OrderTrackingID,
		OrderID:          res.OrderID,
		BookingReference: spec.Reference,
		Amount:           spec.Amount,
		Currency:         res.Currency,
		Raw:              res.Raw,
	}
	s.log.WithFields(logrus.Fields{
		"booking_id":  spec.Reference,
		"tracking_id": res.OrderTrackingID,
		"amount":      spec.Amount,
		"redirect":    !noRedirect,
	}).Info("payment_initiated")

	if noRedirect {
		return out, err
	}
	return out, nil
}

func orderSpec(req InitiateRequest, b *domain.Booking) pesapal.OrderSpec {
	spec := pesapal.OrderSpec{
		Currency:    req.Currency,
		Description: req.Description,
		Reference:   strings.TrimSpace(req.BookingReference),
		Email:       strings.TrimSpace(req.Email),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       req.Phone,
	}
	if req.Amount != nil {
		spec.Amount = domain.Round2(*req.Amount)
	}
	if b == nil {
		return spec
	}

	if req.Amount == nil {
		spec.Amount = b.AmountDue()
	}
	if spec.Email == "" {
		spec.Email = b.CustomerEmail
	}
	if spec.Phone == "" {
		spec.Phone = b.CustomerPhone
	}
	if spec.FirstName == "" && spec.LastName == "" {
		parts := strings.Fields(b.CustomerName)
		if len(parts) > 0 {
			spec.FirstName = parts[0]
			spec.LastName = strings.Join(parts[1:], " ")
		}
	}
	return spec
}

func recordInitiation(b *domain.Booking, res *pesapal.OrderResult, spec pesapal.OrderSpec, now time.Time) {
	d := &b.PaymentDetails
	d.Provider = "pesapal"
	d.OrderID = res.OrderID
	d.OrderTrackingID = res.OrderTrackingID
	d.MerchantReference = spec.Reference
	d.Status = domain.PaymentInitiated
	d.RedirectURL = res.RedirectURL
	d.Amount = spec.Amount
	d.Currency = res.Currency
	d.InitiatedAt = &now
	d.CompletedAt = nil
	d.Raw = res.Raw
}

// HandleNotification processes n in the background. The caller has already
// acknowledged the delivery.
func (s *Service) HandleNotification(n Notification) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
		defer cancel()
		if err := s.ProcessNotification(ctx, n); err != nil && !errors.Is(err, ErrBookingNotFound) {
			s.log.WithFields(logrus.Fields{"tracking_id": n.TrackingID, "error": err.Error()}).Error("ipn_processing_failed")
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx expires.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessNotification reconciles the booking a gateway notification points at.
// Unknown tracking ids are dead-lettered for later retry.
func (s *Service) ProcessNotification(ctx context.Context, n Notification) error {
	log := s.log.WithFields(logrus.Fields{"tracking_id": n.TrackingID, "reference": n.MerchantReference, "type": n.Type})

	if strings.TrimSpace(n.TrackingID) == "" {
		log.Warn("ipn_missing_tracking_id")
		s.metrics.IncWebhook("invalid")
		return fmt.Errorf("%w: missing tracking id", ErrValidation)
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireNotificationLock(ctx, n.TrackingID, lockTTL)
		switch {
		case err != nil:
			log.WithField("error", err.Error()).Warn("ipn_lock_unavailable")
		case !acquired:
			log.Info("ipn_duplicate_in_flight")
			s.metrics.IncWebhook("duplicate")
			s.recordDuplicate(ctx, n, log)
			return nil
		default:
			defer func() {
				if err := s.locker.ReleaseNotificationLock(context.Background(), n.TrackingID); err != nil {
					log.WithField("error", err.Error()).Debug("ipn_lock_release_failed")
				}
			}()
		}
	}

	b, err := s.bookings.GetByTrackingID(ctx, n.TrackingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.deadLetter(ctx, n, "booking not found for tracking id")
			s.metrics.IncWebhook("unresolved")
			return ErrBookingNotFound
		}
		s.metrics.IncWebhook("error")
		return err
	}

	entry := &domain.IPNEntry{ReceivedAt: s.now().UTC(), Payload: n.Payload}
	if _, _, err := s.reconcile(ctx, b.ID, n.TrackingID, entry); err != nil {
		s.metrics.IncWebhook("error")
		return err
	}
	s.metrics.IncWebhook("processed")
	return nil
}

// recordDuplicate keeps the raw payload of a delivery that arrived while
// another one for the same tracking id was being processed. The status query
// is left to the delivery holding the lock.
func (s *Service) recordDuplicate(ctx context.Context, n Notification, log logrus.FieldLogger) {
	b, err := s.bookings.GetByTrackingID(ctx, n.TrackingID)
	if err != nil {
		return
	}
	entry := domain.IPNEntry{ReceivedAt: s.now().UTC(), Payload: n.Payload}
	_, err = s.bookings.MutatePayment(ctx, b.ID, func(cur *domain.Booking) error {
		cur.PaymentDetails.IPN = append(cur.PaymentDetails.IPN, entry)
		return nil
	})
	if err != nil {
		log.WithField("error", err.Error()).Warn("ipn_duplicate_not_recorded")
	}
}

// reconcile queries the gateway and writes the outcome onto the booking in
// one locked update. The IPN entry is appended even when the query fails.
func (s *Service) reconcile(ctx context.Context, bookingID int64, trackingID string, entry *domain.IPNEntry) (*domain.Booking, *pesapal.TransactionStatus, error) {
	st, statusErr := s.gateway.GetTransactionStatus(ctx, trackingID)
	if statusErr != nil && entry == nil {
		return nil, nil, statusErr
	}

	var (
		from    domain.BookingStatus
		changed domain.Transition
	)
	b, err := s.bookings.MutatePayment(ctx, bookingID, func(cur *domain.Booking) error {
		if entry != nil {
			cur.PaymentDetails.IPN = append(cur.PaymentDetails.IPN, *entry)
		}
		if st != nil {
			from = cur.Status
			changed = ApplyGatewayStatus(cur, st, s.now().UTC())
		}
		return nil
	})
	if err != nil {
		return nil, st, err
	}
	if statusErr != nil {
		return b, nil, statusErr
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":  b.BookingRef,
		"tracking_id": trackingID,
		"gateway":     st.Status,
		"from":        from,
		"status":      b.Status,
		"amount_paid": b.AmountPaid,
	}).Info("payment_reconciled")

	if changed != "" {
		s.metrics.IncTransition(string(changed), "gateway")
		if s.notifier != nil {
			s.notifier.Notify(notification.NewEvent(string(changed), b))
		}
	}
	return b, st, nil
}

// ApplyGatewayStatus overwrites the payment fields of b from the gateway's
// authoritative status. Replaying the same status leaves b unchanged. It
// returns the transition taken, or "" when the booking status did not move.
//
// Status moves go through the booking state machine and only forward:
// COMPLETED confirms a pending or deposit-paid booking, FAILED cancels a
// booking that is not yet fully paid, completed or cancelled.
func ApplyGatewayStatus(b *domain.Booking, st *pesapal.TransactionStatus, now time.Time) domain.Transition {
	prev := b.Status
	t := gatewayTransition(b.Status, st.Status)
	if t != "" {
		change, err := domain.PlanTransition(b, t, domain.TransitionInput{
			Actor:  domain.ActorGateway,
			Reason: failureReason(st),
		}, now)
		if err != nil {
			t = ""
		} else {
			change.Apply(b)
		}
	}

	if st.Amount != nil {
		b.AmountPaid = domain.Round2(*st.Amount)
	}
	switch {
	case b.Costs.Total > 0 && b.AmountPaid >= b.Costs.Total:
		b.PaymentTerm = domain.PaymentTermFull
	case b.AmountPaid > 0:
		b.PaymentTerm = domain.PaymentTermDeposit
	}

	d := &b.PaymentDetails
	d.Status = st.Status
	if st.Status == pesapal.StatusCompleted && d.CompletedAt == nil {
		at := now
		d.CompletedAt = &at
	}
	if len(st.Raw) > 0 {
		d.PesapalResponse = st.Raw
	}

	if b.Status == prev {
		return ""
	}
	return t
}

func gatewayTransition(cur domain.BookingStatus, status string) domain.Transition {
	switch status {
	case pesapal.StatusCompleted:
		if cur == domain.BookingPending || cur == domain.BookingDepositPaid {
			return domain.TransitionConfirm
		}
	case pesapal.StatusFailed:
		switch cur {
		case domain.BookingFullyPaid, domain.BookingCompleted, domain.BookingCancelled:
		default:
			return domain.TransitionCancel
		}
	}
	return ""
}

func failureReason(st *pesapal.TransactionStatus) string {
	if st.Status != pesapal.StatusFailed {
		return ""
	}
	if d := strings.TrimSpace(st.Description); d != "" {
		return "payment " + strings.ToLower(d)
	}
	return "payment failed"
}

// Status reports the gateway's view of a payment next to the stored booking.
// It never writes; bookings move only through notifications, the sweeper and
// admin actions.
func (s *Service) Status(ctx context.Context, trackingID string) (*StatusResponse, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, fmt.Errorf("%w: orderTrackingId is required", ErrValidation)
	}

	b, err := s.bookings.GetByTrackingID(ctx, trackingID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	st, err := s.gateway.GetTransactionStatus(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	out := &StatusResponse{
		OrderTrackingID: trackingID,
		Status:          st.Status,
		Description:     st.Description,
		Amount:          st.Amount,
		Raw:             st.Raw,
	}
	if b != nil {
		out.BookingID = b.BookingRef
		out.BookingStatus = b.Status
	}
	return out, nil
}

func (s *Service) ListDeadLetters(ctx context.Context, limit int) ([]domain.UnresolvedNotification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.unresolved.ListOpen(ctx, limit)
}

// RetryDeadLetter tries again to match an unresolved notification to a
// booking.
func (s *Service) RetryDeadLetter(ctx context.Context, id int64) (*domain.Booking, error) {
	n, err := s.unresolved.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if n.ResolvedAt != nil {
		return nil, fmt.Errorf("%w: already resolved", ErrValidation)
	}

	b, err := s.bookings.GetByTrackingID(ctx, n.OrderTrackingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.unresolved.MarkFailed(ctx, n.ID, "booking not found for tracking id")
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	entry := &domain.IPNEntry{ReceivedAt: n.CreatedAt, Payload: json.RawMessage(n.Payload)}
	updated, _, err := s.reconcile(ctx, b.ID, n.OrderTrackingID, entry)
	if err != nil {
		_ = s.unresolved.MarkFailed(ctx, n.ID, err.Error())
		return nil, err
	}
	if err := s.unresolved.MarkResolved(ctx, n.ID, b.ID); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"tracking_id": n.OrderTrackingID, "booking_id": b.BookingRef}).Info("dead_letter_resolved")
	return updated, nil
}

// Sweep retries open dead letters and re-queries payments that have been
// waiting on the gateway for too long.
func (s *Service) Sweep(ctx context.Context) {
	open, err := s.unresolved.ListOpen(ctx, sweepBatchSize)
	if err != nil {
		s.log.WithField("error", err.Error()).Warn("sweep_list_dead_letters_failed")
	}
	resolved := 0
	for _, n := range open {
		if _, err := s.RetryDeadLetter(ctx, n.ID); err == nil {
			resolved++
		}
	}

	stale, err := s.bookings.ListStalePayments(ctx, s.now().Add(-staleAfter), sweepBatchSize)
	if err != nil {
		s.log.WithField("error", err.Error()).Warn("sweep_list_stale_failed")
	}
	reconciled := 0
	for _, b := range stale {
		if _, _, err := s.reconcile(ctx, b.ID, b.PaymentDetails.OrderTrackingID, nil); err != nil {
			s.log.WithFields(logrus.Fields{"booking_id": b.BookingRef, "error": err.Error()}).Warn("sweep_reconcile_failed")
			continue
		}
		reconciled++
	}

	s.log.WithFields(logrus.Fields{
		"dead_letters": len(open),
		"resolved":     resolved,
		"stale":        len(stale),
		"reconciled":   reconciled,
	}).Info("payment_sweep_finished")
}

func (s *Service) DebugAuth(ctx context.Context) pesapal.AuthReport {
	return s.gateway.DebugAuth(ctx)
}

func (s *Service) RegisterIPN(ctx context.Context, req RegisterIPNRequest) (string, error) {
	if fields := validator.Validate(req); fields != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, fields)
	}
	method := req.Method
	if method == "" {
		method = "GET"
	}
	return s.gateway.RegisterIPN(ctx, req.URL, method)
}

func (s *Service) deadLetter(ctx context.Context, n Notification, reason string) {
	payload := n.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	entry := &domain.UnresolvedNotification{
		OrderTrackingID:   n.TrackingID,
		MerchantReference: n.MerchantReference,
		NotificationType:  n.Type,
		Payload:           []byte(payload),
		LastError:         reason,
	}
	fields := logrus.Fields{"tracking_id": n.TrackingID, "reference": n.MerchantReference}
	if err := s.unresolved.Record(ctx, entry); err != nil {
		s.log.WithFields(fields).WithField("error", err.Error()).Error("dead_letter_record_failed")
		return
	}
	s.log.WithFields(fields).WithField("attempts", entry.Attempts).Warn("ipn_booking_not_found")
}
