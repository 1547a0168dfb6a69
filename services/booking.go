package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/websocket"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrSlotUnavailable   = errors.New("time slot already booked")
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
	ErrInvalidDate       = errors.New("booking date must be YYYY-MM-DD and times HH:MM")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrNotCancellable    = errors.New("booking can no longer be cancelled")
	ErrBadTransition     = errors.New("invalid status transition")
)

// Notifier is the fire-and-forget push interface. The websocket hub
// implements it; tests use a recording fake. A failed or dropped
// notification never fails the operation that emitted it.
type Notifier interface {
	NotifyUser(userID uint, event string, payload interface{})
	Broadcast(channel, event string, payload interface{})
}

// noopNotifier stands in when no hub is wired (some tests, one-off tools).
type noopNotifier struct{}

func (noopNotifier) NotifyUser(uint, string, interface{})  {}
func (noopNotifier) Broadcast(string, string, interface{}) {}

type BookingService struct {
	db       *gorm.DB
	credits  *CreditService
	pricing  *PricingService
	payments PaymentProvider
	notifier Notifier
}

func NewBookingService(db *gorm.DB, credits *CreditService, pricing *PricingService,
	payments PaymentProvider, notifier Notifier) *BookingService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &BookingService{
		db:       db,
		credits:  credits,
		pricing:  pricing,
		payments: payments,
		notifier: notifier,
	}
}

type CreateBookingInput struct {
	WorkspaceID     uint
	BookingDate     string // "2006-01-02"
	StartTime       string // "15:04"
	EndTime         string
	Attendees       int
	SpecialRequests string
}

// BookingResult is what POST /bookings returns: the persisted booking, its
// pricing breakdown and, when payment is required, the intent client secret.
type BookingResult struct {
	Booking         *models.Booking   `json:"booking"`
	Pricing         *PriceQuote       `json:"pricing"`
	PaymentRequired bool              `json:"payment_required"`
	ClientSecret    string            `json:"client_secret,omitempty"`
	Workspace       *models.Workspace `json:"workspace"`
}

func parseBookingWindow(in *CreateBookingInput) (date time.Time, duration decimal.Decimal, err error) {
	date, err = time.Parse("2006-01-02", in.BookingDate)
	if err != nil {
		return time.Time{}, decimal.Zero, ErrInvalidDate
	}
	start, err := time.Parse("15:04", in.StartTime)
	if err != nil {
		return time.Time{}, decimal.Zero, ErrInvalidDate
	}
	end, err := time.Parse("15:04", in.EndTime)
	if err != nil {
		return time.Time{}, decimal.Zero, ErrInvalidDate
	}
	minutes := end.Sub(start).Minutes()
	if minutes <= 0 {
		return time.Time{}, decimal.Zero, ErrInvalidTimeRange
	}
	duration = decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
	return date, duration, nil
}

// checkConflicts rejects any overlap with a live booking on the same
// workspace and date. "HH:MM" strings compare correctly as strings.
func (s *BookingService) checkConflicts(tx *gorm.DB, workspaceID uint, date time.Time, startTime, endTime string, excludeID uint) error {
	var count int64
	query := tx.Model(&models.Booking{}).
		Where("workspace_id = ? AND booking_date = ? AND status IN (?, ?, ?)",
			workspaceID, date,
			models.BookingPending, models.BookingConfirmed, models.BookingCheckedIn).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeID > 0 {
		query = query.Where("id != ?", excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlotUnavailable
	}
	return nil
}

// CreateBooking validates, prices and persists a booking. Credit deduction
// and the booking insert share one transaction: if the deduction fails, no
// booking exists. Payment intent creation happens after commit; its failure
// leaves the booking pending and unpaid rather than rolling anything back.
func (s *BookingService) CreateBooking(userID uint, in *CreateBookingInput) (*BookingResult, error) {
	date, duration, err := parseBookingWindow(in)
	if err != nil {
		return nil, err
	}

	var workspace models.Workspace
	if err := s.db.Where("id = ? AND is_active = ?", in.WorkspaceID, true).First(&workspace).Error; err != nil {
		return nil, ErrWorkspaceNotFound
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	quote, err := s.pricing.Quote(duration, &workspace, &user)
	if err != nil {
		return nil, err
	}

	attendees := in.Attendees
	if attendees <= 0 {
		attendees = 1
	}

	booking := models.Booking{
		Reference:       uuid.New().String(),
		UserID:          &userID,
		WorkspaceID:     workspace.ID,
		BookingDate:     date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationHours:   duration,
		Attendees:       attendees,
		SpecialRequests: in.SpecialRequests,
		Subtotal:        quote.Subtotal,
		CreditsUsed:     quote.CreditsUsed,
		OverageHours:    quote.OverageHours,
		OverageCharge:   quote.OverageCharge,
		NFTDiscount:     quote.NFTDiscount,
		ProcessingFee:   quote.ProcessingFee,
		TotalPrice:      quote.Total,
		Status:          models.BookingPending,
		PaymentStatus:   models.PaymentPending,
	}
	if !quote.PaymentRequired() {
		// Fully credit-covered bookings confirm immediately.
		booking.Status = models.BookingConfirmed
		booking.PaymentStatus = models.PaymentPaid
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Conflict check inside the transaction so two racing requests for
		// the same slot cannot both pass.
		if err := s.checkConflicts(tx, workspace.ID, date, in.StartTime, in.EndTime, 0); err != nil {
			return err
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		if quote.CreditsUsed.IsPositive() {
			reason := fmt.Sprintf("booking %s: %s %s-%s", booking.Reference, in.BookingDate, in.StartTime, in.EndTime)
			if err := s.credits.DeductTx(tx, userID, models.CreditMeetingRoom, quote.CreditsUsed, &booking.ID, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyBooking(websocket.EventBookingCreated, &booking, workspace.Name)

	result := &BookingResult{
		Booking:         &booking,
		Pricing:         quote,
		PaymentRequired: quote.PaymentRequired(),
		Workspace:       &workspace,
	}

	if quote.PaymentRequired() {
		intent, err := s.payments.CreatePaymentIntent(quote.Total, "usd", map[string]string{
			"booking_id":        fmt.Sprintf("%d", booking.ID),
			"booking_reference": booking.Reference,
		})
		if err != nil {
			// The booking stays pending/unpaid; the caller retries payment
			// explicitly.
			zap.L().Error("payment intent creation failed",
				zap.Uint("booking_id", booking.ID), zap.Error(err))
			return result, nil
		}
		if err := s.db.Model(&booking).Update("stripe_payment_intent_id", intent.ID).Error; err != nil {
			zap.L().Error("record payment intent id", zap.Uint("booking_id", booking.ID), zap.Error(err))
		}
		booking.StripePaymentIntentID = intent.ID
		result.ClientSecret = intent.ClientSecret
	}

	return result, nil
}

// CancellationResult reports the policy outcome of a cancellation.
type CancellationResult struct {
	RefundEligible  bool            `json:"refund_eligible"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	CreditsRefunded decimal.Decimal `json:"credits_refunded"`
}

// CancelBooking applies the 24-hour policy: a full refund (cash and credits)
// when cancelled at least 24h before start, nothing otherwise. The booking is
// re-read inside the transaction because a payment webhook may have landed
// since the caller's view; the reconciler's writes win.
func (s *BookingService) CancelBooking(bookingID, callerID uint, callerRole models.UserRole) (*CancellationResult, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		return nil, ErrBookingNotFound
	}

	isStaff := callerRole == models.RoleStaff || callerRole == models.RoleAdmin
	if !isStaff && (booking.UserID == nil || *booking.UserID != callerID) {
		// Hide existence from non-owners.
		return nil, ErrBookingNotFound
	}

	hoursBefore := time.Until(booking.StartsAt()).Hours()
	eligible := hoursBefore >= 24

	result := &CancellationResult{
		RefundEligible:  eligible,
		RefundAmount:    decimal.Zero,
		CreditsRefunded: decimal.Zero,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Booking
		if err := lockForUpdate(tx).First(&current, bookingID).Error; err != nil {
			return ErrBookingNotFound
		}

		switch current.Status {
		case models.BookingCancelled:
			return ErrAlreadyCancelled
		case models.BookingCompleted, models.BookingCheckedIn:
			return ErrNotCancellable
		}

		now := time.Now()
		current.Status = models.BookingCancelled
		current.CancelledAt = &now

		if eligible && current.CreditsUsed.IsPositive() && current.UserID != nil {
			reason := fmt.Sprintf("cancellation of booking %s", current.Reference)
			if err := s.credits.RefundTx(tx, *current.UserID, models.CreditMeetingRoom,
				current.CreditsUsed, &current.ID, reason); err != nil {
				return err
			}
			result.CreditsRefunded = current.CreditsUsed
		}

		if eligible {
			result.RefundAmount = current.TotalPrice
		}

		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cash comes back only for paid bookings; the provider call sits outside
	// the transaction because it is not ours to roll back.
	if eligible && booking.PaymentStatus == models.PaymentPaid && booking.StripePaymentIntentID != "" {
		if _, err := s.payments.CreateRefund(booking.StripePaymentIntentID, booking.TotalPrice, "booking cancelled"); err != nil {
			zap.L().Error("provider refund failed", zap.Uint("booking_id", booking.ID), zap.Error(err))
		} else if err := s.db.Model(&booking).Update("payment_status", models.PaymentRefunded).Error; err != nil {
			zap.L().Error("mark booking refunded", zap.Uint("booking_id", booking.ID), zap.Error(err))
		}
	}

	var workspace models.Workspace
	s.db.First(&workspace, booking.WorkspaceID)
	s.notifyBooking(websocket.EventBookingCancelled, &booking, workspace.Name)

	return result, nil
}

// Advance moves a booking one step along pending → confirmed → checked_in →
// completed. Transitions are one-directional; cancellation is the only other
// exit and has its own path.
func (s *BookingService) Advance(bookingID uint, target models.BookingStatus) (*models.Booking, error) {
	allowed := map[models.BookingStatus]models.BookingStatus{
		models.BookingConfirmed: models.BookingPending,
		models.BookingCheckedIn: models.BookingConfirmed,
		models.BookingCompleted: models.BookingCheckedIn,
	}
	from, ok := allowed[target]
	if !ok {
		return nil, ErrBadTransition
	}

	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&booking, bookingID).Error; err != nil {
			return ErrBookingNotFound
		}
		if booking.Status != from {
			return ErrBadTransition
		}
		booking.Status = target
		if target == models.BookingCheckedIn {
			now := time.Now()
			booking.CheckedInAt = &now
		}
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}

	if event, ok := map[models.BookingStatus]string{
		models.BookingConfirmed: websocket.EventBookingConfirmed,
		models.BookingCheckedIn: websocket.EventBookingCheckedIn,
	}[target]; ok {
		var workspace models.Workspace
		s.db.First(&workspace, booking.WorkspaceID)
		s.notifyBooking(event, &booking, workspace.Name)
	}
	return &booking, nil
}

func (s *BookingService) GetUserBookings(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.Preload("Workspace").
		Where("user_id = ?", userID).
		Order("booking_date DESC, start_time DESC").
		Find(&bookings).Error
	return bookings, err
}

func (s *BookingService) GetBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("Workspace").First(&booking, bookingID).Error; err != nil {
		return nil, ErrBookingNotFound
	}
	return &booking, nil
}

func (s *BookingService) notifyBooking(event string, booking *models.Booking, workspaceName string) {
	payload := websocket.BookingEvent{
		BookingID:     booking.ID,
		Reference:     booking.Reference,
		WorkspaceID:   booking.WorkspaceID,
		WorkspaceName: workspaceName,
		BookingDate:   booking.BookingDate.Format("2006-01-02"),
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		Status:        string(booking.Status),
	}
	if booking.UserID != nil {
		s.notifier.NotifyUser(*booking.UserID, event, payload)
	}
	s.notifier.Broadcast(websocket.ChannelBookings, event, payload)
}
