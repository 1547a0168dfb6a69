package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/websocket"
)

// Provider event types the reconciler understands. Anything else is recorded
// and skipped.
const (
	EventPaymentSucceeded    = "payment_intent.succeeded"
	EventPaymentFailed       = "payment_intent.payment_failed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	ErrEventAlreadyProcessed = errors.New("event already processed")
	ErrUnknownSubscriber     = errors.New("no user for subscription customer")
	ErrUnknownPlan           = errors.New("no membership plan for price")
)

// ProviderEvent is the provider-agnostic view of a webhook event, extracted
// by the controller after signature verification.
type ProviderEvent struct {
	ID              string
	Type            string
	PaymentIntentID string

	CustomerID         string
	PriceID            string
	PeriodStart        time.Time
	PeriodStartChanged bool // previous_attributes carried current_period_start
}

// renewalWindow is the fallback heuristic for spotting a renewal on
// subscription.updated events that don't carry previous_attributes: a period
// start this fresh means a new billing period just opened.
const renewalWindow = time.Hour

// Reconciler applies asynchronous payment-provider events to bookings,
// orders and credit balances. Processing is idempotent: each event id is
// recorded under a unique index before any state changes, inside the same
// transaction, so a redelivered event is a no-op.
type Reconciler struct {
	db       *gorm.DB
	credits  *CreditService
	notifier Notifier
}

func NewReconciler(db *gorm.DB, credits *CreditService, notifier Notifier) *Reconciler {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Reconciler{db: db, credits: credits, notifier: notifier}
}

// Process applies one event. ErrEventAlreadyProcessed means the event id was
// seen before; callers should acknowledge and move on.
//
// Skip errors (unknown subscriber or plan) commit the event record anyway:
// a retry of the same delivery cannot resolve them, so the id stays recorded
// and the redelivery short-circuits.
func (r *Reconciler) Process(ev *ProviderEvent) error {
	var skip error
	err := r.db.Transaction(func(tx *gorm.DB) error {
		record := models.WebhookEvent{
			EventID:     ev.ID,
			Type:        ev.Type,
			ProcessedAt: time.Now(),
		}
		var seen int64
		if err := tx.Model(&models.WebhookEvent{}).Where("event_id = ?", ev.ID).Count(&seen).Error; err != nil {
			return fmt.Errorf("check webhook event: %w", err)
		}
		if seen > 0 {
			return ErrEventAlreadyProcessed
		}
		if err := tx.Create(&record).Error; err != nil {
			// Unique index backstop for two deliveries racing past the check.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEventAlreadyProcessed
			}
			return fmt.Errorf("record webhook event: %w", err)
		}

		var applyErr error
		switch ev.Type {
		case EventPaymentSucceeded:
			applyErr = r.applyPaymentSucceeded(tx, ev)
		case EventPaymentFailed:
			applyErr = r.applyPaymentFailed(tx, ev)
		case EventSubscriptionCreated:
			applyErr = r.applySubscriptionCreated(tx, ev)
		case EventSubscriptionUpdated:
			applyErr = r.applySubscriptionUpdated(tx, ev)
		case EventSubscriptionDeleted:
			applyErr = r.applySubscriptionDeleted(tx, ev)
		default:
			zap.L().Debug("webhook event ignored", zap.String("type", ev.Type))
		}
		if errors.Is(applyErr, ErrUnknownSubscriber) || errors.Is(applyErr, ErrUnknownPlan) {
			skip = applyErr
			return nil
		}
		return applyErr
	})
	if err != nil {
		return err
	}
	return skip
}

func (r *Reconciler) applyPaymentSucceeded(tx *gorm.DB, ev *ProviderEvent) error {
	var booking models.Booking
	err := tx.Where("stripe_payment_intent_id = ?", ev.PaymentIntentID).First(&booking).Error
	if err == nil {
		booking.PaymentStatus = models.PaymentPaid
		if booking.Status == models.BookingPending {
			booking.Status = models.BookingConfirmed
		}
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		if booking.UserID != nil {
			r.notifier.NotifyUser(*booking.UserID, websocket.EventBookingConfirmed, websocket.BookingEvent{
				BookingID: booking.ID,
				Reference: booking.Reference,
				Status:    string(booking.Status),
			})
		}
		return nil
	}

	var order models.Order
	if err := tx.Where("stripe_payment_intent_id = ?", ev.PaymentIntentID).First(&order).Error; err == nil {
		order.PaymentStatus = models.PaymentPaid
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		return nil
	}

	zap.L().Warn("payment succeeded for unknown intent", zap.String("intent_id", ev.PaymentIntentID))
	return nil
}

// applyPaymentFailed keeps payment status at pending: a failed intent is
// retryable, not terminal.
func (r *Reconciler) applyPaymentFailed(tx *gorm.DB, ev *ProviderEvent) error {
	zap.L().Info("payment failed, left retryable", zap.String("intent_id", ev.PaymentIntentID))
	return tx.Model(&models.Booking{}).
		Where("stripe_payment_intent_id = ? AND payment_status = ?", ev.PaymentIntentID, models.PaymentPending).
		Update("payment_status", models.PaymentPending).Error
}

func (r *Reconciler) resolveSubscriber(tx *gorm.DB, ev *ProviderEvent) (*models.User, *models.MembershipPlan, error) {
	var user models.User
	if err := tx.Where("stripe_customer_id = ?", ev.CustomerID).First(&user).Error; err != nil {
		return nil, nil, ErrUnknownSubscriber
	}
	var plan models.MembershipPlan
	if err := tx.Where("stripe_price_id = ?", ev.PriceID).First(&plan).Error; err != nil {
		return nil, nil, ErrUnknownPlan
	}
	return &user, &plan, nil
}

func (r *Reconciler) applySubscriptionCreated(tx *gorm.DB, ev *ProviderEvent) error {
	user, plan, err := r.resolveSubscriber(tx, ev)
	if err != nil {
		return err
	}

	if err := tx.Model(user).Update("membership_plan_id", plan.ID).Error; err != nil {
		return err
	}
	if err := r.credits.AllocateTx(tx, user.ID, plan, fmt.Sprintf("subscription to %s plan", plan.Name)); err != nil {
		return err
	}

	r.notifier.NotifyUser(user.ID, websocket.EventCreditsAllocated, websocket.CreditEvent{
		Reason: fmt.Sprintf("%s plan activated", plan.Name),
	})
	return nil
}

// applySubscriptionUpdated re-allocates entitlements when the update is a
// renewal. The explicit signal is previous_attributes containing
// current_period_start; a period start inside renewalWindow is the fallback.
func (r *Reconciler) applySubscriptionUpdated(tx *gorm.DB, ev *ProviderEvent) error {
	renewal := ev.PeriodStartChanged ||
		(!ev.PeriodStart.IsZero() && time.Since(ev.PeriodStart) < renewalWindow)
	if !renewal {
		return nil
	}

	user, plan, err := r.resolveSubscriber(tx, ev)
	if err != nil {
		return err
	}

	if err := tx.Model(user).Update("membership_plan_id", plan.ID).Error; err != nil {
		return err
	}
	if err := r.credits.AllocateTx(tx, user.ID, plan, fmt.Sprintf("renewal of %s plan", plan.Name)); err != nil {
		return err
	}

	r.notifier.NotifyUser(user.ID, websocket.EventCreditsAllocated, websocket.CreditEvent{
		Reason: fmt.Sprintf("%s plan renewed", plan.Name),
	})
	return nil
}

func (r *Reconciler) applySubscriptionDeleted(tx *gorm.DB, ev *ProviderEvent) error {
	var user models.User
	if err := tx.Where("stripe_customer_id = ?", ev.CustomerID).First(&user).Error; err != nil {
		return ErrUnknownSubscriber
	}

	if err := r.credits.ExpireAllTx(tx, user.ID, "subscription ended"); err != nil {
		return err
	}
	if err := tx.Model(&user).Update("membership_plan_id", nil).Error; err != nil {
		return err
	}

	r.notifier.NotifyUser(user.ID, websocket.EventCreditsExpired, websocket.CreditEvent{
		Reason: "subscription ended",
	})
	return nil
}
