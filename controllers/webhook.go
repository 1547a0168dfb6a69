package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/hearthworks/hearth-be/services"
)

type WebhookController struct {
	reconciler    *services.Reconciler
	webhookSecret string
}

func NewWebhookController(reconciler *services.Reconciler, webhookSecret string) *WebhookController {
	return &WebhookController{reconciler: reconciler, webhookSecret: webhookSecret}
}

// HandleStripe verifies the event signature against the shared secret, maps
// the payload into the provider-agnostic event shape and hands it to the
// reconciler. Redelivered events come back as a 200 no-op.
func (wc *WebhookController) HandleStripe(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), wc.webhookSecret)
	if err != nil {
		zap.L().Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	providerEvent, err := mapStripeEvent(&event)
	if err != nil {
		zap.L().Warn("webhook payload unparsable", zap.String("type", string(event.Type)), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := wc.reconciler.Process(providerEvent); err != nil {
		switch {
		case errors.Is(err, services.ErrEventAlreadyProcessed):
			c.JSON(http.StatusOK, gin.H{"status": "already_processed"})
		case errors.Is(err, services.ErrUnknownSubscriber), errors.Is(err, services.ErrUnknownPlan):
			// Nothing local to apply the event to; acknowledge so the
			// provider stops retrying.
			zap.L().Warn("webhook event had no local target",
				zap.String("event_id", providerEvent.ID), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "skipped"})
		default:
			zap.L().Error("webhook processing failed",
				zap.String("event_id", providerEvent.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func mapStripeEvent(event *stripe.Event) (*services.ProviderEvent, error) {
	out := &services.ProviderEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch out.Type {
	case services.EventPaymentSucceeded, services.EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, err
		}
		out.PaymentIntentID = intent.ID

	case services.EventSubscriptionCreated, services.EventSubscriptionUpdated, services.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, err
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.PriceID = sub.Items.Data[0].Price.ID
		}
		if sub.CurrentPeriodStart > 0 {
			out.PeriodStart = time.Unix(sub.CurrentPeriodStart, 0)
		}
		if event.Data.PreviousAttributes != nil {
			_, out.PeriodStartChanged = event.Data.PreviousAttributes["current_period_start"]
		}
	}

	return out, nil
}
