package services

import (
	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// PaymentIntent is the provider-agnostic slice of a created intent that the
// rest of the app needs.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// PaymentProvider abstracts the payment API so booking and order flows can be
// tested against a fake. StripeProvider is the production implementation.
type PaymentProvider interface {
	CreatePaymentIntent(amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error)
	CreateRefund(paymentIntentID string, amount decimal.Decimal, reason string) (string, error)
}

type StripeProvider struct {
	api *client.API
}

// NewStripeProvider builds a Stripe client handle around the secret key. The
// handle is constructed once in main and injected, never a package global.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// toCents rounds an exact decimal amount to the whole cents Stripe charges.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (p *StripeProvider) CreatePaymentIntent(amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toCents(amount)),
		Currency: stripe.String(currency),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}

	zap.L().Info("payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount_cents", pi.Amount))

	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) CreateRefund(paymentIntentID string, amount decimal.Decimal, reason string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount.IsPositive() {
		params.Amount = stripe.Int64(toCents(amount))
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	ref, err := p.api.Refunds.New(params)
	if err != nil {
		return "", err
	}

	zap.L().Info("refund created",
		zap.String("refund_id", ref.ID),
		zap.String("intent_id", paymentIntentID))

	return ref.ID, nil
}
