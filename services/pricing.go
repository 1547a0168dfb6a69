package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hearthworks/hearth-be/models"
)

var (
	ErrInvalidDuration    = errors.New("requested duration must be positive")
	ErrUnknownCategory    = errors.New("workspace category not recognized")
	ErrMembershipRequired = errors.New("an active membership is required to book this workspace")
)

// Pricing constants. Credits are consumed first, the NFT discount applies
// only to the overage charge, and the processing fee is flat with no minimum.
var (
	processingFeeRate = decimal.RequireFromString("0.029")
	nftDiscountRate   = decimal.RequireFromString("0.5")
)

// PriceQuote is the full breakdown persisted onto the booking. All fields are
// exact decimals; nothing is rounded inside the calculator.
type PriceQuote struct {
	CreditsUsed   decimal.Decimal `json:"credits_used"`
	OverageHours  decimal.Decimal `json:"overage_hours"`
	OverageCharge decimal.Decimal `json:"overage_charge"`
	NFTDiscount   decimal.Decimal `json:"nft_discount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	Total         decimal.Decimal `json:"total"`
}

// PaymentRequired reports whether the quote leaves anything to charge.
func (q *PriceQuote) PaymentRequired() bool {
	return q.Total.IsPositive()
}

type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// Quote computes the cost of booking a workspace for the given duration.
// Meeting rooms consume membership credits first; desks never touch credits,
// so the whole duration bills as overage.
func (s *PricingService) Quote(duration decimal.Decimal, workspace *models.Workspace, user *models.User) (*PriceQuote, error) {
	if !duration.IsPositive() {
		return nil, ErrInvalidDuration
	}

	var availableCredits decimal.Decimal
	switch workspace.Category {
	case models.CategoryMeetingRoom:
		if user.MembershipPlanID == nil {
			return nil, ErrMembershipRequired
		}
		availableCredits = user.Balance.MeetingRoomHours
	case models.CategoryDesk:
		availableCredits = decimal.Zero
	default:
		return nil, ErrUnknownCategory
	}

	quote := &PriceQuote{
		NFTDiscount:   decimal.Zero,
		OverageCharge: decimal.Zero,
	}

	if availableCredits.GreaterThanOrEqual(duration) {
		quote.CreditsUsed = duration
		quote.OverageHours = decimal.Zero
	} else {
		quote.CreditsUsed = availableCredits
		quote.OverageHours = duration.Sub(availableCredits)
		quote.OverageCharge = quote.OverageHours.Mul(workspace.HourlyRate)
	}

	if user.NFTHolder && quote.OverageCharge.IsPositive() {
		quote.NFTDiscount = quote.OverageCharge.Mul(nftDiscountRate)
	}

	quote.Subtotal = quote.OverageCharge.Sub(quote.NFTDiscount)
	quote.ProcessingFee = quote.Subtotal.Mul(processingFeeRate)
	quote.Total = quote.Subtotal.Add(quote.ProcessingFee)

	return quote, nil
}
