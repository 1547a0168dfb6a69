package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthworks/hearth-be/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func meetingRoom(rate string) *models.Workspace {
	return &models.Workspace{Category: models.CategoryMeetingRoom, HourlyRate: dec(rate)}
}

func desk(rate string) *models.Workspace {
	return &models.Workspace{Category: models.CategoryDesk, HourlyRate: dec(rate)}
}

func memberWith(hours string, nft bool) *models.User {
	planID := uint(1)
	return &models.User{
		MembershipPlanID: &planID,
		NFTHolder:        nft,
		Balance:          models.CreditBalance{MeetingRoomHours: dec(hours)},
	}
}

func TestQuoteDeskFullOverage(t *testing.T) {
	s := NewPricingService()

	// Desks never consume credits: 2h at $20/h = $40, fee 2.9% = $1.16.
	quote, err := s.Quote(dec("2"), desk("20"), &models.User{})
	require.NoError(t, err)

	assert.True(t, quote.CreditsUsed.IsZero())
	assert.True(t, quote.OverageCharge.Equal(dec("40")), "overage %s", quote.OverageCharge)
	assert.True(t, quote.ProcessingFee.Equal(dec("1.16")), "fee %s", quote.ProcessingFee)
	assert.True(t, quote.Total.Equal(dec("41.16")), "total %s", quote.Total)
	assert.True(t, quote.PaymentRequired())
}

func TestQuoteCreditsFirst(t *testing.T) {
	s := NewPricingService()

	// 1.5h of credits against a 2h booking at $50/h: 0.5h overage = $25,
	// fee $0.725, total $25.725 exactly.
	quote, err := s.Quote(dec("2"), meetingRoom("50"), memberWith("1.5", false))
	require.NoError(t, err)

	assert.True(t, quote.CreditsUsed.Equal(dec("1.5")))
	assert.True(t, quote.OverageHours.Equal(dec("0.5")))
	assert.True(t, quote.OverageCharge.Equal(dec("25")))
	assert.True(t, quote.ProcessingFee.Equal(dec("0.725")), "fee %s", quote.ProcessingFee)
	assert.True(t, quote.Total.Equal(dec("25.725")), "total %s", quote.Total)
}

func TestQuoteFullyCovered(t *testing.T) {
	s := NewPricingService()

	quote, err := s.Quote(dec("2"), meetingRoom("50"), memberWith("8", false))
	require.NoError(t, err)

	assert.True(t, quote.CreditsUsed.Equal(dec("2")))
	assert.True(t, quote.Total.IsZero(), "total %s", quote.Total)
	assert.False(t, quote.PaymentRequired())
}

func TestQuoteNFTDiscountOnOverageOnly(t *testing.T) {
	s := NewPricingService()

	// 1h credits, 3h at $50/h: overage $100, NFT halves it to $50,
	// fee $1.45, total $51.45. The credited portion is never discounted.
	quote, err := s.Quote(dec("3"), meetingRoom("50"), memberWith("1", true))
	require.NoError(t, err)

	assert.True(t, quote.OverageCharge.Equal(dec("100")))
	assert.True(t, quote.NFTDiscount.Equal(dec("50")))
	assert.True(t, quote.Subtotal.Equal(dec("50")))
	assert.True(t, quote.Total.Equal(dec("51.45")), "total %s", quote.Total)
}

func TestQuoteNFTDiscountSkippedWhenNoOverage(t *testing.T) {
	s := NewPricingService()

	quote, err := s.Quote(dec("2"), meetingRoom("50"), memberWith("4", true))
	require.NoError(t, err)

	assert.True(t, quote.NFTDiscount.IsZero())
	assert.True(t, quote.Total.IsZero())
}

func TestQuoteMeetingRoomRequiresMembership(t *testing.T) {
	s := NewPricingService()

	_, err := s.Quote(dec("1"), meetingRoom("50"), &models.User{})
	assert.ErrorIs(t, err, ErrMembershipRequired)

	// Desks stay open to non-members.
	_, err = s.Quote(dec("1"), desk("20"), &models.User{})
	assert.NoError(t, err)
}

func TestQuoteRejectsNonPositiveDuration(t *testing.T) {
	s := NewPricingService()

	_, err := s.Quote(decimal.Zero, desk("20"), &models.User{})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = s.Quote(dec("-1"), desk("20"), &models.User{})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestQuoteCreditsPlusOverageEqualsDuration(t *testing.T) {
	s := NewPricingService()

	// 5 credited hours against a 7h booking at $20/h: 2h overage = $40,
	// fee $1.16, total $41.16.
	quote, err := s.Quote(dec("7"), meetingRoom("20"), memberWith("5", false))
	require.NoError(t, err)

	assert.True(t, quote.CreditsUsed.Add(quote.OverageHours).Equal(dec("7")))
	assert.True(t, quote.CreditsUsed.Equal(dec("5")))
	assert.True(t, quote.Total.Equal(dec("41.16")), "total %s", quote.Total)

	// A 3h booking against the same 5 credits never bills.
	quote, err = s.Quote(dec("3"), meetingRoom("20"), memberWith("5", false))
	require.NoError(t, err)
	assert.True(t, quote.CreditsUsed.Add(quote.OverageHours).Equal(dec("3")))
	assert.True(t, quote.Total.IsZero())
}

func TestQuoteFractionalHoursStayExact(t *testing.T) {
	s := NewPricingService()

	// 90 minutes at $20/h: $30 overage, fee $0.87, total $30.87.
	quote, err := s.Quote(dec("1.5"), desk("20"), &models.User{})
	require.NoError(t, err)
	assert.True(t, quote.Total.Equal(dec("30.87")), "total %s", quote.Total)
}
