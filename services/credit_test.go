package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
)

func TestDeductAndRefundRoundTrip(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.MeetingRoomHours = dec("8")
	})

	require.NoError(t, credits.Deduct(user.ID, models.CreditMeetingRoom, dec("2.5"), nil, "booking"))
	require.NoError(t, credits.Refund(user.ID, models.CreditMeetingRoom, dec("2.5"), nil, "cancellation"))

	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, balance.MeetingRoom.Available.Equal(dec("8")))
}

func TestDeductRejectsOverdraw(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.MeetingRoomHours = dec("1")
	})

	err := credits.Deduct(user.ID, models.CreditMeetingRoom, dec("1.5"), nil, "booking")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// Nothing was written: balance intact, ledger empty.
	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, balance.MeetingRoom.Available.Equal(dec("1")))

	transactions, err := credits.ListTransactions(user.ID)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestDeductRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, nil)

	assert.ErrorIs(t, credits.Deduct(user.ID, models.CreditMeetingRoom, decimal.Zero, nil, ""), ErrInvalidAmount)
	assert.ErrorIs(t, credits.Deduct(user.ID, models.CreditMeetingRoom, dec("-1"), nil, ""), ErrInvalidAmount)
}

func TestIntegerCreditTypesRejectFractions(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.PrintingPages = 3
		u.Balance.GuestPasses = 2
	})

	assert.ErrorIs(t, credits.Deduct(user.ID, models.CreditPrinting, dec("0.5"), nil, "print"), ErrInvalidAmount)
	assert.ErrorIs(t, credits.Refund(user.ID, models.CreditGuestPass, dec("1.5"), nil, "return"), ErrInvalidAmount)

	// Balance and ledger are untouched, so they still reconcile.
	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, balance.Printing.Available.Equal(dec("3")))
	assert.True(t, balance.GuestPasses.Available.Equal(dec("2")))

	transactions, err := credits.ListTransactions(user.ID)
	require.NoError(t, err)
	assert.Empty(t, transactions)

	// Whole units still flow, and balance_after matches the stored balance.
	require.NoError(t, credits.Deduct(user.ID, models.CreditPrinting, dec("2"), nil, "print"))

	var entry models.CreditTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&entry).Error)
	balance, err = credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(balance.Printing.Available))
	assert.True(t, balance.Printing.Available.Equal(dec("1")))
}

func TestLedgerSumsToBalance(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	plan := seedPlan(t, db, nil)
	user := seedUser(t, db, nil)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return credits.AllocateTx(tx, user.ID, plan, "subscription")
	}))
	require.NoError(t, credits.Deduct(user.ID, models.CreditMeetingRoom, dec("3"), nil, "booking"))
	require.NoError(t, credits.Refund(user.ID, models.CreditMeetingRoom, dec("1"), nil, "partial cancellation"))

	transactions, err := credits.ListTransactions(user.ID)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tr := range transactions {
		if tr.CreditType == models.CreditMeetingRoom {
			sum = sum.Add(tr.Amount)
		}
	}

	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(balance.MeetingRoom.Available),
		"ledger sum %s, balance %s", sum, balance.MeetingRoom.Available)
	assert.True(t, balance.MeetingRoom.Available.Equal(dec("6")))
}

func TestBalanceAfterChains(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.MeetingRoomHours = dec("10")
	})

	require.NoError(t, credits.Deduct(user.ID, models.CreditMeetingRoom, dec("4"), nil, "first"))
	require.NoError(t, credits.Deduct(user.ID, models.CreditMeetingRoom, dec("2"), nil, "second"))

	var transactions []models.CreditTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id ASC").Find(&transactions).Error)
	require.Len(t, transactions, 2)

	assert.True(t, transactions[0].BalanceAfter.Equal(dec("6")))
	assert.True(t, transactions[1].BalanceAfter.Equal(dec("4")))
}

func TestAllocationIsAdditive(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	plan := seedPlan(t, db, nil) // 8 hours, 200 pages, 3 passes
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.MeetingRoomHours = dec("2.5")
		u.Balance.PrintingPages = 10
	})

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return credits.AllocateTx(tx, user.ID, plan, "renewal")
	}))

	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, balance.MeetingRoom.Available.Equal(dec("10.5")))
	assert.True(t, balance.Printing.Available.Equal(dec("210")))
	assert.True(t, balance.GuestPasses.Available.Equal(dec("3")))
	assert.NotNil(t, balance.MeetingRoom.LastAllocated)
}

func TestExpireAllZeroesEveryType(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, func(u *models.User) {
		u.Balance.MeetingRoomHours = dec("5")
		u.Balance.PrintingPages = 40
		u.Balance.GuestPasses = 2
	})

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return credits.ExpireAllTx(tx, user.ID, "subscription ended")
	}))

	balance, err := credits.GetBalance(user.ID)
	require.NoError(t, err)
	assert.True(t, balance.MeetingRoom.Available.IsZero())
	assert.True(t, balance.Printing.Available.IsZero())
	assert.True(t, balance.GuestPasses.Available.IsZero())

	// One expiration entry per type that had anything left.
	var count int64
	db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.TransactionExpiration).
		Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestExpireAllSkipsEmptyBalances(t *testing.T) {
	db := newTestDB(t)
	credits := NewCreditService(db)
	user := seedUser(t, db, nil)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return credits.ExpireAllTx(tx, user.ID, "subscription ended")
	}))

	transactions, err := credits.ListTransactions(user.ID)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}
