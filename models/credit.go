package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditType string

const (
	CreditMeetingRoom CreditType = "meeting_room"
	CreditPrinting    CreditType = "printing"
	CreditGuestPass   CreditType = "guest_pass"
)

type TransactionType string

const (
	TransactionAllocation TransactionType = "allocation"
	TransactionUsage      TransactionType = "usage"
	TransactionRefund     TransactionType = "refund"
	TransactionExpiration TransactionType = "expiration"
)

// CreditTransaction is the append-only ledger entry behind every balance
// change. Amount is signed: allocations and refunds are positive, usage and
// expirations negative. BalanceAfter is the balance of that credit type once
// the entry applied, so the ledger can be reconciled against the embedded
// balance at any time.
type CreditTransaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time       `json:"created_at"`
	UserID       uint            `json:"user_id" gorm:"not null;index"`
	User         User            `json:"-"`
	Type         TransactionType `json:"type" gorm:"not null"`
	CreditType   CreditType      `json:"credit_type" gorm:"not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	BalanceAfter decimal.Decimal `json:"balance_after" gorm:"type:decimal(10,2);not null"`
	Description  string          `json:"description"`
	BookingID    *uint           `json:"booking_id,omitempty"`
	Booking      *Booking        `json:"-"`
}
