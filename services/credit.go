package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hearthworks/hearth-be/models"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrUnknownCreditType   = errors.New("unknown credit type")
)

// CreditService is the only writer of user balances. Every mutation runs
// inside a transaction, takes a row lock on the user so concurrent deductions
// serialize, and appends exactly one ledger entry whose balance_after matches
// the new balance.
type CreditService struct {
	db *gorm.DB
}

func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{db: db}
}

// lockForUpdate adds FOR UPDATE on dialects that support it. The sqlite test
// database serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func balanceOf(user *models.User, creditType models.CreditType) (decimal.Decimal, error) {
	switch creditType {
	case models.CreditMeetingRoom:
		return user.Balance.MeetingRoomHours, nil
	case models.CreditPrinting:
		return decimal.NewFromInt(int64(user.Balance.PrintingPages)), nil
	case models.CreditGuestPass:
		return decimal.NewFromInt(int64(user.Balance.GuestPasses)), nil
	default:
		return decimal.Zero, ErrUnknownCreditType
	}
}

// balanceUpdates returns the column updates that set the balance of one
// credit type, optionally touching its last-allocated timestamp.
func balanceUpdates(creditType models.CreditType, newBalance decimal.Decimal, allocatedAt *time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	switch creditType {
	case models.CreditMeetingRoom:
		updates["balance_meeting_room_hours"] = newBalance
		if allocatedAt != nil {
			updates["balance_meeting_room_allocated"] = *allocatedAt
		}
	case models.CreditPrinting:
		updates["balance_printing_pages"] = int(newBalance.IntPart())
		if allocatedAt != nil {
			updates["balance_printing_allocated"] = *allocatedAt
		}
	case models.CreditGuestPass:
		updates["balance_guest_passes"] = int(newBalance.IntPart())
		if allocatedAt != nil {
			updates["balance_guest_passes_allocated"] = *allocatedAt
		}
	default:
		return nil, ErrUnknownCreditType
	}
	return updates, nil
}

// apply locks the user row, shifts the balance of one credit type by the
// signed delta and appends the matching ledger entry. A negative result
// aborts before anything is written.
func (s *CreditService) apply(tx *gorm.DB, userID uint, txType models.TransactionType,
	creditType models.CreditType, delta decimal.Decimal, bookingID *uint, description string,
	allocatedAt *time.Time) error {

	// Printing pages and guest passes are whole-unit entitlements. A
	// fractional delta would store a truncated balance while the ledger keeps
	// the exact amount, desyncing the two.
	if creditType != models.CreditMeetingRoom && !delta.IsInteger() {
		return ErrInvalidAmount
	}

	var user models.User
	if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	current, err := balanceOf(&user, creditType)
	if err != nil {
		return err
	}

	newBalance := current.Add(delta)
	if newBalance.IsNegative() {
		return ErrInsufficientCredits
	}

	updates, err := balanceUpdates(creditType, newBalance, allocatedAt)
	if err != nil {
		return err
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	entry := models.CreditTransaction{
		UserID:       userID,
		Type:         txType,
		CreditType:   creditType,
		Amount:       delta,
		BalanceAfter: newBalance,
		Description:  description,
		BookingID:    bookingID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write credit transaction: %w", err)
	}

	zap.L().Debug("credit balance changed",
		zap.Uint("user_id", userID),
		zap.String("type", string(txType)),
		zap.String("credit_type", string(creditType)),
		zap.String("amount", delta.String()),
		zap.String("balance_after", newBalance.String()))

	return nil
}

// DeductTx removes credits inside a caller-supplied transaction so the
// deduction commits or rolls back together with the caller's writes.
func (s *CreditService) DeductTx(tx *gorm.DB, userID uint, creditType models.CreditType,
	amount decimal.Decimal, bookingID *uint, reason string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.apply(tx, userID, models.TransactionUsage, creditType, amount.Neg(), bookingID, reason, nil)
}

func (s *CreditService) Deduct(userID uint, creditType models.CreditType,
	amount decimal.Decimal, bookingID *uint, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.DeductTx(tx, userID, creditType, amount, bookingID, reason)
	})
}

// RefundTx returns previously deducted credits.
func (s *CreditService) RefundTx(tx *gorm.DB, userID uint, creditType models.CreditType,
	amount decimal.Decimal, bookingID *uint, reason string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.apply(tx, userID, models.TransactionRefund, creditType, amount, bookingID, reason, nil)
}

func (s *CreditService) Refund(userID uint, creditType models.CreditType,
	amount decimal.Decimal, bookingID *uint, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.RefundTx(tx, userID, creditType, amount, bookingID, reason)
	})
}

// AllocateTx grants the plan's full entitlement, one ledger entry per credit
// type that the plan carries. Allocations are additive: unspent credits from
// the previous period keep counting toward the balance so the ledger always
// sums to it.
func (s *CreditService) AllocateTx(tx *gorm.DB, userID uint, plan *models.MembershipPlan, description string) error {
	now := time.Now()

	if plan.MeetingRoomHours.IsPositive() {
		if err := s.apply(tx, userID, models.TransactionAllocation, models.CreditMeetingRoom,
			plan.MeetingRoomHours, nil, description, &now); err != nil {
			return err
		}
	}
	if plan.PrintingPages > 0 {
		if err := s.apply(tx, userID, models.TransactionAllocation, models.CreditPrinting,
			decimal.NewFromInt(int64(plan.PrintingPages)), nil, description, &now); err != nil {
			return err
		}
	}
	if plan.GuestPasses > 0 {
		if err := s.apply(tx, userID, models.TransactionAllocation, models.CreditGuestPass,
			decimal.NewFromInt(int64(plan.GuestPasses)), nil, description, &now); err != nil {
			return err
		}
	}
	return nil
}

// ExpireAllTx zeroes every remaining balance, writing one expiration entry
// per credit type that had anything left.
func (s *CreditService) ExpireAllTx(tx *gorm.DB, userID uint, description string) error {
	var user models.User
	if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	for _, creditType := range []models.CreditType{models.CreditMeetingRoom, models.CreditPrinting, models.CreditGuestPass} {
		balance, err := balanceOf(&user, creditType)
		if err != nil {
			return err
		}
		if !balance.IsPositive() {
			continue
		}
		if err := s.apply(tx, userID, models.TransactionExpiration, creditType, balance.Neg(), nil, description, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreditTypeBalance is the per-type shape of the balance query.
type CreditTypeBalance struct {
	Available     decimal.Decimal `json:"available"`
	LastAllocated *time.Time      `json:"last_allocated"`
}

// BalanceSummary is the response body of GET /credits.
type BalanceSummary struct {
	MeetingRoom CreditTypeBalance `json:"meeting_room"`
	Printing    CreditTypeBalance `json:"printing"`
	GuestPasses CreditTypeBalance `json:"guest_passes"`
}

func (s *CreditService) GetBalance(userID uint) (*BalanceSummary, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &BalanceSummary{
		MeetingRoom: CreditTypeBalance{
			Available:     user.Balance.MeetingRoomHours,
			LastAllocated: user.Balance.MeetingRoomAllocated,
		},
		Printing: CreditTypeBalance{
			Available:     decimal.NewFromInt(int64(user.Balance.PrintingPages)),
			LastAllocated: user.Balance.PrintingAllocated,
		},
		GuestPasses: CreditTypeBalance{
			Available:     decimal.NewFromInt(int64(user.Balance.GuestPasses)),
			LastAllocated: user.Balance.GuestPassesAllocated,
		},
	}, nil
}

func (s *CreditService) ListTransactions(userID uint) ([]models.CreditTransaction, error) {
	var transactions []models.CreditTransaction
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error
	return transactions, err
}
