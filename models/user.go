package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleStaff UserRole = "staff"
	RoleAdmin UserRole = "admin"
)

// CreditBalance holds the user's currently available entitlements. It is
// embedded on User so a balance read never needs a second query. The ledger
// in services/credit.go is the only writer.
type CreditBalance struct {
	MeetingRoomHours     decimal.Decimal `json:"meeting_room_hours" gorm:"type:decimal(10,2);default:0"`
	MeetingRoomAllocated *time.Time      `json:"meeting_room_allocated,omitempty"`
	PrintingPages        int             `json:"printing_pages" gorm:"default:0"`
	PrintingAllocated    *time.Time      `json:"printing_allocated,omitempty"`
	GuestPasses          int             `json:"guest_passes" gorm:"default:0"`
	GuestPassesAllocated *time.Time      `json:"guest_passes_allocated,omitempty"`
}

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Name      string         `json:"name" gorm:"not null"`
	Phone     string         `json:"phone"`
	Role      UserRole       `json:"role" gorm:"default:'user'"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// NFT membership
	NFTHolder     bool   `json:"nft_holder" gorm:"default:false"`
	WalletAddress string `json:"wallet_address"`

	// Billing
	MembershipPlanID *uint           `json:"membership_plan_id"`
	MembershipPlan   *MembershipPlan `json:"membership_plan,omitempty"`
	StripeCustomerID string          `json:"-" gorm:"index"`

	Balance CreditBalance `json:"credit_balance" gorm:"embedded;embeddedPrefix:balance_"`

	// Relations
	Bookings           []Booking           `json:"bookings,omitempty"`
	Orders             []Order             `json:"orders,omitempty"`
	CreditTransactions []CreditTransaction `json:"credit_transactions,omitempty"`
}

type MembershipPlan struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"not null;uniqueIndex"`
	BasePrice     decimal.Decimal `json:"base_price" gorm:"type:decimal(10,2);not null"`
	NFTPrice      decimal.Decimal `json:"nft_price" gorm:"type:decimal(10,2);not null"`
	StripePriceID string          `json:"-" gorm:"index"`

	// Entitlements granted per billing period
	MeetingRoomHours decimal.Decimal `json:"meeting_room_hours" gorm:"type:decimal(10,2);default:0"`
	PrintingPages    int             `json:"printing_pages" gorm:"default:0"`
	GuestPasses      int             `json:"guest_passes" gorm:"default:0"`

	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
