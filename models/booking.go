package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WorkspaceCategory string

const (
	CategoryDesk        WorkspaceCategory = "desk"
	CategoryMeetingRoom WorkspaceCategory = "meeting_room"
)

type Workspace struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"not null"`
	Description string            `json:"description"`
	Category    WorkspaceCategory `json:"category" gorm:"not null;index"`
	Capacity    int               `json:"capacity" gorm:"default:1"`
	HourlyRate  decimal.Decimal   `json:"hourly_rate" gorm:"type:decimal(10,2);not null"`
	IsActive    bool              `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `json:"-" gorm:"index"`

	Bookings []Booking `json:"bookings,omitempty"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Reference string         `json:"reference" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// UserID is a pointer so bookings survive user deletion (FK set null).
	UserID      *uint     `json:"user_id" gorm:"index"`
	User        *User     `json:"user,omitempty"`
	WorkspaceID uint      `json:"workspace_id" gorm:"not null;index"`
	Workspace   Workspace `json:"workspace,omitempty"`

	BookingDate     time.Time       `json:"booking_date" gorm:"not null;index"`
	StartTime       string          `json:"start_time" gorm:"not null"` // "HH:MM"
	EndTime         string          `json:"end_time" gorm:"not null"`
	DurationHours   decimal.Decimal `json:"duration_hours" gorm:"type:decimal(10,2);not null"`
	Attendees       int             `json:"attendees" gorm:"default:1"`
	SpecialRequests string          `json:"special_requests"`

	// Pricing breakdown, fixed at creation time
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	CreditsUsed   decimal.Decimal `json:"credits_used" gorm:"type:decimal(10,2);not null"`
	OverageHours  decimal.Decimal `json:"overage_hours" gorm:"type:decimal(10,2);not null"`
	OverageCharge decimal.Decimal `json:"overage_charge" gorm:"type:decimal(10,2);not null"`
	NFTDiscount   decimal.Decimal `json:"nft_discount" gorm:"type:decimal(10,2);not null"`
	ProcessingFee decimal.Decimal `json:"processing_fee" gorm:"type:decimal(10,3);not null"`
	TotalPrice    decimal.Decimal `json:"total_price" gorm:"type:decimal(10,3);not null"`

	Status                BookingStatus `json:"status" gorm:"default:'pending';index"`
	PaymentStatus         PaymentStatus `json:"payment_status" gorm:"default:'pending'"`
	StripePaymentIntentID string        `json:"-" gorm:"index"`
	CheckedInAt           *time.Time    `json:"checked_in_at,omitempty"`
	CancelledAt           *time.Time    `json:"cancelled_at,omitempty"`
}

// StartsAt combines BookingDate and StartTime into a single instant, used by
// the cancellation policy.
func (b *Booking) StartsAt() time.Time {
	t, err := time.Parse("15:04", b.StartTime)
	if err != nil {
		return b.BookingDate
	}
	d := b.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}
