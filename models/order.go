package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Category    string          `json:"category" gorm:"index"` // coffee, food, pastry...
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	IsAvailable bool            `json:"is_available" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Number    string         `json:"number" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	UserID *uint `json:"user_id" gorm:"index"`
	User   *User `json:"user,omitempty"`

	Items []OrderItem `json:"items"`

	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	NFTDiscount   decimal.Decimal `json:"nft_discount" gorm:"type:decimal(10,2);not null"`
	ProcessingFee decimal.Decimal `json:"processing_fee" gorm:"type:decimal(10,3);not null"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(10,3);not null"`

	Status                OrderStatus   `json:"status" gorm:"default:'pending';index"`
	PaymentStatus         PaymentStatus `json:"payment_status" gorm:"default:'pending'"`
	StripePaymentIntentID string        `json:"-" gorm:"index"`
	Notes                 string        `json:"notes"`
}

type OrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"not null;index"`
	MenuItemID uint            `json:"menu_item_id" gorm:"not null"`
	MenuItem   MenuItem        `json:"menu_item,omitempty"`
	Name       string          `json:"name" gorm:"not null"` // snapshot at order time
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
}
