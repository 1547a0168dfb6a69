package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/websocket"
)

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrMenuItemNotFound  = errors.New("menu item not found or unavailable")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotCancelled = errors.New("order can no longer be cancelled")
)

type OrderService struct {
	db       *gorm.DB
	payments PaymentProvider
	notifier Notifier
}

func NewOrderService(db *gorm.DB, payments PaymentProvider, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OrderService{db: db, payments: payments, notifier: notifier}
}

type OrderLineInput struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type CreateOrderInput struct {
	Items []OrderLineInput
	Notes string
}

type OrderResult struct {
	Order           *models.Order `json:"order"`
	PaymentRequired bool          `json:"payment_required"`
	ClientSecret    string        `json:"client_secret,omitempty"`
}

// CreateOrder prices the cart from the current menu, applies the NFT holder
// discount and processing fee, and persists order plus line items in one
// transaction. Unit prices are snapshotted so later menu edits don't rewrite
// history.
func (s *OrderService) CreateOrder(userID uint, in *CreateOrderInput) (*OrderResult, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	subtotal := decimal.Zero
	lines := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		var item models.MenuItem
		if err := s.db.Where("id = ? AND is_available = ?", line.MenuItemID, true).First(&item).Error; err != nil {
			return nil, ErrMenuItemNotFound
		}
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
		})
	}

	discount := decimal.Zero
	if user.NFTHolder {
		discount = subtotal.Mul(nftDiscountRate)
	}
	discounted := subtotal.Sub(discount)
	fee := discounted.Mul(processingFeeRate)
	total := discounted.Add(fee)

	order := models.Order{
		Number:        strings.ToUpper(uuid.New().String()[:8]),
		UserID:        &userID,
		Items:         lines,
		Subtotal:      subtotal,
		NFTDiscount:   discount,
		ProcessingFee: fee,
		Total:         total,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Notes:         in.Notes,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.notifyOrder(websocket.EventOrderCreated, &order)

	result := &OrderResult{Order: &order, PaymentRequired: total.IsPositive()}

	if total.IsPositive() {
		intent, err := s.payments.CreatePaymentIntent(total, "usd", map[string]string{
			"order_id":     fmt.Sprintf("%d", order.ID),
			"order_number": order.Number,
		})
		if err != nil {
			zap.L().Error("payment intent creation failed", zap.Uint("order_id", order.ID), zap.Error(err))
			return result, nil
		}
		if err := s.db.Model(&order).Update("stripe_payment_intent_id", intent.ID).Error; err != nil {
			zap.L().Error("record payment intent id", zap.Uint("order_id", order.ID), zap.Error(err))
		}
		order.StripePaymentIntentID = intent.ID
		result.ClientSecret = intent.ClientSecret
	}

	return result, nil
}

// AdvanceStatus moves an order one step along pending → preparing → ready →
// completed.
func (s *OrderService) AdvanceStatus(orderID uint, target models.OrderStatus) (*models.Order, error) {
	allowed := map[models.OrderStatus]models.OrderStatus{
		models.OrderPreparing: models.OrderPending,
		models.OrderReady:     models.OrderPreparing,
		models.OrderCompleted: models.OrderReady,
	}
	from, ok := allowed[target]
	if !ok {
		return nil, ErrBadTransition
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			return ErrOrderNotFound
		}
		if order.Status != from {
			return ErrBadTransition
		}
		order.Status = target
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifyOrder(websocket.EventOrderStatus, &order)
	return &order, nil
}

// CancelOrder is allowed while the order is pending or preparing.
func (s *OrderService) CancelOrder(orderID, callerID uint, callerRole models.UserRole) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return nil, ErrOrderNotFound
	}

	isStaff := callerRole == models.RoleStaff || callerRole == models.RoleAdmin
	if !isStaff && (order.UserID == nil || *order.UserID != callerID) {
		return nil, ErrOrderNotFound
	}

	if order.Status != models.OrderPending && order.Status != models.OrderPreparing {
		return nil, ErrOrderNotCancelled
	}

	order.Status = models.OrderCancelled
	if err := s.db.Save(&order).Error; err != nil {
		return nil, err
	}

	if order.PaymentStatus == models.PaymentPaid && order.StripePaymentIntentID != "" {
		if _, err := s.payments.CreateRefund(order.StripePaymentIntentID, order.Total, "order cancelled"); err != nil {
			zap.L().Error("provider refund failed", zap.Uint("order_id", order.ID), zap.Error(err))
		} else if err := s.db.Model(&order).Update("payment_status", models.PaymentRefunded).Error; err != nil {
			zap.L().Error("mark order refunded", zap.Uint("order_id", order.ID), zap.Error(err))
		}
	}

	s.notifyOrder(websocket.EventOrderStatus, &order)
	return &order, nil
}

func (s *OrderService) GetUserOrders(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *OrderService) notifyOrder(event string, order *models.Order) {
	payload := websocket.OrderEvent{
		OrderID: order.ID,
		Number:  order.Number,
		Status:  string(order.Status),
		Total:   order.Total.String(),
	}
	if order.UserID != nil {
		s.notifier.NotifyUser(*order.UserID, event, payload)
	}
	s.notifier.Broadcast(websocket.ChannelOrders, event, payload)
}
