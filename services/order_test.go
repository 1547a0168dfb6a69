package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/websocket"
)

func newOrderService(t *testing.T) (*OrderService, *fakePayments, *fakeNotifier, *gorm.DB) {
	db := newTestDB(t)
	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	svc := NewOrderService(db, payments, notifier)
	return svc, payments, notifier, db
}

func TestCreateOrderPricesFromMenu(t *testing.T) {
	svc, payments, notifier, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Flat White", "4.50")
	toast := seedMenuItem(t, db, "Avocado Toast", "9.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{
			{MenuItemID: coffee.ID, Quantity: 2},
			{MenuItemID: toast.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// 2×4.50 + 9.00 = 18, fee 0.522, total 18.522.
	order := result.Order
	assert.True(t, order.Subtotal.Equal(dec("18")))
	assert.True(t, order.NFTDiscount.IsZero())
	assert.True(t, order.ProcessingFee.Equal(dec("0.522")), "fee %s", order.ProcessingFee)
	assert.True(t, order.Total.Equal(dec("18.522")), "total %s", order.Total)
	assert.Len(t, order.Number, 8)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Flat White", order.Items[0].Name)

	require.Len(t, payments.intents, 1)
	assert.True(t, notifier.has(websocket.EventOrderCreated))
}

func TestCreateOrderNFTDiscountHalvesSubtotal(t *testing.T) {
	svc, _, _, db := newOrderService(t)
	user := seedUser(t, db, func(u *models.User) { u.NFTHolder = true })
	coffee := seedMenuItem(t, db, "Espresso", "3.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// 6 − 3 discount = 3, fee 0.087, total 3.087.
	order := result.Order
	assert.True(t, order.NFTDiscount.Equal(dec("3")))
	assert.True(t, order.Total.Equal(dec("3.087")), "total %s", order.Total)
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	svc, _, _, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Cold Brew", "5.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// A later price change must not rewrite the order.
	require.NoError(t, db.Model(coffee).Update("price", dec("7.00")).Error)

	var line models.OrderItem
	require.NoError(t, db.Where("order_id = ?", result.Order.ID).First(&line).Error)
	assert.True(t, line.UnitPrice.Equal(dec("5.00")))
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Espresso", "3.00")

	_, err := svc.CreateOrder(user.ID, &CreateOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: 9999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestCreateOrderRejectsUnavailableItem(t *testing.T) {
	svc, _, _, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Espresso", "3.00")
	require.NoError(t, db.Model(coffee).Update("is_available", false).Error)

	_, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestAdvanceOrderStatusChain(t *testing.T) {
	svc, _, notifier, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Espresso", "3.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := result.Order.ID

	_, err = svc.AdvanceStatus(orderID, models.OrderReady)
	assert.ErrorIs(t, err, ErrBadTransition)

	for _, target := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		order, err := svc.AdvanceStatus(orderID, target)
		require.NoError(t, err)
		assert.Equal(t, target, order.Status)
	}
	assert.True(t, notifier.has(websocket.EventOrderStatus))
}

func TestCancelOrderPolicy(t *testing.T) {
	svc, payments, _, db := newOrderService(t)
	user := seedUser(t, db, nil)
	other := seedUser(t, db, func(u *models.User) { u.Email = "other@example.com" })
	coffee := seedMenuItem(t, db, "Espresso", "3.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := result.Order.ID

	// Strangers see nothing.
	_, err = svc.CancelOrder(orderID, other.ID, models.RoleUser)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Paid and pending: cancel refunds through the provider.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("payment_status", models.PaymentPaid).Error)

	order, err := svc.CancelOrder(orderID, user.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	require.Len(t, payments.refunds, 1)
}

func TestCancelOrderTooLate(t *testing.T) {
	svc, _, _, db := newOrderService(t)
	user := seedUser(t, db, nil)
	coffee := seedMenuItem(t, db, "Espresso", "3.00")

	result, err := svc.CreateOrder(user.ID, &CreateOrderInput{
		Items: []OrderLineInput{{MenuItemID: coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := result.Order.ID

	_, err = svc.AdvanceStatus(orderID, models.OrderPreparing)
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(orderID, models.OrderReady)
	require.NoError(t, err)

	_, err = svc.CancelOrder(orderID, user.ID, models.RoleUser)
	assert.ErrorIs(t, err, ErrOrderNotCancelled)
}
