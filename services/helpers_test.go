package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hearthworks/hearth-be/config"
	"github.com/hearthworks/hearth-be/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Email:    "member@example.com",
		Password: "irrelevant",
		Name:     "Test Member",
		Role:     models.RoleUser,
		IsActive: true,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPlan(t *testing.T, db *gorm.DB, mutate func(*models.MembershipPlan)) *models.MembershipPlan {
	t.Helper()
	plan := &models.MembershipPlan{
		Name:             "Resident",
		BasePrice:        decimal.RequireFromString("249"),
		NFTPrice:         decimal.RequireFromString("124.50"),
		StripePriceID:    "price_resident",
		MeetingRoomHours: decimal.RequireFromString("8"),
		PrintingPages:    200,
		GuestPasses:      3,
		IsActive:         true,
	}
	if mutate != nil {
		mutate(plan)
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func seedWorkspace(t *testing.T, db *gorm.DB, category models.WorkspaceCategory, rate string) *models.Workspace {
	t.Helper()
	workspace := &models.Workspace{
		Name:       "Test Space " + string(category),
		Category:   category,
		Capacity:   4,
		HourlyRate: decimal.RequireFromString(rate),
		IsActive:   true,
	}
	require.NoError(t, db.Create(workspace).Error)
	return workspace
}

func seedMenuItem(t *testing.T, db *gorm.DB, name, price string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		Name:        name,
		Category:    "coffee",
		Price:       decimal.RequireFromString(price),
		IsAvailable: true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// fakePayments records provider calls instead of hitting Stripe.
type fakePayments struct {
	mu          sync.Mutex
	intents     []decimal.Decimal
	refunds     []string
	failIntents bool
}

func (f *fakePayments) CreatePaymentIntent(amount decimal.Decimal, currency string, metadata map[string]string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIntents {
		return nil, errors.New("provider unavailable")
	}
	f.intents = append(f.intents, amount)
	return &PaymentIntent{ID: "pi_test_1", ClientSecret: "pi_test_1_secret"}, nil
}

func (f *fakePayments) CreateRefund(paymentIntentID string, amount decimal.Decimal, reason string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, paymentIntentID)
	return "re_test_1", nil
}

// fakeNotifier records pushed events for assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) NotifyUser(userID uint, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) Broadcast(channel, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "broadcast:"+event)
}

func (f *fakeNotifier) has(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}
