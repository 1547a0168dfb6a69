package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hearthworks/hearth-be/config"
	"github.com/hearthworks/hearth-be/models"
)

func newAdminTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.AutoMigrate(db))

	ac := NewAdminController(db, nil, nil)
	router := gin.New()
	router.PUT("/plans/:id", ac.UpdatePlan)
	router.PUT("/workspaces/:id", ac.UpdateWorkspace)
	router.DELETE("/menu/:id", ac.DeleteMenuItem)
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdatePlanRewritesPricingAndEntitlements(t *testing.T) {
	router, db := newAdminTestServer(t)

	plan := models.MembershipPlan{
		Name:             "Resident",
		BasePrice:        decimal.RequireFromString("249"),
		NFTPrice:         decimal.RequireFromString("124.50"),
		StripePriceID:    "price_resident",
		MeetingRoomHours: decimal.RequireFromString("8"),
		PrintingPages:    200,
		GuestPasses:      3,
		IsActive:         true,
	}
	require.NoError(t, db.Create(&plan).Error)

	inactive := false
	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/plans/%d", plan.ID), PlanRequest{
		Name:             "Resident Plus",
		BasePrice:        "299",
		NFTPrice:         "149.50",
		StripePriceID:    "price_resident_plus",
		MeetingRoomHours: "10",
		PrintingPages:    300,
		GuestPasses:      5,
		IsActive:         &inactive,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.MembershipPlan
	require.NoError(t, db.First(&stored, plan.ID).Error)
	assert.Equal(t, "Resident Plus", stored.Name)
	assert.True(t, stored.BasePrice.Equal(decimal.RequireFromString("299")))
	assert.True(t, stored.MeetingRoomHours.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, 300, stored.PrintingPages)
	assert.Equal(t, 5, stored.GuestPasses)
	assert.False(t, stored.IsActive)
}

func TestUpdatePlanUnknownIDReturnsNotFound(t *testing.T) {
	router, _ := newAdminTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/plans/999", PlanRequest{
		Name:      "Ghost",
		BasePrice: "100",
		NFTPrice:  "50",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateWorkspaceDeactivates(t *testing.T) {
	router, db := newAdminTestServer(t)

	workspace := models.Workspace{
		Name:       "Corner Desk",
		Category:   models.CategoryDesk,
		Capacity:   1,
		HourlyRate: decimal.RequireFromString("15"),
		IsActive:   true,
	}
	require.NoError(t, db.Create(&workspace).Error)

	inactive := false
	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/workspaces/%d", workspace.ID), WorkspaceRequest{
		Name:       "Corner Desk",
		Category:   models.CategoryDesk,
		Capacity:   1,
		HourlyRate: "18",
		IsActive:   &inactive,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored models.Workspace
	require.NoError(t, db.First(&stored, workspace.ID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.HourlyRate.Equal(decimal.RequireFromString("18")))
}

func TestUpdateWorkspaceRejectsNegativeRate(t *testing.T) {
	router, db := newAdminTestServer(t)

	workspace := models.Workspace{
		Name:       "Corner Desk",
		Category:   models.CategoryDesk,
		Capacity:   1,
		HourlyRate: decimal.RequireFromString("15"),
		IsActive:   true,
	}
	require.NoError(t, db.Create(&workspace).Error)

	rec := doJSON(t, router, http.MethodPut, fmt.Sprintf("/workspaces/%d", workspace.ID), WorkspaceRequest{
		Name:       "Corner Desk",
		Category:   models.CategoryDesk,
		HourlyRate: "-5",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMenuItemRemovesFromMenu(t *testing.T) {
	router, db := newAdminTestServer(t)

	item := models.MenuItem{
		Name:        "Flat White",
		Category:    "coffee",
		Price:       decimal.RequireFromString("4.50"),
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&item).Error)

	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/menu/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Deleting again is a miss, not a silent success.
	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/menu/%d", item.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
