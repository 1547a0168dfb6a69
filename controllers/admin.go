package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/services"
)

type AdminController struct {
	db             *gorm.DB
	authService    *services.AuthService
	bookingService *services.BookingService
}

func NewAdminController(db *gorm.DB, authService *services.AuthService, bookingService *services.BookingService) *AdminController {
	return &AdminController{db: db, authService: authService, bookingService: bookingService}
}

// --- Users ---

func (ac *AdminController) GetUsers(c *gin.Context) {
	var users []models.User
	if err := ac.db.Preload("MembershipPlan").Order("created_at DESC").Find(&users).Error; err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type AdminCreateUserRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Name     string          `json:"name" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required,oneof=user staff admin"`
}

func (ac *AdminController) CreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.authService.CreateUser(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required,oneof=user staff admin"`
}

// UpdateRole is the only path that mutates a user's role.
func (ac *AdminController) UpdateRole(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := ac.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := ac.db.Model(&user).Update("role", req.Role).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (ac *AdminController) SetUserActive(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := ac.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", req.IsActive)
	if result.Error != nil {
		serviceError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_active": req.IsActive})
}

// --- Membership plans ---

type PlanRequest struct {
	Name             string `json:"name" binding:"required"`
	BasePrice        string `json:"base_price" binding:"required"`
	NFTPrice         string `json:"nft_price" binding:"required"`
	StripePriceID    string `json:"stripe_price_id"`
	MeetingRoomHours string `json:"meeting_room_hours"`
	PrintingPages    int    `json:"printing_pages"`
	GuestPasses      int    `json:"guest_passes"`
	IsActive         *bool  `json:"is_active"`
}

func (r *PlanRequest) toModel() (*models.MembershipPlan, error) {
	base, err := decimal.NewFromString(r.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid base_price")
	}
	nft, err := decimal.NewFromString(r.NFTPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid nft_price")
	}
	hours := decimal.Zero
	if r.MeetingRoomHours != "" {
		if hours, err = decimal.NewFromString(r.MeetingRoomHours); err != nil {
			return nil, fmt.Errorf("invalid meeting_room_hours")
		}
	}
	return &models.MembershipPlan{
		Name:             r.Name,
		BasePrice:        base,
		NFTPrice:         nft,
		StripePriceID:    r.StripePriceID,
		MeetingRoomHours: hours,
		PrintingPages:    r.PrintingPages,
		GuestPasses:      r.GuestPasses,
		IsActive:         true,
	}, nil
}

func (ac *AdminController) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.db.Create(plan).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

func (ac *AdminController) GetPlans(c *gin.Context) {
	var plans []models.MembershipPlan
	if err := ac.db.Find(&plans).Error; err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// UpdatePlan rewrites a plan's pricing and entitlements. Existing members
// keep their current balances; new amounts apply from the next allocation.
func (ac *AdminController) UpdatePlan(c *gin.Context) {
	planID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var plan models.MembershipPlan
	if err := ac.db.First(&plan, planID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := req.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":               parsed.Name,
		"base_price":         parsed.BasePrice,
		"nft_price":          parsed.NFTPrice,
		"stripe_price_id":    parsed.StripePriceID,
		"meeting_room_hours": parsed.MeetingRoomHours,
		"printing_pages":     parsed.PrintingPages,
		"guest_passes":       parsed.GuestPasses,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := ac.db.Model(&plan).Updates(updates).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// --- Workspaces ---

type WorkspaceRequest struct {
	Name        string                   `json:"name" binding:"required"`
	Description string                   `json:"description"`
	Category    models.WorkspaceCategory `json:"category" binding:"required,oneof=desk meeting_room"`
	Capacity    int                      `json:"capacity"`
	HourlyRate  string                   `json:"hourly_rate" binding:"required"`
	IsActive    *bool                    `json:"is_active"`
}

func (ac *AdminController) CreateWorkspace(c *gin.Context) {
	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hourly_rate"})
		return
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = 1
	}

	workspace := models.Workspace{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Capacity:    capacity,
		HourlyRate:  rate,
		IsActive:    true,
	}
	if err := ac.db.Create(&workspace).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": workspace})
}

func (ac *AdminController) UpdateWorkspace(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	var workspace models.Workspace
	if err := ac.db.First(&workspace, workspaceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hourly_rate"})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"category":    req.Category,
		"hourly_rate": rate,
	}
	if req.Capacity > 0 {
		updates["capacity"] = req.Capacity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := ac.db.Model(&workspace).Updates(updates).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspace": workspace})
}

func (ac *AdminController) GetWorkspaces(c *gin.Context) {
	var workspaces []models.Workspace
	if err := ac.db.Find(&workspaces).Error; err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// --- Menu ---

type MenuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	Price       string `json:"price" binding:"required"`
	IsAvailable *bool  `json:"is_available"`
}

func (ac *AdminController) CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		IsAvailable: available,
	}
	if err := ac.db.Create(&item).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"menu_item": item})
}

func (ac *AdminController) UpdateMenuItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}

	var item models.MenuItem
	if err := ac.db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"category":    req.Category,
		"price":       price,
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if err := ac.db.Model(&item).Updates(updates).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"menu_item": item})
}

func (ac *AdminController) DeleteMenuItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu item id"})
		return
	}

	result := ac.db.Delete(&models.MenuItem{}, itemID)
	if result.Error != nil {
		serviceError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": itemID})
}

// --- Bookings ---

type AdvanceBookingRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

func (ac *AdminController) AdvanceBooking(c *gin.Context) {
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req AdvanceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := ac.bookingService.Advance(uint(bookingID), req.Status)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (ac *AdminController) GetBookings(c *gin.Context) {
	var bookings []models.Booking
	query := ac.db.Preload("User").Preload("Workspace").Order("booking_date DESC, start_time DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("booking_date = ?", date)
	}
	if err := query.Find(&bookings).Error; err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// --- Dashboard ---

func (ac *AdminController) GetDashboard(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var bookingsToday int64
	ac.db.Model(&models.Booking{}).
		Where("booking_date = ? AND status != ?", today, models.BookingCancelled).
		Count(&bookingsToday)

	var ordersToday int64
	ac.db.Model(&models.Order{}).
		Where("created_at >= ? AND status != ?", today, models.OrderCancelled).
		Count(&ordersToday)

	var activeMembers int64
	ac.db.Model(&models.User{}).
		Where("membership_plan_id IS NOT NULL AND is_active = ?", true).
		Count(&activeMembers)

	var revenue struct {
		Total decimal.Decimal
	}
	ac.db.Model(&models.Booking{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("payment_status = ?", models.PaymentPaid).
		Scan(&revenue)

	c.JSON(http.StatusOK, gin.H{
		"bookings_today":  bookingsToday,
		"orders_today":    ordersToday,
		"active_members":  activeMembers,
		"booking_revenue": revenue.Total,
	})
}

// --- Export ---

// ExportBookings streams an xlsx report of bookings, optionally filtered
// with ?month=8&year=2026.
func (ac *AdminController) ExportBookings(c *gin.Context) {
	var bookings []models.Booking
	query := ac.db.Preload("User").Preload("Workspace").Order("booking_date DESC")

	monthStr := c.Query("month")
	yearStr := c.Query("year")
	if monthStr != "" && yearStr != "" {
		month, _ := strconv.Atoi(monthStr)
		year, _ := strconv.Atoi(yearStr)
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		query = query.Where("booking_date >= ? AND booking_date < ?", start, end)
	}

	if err := query.Find(&bookings).Error; err != nil {
		serviceError(c, err)
		return
	}

	f := excelize.NewFile()
	sheet := "Bookings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Reference", "Date", "Start", "End", "Workspace", "Member", "Status", "Payment", "Credits Used", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheet, "A1", "J1", headerStyle)

	for i, b := range bookings {
		row := i + 2
		member := ""
		if b.User != nil {
			member = b.User.Name
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.Reference)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), b.BookingDate.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), b.StartTime)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), b.EndTime)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), b.Workspace.Name)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), member)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), string(b.Status))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), string(b.PaymentStatus))
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), b.CreditsUsed.String())
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), b.TotalPrice.String())
	}

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "D", 12)
	f.SetColWidth(sheet, "E", "F", 20)
	f.SetColWidth(sheet, "G", "J", 14)

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate export"})
	}
}
