package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/services"
)

type BookingController struct {
	bookingService *services.BookingService
}

func NewBookingController(bookingService *services.BookingService) *BookingController {
	return &BookingController{bookingService: bookingService}
}

type CreateBookingRequest struct {
	WorkspaceID     uint   `json:"workspace_id" binding:"required"`
	BookingDate     string `json:"booking_date" binding:"required"` // YYYY-MM-DD
	StartTime       string `json:"start_time" binding:"required"`   // HH:MM
	EndTime         string `json:"end_time" binding:"required"`
	Attendees       int    `json:"attendees"`
	SpecialRequests string `json:"special_requests"`
}

func (bc *BookingController) Create(c *gin.Context) {
	userID := middleware.UserID(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := bc.bookingService.CreateBooking(userID, &services.CreateBookingInput{
		WorkspaceID:     req.WorkspaceID,
		BookingDate:     req.BookingDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Attendees:       req.Attendees,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (bc *BookingController) List(c *gin.Context) {
	userID := middleware.UserID(c)

	bookings, err := bc.bookingService.GetUserBookings(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (bc *BookingController) Cancel(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	result, err := bc.bookingService.CancelBooking(uint(bookingID), userID, role)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
