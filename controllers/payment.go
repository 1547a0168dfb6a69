package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/services"
)

type PaymentController struct {
	db       *gorm.DB
	payments services.PaymentProvider
}

func NewPaymentController(db *gorm.DB, payments services.PaymentProvider) *PaymentController {
	return &PaymentController{db: db, payments: payments}
}

type RefundRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Amount    string `json:"amount"` // optional decimal; empty = full refund
	Reason    string `json:"reason"`
}

// Refund creates a provider-side refund for a paid booking and marks its
// payment status refunded. Allowed for the booking's owner or staff/admin.
func (pc *PaymentController) Refund(c *gin.Context) {
	callerID := middleware.UserID(c)
	role := middleware.Role(c)

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var booking models.Booking
	if err := pc.db.First(&booking, req.BookingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	isStaff := role == models.RoleStaff || role == models.RoleAdmin
	if !isStaff && (booking.UserID == nil || *booking.UserID != callerID) {
		// Same body as a true miss so ownership probes learn nothing.
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	if booking.PaymentStatus != models.PaymentPaid || booking.StripePaymentIntentID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not paid"})
		return
	}

	amount := booking.TotalPrice
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil || !parsed.IsPositive() || parsed.GreaterThan(booking.TotalPrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refund amount"})
			return
		}
		amount = parsed
	}

	refundID, err := pc.payments.CreateRefund(booking.StripePaymentIntentID, amount, req.Reason)
	if err != nil {
		zap.L().Error("refund failed", zap.Uint("booking_id", booking.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refund failed"})
		return
	}

	if err := pc.db.Model(&booking).Update("payment_status", models.PaymentRefunded).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refund_id":     refundID,
		"booking_id":    booking.ID,
		"refund_amount": amount,
	})
}
