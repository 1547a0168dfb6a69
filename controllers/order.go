package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/services"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type CreateOrderRequest struct {
	Items []services.OrderLineInput `json:"items" binding:"required,min=1,dive"`
	Notes string                    `json:"notes"`
}

func (oc *OrderController) Create(c *gin.Context) {
	userID := middleware.UserID(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := oc.orderService.CreateOrder(userID, &services.CreateOrderInput{
		Items: req.Items,
		Notes: req.Notes,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (oc *OrderController) List(c *gin.Context) {
	userID := middleware.UserID(c)

	orders, err := oc.orderService.GetUserOrders(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (oc *OrderController) Cancel(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := oc.orderService.CancelOrder(uint(orderID), userID, role)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

type AdvanceOrderRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// AdvanceStatus is the staff endpoint that walks an order through
// preparing → ready → completed.
func (oc *OrderController) AdvanceStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := oc.orderService.AdvanceStatus(uint(orderID), req.Status)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
