package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/middleware"
	"github.com/hearthworks/hearth-be/models"
	"github.com/hearthworks/hearth-be/services"
)

type UserController struct {
	db            *gorm.DB
	creditService *services.CreditService
}

func NewUserController(db *gorm.DB, creditService *services.CreditService) *UserController {
	return &UserController{db: db, creditService: creditService}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	var user models.User
	if err := uc.db.Preload("MembershipPlan").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := uc.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) > 0 {
		if err := uc.db.Model(&user).Updates(updates).Error; err != nil {
			serviceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetCredits returns the caller's per-type balance summary.
func (uc *UserController) GetCredits(c *gin.Context) {
	userID := middleware.UserID(c)

	summary, err := uc.creditService.GetBalance(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (uc *UserController) GetCreditTransactions(c *gin.Context) {
	userID := middleware.UserID(c)

	transactions, err := uc.creditService.ListTransactions(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// LinkWallet records the user's wallet address. The NFT-holder flag flips
// only once staff verifies the wallet (VerifyWallet below), never here.
func (uc *UserController) LinkWallet(c *gin.Context) {
	userID := middleware.UserID(c)

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"wallet_address": req.WalletAddress,
		"nft_holder":     false,
	}
	if err := uc.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "wallet linked, pending verification"})
}

// VerifyWallet (staff/admin) marks a linked wallet as a verified token
// holder, enabling the NFT discount.
func (uc *UserController) VerifyWallet(c *gin.Context) {
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
		Holder bool `json:"holder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := uc.db.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.WalletAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user has no linked wallet"})
		return
	}

	if err := uc.db.Model(&user).Update("nft_holder", req.Holder).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "nft_holder": req.Holder})
}

// GetWorkspaces lists active workspaces for the public booking wizard.
func (uc *UserController) GetWorkspaces(c *gin.Context) {
	var workspaces []models.Workspace
	if err := uc.db.Where("is_active = ?", true).Find(&workspaces).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetMenu lists available cafe items.
func (uc *UserController) GetMenu(c *gin.Context) {
	var items []models.MenuItem
	query := uc.db.Where("is_available = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Order("category, name").Find(&items).Error; err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"menu": items})
}
