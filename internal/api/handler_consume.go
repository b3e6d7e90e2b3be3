package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
	"cafeteria-backend/internal/store"
)

type consumeRequest struct {
	MealType string `json:"meal_type" binding:"required"`
	Notes    string `json:"notes"`
}

// Consume handles POST /api/packages/:id/consume.
func (h *Handler) Consume(c *gin.Context) {
	id, ok := packageID(c)
	if !ok {
		return
	}
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.store.Consume(c.Request.Context(), mw.Organization(c), id, model.MealType(req.MealType), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

type manualConfirmRequest struct {
	MemberID     string `json:"member_id" binding:"required"`
	Date         string `json:"date" binding:"required"`
	MealType     string `json:"meal_type" binding:"required"`
	MenuOptionID *int64 `json:"menu_option_id"`
	Notes        string `json:"notes"`
}

// ManualConfirm handles POST /api/meal-status/confirm, the admin override for
// retroactively marking a meal as taken.
func (h *Handler) ManualConfirm(c *gin.Context) {
	var req manualConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(model.DateLayout, req.Date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date, use YYYY-MM-DD"})
		return
	}

	result, err := h.store.ManualConfirm(c.Request.Context(), mw.Organization(c), store.ManualConfirmInput{
		MemberID:     req.MemberID,
		Date:         date,
		MealType:     model.MealType(req.MealType),
		MenuOptionID: req.MenuOptionID,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
