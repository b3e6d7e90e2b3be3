package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
)

type issueTokenRequest struct {
	MemberID string `json:"member_id" binding:"required"`
	MealType string `json:"meal_type" binding:"required"`
}

// IssueToken handles POST /api/tokens.
func (h *Handler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, member, err := h.store.IssueToken(c.Request.Context(), mw.Organization(c), req.MemberID, model.MealType(req.MealType))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "member": member})
}

// CollectToken handles POST /api/tokens/:id/collect.
func (h *Handler) CollectToken(c *gin.Context) {
	token, err := h.store.CollectToken(c.Request.Context(), mw.Organization(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if h.notifier != nil {
		h.notifier.Dispatch(token.ID)
	}
	c.JSON(http.StatusOK, token)
}

// CancelToken handles POST /api/tokens/:id/cancel.
func (h *Handler) CancelToken(c *gin.Context) {
	token, err := h.store.CancelToken(c.Request.Context(), mw.Organization(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// SearchToken handles GET /api/tokens/search?q=. The query accepts a token
// UUID, a bare number, or a "#"-prefixed number, resolved against today.
func (h *Handler) SearchToken(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	token, err := h.store.FindToken(c.Request.Context(), mw.Organization(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
