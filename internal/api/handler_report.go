package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
)

// MealStatusReport handles GET /api/meal-status?start=&end=&member_type=.
// Without an explicit range it reports the last seven days ending today.
func (h *Handler) MealStatusReport(c *gin.Context) {
	end := time.Now()
	if v := c.Query("end"); v != "" {
		parsed, err := time.Parse(model.DateLayout, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid end date, use YYYY-MM-DD"})
			return
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -6)
	if v := c.Query("start"); v != "" {
		parsed, err := time.Parse(model.DateLayout, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid start date, use YYYY-MM-DD"})
			return
		}
		start = parsed
	}

	report, err := h.store.MealStatusReport(c.Request.Context(), mw.Organization(c), start, end, model.MemberType(c.Query("member_type")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListMembers handles GET /api/members?member_type=.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.store.ListMembers(c.Request.Context(), mw.Organization(c), model.MemberType(c.Query("member_type")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetMember handles GET /api/members/:id.
func (h *Handler) GetMember(c *gin.Context) {
	member, err := h.store.GetMember(c.Request.Context(), mw.Organization(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
