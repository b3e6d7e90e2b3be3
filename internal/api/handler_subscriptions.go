package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cafeteria-backend/internal/model"
	"cafeteria-backend/internal/mw"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
	MemberID string `json:"member_id" binding:"required"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	org := mw.Organization(c)
	if _, err := h.store.GetMember(c.Request.Context(), org, req.MemberID); err != nil {
		respondError(c, err)
		return
	}

	subscription := model.PushSubscription{
		Endpoint:       req.Endpoint,
		OrganizationID: org,
		MemberID:       req.MemberID,
		P256DH:         req.P256DH,
		Auth:           req.Auth,
	}
	err := h.store.DB().WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"organization_id", "member_id", "p256dh", "auth"}),
	}).Create(&subscription).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}
	c.JSON(http.StatusOK, subscription)
}

// GetSubscription handles GET /api/subscriptions?endpoint=.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing endpoint"})
		return
	}

	var subscription model.PushSubscription
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("organization_id = ? AND endpoint = ?", mw.Organization(c), endpoint).
		First(&subscription).Error
	if err == gorm.ErrRecordNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscription"})
		return
	}
	c.JSON(http.StatusOK, subscription)
}

// DeleteSubscription handles DELETE /api/subscriptions?endpoint=.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing endpoint"})
		return
	}

	err := h.store.DB().WithContext(c.Request.Context()).
		Where("organization_id = ? AND endpoint = ?", mw.Organization(c), endpoint).
		Delete(&model.PushSubscription{}).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}
	c.Status(http.StatusNoContent)
}
