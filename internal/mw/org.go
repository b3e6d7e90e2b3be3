package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OrgHeader is the request header carrying the tenant identifier, supplied by
// the authentication boundary in front of this service.
const OrgHeader = "X-Organization-ID"

const orgContextKey = "organization_id"

// RequireOrganization rejects requests without an organization identifier.
// Core operations are meaningless without a tenant scope.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := c.GetHeader(OrgHeader)
		if org == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing organization"})
			return
		}
		c.Set(orgContextKey, org)
		c.Next()
	}
}

// Organization returns the tenant identifier set by RequireOrganization.
func Organization(c *gin.Context) string {
	return c.GetString(orgContextKey)
}
