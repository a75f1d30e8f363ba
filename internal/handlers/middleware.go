package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	tenantCookieName = "secretsanta_id"
	tenantHeader     = "X-Tenant-ID"
	adminHeader      = "X-Admin-Token"
	tenantKey        = "tenantID"
)

// TenantMiddleware identifies the draw instance a request belongs to. API
// clients name it with the X-Tenant-ID header; browsers get a cookie.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenantHeader)
		if tenantID == "" {
			if cookie, err := c.Cookie(tenantCookieName); err == nil && cookie != "" {
				tenantID = cookie
			}
		}
		if tenantID == "" {
			tenantID = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     tenantCookieName,
				Value:    tenantID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

// AdminMiddleware guards routes that reveal the whole draw.
func (h *HTTPHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.opts.AdminToken == "" {
			failWith(c, http.StatusForbidden, "admin routes are disabled")
			return
		}
		if c.GetHeader(adminHeader) != h.opts.AdminToken {
			failWith(c, http.StatusUnauthorized, "invalid admin token")
			return
		}
		c.Next()
	}
}

func tenantFrom(c *gin.Context) string {
	return c.GetString(tenantKey)
}
