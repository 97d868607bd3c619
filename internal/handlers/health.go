package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"showtalk/internal/db"
)

// Health GET /health
func Health(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := db.Health(conn)
		code := http.StatusOK
		if stats["status"] != "up" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, stats)
	}
}
