package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"showtalk/internal/models"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	r := gin.New()
	r.POST("/w", func(c *gin.Context) {
		if c.GetHeader("X-User") != "" {
			c.Set(CheckUserKey, &models.User{ID: 9})
		}
	}, rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(user bool) int {
		req := httptest.NewRequest(http.MethodPost, "/w", nil)
		if user {
			req.Header.Set("X-User", "1")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, do(false))
	assert.Equal(t, http.StatusTooManyRequests, do(false))
	assert.Equal(t, http.StatusNoContent, do(true), "users are limited separately from their IP")
	assert.Equal(t, http.StatusTooManyRequests, do(true))
}
