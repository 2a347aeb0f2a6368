package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(perMin int, userID *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(perMin)
	r := gin.New()
	if userID != nil {
		r.Use(func(c *gin.Context) {
			c.Set(ContextUserID, *userID)
			c.Next()
		})
	}
	r.POST("/join", rl.Limit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doPost(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/join", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	r := newLimitedRouter(3, nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doPost(r, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, doPost(r, "10.0.0.1"))
}

func TestRateLimiterKeysByCaller(t *testing.T) {
	r := newLimitedRouter(1, nil)

	assert.Equal(t, http.StatusOK, doPost(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doPost(r, "10.0.0.1"))

	// A different caller has its own bucket.
	assert.Equal(t, http.StatusOK, doPost(r, "10.0.0.2"))
}

func TestRateLimiterKeysByUserID(t *testing.T) {
	userID := uuid.New()
	r := newLimitedRouter(1, &userID)

	// Same user from different addresses shares one bucket.
	assert.Equal(t, http.StatusOK, doPost(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doPost(r, "10.0.0.2"))
}
