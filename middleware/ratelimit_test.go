package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rl *RateLimiter, userID interface{}) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != nil {
		router.Use(func(c *gin.Context) {
			c.Set(UserIDKey, userID)
			c.Next()
		})
	}
	router.Use(rl.Limit())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	return router
}

func hit(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, 1*time.Minute)

	assert.NotNil(t, rl)
	assert.Equal(t, 5, rl.rate)
	assert.Equal(t, 1*time.Minute, rl.window)
	assert.NotNil(t, rl.visitors)
}

func TestRateLimiter_MultipleRequestsWithinLimit(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(5, time.Minute), nil)

	for i := 0; i < 5; i++ {
		w := hit(router, "127.0.0.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(3, time.Minute), nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "127.0.0.1:12345").Code)
	}

	w := hit(router, "127.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, time.Minute), nil)

	assert.Equal(t, http.StatusOK, hit(router, "192.168.1.1:12345").Code)
	assert.Equal(t, http.StatusOK, hit(router, "192.168.1.2:12345").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "192.168.1.1:12345").Code)
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	router := newLimitedRouter(rl, 42)

	assert.Equal(t, http.StatusOK, hit(router, "10.0.0.1:1").Code)
	// Same user from another address shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "10.0.0.2:1").Code)
	assert.Contains(t, rl.visitors, "user:42")
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	router := newLimitedRouter(rl, nil)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "127.0.0.1:12345").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "127.0.0.1:12345").Code)

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, hit(router, "127.0.0.1:12345").Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	_, ok := rl.allow("ip:1")
	assert.True(t, ok)
	now = now.Add(3 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

func TestClassifyRateLimiter(t *testing.T) {
	rl := ClassifyRateLimiter()
	assert.Equal(t, 10, rl.rate)
	assert.Equal(t, time.Minute, rl.window)
}
