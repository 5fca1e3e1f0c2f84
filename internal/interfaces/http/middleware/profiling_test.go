package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		r := gin.New()
		r.Use(Profiling(enabled))
		var reached bool
		r.GET("/koudens/:kouden_id/return-statistics", func(c *gin.Context) {
			reached = true
			c.Status(http.StatusOK)
		})
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/koudens/k1/return-statistics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
