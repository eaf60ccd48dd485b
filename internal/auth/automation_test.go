package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(secret, header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/bulk", RequireBearer(secret), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/bulk", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireBearer(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"lowercase scheme", "s3cret", "bearer s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"empty configured secret", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.secret, tt.header)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}
