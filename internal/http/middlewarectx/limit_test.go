package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/models"
)

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	do := func(remote string, user *models.User) int {
		req := httptest.NewRequest(http.MethodGet, "/rates", nil)
		req.RemoteAddr = remote
		if user != nil {
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000", nil))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001", nil))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002", nil), "same IP, different port")

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000", nil), "other IP has its own budget")

	u := &models.User{UUID: "uid-1"}
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1003", u), "authenticated user keyed by uid")
}
