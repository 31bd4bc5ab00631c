package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"file-vault-api/internal/application/ports"
)

type fakeLimiter struct {
	decision ports.RateDecision
	err      error
}

func (f fakeLimiter) Allow(context.Context, string) (ports.RateDecision, error) {
	return f.decision, f.err
}

func newRouter(limiter ports.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", Owner(), RateLimit(limiter, zap.NewNop(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, OwnerFrom(c))
	})
	return r
}

func serve(r *gin.Engine, owner string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if owner != "" {
		req.Header.Set(HeaderUserID, owner)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestOwner(t *testing.T) {
	r := newRouter(fakeLimiter{decision: ports.RateDecision{Allowed: true, Limit: 1}})

	rr := serve(r, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"UserId header required","code":"owner_required"}`, rr.Body.String())

	rr = serve(r, "   ")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", rr.Body.String())
}

func TestRateLimit(t *testing.T) {
	reset := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name           string
		limiter        fakeLimiter
		wantStatus     int
		wantRetryAfter string
	}{
		{
			name:       "allowed",
			limiter:    fakeLimiter{decision: ports.RateDecision{Allowed: true, Limit: 2, Remaining: 1, ResetAt: reset}},
			wantStatus: http.StatusOK,
		},
		{
			name: "limited rounds retry up",
			limiter: fakeLimiter{decision: ports.RateDecision{
				Limit: 2, ResetAt: reset, RetryAfter: 1500 * time.Millisecond,
			}},
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "2",
		},
		{
			name: "limited never below one second",
			limiter: fakeLimiter{decision: ports.RateDecision{
				Limit: 2, ResetAt: reset, RetryAfter: 10 * time.Millisecond,
			}},
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "1",
		},
		{
			name:       "limiter failure lets the request through",
			limiter:    fakeLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(newRouter(tt.limiter), "u1")
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantRetryAfter, rr.Header().Get("Retry-After"))

			if tt.limiter.err == nil {
				assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
				assert.Equal(t, "1700000000", rr.Header().Get("X-RateLimit-Reset"))
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.JSONEq(t, `{"error":"Call Limit Reached","code":"rate_limited"}`, rr.Body.String())
			}
		})
	}
}
