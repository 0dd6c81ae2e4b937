package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func tokenEcho() *gin.Engine {
	r := gin.New()
	r.GET("/t", EmployerAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextEmployerToken))
	})
	return r
}

func TestEmployerAuth(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		headers    map[string]string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer", target: "/t", headers: map[string]string{"Authorization": "Bearer acme"}, wantStatus: http.StatusOK, wantBody: "acme"},
		{name: "header", target: "/t", headers: map[string]string{"X-Employer-Token": "acme"}, wantStatus: http.StatusOK, wantBody: "acme"},
		{name: "websocket query", target: "/t?employer_token=acme", headers: map[string]string{"Upgrade": "websocket"}, wantStatus: http.StatusOK, wantBody: "acme"},
		{name: "query ignored for plain http", target: "/t?employer_token=acme", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", target: "/t", headers: map[string]string{"Authorization": "Bearer  "}, wantStatus: http.StatusUnauthorized},
		{name: "missing", target: "/t", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			tokenEcho().ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(time.Hour)
	l.Allow("3.3.3.3")
	assert.Len(t, l.visitors, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(NewIPRateLimiter(0.001, 1)), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestLogger(l))
	r.GET("/s/:session_id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/s/abc", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "/s/:session_id", entry["path"])
	assert.Equal(t, false, entry["employer"])
}
