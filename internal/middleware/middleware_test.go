package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		ClientID: "ui-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(secret))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("client"))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	valid := signToken(t, testSecret, time.Hour)

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing token", "/ping", "", http.StatusUnauthorized},
		{"valid header", "/ping", "Bearer " + valid, http.StatusOK},
		{"valid query", "/ping?token=" + valid, "", http.StatusOK},
		{"wrong secret", "/ping", "Bearer " + signToken(t, "other", time.Hour), http.StatusUnauthorized},
		{"expired", "/ping", "Bearer " + signToken(t, testSecret, -time.Minute), http.StatusUnauthorized},
		{"malformed header", "/ping", "Token " + valid, http.StatusUnauthorized},
	}

	r := authRouter(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && w.Body.String() != "ui-1" {
				t.Fatalf("client = %q, want ui-1", w.Body.String())
			}
		})
	}
}

func TestJWTAuthDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	authRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst of two should be allowed")
	}
	if rl.Allow("a") {
		t.Fatal("third request in the same instant should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Fatal("a token should refill after one second")
	}

	now = now.Add(2 * time.Minute)
	rl.Allow("c")
	rl.mu.Lock()
	_, kept := rl.limiters["a"]
	rl.mu.Unlock()
	if kept {
		t.Fatal("idle buckets should be dropped")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(0.001, 1, 0)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 429]", codes)
	}
}
