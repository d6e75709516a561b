package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	}
	r.GET("/ping", handler)
	r.POST("/ping", handler)
	return r
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"client id kept", "abc-123_x.y", true},
		{"too long replaced", strings.Repeat("a", requestIDMaxLen+1), false},
		{"unsafe characters replaced", "id\nforged=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(RequestID())
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" {
				t.Fatal("expected a request id header")
			}
			if (got == tt.incoming) != tt.keep {
				t.Errorf("request id = %q, incoming %q, keep %v", got, tt.incoming, tt.keep)
			}
		})
	}
}

// ── CORS ──

func TestCORS_Preflight(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:5173/"}))

	req := httptest.NewRequest("OPTIONS", "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("allow origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Errorf("PATCH must be allowed")
	}
}

func TestCORS_UnknownOrigin(t *testing.T) {
	r := newEngine(CORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest("OPTIONS", "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("preflight from unknown origin: expected 403, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unknown origin must not be echoed")
	}
}

// ── SecurityHeaders ──

func TestSecurityHeaders_HSTSOnlyBehindTLS(t *testing.T) {
	r := newEngine(SecurityHeaders())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("expected nosniff")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS must not be sent over plain http")
	}

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Errorf("expected HSTS behind a TLS proxy")
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := newEngine(BodyLimit(16))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/ping", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/ping", strings.NewReader("{}")))
	if w.Code != http.StatusOK {
		t.Errorf("small body: expected 200, got %d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit_WithoutRedisPassesThrough(t *testing.T) {
	r := newEngine(RateLimit(nil, 1, time.Minute, zap.NewNop()))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "middleware-test-secret-123", AccessTokenTTL: time.Minute})
	token, err := mgr.GenerateAccessToken("u1", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	expired, err := jwt.NewManager(&config.AuthConfig{JWTSecret: "middleware-test-secret-123", AccessTokenTTL: -time.Minute}).
		GenerateAccessToken("u1", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(JWTAuth(mgr, nil, zap.NewNop()))
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantCode == http.StatusOK && !strings.Contains(w.Body.String(), `"u1"`) {
				t.Errorf("caller id not injected: %s", w.Body.String())
			}
		})
	}
}
