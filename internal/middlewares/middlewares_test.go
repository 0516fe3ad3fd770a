package middlewares

import (
	"codejudge/internal/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *services.TokenService) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), ErrorHandlerMiddleware())
	router.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(UserContextKey)})
	})
	router.GET("/maybe", OptionalAuthMiddleware(tokens), func(c *gin.Context) {
		_, ok := c.Get(UserContextKey)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	valid, err := tokens.GenerateAccessToken(7, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	forged, _ := services.NewTokenService("other-secret").GenerateAccessToken(7, "alice")

	tests := []struct {
		name   string
		cookie string
		header string
		want   int
	}{
		{name: "cookie", cookie: valid, want: http.StatusOK},
		{name: "bearer header", header: "Bearer " + valid, want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + forged, want: http.StatusUnauthorized},
		{name: "garbage", cookie: "not-a-jwt", want: http.StatusUnauthorized},
	}
	router := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	router := newAuthRouter(services.NewTokenService("test-secret"))
	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer junk")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRecoveryReturns500WithRequestID(t *testing.T) {
	router := newAuthRouter(services.NewTokenService("test-secret"))
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	router := newAuthRouter(services.NewTokenService("test-secret"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maybe", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}
