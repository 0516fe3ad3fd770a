package server

import (
	"codejudge/internal/handlers"
	"codejudge/internal/metrics"
	"codejudge/internal/models"
	"codejudge/internal/services"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type noProblems struct{}

func (noProblems) GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error) {
	return &models.Problem{ID: problemID}, nil
}

func TestRouterServesHealthMetricsAndGuardsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	m.RecordVerdict("python", models.StatusAccepted)

	router := NewRouter(Handlers{
		Submissions: handlers.NewSubmissionHandler(nil, nil, nil),
		Problems:    handlers.NewProblemHandler(noProblems{}, services.SupportedLanguages),
		Users:       handlers.NewUserHandler(nil),
		Tokens:      services.NewTokenService("secret"),
		Metrics:     m,
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	if w := get("/health"); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	if w := get("/metrics"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "judge_verdicts_total") {
		t.Fatalf("metrics: unexpected response %d", w.Code)
	}
	if w := get("/languages"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "python") {
		t.Fatalf("languages: unexpected response %d %s", w.Code, w.Body.String())
	}
	if w := get("/users/me/solved"); w.Code != http.StatusUnauthorized {
		t.Fatalf("solved list without token: expected 401, got %d", w.Code)
	}
	if w := get("/submissions/1"); w.Code != http.StatusUnauthorized {
		t.Fatalf("submission without token: expected 401, got %d", w.Code)
	}

	// run routes take an optional token; a blank program is rejected before judging
	for _, header := range []string{"", "Bearer junk"} {
		req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"language":"python","code":" ","customInput":""}`))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("run with auth %q: expected 400, got %d", header, w.Code)
		}
	}
}
