package handlers

import (
	"codejudge/internal/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProblemSource interface {
	GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error)
}

type ProblemHandler struct {
	problems  ProblemSource
	languages func() []string
}

func NewProblemHandler(problems ProblemSource, languages func() []string) *ProblemHandler {
	return &ProblemHandler{
		problems:  problems,
		languages: languages,
	}
}

// GetProblemByID returns a problem with its visible test cases. Hidden cases
// are only reported by count.
func (h *ProblemHandler) GetProblemByID(c *gin.Context) {
	problemID, ok := parseIDParam(c, "id", "Invalid problem ID")
	if !ok {
		return
	}

	problem, err := h.problems.GetProblemByID(c.Request.Context(), problemID)
	if err != nil {
		respondError(c, "Failed to retrieve problem details", err, zap.Int64("problem_id", problemID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               problem.ID,
		"title":            problem.Title,
		"cpu_time_limit":   problem.CPUTimeLimit,
		"memory_limit":     problem.MemoryLimit,
		"visibleTestCases": problem.VisibleTestCases,
		"hiddenTestCount":  len(problem.HiddenTestCases),
	})
}

func (h *ProblemHandler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": h.languages()})
}

func (h *ProblemHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/problems/:id", h.GetProblemByID)
	router.GET("/languages", h.GetLanguages)
}
