package handlers

import (
	"codejudge/internal/models"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SolvedProblemReader interface {
	GetSolvedProblems(ctx context.Context, userID int64) ([]models.SolvedProblem, error)
}

type UserHandler struct {
	solved SolvedProblemReader
}

func NewUserHandler(solved SolvedProblemReader) *UserHandler {
	return &UserHandler{solved: solved}
}

// GetSolvedProblems lists the problems the caller has had accepted.
func (h *UserHandler) GetSolvedProblems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	solved, err := h.solved.GetSolvedProblems(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to retrieve solved problems", err, zap.Int64("user_id", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"solved": solved,
		"count":  len(solved),
	})
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter, auth gin.HandlerFunc) {
	userGroup := router.Group("/users", auth)
	{
		userGroup.GET("/me/solved", h.GetSolvedProblems)
	}
}
