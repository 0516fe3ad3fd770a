package handlers

import (
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/middlewares"
	"codejudge/internal/models"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Judge interface {
	SubmitSolution(ctx context.Context, userID, problemID int64, language, code string) (*models.Submission, error)
	RunSolution(ctx context.Context, problemID int64, language, code string) (*models.RunOutcome, error)
	RunCustomInput(ctx context.Context, language, code, stdin string) (*models.ExecutionResult, error)
	EnsureRejudgeable(submission *models.Submission) error
}

type SubmissionReader interface {
	GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error)
	GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int64) ([]models.SubmissionListItem, error)
}

type RejudgeQueue interface {
	Enqueue(ctx context.Context, submissionID int64) error
}

type SubmissionHandler struct {
	judge       Judge
	submissions SubmissionReader
	queue       RejudgeQueue
}

func NewSubmissionHandler(judge Judge, submissions SubmissionReader, queue RejudgeQueue) *SubmissionHandler {
	return &SubmissionHandler{
		judge:       judge,
		submissions: submissions,
		queue:       queue,
	}
}

// SubmitSolution judges code against the hidden test cases and records the verdict.
func (h *SubmissionHandler) SubmitSolution(c *gin.Context) {
	problemID, ok := parseIDParam(c, "id", "Invalid problem ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.ValidateRequest(); err != nil {
		respondError(c, "Invalid submission", err)
		return
	}

	submission, err := h.judge.SubmitSolution(c.Request.Context(), userID, problemID, req.Language, req.Code)
	if err != nil {
		respondError(c, "Failed to judge submission", err,
			zap.Int64("user_id", userID),
			zap.Int64("problem_id", problemID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":                "Submission judged",
		"finalsubmissionResults": submission,
	})
}

// RunSolution runs code against the visible test cases without recording anything.
func (h *SubmissionHandler) RunSolution(c *gin.Context) {
	problemID, ok := parseIDParam(c, "id", "Invalid problem ID")
	if !ok {
		return
	}

	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.ValidateRequest(); err != nil {
		respondError(c, "Invalid run request", err)
		return
	}

	outcome, err := h.judge.RunSolution(c.Request.Context(), problemID, req.Language, req.Code)
	if err != nil {
		respondError(c, "Failed to run code", err,
			append(callerFields(c), zap.Int64("problem_id", problemID))...)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Code executed",
		"verdict": outcome.Verdict,
		"results": outcome.Results,
	})
}

func (h *SubmissionHandler) RunCustomInput(c *gin.Context) {
	var req models.CustomRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := req.ValidateRequest(); err != nil {
		respondError(c, "Invalid run request", err)
		return
	}

	result, err := h.judge.RunCustomInput(c.Request.Context(), req.Language, req.Code, *req.CustomInput)
	if err != nil {
		respondError(c, "Failed to run custom input", err, callerFields(c)...)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Code executed",
		"result":  result,
	})
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	submissionID, ok := parseIDParam(c, "id", "Invalid submission ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	submission, err := h.submissions.GetSubmission(c.Request.Context(), submissionID)
	if err != nil {
		respondError(c, "Failed to get submission", err, zap.Int64("submission_id", submissionID))
		return
	}
	if submission.UserID != userID {
		respondError(c, "Submission belongs to another user",
			fmt.Errorf("submission %d belongs to another user: %w", submissionID, common.ErrForbidden))
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (h *SubmissionHandler) GetUserSubmissions(c *gin.Context) {
	problemID, ok := parseIDParam(c, "id", "Invalid problem ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	submissions, err := h.submissions.GetSubmissionsByUserAndProblem(c.Request.Context(), userID, problemID)
	if err != nil {
		respondError(c, "Failed to get user submissions", err,
			zap.Int64("user_id", userID),
			zap.Int64("problem_id", problemID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"count":       len(submissions),
	})
}

// Rejudge queues a stuck submission for the worker pool. Submissions that may
// still be in their first judging are refused.
func (h *SubmissionHandler) Rejudge(c *gin.Context) {
	submissionID, ok := parseIDParam(c, "id", "Invalid submission ID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	submission, err := h.submissions.GetSubmission(c.Request.Context(), submissionID)
	if err != nil {
		respondError(c, "Failed to get submission", err, zap.Int64("submission_id", submissionID))
		return
	}
	if submission.UserID != userID {
		respondError(c, "Submission belongs to another user",
			fmt.Errorf("submission %d belongs to another user: %w", submissionID, common.ErrForbidden))
		return
	}
	if err := h.judge.EnsureRejudgeable(submission); err != nil {
		respondError(c, "Submission cannot be rejudged yet", err, zap.Int64("submission_id", submissionID))
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), submissionID); err != nil {
		logger.Log.Error("Failed to add submission to Redis stream",
			zap.Int64("submission_id", submissionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue submission"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":       "Submission queued for rejudging",
		"submission_id": submissionID,
	})
}

// RegisterRoutes mounts the judging routes. The run routes accept anonymous
// callers; optionalAuth only identifies a caller when a token is present.
func (h *SubmissionHandler) RegisterRoutes(router gin.IRouter, auth, optionalAuth gin.HandlerFunc) {
	router.POST("/problems/:id/submit", auth, h.SubmitSolution)
	router.POST("/problems/:id/run", optionalAuth, h.RunSolution)
	router.GET("/problems/:id/submissions", auth, h.GetUserSubmissions)
	router.POST("/run", optionalAuth, h.RunCustomInput)

	submissionGroup := router.Group("/submissions", auth)
	{
		submissionGroup.GET("/:id", h.GetSubmission)
		submissionGroup.POST("/:id/rejudge", h.Rejudge)
	}
}

func parseIDParam(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(middlewares.UserContextKey)
	userID, ok := value.(int64)
	if !exists || !ok || userID <= 0 {
		respondError(c, "Authorization token required",
			fmt.Errorf("authorization token required: %w", common.ErrUnauthorized))
		return 0, false
	}
	return userID, true
}

// callerFields tags logs with the caller on routes where auth is optional.
func callerFields(c *gin.Context) []zap.Field {
	if userID, ok := c.Get(middlewares.UserContextKey); ok {
		if id, ok := userID.(int64); ok {
			return []zap.Field{zap.Int64("user_id", id)}
		}
	}
	return []zap.Field{zap.Bool("anonymous", true)}
}

// respondError maps err to a status code. Server-side failures are logged
// and hidden behind message.
func respondError(c *gin.Context, message string, err error, fields ...zap.Field) {
	status := common.HTTPStatusFromError(err)

	var unsupported *common.UnsupportedLanguageError
	if errors.As(err, &unsupported) {
		c.JSON(status, gin.H{
			"error":              unsupported.Error(),
			"supportedLanguages": unsupported.Supported,
		})
		return
	}

	if status >= http.StatusInternalServerError {
		logger.Log.Error(message, append(fields, zap.Error(err))...)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
