package services

import (
	"codejudge/internal/logger"
	"codejudge/internal/models"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SubmissionStore persists submissions. FinalizeSubmission must apply the
// verdict and, for accepted verdicts, the solved-set insert atomically.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error)
	FinalizeSubmission(ctx context.Context, submissionID, userID, problemID int64, verdict models.Verdict) error
}

type SolvedSetStore interface {
	AddSolvedProblem(ctx context.Context, userID, problemID int64) (bool, error)
}

// SubmissionLifecycle owns the pending -> accepted/error/failed transition.
type SubmissionLifecycle struct {
	submissions SubmissionStore
	solved      SolvedSetStore
}

func NewSubmissionLifecycle(submissions SubmissionStore, solved SolvedSetStore) *SubmissionLifecycle {
	return &SubmissionLifecycle{submissions: submissions, solved: solved}
}

func (l *SubmissionLifecycle) RecordSubmission(ctx context.Context, problemID, userID int64, language, code string, totalTestcases int) (int64, error) {
	submission := &models.Submission{
		ProblemID:      problemID,
		UserID:         userID,
		Language:       language,
		Code:           code,
		Status:         models.StatusPending,
		TotalTestcases: totalTestcases,
	}
	if err := l.submissions.CreateSubmission(ctx, submission); err != nil {
		return 0, err
	}

	logger.Log.Info("Submission recorded",
		zap.Int64("submission_id", submission.ID),
		zap.Int64("user_id", userID),
		zap.Int64("problem_id", problemID))

	return submission.ID, nil
}

// FinalizeSubmission writes the verdict exactly once. Accepted verdicts also
// land in the user's solved-set within the same unit of work.
func (l *SubmissionLifecycle) FinalizeSubmission(ctx context.Context, submissionID, userID, problemID int64, verdict models.Verdict) error {
	if err := l.submissions.FinalizeSubmission(ctx, submissionID, userID, problemID, verdict); err != nil {
		return fmt.Errorf("failed to finalize submission %d: %w", submissionID, err)
	}

	logger.Log.Info("Submission finalized",
		zap.Int64("submission_id", submissionID),
		zap.String("status", verdict.Status),
		zap.Int("testcase_passed", verdict.TestcasePassed))

	return nil
}

// AddSolvedProblem is an idempotent insert into the solved-set.
func (l *SubmissionLifecycle) AddSolvedProblem(ctx context.Context, userID, problemID int64) (bool, error) {
	added, err := l.solved.AddSolvedProblem(ctx, userID, problemID)
	if err != nil {
		return false, err
	}
	if added {
		logger.Log.Info("Problem added to solved set",
			zap.Int64("user_id", userID),
			zap.Int64("problem_id", problemID))
	}
	return added, nil
}

func (l *SubmissionLifecycle) GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error) {
	return l.submissions.GetSubmission(ctx, submissionID)
}
