package repositories

import (
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error)
	FinalizeSubmission(ctx context.Context, submissionID, userID, problemID int64, verdict models.Verdict) error
	GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int64) ([]models.SubmissionListItem, error)
}

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	query := `INSERT INTO submissions (problem_id, user_id, language, code, status, compiler_errors, total_testcases)
              VALUES (?, ?, ?, ?, ?, '', ?)`

	result, err := r.db.ExecContext(ctx, query,
		submission.ProblemID,
		submission.UserID,
		submission.Language,
		submission.Code,
		submission.Status,
		submission.TotalTestcases,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	submission.ID = id
	return nil
}

func (r *submissionRepository) GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error) {
	query := `SELECT id, problem_id, user_id, language, code, status, run_time, memory_used,
                  compiler_errors, testcase_passed, total_testcases, created_at, updated_at, finalized_at
              FROM submissions WHERE id = ?`

	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %d: %w", submissionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &submission, nil
}

// FinalizeSubmission writes the verdict onto a submission that has not been
// finalized yet and, when accepted, records the problem in the user's
// solved-set. Both writes commit together.
func (r *submissionRepository) FinalizeSubmission(ctx context.Context, submissionID, userID, problemID int64, verdict models.Verdict) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Error("Failed to roll back finalize",
					zap.Int64("submission_id", submissionID),
					zap.Error(rbErr))
			}
		}
	}()

	query := `UPDATE submissions
              SET status = ?, testcase_passed = ?, run_time = ?, memory_used = ?, compiler_errors = ?,
                  finalized_at = CURRENT_TIMESTAMP
              WHERE id = ? AND finalized_at IS NULL`

	result, err := tx.ExecContext(ctx, query,
		verdict.Status,
		verdict.TestcasePassed,
		verdict.RunTime,
		verdict.MemoryUsed,
		verdict.CompilerErrors,
		submissionID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize submission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		var status string
		lookupErr := tx.GetContext(ctx, &status, `SELECT status FROM submissions WHERE id = ?`, submissionID)
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return fmt.Errorf("submission %d: %w", submissionID, common.ErrNotFound)
		}
		if lookupErr != nil {
			return fmt.Errorf("failed to look up submission: %w", lookupErr)
		}
		return fmt.Errorf("submission %d is %s: %w", submissionID, status, common.ErrAlreadyFinalized)
	}

	if verdict.Status == models.StatusAccepted {
		if _, err = insertSolvedProblem(ctx, tx, userID, problemID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit finalize: %w", err)
	}
	return nil
}

func (r *submissionRepository) GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int64) ([]models.SubmissionListItem, error) {
	query := `SELECT id, language, status, testcase_passed, total_testcases, run_time, memory_used, created_at
              FROM submissions
              WHERE user_id = ? AND problem_id = ?
              ORDER BY created_at DESC`

	submissions := []models.SubmissionListItem{}
	if err := r.db.SelectContext(ctx, &submissions, query, userID, problemID); err != nil {
		return nil, fmt.Errorf("failed to get user submissions: %w", err)
	}

	return submissions, nil
}
