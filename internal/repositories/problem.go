package repositories

import (
	"codejudge/internal/cache"
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ProblemRepository interface {
	GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error)
}

type problemRepository struct {
	db       *sqlx.DB
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewProblemRepository(db *sqlx.DB, c cache.Cache, cacheTTL time.Duration) ProblemRepository {
	return &problemRepository{db: db, cache: c, cacheTTL: cacheTTL}
}

type testCaseRow struct {
	Input       string         `db:"input"`
	Output      string         `db:"expected_output"`
	Explanation sql.NullString `db:"explanation"`
	IsHidden    bool           `db:"is_hidden"`
}

func problemCacheKey(problemID int64) string {
	return fmt.Sprintf("problem:%d:judge", problemID)
}

// GetProblemByID loads a problem with its visible and hidden test cases.
// A missing problem is reported as common.ErrNotFound.
func (r *problemRepository) GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error) {
	key := problemCacheKey(problemID)
	if r.cache != nil {
		var cached models.Problem
		if err := r.cache.Get(ctx, key, &cached); err == nil {
			logger.Log.Debug("Cache hit, returning problem", zap.Int64("problem_id", problemID))
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logger.Log.Warn("Problem cache read failed", zap.Int64("problem_id", problemID), zap.Error(err))
		}
	}

	query := `SELECT id, title, cpu_time_limit, memory_limit FROM problems WHERE id = ?`

	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, problemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem %d: %w", problemID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	casesQuery := `SELECT input, expected_output, explanation, is_hidden
              FROM test_cases WHERE problem_id = ? ORDER BY position, id`

	var rows []testCaseRow
	if err := r.db.SelectContext(ctx, &rows, casesQuery, problemID); err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}

	problem.VisibleTestCases = make([]models.VisibleTestCase, 0, len(rows))
	problem.HiddenTestCases = make([]models.HiddenTestCase, 0, len(rows))
	for _, row := range rows {
		if row.IsHidden {
			problem.HiddenTestCases = append(problem.HiddenTestCases, models.HiddenTestCase{
				Input:  row.Input,
				Output: row.Output,
			})
			continue
		}
		problem.VisibleTestCases = append(problem.VisibleTestCases, models.VisibleTestCase{
			Input:       row.Input,
			Output:      row.Output,
			Explanation: row.Explanation.String,
		})
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, &problem, r.cacheTTL); err != nil {
			logger.Log.Warn("Problem cache write failed", zap.Int64("problem_id", problemID), zap.Error(err))
		}
	}

	return &problem, nil
}
