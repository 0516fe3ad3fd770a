package repositories

import (
	"codejudge/internal/models"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	AddSolvedProblem(ctx context.Context, userID, problemID int64) (bool, error)
	GetSolvedProblems(ctx context.Context, userID int64) ([]models.SolvedProblem, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// AddSolvedProblem inserts into the user's solved-set. It reports whether
// the problem was newly added; repeats are no-ops.
func (r *userRepository) AddSolvedProblem(ctx context.Context, userID, problemID int64) (bool, error) {
	return insertSolvedProblem(ctx, r.db, userID, problemID)
}

func (r *userRepository) GetSolvedProblems(ctx context.Context, userID int64) ([]models.SolvedProblem, error) {
	query := `SELECT user_id, problem_id, solved_at FROM user_solved_problems
              WHERE user_id = ? ORDER BY solved_at DESC`

	solved := []models.SolvedProblem{}
	if err := r.db.SelectContext(ctx, &solved, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get solved problems: %w", err)
	}
	return solved, nil
}

// insertSolvedProblem relies on the (user_id, problem_id) primary key.
func insertSolvedProblem(ctx context.Context, execer sqlx.ExecerContext, userID, problemID int64) (bool, error) {
	query := `INSERT IGNORE INTO user_solved_problems (user_id, problem_id) VALUES (?, ?)`

	result, err := execer.ExecContext(ctx, query, userID, problemID)
	if err != nil {
		return false, fmt.Errorf("failed to add solved problem: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
