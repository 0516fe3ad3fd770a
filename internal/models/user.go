package models

import "time"

// SolvedProblem is one entry of a user's solved-set.
type SolvedProblem struct {
	UserID    int64     `db:"user_id" json:"userId"`
	ProblemID int64     `db:"problem_id" json:"problemId"`
	SolvedAt  time.Time `db:"solved_at" json:"solvedAt"`
}
