package models

import (
	"codejudge/internal/common"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusError    = "error"
	StatusFailed   = "failed"
)

type Submission struct {
	ID             int64     `db:"id" json:"id"`
	ProblemID      int64     `db:"problem_id" json:"problemId"`
	UserID         int64     `db:"user_id" json:"userId"`
	Language       string    `db:"language" json:"language"`
	Code           string    `db:"code" json:"code"`
	Status         string    `db:"status" json:"status"`
	RunTime        float64   `db:"run_time" json:"runtime"`
	MemoryUsed     int       `db:"memory_used" json:"memory"`
	CompilerErrors string    `db:"compiler_errors" json:"errorMessage"`
	TestcasePassed int       `db:"testcase_passed" json:"testCasesPassed"`
	TotalTestcases int       `db:"total_testcases" json:"testCasesTotal"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
	// FinalizedAt is set by the single verdict write.
	FinalizedAt *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`
}

// Verdict is the aggregate outcome of one batch of executions.
type Verdict struct {
	Status         string  `json:"status"`
	TestcasePassed int     `json:"testCasesPassed"`
	RunTime        float64 `json:"runtime"`
	MemoryUsed     int     `json:"memory"`
	CompilerErrors string  `json:"errorMessage"`
}

type SubmissionListItem struct {
	ID             int64     `db:"id" json:"id"`
	Language       string    `db:"language" json:"language"`
	Status         string    `db:"status" json:"status"`
	TestcasePassed int       `db:"testcase_passed" json:"testCasesPassed"`
	TotalTestcases int       `db:"total_testcases" json:"testCasesTotal"`
	RunTime        float64   `db:"run_time" json:"runtime"`
	MemoryUsed     int       `db:"memory_used" json:"memory"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

type SubmissionRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type CustomRunRequest struct {
	Language    string  `json:"language"`
	Code        string  `json:"code"`
	CustomInput *string `json:"customInput"`
}

// TestCaseResult is the per-case view returned by the run-only path.
type TestCaseResult struct {
	Input          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	Stdout         string  `json:"stdout"`
	Stderr         string  `json:"stderr"`
	CompileOutput  string  `json:"compile_output"`
	Message        string  `json:"message"`
	StatusID       int     `json:"status_id"`
	Status         string  `json:"status"`
	Time           float64 `json:"time"`
	Memory         int     `json:"memory"`
}

type RunOutcome struct {
	Verdict Verdict          `json:"verdict"`
	Results []TestCaseResult `json:"testCases"`
}

// ValidateRequest checks the payload shape. The language is left to the
// resolver, whose error lists the supported languages.
func (r *SubmissionRequest) ValidateRequest() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("code cannot be empty: %w", common.ErrValidation)
	}
	return nil
}

func (r *CustomRunRequest) ValidateRequest() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("code cannot be empty: %w", common.ErrValidation)
	}
	if r.CustomInput == nil {
		return fmt.Errorf("customInput is required: %w", common.ErrValidation)
	}
	return nil
}
