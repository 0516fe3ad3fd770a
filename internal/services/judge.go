package services

import (
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/metrics"
	"codejudge/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// rejudgeGrace covers dispatch and persistence on top of the poll budget
// before a pending submission counts as abandoned.
const rejudgeGrace = 30 * time.Second

const (
	pipelineSubmit  = "submit"
	pipelineRun     = "run"
	pipelineCustom  = "custom"
	pipelineRejudge = "rejudge"
)

type ProblemSource interface {
	GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error)
}

// JudgeService runs source code through dispatch, polling and aggregation.
type JudgeService struct {
	problems   ProblemSource
	dispatcher *BatchDispatcher
	poller     *ResultPoller
	lifecycle  *SubmissionLifecycle
	metrics    *metrics.Metrics
}

func NewJudgeService(problems ProblemSource, dispatcher *BatchDispatcher, poller *ResultPoller,
	lifecycle *SubmissionLifecycle, m *metrics.Metrics) *JudgeService {
	return &JudgeService{
		problems:   problems,
		dispatcher: dispatcher,
		poller:     poller,
		lifecycle:  lifecycle,
		metrics:    m,
	}
}

// SubmitSolution grades code against the problem's hidden test cases and
// persists the verdict.
func (s *JudgeService) SubmitSolution(ctx context.Context, userID, problemID int64, language, code string) (*models.Submission, error) {
	languageName, languageID, err := validateSource(language, code)
	if err != nil {
		return nil, err
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return nil, fmt.Errorf("problem %d has no hidden test cases: %w", problemID, common.ErrValidation)
	}

	submissionID, err := s.lifecycle.RecordSubmission(ctx, problemID, userID, languageName, code, len(problem.HiddenTestCases))
	if err != nil {
		return nil, err
	}

	return s.judgeAndFinalize(ctx, pipelineSubmit, &models.Submission{
		ID:        submissionID,
		ProblemID: problemID,
		UserID:    userID,
		Language:  languageName,
		Code:      code,
	}, languageID, problem)
}

// EnsureRejudgeable rejects a submission whose first judging may still be
// polling the engine.
func (s *JudgeService) EnsureRejudgeable(submission *models.Submission) error {
	if submission.FinalizedAt != nil {
		return nil
	}
	window := s.poller.Budget() + rejudgeGrace
	if age := time.Since(submission.CreatedAt); age < window {
		return fmt.Errorf("submission %d was created %s ago, retry after %s: %w",
			submission.ID, age.Round(time.Second), window, common.ErrStillJudging)
	}
	return nil
}

// RejudgeSubmission re-runs a submission that never got a verdict. Accepted
// submissions only get their solved-set entry re-asserted.
func (s *JudgeService) RejudgeSubmission(ctx context.Context, submissionID int64) (*models.Submission, error) {
	submission, err := s.lifecycle.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureRejudgeable(submission); err != nil {
		return nil, err
	}

	if submission.FinalizedAt != nil {
		if submission.Status == models.StatusAccepted {
			if _, err := s.lifecycle.AddSolvedProblem(ctx, submission.UserID, submission.ProblemID); err != nil {
				return nil, err
			}
			return submission, nil
		}
		logger.Log.Info("Skipping rejudge of finalized submission",
			zap.Int64("submission_id", submissionID),
			zap.String("status", submission.Status))
		return submission, nil
	}

	languageID, ok := ResolveLanguage(submission.Language)
	if !ok {
		return nil, &common.UnsupportedLanguageError{Language: submission.Language, Supported: SupportedLanguages()}
	}

	problem, err := s.loadProblem(ctx, submission.ProblemID)
	if err != nil {
		return nil, err
	}

	return s.judgeAndFinalize(ctx, pipelineRejudge, submission, languageID, problem)
}

// RunSolution executes code against the visible test cases only. Nothing is
// persisted.
func (s *JudgeService) RunSolution(ctx context.Context, problemID int64, language, code string) (*models.RunOutcome, error) {
	languageName, languageID, err := validateSource(language, code)
	if err != nil {
		return nil, err
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if len(problem.VisibleTestCases) == 0 {
		return nil, fmt.Errorf("problem %d has no visible test cases: %w", problemID, common.ErrValidation)
	}

	requests := make([]models.ExecutionRequest, len(problem.VisibleTestCases))
	for i, tc := range problem.VisibleTestCases {
		requests[i] = newExecutionRequest(code, languageID, tc.Input, tc.Output, problem)
	}

	results, err := s.execute(ctx, pipelineRun, requests)
	if err != nil {
		return nil, err
	}

	verdict := AggregateResults(results)
	s.metrics.RecordVerdict(languageName, verdict.Status)

	outcome := &models.RunOutcome{
		Verdict: verdict,
		Results: make([]models.TestCaseResult, len(results)),
	}
	for i, r := range results {
		outcome.Results[i] = models.TestCaseResult{
			Input:          problem.VisibleTestCases[i].Input,
			ExpectedOutput: problem.VisibleTestCases[i].Output,
			Stdout:         r.Stdout,
			Stderr:         r.Stderr,
			CompileOutput:  r.CompileOutput,
			Message:        r.Message,
			StatusID:       r.StatusID(),
			Status:         r.StatusDescription(),
			Time:           float64(r.Time),
			Memory:         r.Memory,
		}
	}
	return outcome, nil
}

// RunCustomInput executes code once with caller-supplied stdin and returns
// the decoded result without grading it.
func (s *JudgeService) RunCustomInput(ctx context.Context, language, code, stdin string) (*models.ExecutionResult, error) {
	_, languageID, err := validateSource(language, code)
	if err != nil {
		return nil, err
	}

	request := models.ExecutionRequest{
		SourceCode: code,
		LanguageID: int(languageID),
		Stdin:      stdin,
	}

	results, err := s.execute(ctx, pipelineCustom, []models.ExecutionRequest{request})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (s *JudgeService) judgeAndFinalize(ctx context.Context, pipeline string, submission *models.Submission,
	languageID LanguageID, problem *models.Problem) (*models.Submission, error) {
	requests := make([]models.ExecutionRequest, len(problem.HiddenTestCases))
	for i, tc := range problem.HiddenTestCases {
		requests[i] = newExecutionRequest(submission.Code, languageID, tc.Input, tc.Output, problem)
	}

	var verdict models.Verdict
	results, err := s.execute(ctx, pipeline, requests)
	switch {
	case err == nil:
		verdict = AggregateResults(results)
	case errors.Is(err, common.ErrJudgeTimeout):
		verdict = models.Verdict{
			Status:         models.StatusFailed,
			CompilerErrors: "judging timed out before all test cases finished",
		}
	default:
		logger.Log.Error("Judging failed, submission left pending",
			zap.Int64("submission_id", submission.ID),
			zap.String("pipeline", pipeline),
			zap.Error(err))
		return nil, err
	}

	// the verdict is already paid for; persist it even if the caller went away
	persistCtx := context.WithoutCancel(ctx)
	err = s.lifecycle.FinalizeSubmission(persistCtx, submission.ID, submission.UserID, submission.ProblemID, verdict)
	switch {
	case errors.Is(err, common.ErrAlreadyFinalized):
		// another judging of the same row won; its verdict stands
		logger.Log.Warn("Submission finalized concurrently, returning stored verdict",
			zap.Int64("submission_id", submission.ID),
			zap.String("pipeline", pipeline),
			zap.String("discarded_status", verdict.Status))
	case err != nil:
		return nil, err
	default:
		s.metrics.RecordVerdict(submission.Language, verdict.Status)
	}

	return s.lifecycle.GetSubmission(persistCtx, submission.ID)
}

func (s *JudgeService) execute(ctx context.Context, pipeline string, requests []models.ExecutionRequest) ([]models.ExecutionResult, error) {
	s.metrics.TrackActive(1)
	defer s.metrics.TrackActive(-1)
	start := time.Now()

	tokens, err := s.dispatcher.SubmitBatch(ctx, requests)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDispatch(pipeline, len(requests))

	results, err := s.poller.AwaitResults(ctx, tokens)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveJudge(pipeline, time.Since(start).Seconds())

	return results, nil
}

func (s *JudgeService) loadProblem(ctx context.Context, problemID int64) (*models.Problem, error) {
	problem, err := s.problems.GetProblemByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, fmt.Errorf("problem %d: %w", problemID, common.ErrNotFound)
	}
	return problem, nil
}

func validateSource(language, code string) (string, LanguageID, error) {
	if strings.TrimSpace(language) == "" {
		return "", 0, &common.UnsupportedLanguageError{Language: language, Supported: SupportedLanguages()}
	}
	if strings.TrimSpace(code) == "" {
		return "", 0, fmt.Errorf("code cannot be empty: %w", common.ErrValidation)
	}
	name, ok := CanonicalLanguage(language)
	if !ok {
		return "", 0, &common.UnsupportedLanguageError{Language: language, Supported: SupportedLanguages()}
	}
	return name, languages[name].ID, nil
}

func newExecutionRequest(code string, languageID LanguageID, stdin, expected string, problem *models.Problem) models.ExecutionRequest {
	return models.ExecutionRequest{
		SourceCode:     code,
		LanguageID:     int(languageID),
		Stdin:          stdin,
		ExpectedOutput: expected,
		CPUTimeLimit:   problem.CPUTimeLimit,
		MemoryLimit:    problem.MemoryLimit,
	}
}
