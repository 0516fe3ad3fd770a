package services

import (
	"codejudge/internal/common"
	"codejudge/internal/models"
	"context"
	"fmt"
	"sync"
	"time"
)

type submittedCase struct {
	index   int
	request models.ExecutionRequest
}

// fakeEngine decodes what it receives and answers status queries from
// resolve. The first pendingPolls status queries report every execution as
// still processing.
type fakeEngine struct {
	mu sync.Mutex

	resolve      func(index int, req models.ExecutionRequest) models.ExecutionResult
	pendingPolls int
	reverse      bool
	dropToken    bool
	submitErr    error
	getErr       error

	batches  [][]models.ExecutionRequest
	cases    map[models.ExecutionToken]submittedCase
	getCalls int
	nextID   int
}

func newFakeEngine(resolve func(int, models.ExecutionRequest) models.ExecutionResult) *fakeEngine {
	return &fakeEngine{resolve: resolve, cases: map[models.ExecutionToken]submittedCase{}}
}

func (e *fakeEngine) SubmitBatch(ctx context.Context, requests []models.ExecutionRequest) ([]models.ExecutionToken, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.batches = append(e.batches, requests)
	if e.submitErr != nil {
		return nil, e.submitErr
	}

	tokens := make([]models.ExecutionToken, 0, len(requests))
	for i, req := range requests {
		e.nextID++
		token := models.ExecutionToken(fmt.Sprintf("tok-%d", e.nextID))
		req.SourceCode = DecodePayload(req.SourceCode)
		req.Stdin = DecodePayload(req.Stdin)
		req.ExpectedOutput = DecodePayload(req.ExpectedOutput)
		e.cases[token] = submittedCase{index: i, request: req}
		tokens = append(tokens, token)
	}
	if e.dropToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens, nil
}

func (e *fakeEngine) GetBatch(ctx context.Context, tokens []models.ExecutionToken) ([]models.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.getCalls++
	if e.getErr != nil {
		return nil, e.getErr
	}

	results := make([]models.ExecutionResult, len(tokens))
	for i, token := range tokens {
		c := e.cases[token]
		if e.getCalls <= e.pendingPolls {
			results[i] = models.ExecutionResult{
				Token:  token,
				Status: &models.ExecutionStatus{ID: models.EngineStatusProcessing, Description: "Processing"},
			}
			continue
		}
		r := e.resolve(c.index, c.request)
		r.Token = token
		r.Stdout = EncodePayload(r.Stdout)
		r.Stderr = EncodePayload(r.Stderr)
		r.CompileOutput = EncodePayload(r.CompileOutput)
		r.Message = EncodePayload(r.Message)
		results[i] = r
	}

	if e.reverse {
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
	}
	return results, nil
}

func (e *fakeEngine) submittedBatches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

// echoProgram prints its stdin, so a case passes when expected equals stdin.
func echoProgram(_ int, req models.ExecutionRequest) models.ExecutionResult {
	if req.ExpectedOutput != "" && req.ExpectedOutput != req.Stdin {
		return models.ExecutionResult{
			Status: &models.ExecutionStatus{ID: models.EngineStatusFailed, Description: "Wrong Answer"},
			Stdout: req.Stdin,
			Time:   0.01,
			Memory: 900,
		}
	}
	return models.ExecutionResult{
		Status: &models.ExecutionStatus{ID: models.EngineStatusAccepted, Description: "Accepted"},
		Stdout: req.Stdin,
		Time:   0.01,
		Memory: 900,
	}
}

type memoryStore struct {
	mu          sync.Mutex
	nextID      int64
	submissions map[int64]models.Submission
	solved      map[[2]int64]bool
	finalized   int
	finalizeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		submissions: map[int64]models.Submission{},
		solved:      map[[2]int64]bool{},
	}
}

func (s *memoryStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	submission.ID = s.nextID
	submission.CreatedAt = time.Now()
	s.submissions[submission.ID] = *submission
	return nil
}

func (s *memoryStore) GetSubmission(ctx context.Context, submissionID int64) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission %d: %w", submissionID, common.ErrNotFound)
	}
	return &sub, nil
}

func (s *memoryStore) FinalizeSubmission(ctx context.Context, submissionID, userID, problemID int64, verdict models.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizeErr != nil {
		return s.finalizeErr
	}
	sub, ok := s.submissions[submissionID]
	if !ok {
		return common.ErrNotFound
	}
	if sub.FinalizedAt != nil {
		return common.ErrAlreadyFinalized
	}
	now := time.Now()
	sub.FinalizedAt = &now
	sub.Status = verdict.Status
	sub.TestcasePassed = verdict.TestcasePassed
	sub.RunTime = verdict.RunTime
	sub.MemoryUsed = verdict.MemoryUsed
	sub.CompilerErrors = verdict.CompilerErrors
	s.submissions[submissionID] = sub
	if verdict.Status == models.StatusAccepted {
		s.solved[[2]int64{userID, problemID}] = true
	}
	s.finalized++
	return nil
}

func (s *memoryStore) AddSolvedProblem(ctx context.Context, userID, problemID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, problemID}
	if s.solved[key] {
		return false, nil
	}
	s.solved[key] = true
	return true, nil
}

// backdate makes a recorded submission look older than it is.
func (s *memoryStore) backdate(submissionID int64, by time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.submissions[submissionID]
	sub.CreatedAt = sub.CreatedAt.Add(-by)
	s.submissions[submissionID] = sub
}

func (s *memoryStore) isSolved(userID, problemID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solved[[2]int64{userID, problemID}]
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

type problemMap map[int64]*models.Problem

func (p problemMap) GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error) {
	problem, ok := p[problemID]
	if !ok {
		return nil, fmt.Errorf("problem %d: %w", problemID, common.ErrNotFound)
	}
	return problem, nil
}

// nilProblems mimics a lookup that reports success without a problem.
type nilProblems struct{}

func (nilProblems) GetProblemByID(ctx context.Context, problemID int64) (*models.Problem, error) {
	return nil, nil
}
