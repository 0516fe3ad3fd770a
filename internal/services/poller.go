package services

import (
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/metrics"
	"codejudge/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 60
)

// ResultPoller waits for a batch of executions to reach terminal statuses.
type ResultPoller struct {
	engine      ExecutionEngine
	interval    time.Duration
	maxAttempts int
	metrics     *metrics.Metrics
}

func NewResultPoller(engine ExecutionEngine, interval time.Duration, maxAttempts int, m *metrics.Metrics) *ResultPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	return &ResultPoller{
		engine:      engine,
		interval:    interval,
		maxAttempts: maxAttempts,
		metrics:     m,
	}
}

// Budget is the longest AwaitResults waits between the first and last status query.
func (p *ResultPoller) Budget() time.Duration {
	return p.interval * time.Duration(p.maxAttempts)
}

// AwaitResults re-queries the whole token set until every result is terminal,
// then decodes the payload fields. It never returns a partial result set.
func (p *ResultPoller) AwaitResults(ctx context.Context, tokens []models.ExecutionToken) ([]models.ExecutionResult, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		results, err := p.engine.GetBatch(ctx, tokens)
		if err != nil {
			p.metrics.RecordEngineError("get_batch")
			return nil, fmt.Errorf("failed to query batch status: %w", err)
		}
		if len(results) != len(tokens) {
			p.metrics.RecordEngineError("get_batch")
			return nil, fmt.Errorf("engine returned %d results for %d tokens: %w", len(results), len(tokens), common.ErrEngineUnavailable)
		}

		results = orderByToken(tokens, results)
		if allTerminal(results) {
			p.metrics.RecordPollAttempts(attempt)
			for i := range results {
				decodeResult(&results[i])
			}
			return results, nil
		}

		if attempt >= p.maxAttempts {
			logger.Log.Warn("Batch did not finish within poll budget",
				zap.Int("attempts", attempt),
				zap.Int("executions", len(tokens)))
			return nil, fmt.Errorf("batch still running after %d status queries: %w", attempt, common.ErrJudgeTimeout)
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("deadline reached after %d status queries: %w", attempt, common.ErrJudgeTimeout)
			}
			return nil, fmt.Errorf("polling cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func allTerminal(results []models.ExecutionResult) bool {
	for _, r := range results {
		if !r.IsTerminal() {
			return false
		}
	}
	return true
}

// orderByToken aligns results with the token order when the engine echoes
// tokens back; otherwise the positional order is kept.
func orderByToken(tokens []models.ExecutionToken, results []models.ExecutionResult) []models.ExecutionResult {
	byToken := make(map[models.ExecutionToken]models.ExecutionResult, len(results))
	for _, r := range results {
		if r.Token == "" {
			return results
		}
		byToken[r.Token] = r
	}

	ordered := make([]models.ExecutionResult, len(tokens))
	for i, t := range tokens {
		r, ok := byToken[t]
		if !ok {
			return results
		}
		ordered[i] = r
	}
	return ordered
}

func decodeResult(r *models.ExecutionResult) {
	r.Stdout = DecodePayload(r.Stdout)
	r.Stderr = DecodePayload(r.Stderr)
	r.CompileOutput = DecodePayload(r.CompileOutput)
	r.Message = DecodePayload(r.Message)
}
