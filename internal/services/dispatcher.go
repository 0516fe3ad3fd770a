package services

import (
	"codejudge/internal/common"
	"codejudge/internal/logger"
	"codejudge/internal/metrics"
	"codejudge/internal/models"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BatchDispatcher submits one submission's full test-case set as a single batch.
type BatchDispatcher struct {
	engine  ExecutionEngine
	metrics *metrics.Metrics
}

func NewBatchDispatcher(engine ExecutionEngine, m *metrics.Metrics) *BatchDispatcher {
	return &BatchDispatcher{engine: engine, metrics: m}
}

// SubmitBatch encodes the payload fields and returns one token per request,
// in request order. Failures are not retried.
func (d *BatchDispatcher) SubmitBatch(ctx context.Context, requests []models.ExecutionRequest) ([]models.ExecutionToken, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("batch has no executions: %w", common.ErrValidation)
	}

	encoded := make([]models.ExecutionRequest, len(requests))
	for i, req := range requests {
		req.SourceCode = EncodePayload(req.SourceCode)
		req.Stdin = EncodePayload(req.Stdin)
		req.ExpectedOutput = EncodePayload(req.ExpectedOutput)
		encoded[i] = req
	}

	tokens, err := d.engine.SubmitBatch(ctx, encoded)
	if err != nil {
		d.metrics.RecordEngineError("submit_batch")
		return nil, fmt.Errorf("failed to submit batch: %w", err)
	}
	if len(tokens) != len(requests) {
		d.metrics.RecordEngineError("submit_batch")
		return nil, fmt.Errorf("engine returned %d tokens for %d executions: %w", len(tokens), len(requests), common.ErrEngineUnavailable)
	}

	logger.Log.Debug("Batch dispatched", zap.Int("executions", len(requests)))

	return tokens, nil
}
