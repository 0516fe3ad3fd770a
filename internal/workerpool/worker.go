package workerpool

import (
	"context"
	"errors"
	"strconv"
	"time"

	"codejudge/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const submissionIDField = "submission_id"

// JobHandler re-runs judging for one submission.
type JobHandler func(ctx context.Context, submissionID int64) error

type Worker struct {
	id     string
	rdb    *redis.Client
	stream string
	group  string
	block  time.Duration
	handle JobHandler
}

func NewWorker(id string, rdb *redis.Client, stream, group string, block time.Duration, handle JobHandler) *Worker {
	return &Worker{
		id:     id,
		rdb:    rdb,
		stream: stream,
		group:  group,
		block:  block,
		handle: handle,
	}
}

// Run consumes the stream until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.group,
			Consumer: w.id,
			Streams:  []string{w.stream, ">"},
			Count:    1,
			Block:    w.block,
		}).Result()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				logger.Log.Error("Redis operation failed",
					zap.String("worker_id", w.id),
					zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.block):
				}
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.processJob(ctx, msg)
			}
		}
	}
}

func (w *Worker) processJob(ctx context.Context, msg redis.XMessage) {
	logger.Log.Info("Processing rejudge job",
		zap.String("worker_id", w.id),
		zap.String("job_id", msg.ID))

	defer func() {
		// a failed rejudge leaves the row pending so it can be queued again
		if err := w.rdb.XAck(context.WithoutCancel(ctx), w.stream, w.group, msg.ID).Err(); err != nil {
			logger.Log.Error("Failed to acknowledge job",
				zap.String("worker_id", w.id),
				zap.String("job_id", msg.ID),
				zap.Error(err))
		}
	}()

	submissionID, err := parseSubmissionID(msg.Values[submissionIDField])
	if err != nil {
		logger.Log.Error("Invalid submission ID in message",
			zap.String("worker_id", w.id),
			zap.Any("values", msg.Values),
			zap.Error(err))
		return
	}

	start := time.Now()
	if err := w.handle(ctx, submissionID); err != nil {
		logger.Log.Error("Rejudge failed",
			zap.String("worker_id", w.id),
			zap.Int64("submission_id", submissionID),
			zap.Error(err))
		return
	}

	logger.Log.Info("Finished rejudge job",
		zap.String("worker_id", w.id),
		zap.String("job_id", msg.ID),
		zap.Int64("submission_id", submissionID),
		zap.Duration("elapsed", time.Since(start)))
}

func parseSubmissionID(value interface{}) (int64, error) {
	raw, ok := value.(string)
	if !ok {
		return 0, errors.New("submission_id is not a string")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("submission_id must be positive")
	}
	return id, nil
}
