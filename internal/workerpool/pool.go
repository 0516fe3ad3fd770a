package workerpool

import (
	"codejudge/internal/logger"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultBlock = 5 * time.Second

type PoolConfig struct {
	Stream  string
	Group   string
	Workers int
	// Block bounds each XREADGROUP call, and with it how long Stop waits.
	Block time.Duration
}

// RejudgePool feeds queued submission ids to a set of stream consumers.
type RejudgePool struct {
	rdb    *redis.Client
	cfg    PoolConfig
	handle JobHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRejudgePool(rdb *redis.Client, cfg PoolConfig, handle JobHandler) *RejudgePool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Block <= 0 {
		cfg.Block = defaultBlock
	}
	return &RejudgePool{rdb: rdb, cfg: cfg, handle: handle}
}

// Enqueue appends a submission id to the stream.
func (p *RejudgePool) Enqueue(ctx context.Context, submissionID int64) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.cfg.Stream,
		ID:     "*",
		Values: map[string]interface{}{
			submissionIDField: submissionID,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to queue submission %d: %w", submissionID, err)
	}
	return nil
}

func (p *RejudgePool) Start(ctx context.Context) error {
	err := p.rdb.XGroupCreateMkStream(ctx, p.cfg.Stream, p.cfg.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.cfg.Workers; i++ {
		worker := NewWorker(
			fmt.Sprintf("judger-%d-%s", i+1, uuid.NewString()[:8]),
			p.rdb,
			p.cfg.Stream,
			p.cfg.Group,
			p.cfg.Block,
			p.handle,
		)

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			worker.Run(runCtx)
		}()

		logger.Log.Info("Starting rejudge worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Rejudge worker pool started",
		zap.Int("num_workers", p.cfg.Workers),
		zap.String("stream", p.cfg.Stream))

	return nil
}

// Stop cancels all workers and waits for in-flight jobs to finish.
func (p *RejudgePool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	logger.Log.Info("Rejudge worker pool stopped")
}
