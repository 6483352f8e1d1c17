package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	batchSweepInterval = time.Minute
	sweepPageSize      = 200
)

// Service 异步队列服务：asynq 消费 + 满团巡检
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
	loops         sync.WaitGroup
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: batchSweepInterval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.batchRepo != nil {
		s.loops.Add(1)
		go func() {
			defer s.loops.Done()
			s.runBatchSweepLoop(ctx)
		}()
	}
	logger.Infow("worker_start", "sweep_interval", s.sweepInterval.String())
	return s.server.Run(s.mux)
}

// Stop 停止消费并等待巡检循环退出
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	done := make(chan struct{})
	go func() {
		s.loops.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runBatchSweepLoop(ctx context.Context) {
	s.consumer.sweepFilledBatches(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.sweepFilledBatches(ctx)
		}
	}
}
