package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultSyncSweepInterval = time.Minute
	defaultSyncSweepBatch    = 50
)

// Service asynchronous queue service
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
	sweepBatch    int
}

// NewService creates the queue service
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

	sweepInterval := defaultSyncSweepInterval
	if cfg.SweepIntervalSeconds > 0 {
		sweepInterval = time.Duration(cfg.SweepIntervalSeconds) * time.Second
	}
	sweepBatch := cfg.SweepBatchSize
	if sweepBatch <= 0 {
		sweepBatch = defaultSyncSweepBatch
	}

	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: sweepInterval,
		sweepBatch:    sweepBatch,
	}, nil
}

// Name service name
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start starts the service
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.ShipmentService != nil {
		go s.runSyncSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop stops the service
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runSyncSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.ShipmentService == nil {
		return
	}
	runOnce := func() {
		swept, err := s.consumer.ShipmentService.SweepSync(ctx, s.sweepBatch)
		if err != nil {
			logger.Warnw("worker_sync_sweep_failed", "error", err)
			return
		}
		if swept > 0 {
			logger.Infow("worker_sync_sweep_done", "shipments", swept)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
