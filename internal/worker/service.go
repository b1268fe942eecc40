package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tilafu/affiliate-drive/internal/config"
	"github.com/tilafu/affiliate-drive/internal/constants"
	"github.com/tilafu/affiliate-drive/internal/logger"
	"github.com/tilafu/affiliate-drive/internal/queue"
	"github.com/tilafu/affiliate-drive/internal/repository"

	"github.com/hibiken/asynq"
)

const defaultUnfreezeSweepInterval = 30 * time.Minute

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
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
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
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
	if s.consumer != nil && s.consumer.DriveService != nil {
		go s.runUnfreezeSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runUnfreezeSweepLoop 周期性复查冻结会话，入金后未触发复查的兜底
func (s *Service) runUnfreezeSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.DriveService == nil {
		return
	}
	interval := defaultUnfreezeSweepInterval
	if s.consumer.Config != nil && s.consumer.Config.Drive.UnfreezeRecheckMins > 0 {
		interval = time.Duration(s.consumer.Config.Drive.UnfreezeRecheckMins) * time.Minute
	}

	runOnce := func() {
		sessions, _, err := s.consumer.DriveService.ListSessions(repository.DriveSessionListFilter{
			Status:   constants.DriveSessionStatusFrozen,
			Page:     1,
			PageSize: 200,
		})
		if err != nil {
			logger.Warnw("worker_unfreeze_sweep_list_failed", "error", err)
			return
		}
		for _, session := range sessions {
			if _, err := s.consumer.DriveService.CheckUnfreeze(session.UserID); err != nil {
				logger.Warnw("worker_unfreeze_sweep_recheck_failed", "user_id", session.UserID, "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
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
