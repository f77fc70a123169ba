package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AvailabilityPurger удаляет прошедшие окна доступности
type AvailabilityPurger interface {
	PurgeExpiredAvailability(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	purger   AvailabilityPurger
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(purger AvailabilityPurger, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		purger:   purger,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("purge_interval", s.interval))

	go s.runPurgeTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runPurgeTask периодически удаляет окна доступности с прошедшей датой
func (s *Scheduler) runPurgeTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.purge(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge(ctx)
		case <-s.stopChan:
			s.logger.Info("Availability purge task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Availability purge task cancelled")
			return
		}
	}
}

func (s *Scheduler) purge(ctx context.Context) {
	count, err := s.purger.PurgeExpiredAvailability(ctx)
	if err != nil {
		s.logger.Error("Failed to purge expired availability", zap.Error(err))
		return
	}

	s.logger.Info("Expired availability purged", zap.Int64("deleted", count))
}
