package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/service"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	recurringService *service.RecurringService
	logger           *zap.Logger
	stopChan         chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(recurringService *service.RecurringService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		recurringService: recurringService,
		logger:           logger,
		stopChan:         make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runOccurrenceExtensionTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runOccurrenceExtensionTask периодически досоздаёт занятия активных
// постоянных бронь: серия бессрочная, но транзакция бронирования
// материализует лишь первые недели.
func (s *Scheduler) runOccurrenceExtensionTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.extendOccurrences(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.extendOccurrences(ctx)
		case <-s.stopChan:
			s.logger.Info("Occurrence extension task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Occurrence extension task cancelled")
			return
		}
	}
}

// extendOccurrences держит занятия материализованными минимум на месяц вперёд
func (s *Scheduler) extendOccurrences(ctx context.Context) {
	s.logger.Info("Starting automatic occurrence extension")

	err := s.recurringService.ExtendOccurrences(ctx, service.RecurringHorizonWeeks)
	if err != nil {
		s.logger.Error("Failed to extend occurrences", zap.Error(err))
		return
	}

	s.logger.Info("Automatic occurrence extension completed successfully")
}
