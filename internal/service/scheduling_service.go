package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/broker"
	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/internal/wire"
)

// SchedulingService - планировщик ценообразования (schedprice)
//
// Назначение: по таймеру находить портфели с устаревшей оценкой,
// сохранять по одному новому заданию на (портфель, валюта) и
// отправлять их в рабочую очередь. Предикат "пора" читает start_time
// новейшего задания, поэтому в полете держится не больше одного
// задания на портфель за интервал при единственном планировщике.
type SchedulingService struct {
	portfolios PortfolioRepositoryInterface
	jobs       JobRepositoryInterface
	pullDelay  time.Duration
	logger     *zap.SugaredLogger

	now func() time.Time
}

// NewSchedulingService создает новый экземпляр планировщика
func NewSchedulingService(portfolios PortfolioRepositoryInterface, jobs JobRepositoryInterface, pullDelay time.Duration, logger *zap.SugaredLogger) *SchedulingService {
	return &SchedulingService{
		portfolios: portfolios,
		jobs:       jobs,
		pullDelay:  pullDelay,
		logger:     logger,
		now:        time.Now,
	}
}

// Work - цикл планировщика: один проход, пауза pull_delay, повтор.
// Ошибки БД и брокера возвращаются агенту; нарушение инварианта при
// сохранении роняет сервис.
func (s *SchedulingService) Work(ctx context.Context, dispatch broker.DispatchFunc) error {
	for {
		if err := s.Cycle(dispatch); err != nil {
			return err
		}
		if !sleepCtx(ctx, s.pullDelay) {
			return nil
		}
	}
}

// Cycle выполняет один проход планирования: снять срез времени, найти
// портфели, сохранить задания одной транзакцией, отправить каждое в
// очередь
func (s *SchedulingService) Cycle(dispatch broker.DispatchFunc) error {
	snapshot := s.now().UTC()

	due, err := s.portfolios.GetDue(snapshot)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		s.logger.Debugw("no portfolios due", "at", snapshot)
		return nil
	}

	jobs := make([]*models.PricingJob, 0, len(due))
	for _, d := range due {
		jobs = append(jobs, &models.PricingJob{
			PortfolioID:  d.PortfolioID,
			SnapshotTime: snapshot,
			TargetCcy:    d.TargetCcy,
			StartedBy:    models.StartedBySystem,
			Status:       models.JobStatusNew,
			// start_time записывается явно, а не значением по умолчанию
			// на стороне БД: предикат "пора" читает именно его
			StartTime: snapshot,
		})
	}

	if err := s.jobs.PersistNew(jobs); err != nil {
		return err
	}

	for _, job := range jobs {
		body, err := wire.EncodePricingJob(*job)
		if err != nil {
			s.logger.Warnw("failed to encode job", "identifier", job.Identifier, "error", err)
			continue
		}
		if err := dispatch(body); err != nil {
			return err
		}
		metrics.JobsScheduled.Inc()
	}

	s.logger.Infow("scheduled pricing jobs", "count", len(jobs), "snapshot", snapshot)
	return nil
}
