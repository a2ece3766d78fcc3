package service

import (
	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/internal/wire"
	"github.com/jeboulanger/saifu/pkg/errs"
)

// PricingService - расчет стоимости портфеля (portprice)
//
// Назначение: воркер рабочей очереди; по заданию соединяет позиции
// портфеля с последними ценами инструментов на момент среза, считает
// balance = Σ price × size и записывает строку в историю стоимости.
// Позиции без цены на момент среза молча исключаются из суммы.
// Дедупликации нет: повторно доставленное задание даст вторую строку
// за тот же срез.
type PricingService struct {
	portfolios PortfolioRepositoryInterface
	logger     *zap.SugaredLogger
}

// NewPricingService создает новый экземпляр воркера
func NewPricingService(portfolios PortfolioRepositoryInterface, logger *zap.SugaredLogger) *PricingService {
	return &PricingService{portfolios: portfolios, logger: logger}
}

// Handle - обработчик воркера: декодировать задание, посчитать
// стоимость, записать результат. Неразбираемое сообщение логируется и
// отбрасывается; задание без обязательных полей - нарушение инварианта
// и роняет сервис; ошибки БД уходят в переподключение.
func (s *PricingService) Handle(body []byte) error {
	job, err := wire.DecodePricingJob(body)
	if err != nil {
		s.logger.Warnw("dropping malformed job", "error", err)
		return nil
	}

	if err := job.Validate(); err != nil {
		return errs.Invariant(err)
	}

	priced, err := s.portfolios.GetPricedPositions(job.PortfolioID, job.SnapshotTime, job.TargetCcy)
	if err != nil {
		return err
	}

	var balance float64
	for _, p := range priced {
		balance += p.Total
	}

	if err := s.portfolios.InsertHistoricalPrice(models.PortfolioHistoricalPrice{
		PortfolioID: job.PortfolioID,
		Balance:     balance,
		Currency:    job.TargetCcy,
		QuoteTime:   job.SnapshotTime,
	}); err != nil {
		return err
	}

	metrics.JobsPriced.Inc()
	s.logger.Infow("priced portfolio",
		"portfolio", job.PortfolioID,
		"balance", balance,
		"currency", job.TargetCcy,
		"positions", len(priced),
		"snapshot", job.SnapshotTime)
	return nil
}
