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

// batchQueueSize - ёмкость очереди между подписчиком и публикатором.
// Единственная точка синхронизации внутри mktagg.
const batchQueueSize = 100

// WindowAggregator - tumbling-окно фиксированной длительности W,
// собирающее котировки по тикеру. Внутри окна поздняя котировка того же
// тикера затирает раннюю (last-write-wins). Закрытие окна двигается
// входящими сообщениями: нет данных - нет публикации, отдельного
// таймера нет.
//
// startImmediate=true инициализирует границу первого окна текущим
// моментом, поэтому первое же событие закрывает частичное окно;
// false - границей now+W.
type WindowAggregator struct {
	window         time.Duration
	startImmediate bool

	windowEnd   time.Time
	initialized bool
	quotes      map[string]models.Quote

	now func() time.Time
}

// NewWindowAggregator создает агрегатор с окном window
func NewWindowAggregator(window time.Duration, startImmediate bool) *WindowAggregator {
	return &WindowAggregator{
		window:         window,
		startImmediate: startImmediate,
		quotes:         make(map[string]models.Quote),
		now:            time.Now,
	}
}

// Add кладет котировку в текущее окно. Если момент закрытия наступил,
// возвращает снимок окна и true; агрегация при этом сбрасывается и
// начинается новое окно от текущего момента.
//
// Вызывается только из потока подписчика - блокировок не требуется.
func (a *WindowAggregator) Add(q models.Quote) (models.AggregatedBatch, bool) {
	now := a.now()

	if !a.initialized {
		if a.startImmediate {
			a.windowEnd = now
		} else {
			a.windowEnd = now.Add(a.window)
		}
		a.initialized = true
	}

	a.quotes[q.Ticker] = q

	if now.Before(a.windowEnd) {
		return models.AggregatedBatch{}, false
	}

	batch := models.AggregatedBatch{Quotes: make([]models.Quote, 0, len(a.quotes))}
	for _, quote := range a.quotes {
		batch.Quotes = append(batch.Quotes, quote)
	}
	a.quotes = make(map[string]models.Quote)
	a.windowEnd = now.Add(a.window)

	return batch, true
}

// AggregationService - агрегатор котировок (mktagg)
//
// Назначение: подписчик складывает котировки в окно; закрытые окна
// уходят через ограниченную очередь в поток публикатора, который
// отправляет по одному сообщению брокера на пачку.
type AggregationService struct {
	aggregator *WindowAggregator
	batches    chan models.AggregatedBatch
	logger     *zap.SugaredLogger
}

// NewAggregationService создает новый экземпляр агрегатора
func NewAggregationService(aggregator *WindowAggregator, logger *zap.SugaredLogger) *AggregationService {
	return &AggregationService{
		aggregator: aggregator,
		batches:    make(chan models.AggregatedBatch, batchQueueSize),
		logger:     logger,
	}
}

// Received - обработчик подписчика: декодирует котировку, кладет в
// окно и при закрытии окна передает пачку публикатору. Плохое
// сообщение логируется и отбрасывается.
func (s *AggregationService) Received(body []byte) error {
	q, err := wire.DecodeQuote(body)
	if err != nil {
		s.logger.Warnw("dropping malformed quote", "error", err)
		return nil
	}

	batch, closed := s.aggregator.Add(q)
	if closed {
		s.batches <- batch
		metrics.WindowsClosed.Inc()
		metrics.BatchSize.Observe(float64(len(batch.Quotes)))
	}
	return nil
}

// PublishWork - цикл публикатора: вычитывает закрытые окна из очереди
// и отправляет каждое одним сообщением
func (s *AggregationService) PublishWork(ctx context.Context, publish broker.PublishFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-s.batches:
			body, err := wire.EncodeBatch(batch)
			if err != nil {
				s.logger.Warnw("failed to encode batch", "error", err)
				continue
			}
			if err := publish(body); err != nil {
				return err
			}
			s.logger.Debugw("published aggregated batch", "tickers", len(batch.Quotes))
		}
	}
}
