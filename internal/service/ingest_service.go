package service

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/wire"
	"github.com/jeboulanger/saifu/pkg/errs"
)

// IngestService - запись котировок в историю (ingesticks)
//
// Назначение: подписчик на exchange агрегированных котировок; каждая
// котировка пачки вставляется отдельной строкой в таблицу исторических
// цен. Сбой отдельной строки логируется и не прерывает пачку; потеря
// соединения с БД поднимается наружу и уходит в цикл переподключения
// агента.
type IngestService struct {
	quotes QuoteRepositoryInterface
	logger *zap.SugaredLogger
}

// NewIngestService создает новый экземпляр сервиса записи
func NewIngestService(quotes QuoteRepositoryInterface, logger *zap.SugaredLogger) *IngestService {
	return &IngestService{quotes: quotes, logger: logger}
}

// Received - обработчик подписчика: декодирует пачку и вставляет по
// строке на котировку
func (s *IngestService) Received(body []byte) error {
	batch, err := wire.DecodeBatch(body)
	if err != nil {
		s.logger.Warnw("dropping malformed batch", "error", err)
		return nil
	}

	var rowErrs error
	inserted := 0
	for _, q := range batch.Quotes {
		if err := s.quotes.Insert(q); err != nil {
			if isConnectionErr(err) {
				return err
			}
			rowErrs = multierr.Append(rowErrs, errs.Data(err))
			continue
		}
		inserted++
	}

	metrics.RowsIngested.Add(float64(inserted))
	if rowErrs != nil {
		metrics.IngestRowErrors.Add(float64(len(multierr.Errors(rowErrs))))
		s.logger.Warnw("some rows failed to insert",
			"failed", len(multierr.Errors(rowErrs)),
			"inserted", inserted,
			"error", rowErrs)
	} else {
		s.logger.Debugw("ingested batch", "rows", inserted)
	}
	return nil
}

// isConnectionErr отделяет потерю соединения с БД от сбоя одной строки
func isConnectionErr(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}
