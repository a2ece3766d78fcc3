// Package service - бизнес-логика пяти сервисов конвейера: публикация
// котировок, оконная агрегация, запись истории, планирование и расчет
// стоимости портфелей. Каждый сервис подключается к брокеру через роль
// агента из internal/broker.
package service

import (
	"context"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
)

// QuoteRequesterInterface определяет интерфейс клиента поставщика котировок
type QuoteRequesterInterface interface {
	Request(ctx context.Context, sources, targets []string) ([]models.Quote, error)
}

// QuoteRepositoryInterface определяет интерфейс репозитория исторических цен
type QuoteRepositoryInterface interface {
	Insert(q models.Quote) error
}

// JobRepositoryInterface определяет интерфейс репозитория заданий
type JobRepositoryInterface interface {
	PersistNew(jobs []*models.PricingJob) error
}

// PortfolioRepositoryInterface определяет интерфейс репозитория портфелей
type PortfolioRepositoryInterface interface {
	GetDue(now time.Time) ([]models.DuePortfolio, error)
	GetPricedPositions(portfolioID string, snapshot time.Time, targetCcy string) ([]models.PricedPosition, error)
	InsertHistoricalPrice(p models.PortfolioHistoricalPrice) error
}

// sleepCtx ждет d с возможностью отмены; false если контекст погашен
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
