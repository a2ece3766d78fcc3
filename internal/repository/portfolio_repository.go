package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
)

// Ошибки репозитория портфелей
var (
	ErrPriceNotFound = errors.New("no historical price at or before snapshot")
)

// PortfolioRepository - работа с таблицами saifu_portfolios,
// saifu_portfolio_pricing_settings, saifu_portfolio_positions и
// saifu_portfolio_historical_prices
//
// Назначение: Data Access Layer для планировщика и воркера ценообразования
//
// Функции:
// - GetDue: портфели, которым пора пересчитать стоимость
// - GetPricedPositions: позиции портфеля, соединенные с последней
//   ценой инструмента на момент среза
// - InsertHistoricalPrice: записать рассчитанную стоимость портфеля
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository создает новый экземпляр репозитория
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetDue возвращает портфели, для которых нет ни одного задания либо
// новейшее задание старше настроенного интервала. Предикат читает
// start_time последнего задания, поэтому сохраненное но еще не
// завершенное задание подавляет повторное планирование как минимум
// на один интервал.
func (r *PortfolioRepository) GetDue(now time.Time) ([]models.DuePortfolio, error) {
	query := `
		SELECT p.id, s.target_ccy
		FROM saifu_portfolios p
		JOIN saifu_portfolio_pricing_settings s ON s.portfolio_id = p.id
		LEFT JOIN (
			SELECT portfolio_id, MAX(start_time) AS last_start
			FROM saifu_portfolio_pricing_jobs
			GROUP BY portfolio_id
		) j ON j.portfolio_id = p.id
		WHERE j.last_start IS NULL
		   OR EXTRACT(EPOCH FROM ($1::timestamptz - j.last_start)) > s.pricing_interval`

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []models.DuePortfolio
	for rows.Next() {
		var d models.DuePortfolio
		if err := rows.Scan(&d.PortfolioID, &d.TargetCcy); err != nil {
			return nil, err
		}
		due = append(due, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return due, nil
}

// GetPricedPositions соединяет позиции портфеля с новейшей исторической
// ценой инструмента на момент среза. Тикер инструмента формируется как
// ticker_base || target_ccy. Позиции без цены на момент среза в выборку
// не попадают.
func (r *PortfolioRepository) GetPricedPositions(portfolioID string, snapshot time.Time, targetCcy string) ([]models.PricedPosition, error) {
	query := `
		SELECT pos.ticker_base || $3 AS ticker, hp.price, pos.size, hp.price * pos.size AS total
		FROM saifu_portfolio_positions pos
		JOIN LATERAL (
			SELECT price
			FROM saifu_ccy_historical_prices h
			WHERE h.ticker = pos.ticker_base || $3 AND h.quote_time <= $2
			ORDER BY h.quote_time DESC
			LIMIT 1
		) hp ON true
		WHERE pos.portfolio_id = $1`

	rows, err := r.db.Query(query, portfolioID, snapshot, targetCcy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var priced []models.PricedPosition
	for rows.Next() {
		var p models.PricedPosition
		if err := rows.Scan(&p.Ticker, &p.Price, &p.Size, &p.Total); err != nil {
			return nil, err
		}
		priced = append(priced, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return priced, nil
}

// InsertHistoricalPrice добавляет одну строку рассчитанной стоимости
// портфеля (append-only, по одной строке на завершенное задание)
func (r *PortfolioRepository) InsertHistoricalPrice(p models.PortfolioHistoricalPrice) error {
	query := `
		INSERT INTO saifu_portfolio_historical_prices (portfolio_id, balance, currency, quote_time)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query, p.PortfolioID, p.Balance, p.Currency, p.QuoteTime)
	return err
}
