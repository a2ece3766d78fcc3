package repository

import (
	"database/sql"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
)

// QuoteRepository - работа с таблицей saifu_ccy_historical_prices
//
// Назначение: Data Access Layer для исторических цен инструментов
//
// Функции:
// - Insert: добавить одну котировку (append-only, строки не изменяются)
// - GetLatestBefore: последняя цена инструмента не позже заданного момента
type QuoteRepository struct {
	db *sql.DB
}

// NewQuoteRepository создает новый экземпляр репозитория
func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Insert добавляет одну котировку в таблицу исторических цен
func (r *QuoteRepository) Insert(q models.Quote) error {
	query := `
		INSERT INTO saifu_ccy_historical_prices (ticker, price, quote_time)
		VALUES ($1, $2, $3)`

	_, err := r.db.Exec(query, q.Ticker, q.Price, q.Timestamp)
	return err
}

// GetLatestBefore возвращает последнюю цену инструмента с quote_time
// не позже указанного момента. ErrPriceNotFound если цены еще нет.
func (r *QuoteRepository) GetLatestBefore(ticker string, at time.Time) (models.InstrumentHistoricalPrice, error) {
	query := `
		SELECT ticker, price, quote_time
		FROM saifu_ccy_historical_prices
		WHERE ticker = $1 AND quote_time <= $2
		ORDER BY quote_time DESC
		LIMIT 1`

	var price models.InstrumentHistoricalPrice
	err := r.db.QueryRow(query, ticker, at).Scan(&price.Ticker, &price.Price, &price.QuoteTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.InstrumentHistoricalPrice{}, ErrPriceNotFound
		}
		return models.InstrumentHistoricalPrice{}, err
	}

	return price, nil
}
