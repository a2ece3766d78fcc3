// Package wire - JSON формат сообщений брокера: явные функции
// кодирования/декодирования, возвращающие готовые значения. Временные
// метки ходят как POSIX-секунды.
package wire

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/jeboulanger/saifu/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// quoteWire - JSON форма models.Quote: {ticker, price, timestamp},
// timestamp в POSIX-секундах
type quoteWire struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Timestamp float64 `json:"timestamp"`
}

// EncodeQuote сериализует одну котировку
func EncodeQuote(q models.Quote) ([]byte, error) {
	return json.Marshal(toQuoteWire(q))
}

// DecodeQuote десериализует одну котировку
func DecodeQuote(data []byte) (models.Quote, error) {
	var w quoteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return models.Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	return fromQuoteWire(w), nil
}

// EncodeBatch сериализует пачку как JSON массив котировок; порядок
// не оговорен
func EncodeBatch(b models.AggregatedBatch) ([]byte, error) {
	out := make([]quoteWire, len(b.Quotes))
	for i, q := range b.Quotes {
		out[i] = toQuoteWire(q)
	}
	return json.Marshal(out)
}

// DecodeBatch десериализует JSON массив котировок в пачку
func DecodeBatch(data []byte) (models.AggregatedBatch, error) {
	var ws []quoteWire
	if err := json.Unmarshal(data, &ws); err != nil {
		return models.AggregatedBatch{}, fmt.Errorf("decode batch: %w", err)
	}
	quotes := make([]models.Quote, len(ws))
	for i, w := range ws {
		quotes[i] = fromQuoteWire(w)
	}
	return models.AggregatedBatch{Quotes: quotes}, nil
}

func toQuoteWire(q models.Quote) quoteWire {
	return quoteWire{
		Ticker:    q.Ticker,
		Price:     q.Price,
		Timestamp: float64(q.Timestamp.Unix()),
	}
}

func fromQuoteWire(w quoteWire) models.Quote {
	return models.Quote{
		Ticker:    w.Ticker,
		Price:     w.Price,
		Timestamp: timeFromUnix(w.Timestamp),
	}
}

// pricingJobWire - JSON форма models.PricingJob: все поля. end_time
// равен null, пока EndTime nil; snapshot_time и start_time всегда
// числа (нулевой момент кодируется своими POSIX-секундами)
type pricingJobWire struct {
	Identifier   string   `json:"identifier"`
	PortfolioID  string   `json:"portfolio_id"`
	SnapshotTime float64  `json:"snapshot_time"`
	TargetCcy    string   `json:"target_ccy"`
	StartedBy    string   `json:"started_by"`
	Status       string   `json:"status"`
	StartTime    float64  `json:"start_time"`
	EndTime      *float64 `json:"end_time"`
}

// EncodePricingJob сериализует задание ценообразования
func EncodePricingJob(j models.PricingJob) ([]byte, error) {
	w := pricingJobWire{
		Identifier:   j.Identifier,
		PortfolioID:  j.PortfolioID,
		SnapshotTime: float64(j.SnapshotTime.Unix()),
		TargetCcy:    j.TargetCcy,
		StartedBy:    j.StartedBy,
		Status:       j.Status,
		StartTime:    float64(j.StartTime.Unix()),
	}
	if j.EndTime != nil {
		end := float64(j.EndTime.Unix())
		w.EndTime = &end
	}
	return json.Marshal(w)
}

// DecodePricingJob десериализует задание ценообразования
func DecodePricingJob(data []byte) (models.PricingJob, error) {
	var w pricingJobWire
	if err := json.Unmarshal(data, &w); err != nil {
		return models.PricingJob{}, fmt.Errorf("decode pricing job: %w", err)
	}
	j := models.PricingJob{
		Identifier:   w.Identifier,
		PortfolioID:  w.PortfolioID,
		SnapshotTime: timeFromUnix(w.SnapshotTime),
		TargetCcy:    w.TargetCcy,
		StartedBy:    w.StartedBy,
		Status:       w.Status,
		StartTime:    timeFromUnix(w.StartTime),
	}
	if w.EndTime != nil {
		end := timeFromUnix(*w.EndTime)
		j.EndTime = &end
	}
	return j, nil
}
