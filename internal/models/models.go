// Package models - доменные объекты конвейера ценообразования: и те,
// что ходят по проводу, и те, что лежат в БД. Простые структуры;
// декодирование - явными функциями в internal/wire, возвращающими
// готовое значение, а не мутацией пустого объекта.
package models

import (
	"errors"
	"time"
)

// Quote - одно наблюдение цены инструмента. После создания не меняется.
type Quote struct {
	Ticker    string    // код исходной валюты + код целевой, например "BTCUSD"
	Price     float64
	Timestamp time.Time // момент наблюдения котировки, UTC
}

// AggregatedBatch - неупорядоченный снимок с уникальными тикерами,
// испускаемый на закрытии одного окна агрегации
type AggregatedBatch struct {
	Quotes []Quote
}

// Статусы заданий. Конвейер создает только "N" (new); более широкий
// enum проставляется внешним инструментарием.
const (
	JobStatusNew = "N"
)

// StartedBySystem - метка происхождения заданий, созданных планировщиком
const StartedBySystem = "SYSTEM"

// PricingJob - единица работы в очереди ценообразования; после
// выполнения остается как запись аудита.
//
// Инвариант: Identifier пуст до сохранения и никогда не
// переназначается. Повторное сохранение задания с идентификатором -
// ошибка программиста (см. repository.ErrJobAlreadyPersisted).
type PricingJob struct {
	Identifier   string // непрозрачный 128-битный id, пуст до сохранения
	PortfolioID  string
	SnapshotTime time.Time // логический момент "по состоянию на"
	TargetCcy    string
	StartedBy    string
	Status       string
	StartTime    time.Time
	EndTime      *time.Time // nil пока задание не завершено
}

// Ошибки валидации задания
var (
	ErrJobMissingIdentifier   = errors.New("pricing job has no identifier")
	ErrJobMissingPortfolio    = errors.New("pricing job has no portfolio id")
	ErrJobMissingSnapshotTime = errors.New("pricing job has no snapshot time")
)

// Validate проверяет обязательные поля сохраненного задания. Нарушение -
// ошибка программиста, а не данных: такие задания не должны были попасть
// в очередь.
func (j PricingJob) Validate() error {
	if j.Identifier == "" {
		return ErrJobMissingIdentifier
	}
	if j.PortfolioID == "" {
		return ErrJobMissingPortfolio
	}
	if j.SnapshotTime.IsZero() {
		return ErrJobMissingSnapshotTime
	}
	return nil
}

// PortfolioPricingSettings - настройки, которые читает планировщик;
// конвейер их никогда не пишет
type PortfolioPricingSettings struct {
	PortfolioID            string
	TargetCcy              string
	PricingIntervalSeconds int
}

// PortfolioPosition - одна позиция портфеля. Тикер оцениваемого
// инструмента - TickerBase + целевая валюта, формируется при запросе.
type PortfolioPosition struct {
	PortfolioID string
	TickerBase  string
	Size        float64
}

// InstrumentHistoricalPrice - одна append-only строка временного ряда
// цен инструмента
type InstrumentHistoricalPrice struct {
	Ticker    string
	Price     float64
	QuoteTime time.Time
}

// PortfolioHistoricalPrice - одна append-only строка с результатом
// завершенного задания ценообразования
type PortfolioHistoricalPrice struct {
	PortfolioID string
	Balance     float64
	Currency    string
	QuoteTime   time.Time
}

// DuePortfolio - строка запроса планировщика: портфель плюс целевая
// валюта, в которой его пора оценить
type DuePortfolio struct {
	PortfolioID string
	TargetCcy   string
}

// PricedPosition - строка соединения позиций с ценами у воркера
type PricedPosition struct {
	Ticker string
	Price  float64
	Size   float64
	Total  float64
}
