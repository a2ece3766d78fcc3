package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
)

// ============ Mock QuoteRequester ============

type MockQuoteRequester struct {
	mu          sync.Mutex
	quotes      []models.Quote
	requestErr  error
	gotSources  []string
	gotTargets  []string
	requestsRun int
}

func (m *MockQuoteRequester) Request(ctx context.Context, sources, targets []string) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotSources = sources
	m.gotTargets = targets
	m.requestsRun++
	if m.requestErr != nil {
		return nil, m.requestErr
	}
	return m.quotes, nil
}

// ============ Mock QuoteRepository ============

type MockQuoteRepository struct {
	inserted  []models.Quote
	insertErr func(q models.Quote) error
}

func (m *MockQuoteRepository) Insert(q models.Quote) error {
	if m.insertErr != nil {
		if err := m.insertErr(q); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, q)
	return nil
}

// ============ Mock JobRepository ============

type MockJobRepository struct {
	persisted  [][]*models.PricingJob
	persistErr error
	nextID     int
}

func (m *MockJobRepository) PersistNew(jobs []*models.PricingJob) error {
	if m.persistErr != nil {
		return m.persistErr
	}
	for _, job := range jobs {
		m.nextID++
		job.Identifier = fmt.Sprintf("id-%d", m.nextID)
	}
	m.persisted = append(m.persisted, jobs)
	return nil
}

// ============ Mock PortfolioRepository ============

type MockPortfolioRepository struct {
	due       []models.DuePortfolio
	dueErr    error
	priced    map[string][]models.PricedPosition
	pricedErr error
	history   []models.PortfolioHistoricalPrice
	insertErr error
}

func (m *MockPortfolioRepository) GetDue(now time.Time) ([]models.DuePortfolio, error) {
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	return m.due, nil
}

func (m *MockPortfolioRepository) GetPricedPositions(portfolioID string, snapshot time.Time, targetCcy string) ([]models.PricedPosition, error) {
	if m.pricedErr != nil {
		return nil, m.pricedErr
	}
	return m.priced[portfolioID], nil
}

func (m *MockPortfolioRepository) InsertHistoricalPrice(p models.PortfolioHistoricalPrice) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.history = append(m.history, p)
	return nil
}

// ============ Сбор опубликованных сообщений ============

type capturedPublish struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (c *capturedPublish) publish(body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.bodies = append(c.bodies, body)
	return nil
}

func (c *capturedPublish) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}
