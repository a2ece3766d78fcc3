package service

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/internal/wire"
)

// ============================================================
// IngestService Tests
// ============================================================

func encodeBatch(t *testing.T, quotes ...models.Quote) []byte {
	t.Helper()
	body, err := wire.EncodeBatch(models.AggregatedBatch{Quotes: quotes})
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}
	return body
}

func TestIngestServiceInsertsEachQuote(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	repo := &MockQuoteRepository{}
	svc := NewIngestService(repo, zap.NewNop().Sugar())

	body := encodeBatch(t,
		models.Quote{Ticker: "BTCUSD", Price: 100, Timestamp: now},
		models.Quote{Ticker: "ETHUSD", Price: 50, Timestamp: now},
	)

	if err := svc.Received(body); err != nil {
		t.Fatalf("Received failed: %v", err)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(repo.inserted))
	}
	if repo.inserted[0].Ticker != "BTCUSD" || repo.inserted[1].Ticker != "ETHUSD" {
		t.Errorf("unexpected inserted quotes: %+v", repo.inserted)
	}
}

func TestIngestServiceRowFailureDoesNotAbortBatch(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	repo := &MockQuoteRepository{
		insertErr: func(q models.Quote) error {
			if q.Ticker == "BADUSD" {
				return errors.New("constraint violation")
			}
			return nil
		},
	}
	svc := NewIngestService(repo, zap.NewNop().Sugar())

	body := encodeBatch(t,
		models.Quote{Ticker: "BTCUSD", Price: 100, Timestamp: now},
		models.Quote{Ticker: "BADUSD", Price: -1, Timestamp: now},
		models.Quote{Ticker: "ETHUSD", Price: 50, Timestamp: now},
	)

	if err := svc.Received(body); err != nil {
		t.Fatalf("row failure must not abort the batch: %v", err)
	}
	if len(repo.inserted) != 2 {
		t.Errorf("expected 2 successful inserts, got %d", len(repo.inserted))
	}
}

func TestIngestServiceConnectionFailurePropagates(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	repo := &MockQuoteRepository{
		insertErr: func(q models.Quote) error { return driver.ErrBadConn },
	}
	svc := NewIngestService(repo, zap.NewNop().Sugar())

	body := encodeBatch(t, models.Quote{Ticker: "BTCUSD", Price: 100, Timestamp: now})

	if err := svc.Received(body); !errors.Is(err, driver.ErrBadConn) {
		t.Errorf("expected connection failure to propagate, got %v", err)
	}
}

func TestIngestServiceDropsMalformed(t *testing.T) {
	svc := NewIngestService(&MockQuoteRepository{}, zap.NewNop().Sugar())

	if err := svc.Received([]byte("{")); err != nil {
		t.Errorf("malformed batch must be dropped, got %v", err)
	}
}
