package wire

import (
	"testing"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
)

func TestQuoteRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		quote models.Quote
	}{
		{"basic", models.Quote{Ticker: "BTCUSD", Price: 100.5, Timestamp: time.Unix(1_700_000_000, 0).UTC()}},
		{"zero price", models.Quote{Ticker: "ETHUSD", Price: 0, Timestamp: time.Unix(0, 0).UTC()}},
		{"negative price", models.Quote{Ticker: "XAGUSD", Price: -1, Timestamp: time.Unix(1_600_000_000, 0).UTC()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeQuote(tt.quote)
			if err != nil {
				t.Fatalf("EncodeQuote failed: %v", err)
			}

			got, err := DecodeQuote(data)
			if err != nil {
				t.Fatalf("DecodeQuote failed: %v", err)
			}

			if got.Ticker != tt.quote.Ticker || got.Price != tt.quote.Price {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tt.quote)
			}
			if got.Timestamp.Unix() != tt.quote.Timestamp.Unix() {
				t.Errorf("timestamp mismatch: got %v, want %v", got.Timestamp, tt.quote.Timestamp)
			}
		})
	}
}

func TestBatchRoundTrip(t *testing.T) {
	batch := models.AggregatedBatch{
		Quotes: []models.Quote{
			{Ticker: "BTCUSD", Price: 100, Timestamp: time.Unix(1_700_000_000, 0).UTC()},
			{Ticker: "ETHUSD", Price: 50, Timestamp: time.Unix(1_700_000_001, 0).UTC()},
		},
	}

	data, err := EncodeBatch(batch)
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}

	got, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}

	if len(got.Quotes) != len(batch.Quotes) {
		t.Fatalf("quote count mismatch: got %d, want %d", len(got.Quotes), len(batch.Quotes))
	}
	for i, q := range got.Quotes {
		if q.Ticker != batch.Quotes[i].Ticker || q.Price != batch.Quotes[i].Price {
			t.Errorf("quote %d mismatch: got %+v, want %+v", i, q, batch.Quotes[i])
		}
	}
}

func TestBatchRoundTripEmpty(t *testing.T) {
	data, err := EncodeBatch(models.AggregatedBatch{})
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}

	got, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}
	if len(got.Quotes) != 0 {
		t.Errorf("expected empty batch, got %d quotes", len(got.Quotes))
	}
}

func TestPricingJobRoundTrip(t *testing.T) {
	end := time.Unix(1_700_000_500, 0).UTC()
	tests := []struct {
		name string
		job  models.PricingJob
	}{
		{
			name: "in flight, nil end time",
			job: models.PricingJob{
				Identifier:   "a1b2c3",
				PortfolioID:  "p-1",
				SnapshotTime: time.Unix(1_700_000_000, 0).UTC(),
				TargetCcy:    "USD",
				StartedBy:    "SYSTEM",
				Status:       models.JobStatusNew,
				StartTime:    time.Unix(1_700_000_000, 0).UTC(),
				EndTime:      nil,
			},
		},
		{
			name: "completed",
			job: models.PricingJob{
				Identifier:   "d4e5f6",
				PortfolioID:  "p-2",
				SnapshotTime: time.Unix(1_700_000_100, 0).UTC(),
				TargetCcy:    "EUR",
				StartedBy:    "SYSTEM",
				Status:       models.JobStatusNew,
				StartTime:    time.Unix(1_700_000_100, 0).UTC(),
				EndTime:      &end,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodePricingJob(tt.job)
			if err != nil {
				t.Fatalf("EncodePricingJob failed: %v", err)
			}

			got, err := DecodePricingJob(data)
			if err != nil {
				t.Fatalf("DecodePricingJob failed: %v", err)
			}

			if got.Identifier != tt.job.Identifier || got.PortfolioID != tt.job.PortfolioID ||
				got.TargetCcy != tt.job.TargetCcy || got.StartedBy != tt.job.StartedBy ||
				got.Status != tt.job.Status {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, tt.job)
			}

			if (got.EndTime == nil) != (tt.job.EndTime == nil) {
				t.Fatalf("end time nullness mismatch: got %v, want %v", got.EndTime, tt.job.EndTime)
			}
			if got.EndTime != nil && got.EndTime.Unix() != tt.job.EndTime.Unix() {
				t.Errorf("end time mismatch: got %v, want %v", got.EndTime, tt.job.EndTime)
			}
		})
	}
}
