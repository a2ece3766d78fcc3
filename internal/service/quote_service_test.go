package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/internal/wire"
)

// ============================================================
// QuoteService Tests
// ============================================================

func TestParsePair(t *testing.T) {
	tests := []struct {
		arg       string
		want      Pair
		wantError bool
	}{
		{arg: "BTC_USD", want: Pair{Source: "BTC", Target: "USD"}},
		{arg: "ETH_EUR", want: Pair{Source: "ETH", Target: "EUR"}},
		{arg: "BTCUSD", wantError: true},
		{arg: "_USD", wantError: true},
		{arg: "BTC_", wantError: true},
		{arg: "A_B_C", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParsePair(tt.arg)
			if tt.wantError {
				if !errors.Is(err, ErrBadPairFormat) {
					t.Errorf("expected ErrBadPairFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePair failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQuoteServiceUnions(t *testing.T) {
	pairs := []Pair{
		{"BTC", "USD"},
		{"BTC", "EUR"},
		{"ETH", "USD"},
	}
	svc := NewQuoteService(&MockQuoteRequester{}, pairs, 0, zap.NewNop().Sugar())

	sources := svc.Sources()
	if len(sources) != 2 || sources[0] != "BTC" || sources[1] != "ETH" {
		t.Errorf("unexpected sources: %v", sources)
	}

	targets := svc.Targets()
	if len(targets) != 2 || targets[0] != "USD" || targets[1] != "EUR" {
		t.Errorf("unexpected targets: %v", targets)
	}
}

func TestQuoteServicePublishesEachQuote(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	requester := &MockQuoteRequester{quotes: []models.Quote{
		{Ticker: "BTCUSD", Price: 100, Timestamp: now},
		{Ticker: "ETHUSD", Price: 50, Timestamp: now},
	}}
	svc := NewQuoteService(requester, []Pair{{"BTC", "USD"}, {"ETH", "USD"}}, time.Hour, zap.NewNop().Sugar())

	captured := &capturedPublish{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Work(ctx, captured.publish) }()

	deadline := time.After(2 * time.Second)
	for captured.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("quotes were not published")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Work returned error: %v", err)
	}

	q, err := wire.DecodeQuote(captured.bodies[0])
	if err != nil {
		t.Fatalf("DecodeQuote failed: %v", err)
	}
	if q.Ticker != "BTCUSD" || q.Price != 100 {
		t.Errorf("unexpected first quote: %+v", q)
	}

	requester.mu.Lock()
	defer requester.mu.Unlock()
	if len(requester.gotSources) != 2 || len(requester.gotTargets) != 1 {
		t.Errorf("provider not queried with unions: sources=%v targets=%v", requester.gotSources, requester.gotTargets)
	}
}

func TestQuoteServiceRetriesAfterRequestFailure(t *testing.T) {
	requester := &MockQuoteRequester{requestErr: errors.New("provider down")}
	svc := NewQuoteService(requester, []Pair{{"BTC", "USD"}}, time.Millisecond, zap.NewNop().Sugar())

	captured := &capturedPublish{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Work(ctx, captured.publish) }()

	// Сбой поставщика не фатален: цикл продолжает опрашивать
	deadline := time.After(2 * time.Second)
	for {
		requester.mu.Lock()
		runs := requester.requestsRun
		requester.mu.Unlock()
		if runs >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("service did not retry after failure")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Work returned error: %v", err)
	}
	if captured.count() != 0 {
		t.Errorf("nothing should have been published, got %d", captured.count())
	}
}

func TestQuoteServicePublishFailureIsTransport(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	requester := &MockQuoteRequester{quotes: []models.Quote{{Ticker: "BTCUSD", Price: 100, Timestamp: now}}}
	svc := NewQuoteService(requester, []Pair{{"BTC", "USD"}}, time.Hour, zap.NewNop().Sugar())

	captured := &capturedPublish{err: errors.New("channel closed")}

	err := svc.Work(context.Background(), captured.publish)
	if err == nil || err.Error() != "channel closed" {
		t.Errorf("expected publish error to propagate, got %v", err)
	}
}
