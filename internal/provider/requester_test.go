package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/pkg/retry"
)

func newTestRequester(t *testing.T, handler http.HandlerFunc) (*Requester, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewRequester(srv.URL+"/data?fsyms={sources}&tsyms={targets}", srv.Client())
	// В тестах не ждем backoff между попытками
	r.retryCfg = retry.Config{MaxRetries: 1}
	return r, srv
}

func TestRequesterCrossProduct(t *testing.T) {
	var gotURL string
	requester, _ := newTestRequester(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"BTC": {"USD": 100.5, "EUR": 90.25}, "ETH": {"USD": 50, "EUR": 45}}`))
	})

	fixed := time.Unix(1_700_000_000, 0).UTC()
	requester.now = func() time.Time { return fixed }

	quotes, err := requester.Request(context.Background(), []string{"BTC", "ETH"}, []string{"USD", "EUR"})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if gotURL != "/data?fsyms=BTC,ETH&tsyms=USD,EUR" {
		t.Errorf("unexpected request URL: %s", gotURL)
	}

	if len(quotes) != 4 {
		t.Fatalf("expected 4 quotes, got %d", len(quotes))
	}

	byTicker := map[string]models.Quote{}
	for _, q := range quotes {
		byTicker[q.Ticker] = q
	}

	var tickers []string
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	want := []string{"BTCEUR", "BTCUSD", "ETHEUR", "ETHUSD"}
	for i, ticker := range tickers {
		if ticker != want[i] {
			t.Fatalf("unexpected tickers: got %v, want %v", tickers, want)
		}
	}

	if byTicker["BTCUSD"].Price != 100.5 {
		t.Errorf("unexpected BTCUSD price: %v", byTicker["BTCUSD"].Price)
	}
	if !byTicker["ETHEUR"].Timestamp.Equal(fixed) {
		t.Errorf("timestamp not set to receipt instant: %v", byTicker["ETHEUR"].Timestamp)
	}
}

func TestRequesterProviderError(t *testing.T) {
	requester, _ := newTestRequester(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "Error", "Message": "market does not exist"}`))
	})

	_, err := requester.Request(context.Background(), []string{"BTC"}, []string{"USD"})

	var failure *RequesterFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected RequesterFailure, got %v", err)
	}
	if failure.Reason != "market does not exist" {
		t.Errorf("unexpected reason: %q", failure.Reason)
	}
}

func TestRequesterNon200(t *testing.T) {
	requester, _ := newTestRequester(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := requester.Request(context.Background(), []string{"BTC"}, []string{"USD"})

	var failure *RequesterFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected RequesterFailure, got %v", err)
	}
}

func TestRequesterTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // сервер уже недоступен

	requester := NewRequester(url+"/{sources}/{targets}", nil)
	requester.retryCfg = retry.Config{MaxRetries: 1}

	_, err := requester.Request(context.Background(), []string{"BTC"}, []string{"USD"})

	var failure *RequesterFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected RequesterFailure, got %v", err)
	}
}

func TestRequesterMalformedBody(t *testing.T) {
	requester, _ := newTestRequester(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := requester.Request(context.Background(), []string{"BTC"}, []string{"USD"})

	var failure *RequesterFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected RequesterFailure, got %v", err)
	}
}

func TestRequesterSkipsNonPriceKeys(t *testing.T) {
	requester, _ := newTestRequester(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Type": 100, "BTC": {"USD": 10}}`))
	})

	quotes, err := requester.Request(context.Background(), []string{"BTC"}, []string{"USD"})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Ticker != "BTCUSD" {
		t.Errorf("unexpected quotes: %+v", quotes)
	}
}
