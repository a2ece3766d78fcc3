package metrics

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ============================================================
// Prometheus метрики конвейера ценообразования
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации потока котировок
// - Alertmanager для алертов на остановку планировщика/воркера

// ============ Поток котировок ============

// QuotesPublished - котировки, отправленные публикатором
var QuotesPublished = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "mktpub",
		Name:      "quotes_published_total",
		Help:      "Total number of quotes published to the fan-out exchange",
	},
)

// WindowsClosed - закрытые окна агрегации
var WindowsClosed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "mktagg",
		Name:      "windows_closed_total",
		Help:      "Total number of closed aggregation windows",
	},
)

// BatchSize - размер пачки на закрытии окна
var BatchSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "saifu",
		Subsystem: "mktagg",
		Name:      "batch_size_tickers",
		Help:      "Number of unique tickers in an emitted batch",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	},
)

// RowsIngested - строки, записанные в историю цен
var RowsIngested = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "ingesticks",
		Name:      "rows_ingested_total",
		Help:      "Total number of historical price rows inserted",
	},
)

// IngestRowErrors - сбои вставки отдельных строк
var IngestRowErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "ingesticks",
		Name:      "row_errors_total",
		Help:      "Total number of per-row insert failures",
	},
)

// ============ Задания ценообразования ============

// JobsScheduled - задания, отправленные в рабочую очередь
var JobsScheduled = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "schedprice",
		Name:      "jobs_scheduled_total",
		Help:      "Total number of pricing jobs dispatched to the work queue",
	},
)

// JobsPriced - задания, завершенные воркером
var JobsPriced = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "saifu",
		Subsystem: "portprice",
		Name:      "jobs_priced_total",
		Help:      "Total number of completed pricing jobs",
	},
)

// ============ HTTP endpoint ============

// Serve поднимает /healthz и /metrics на addr в отдельной горутине.
// Пустой addr выключает endpoint. На семантику конвейера не влияет.
func Serve(addr string, logger *zap.SugaredLogger) {
	if addr == "" {
		return
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.Use(logging(logger), recovery(logger))

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warnw("metrics endpoint stopped", "addr", addr, "error", err)
		}
	}()
}
