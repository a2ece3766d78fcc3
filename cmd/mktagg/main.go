package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeboulanger/saifu/internal/broker"
	"github.com/jeboulanger/saifu/internal/config"
	"github.com/jeboulanger/saifu/internal/logging"
	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/service"
	"github.com/jeboulanger/saifu/internal/supervisor"
)

// mktagg собирает котировки в tumbling-окна и публикует каждое
// закрытое окно одной пачкой. Подписчик и публикатор - два отдельных
// агента, связанные ограниченной очередью внутри сервиса.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <config.yaml>", os.Args[0])
	}

	// Загрузка конфигурации
	var app config.MktaggApp
	loggingSettings, err := config.Load(os.Args[1], &app)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(loggingSettings)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	window := time.Duration(app.AggregationWindow) * time.Second
	aggregator := service.NewWindowAggregator(window, app.StartImmediateOrDefault())
	svc := service.NewAggregationService(aggregator, logger.Named("aggregation"))

	// По одному каналу брокера на агента; соединения не разделяются
	subAgent := broker.New(
		broker.NewSubscriberRole("quotes-subscriber", app.SubExchange, svc.Received),
		broker.NewConnector(app.MQ), true, broker.DefaultReconnectPolicy(), logger.Named("subscriber"))
	pubAgent := broker.New(
		broker.NewPublisherRole("batches-publisher", app.PubExchange, svc.PublishWork),
		broker.NewConnector(app.MQ), true, broker.DefaultReconnectPolicy(), logger.Named("publisher"))

	metrics.Serve(app.MetricsAddr, logger)

	sup := supervisor.New(logger,
		supervisor.Member{Name: "quotes-subscriber", Agent: subAgent},
		supervisor.Member{Name: "batches-publisher", Agent: pubAgent},
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Infow("shutdown requested")
		sup.Stop()
	}()

	logger.Infow("mktagg started", "window", window, "sub", app.SubExchange, "pub", app.PubExchange)
	if err := sup.Run(); err != nil {
		logger.Errorw("mktagg stopped abnormally", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Infow("mktagg exited")
}
