package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeboulanger/saifu/internal/broker"
	"github.com/jeboulanger/saifu/internal/config"
	"github.com/jeboulanger/saifu/internal/logging"
	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/repository"
	"github.com/jeboulanger/saifu/internal/service"
	"github.com/jeboulanger/saifu/internal/supervisor"
)

// ingesticks подписывается на агрегированные котировки и дописывает
// каждую строкой в историю цен инструментов
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <config.yaml>", os.Args[0])
	}

	// Загрузка конфигурации
	var app config.IngesticksApp
	loggingSettings, err := config.Load(os.Args[1], &app)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(loggingSettings)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := repository.Open(app.Database)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	svc := service.NewIngestService(repository.NewQuoteRepository(db), logger.Named("ingest"))

	agent := broker.New(
		broker.NewSubscriberRole("ticks-subscriber", app.Exchange, svc.Received),
		broker.NewConnector(app.MQ), true, broker.DefaultReconnectPolicy(), logger.Named("agent"))

	metrics.Serve(app.MetricsAddr, logger)

	sup := supervisor.New(logger, supervisor.Member{Name: "ticks-subscriber", Agent: agent})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Infow("shutdown requested")
		sup.Stop()
	}()

	logger.Infow("ingesticks started", "exchange", app.Exchange)
	if err := sup.Run(); err != nil {
		logger.Errorw("ingesticks stopped abnormally", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Infow("ingesticks exited")
}
