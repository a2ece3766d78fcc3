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
	"github.com/jeboulanger/saifu/internal/repository"
	"github.com/jeboulanger/saifu/internal/service"
	"github.com/jeboulanger/saifu/internal/supervisor"
)

// schedprice по таймеру находит портфели с устаревшей оценкой,
// сохраняет новые задания и отправляет их в рабочую очередь.
// Предполагается единственный активный экземпляр планировщика.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <config.yaml>", os.Args[0])
	}

	// Загрузка конфигурации
	var app config.SchedpriceApp
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

	svc := service.NewSchedulingService(
		repository.NewPortfolioRepository(db),
		repository.NewJobRepository(db),
		time.Duration(app.PullDelay)*time.Second,
		logger.Named("scheduling"))

	agent := broker.New(
		broker.NewDispatcherRole("jobs-dispatcher", app.WorkQueue, svc.Work),
		broker.NewConnector(app.MQ), true, broker.DefaultReconnectPolicy(), logger.Named("agent"))

	metrics.Serve(app.MetricsAddr, logger)

	sup := supervisor.New(logger, supervisor.Member{Name: "jobs-dispatcher", Agent: agent})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Infow("shutdown requested")
		sup.Stop()
	}()

	logger.Infow("schedprice started", "work_queue", app.WorkQueue, "pull_delay", app.PullDelay)
	if err := sup.Run(); err != nil {
		logger.Errorw("schedprice stopped abnormally", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Infow("schedprice exited")
}
