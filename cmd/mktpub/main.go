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
	"github.com/jeboulanger/saifu/internal/provider"
	"github.com/jeboulanger/saifu/internal/service"
	"github.com/jeboulanger/saifu/internal/supervisor"
)

// mktpub опрашивает внешнего поставщика котировок и рассылает каждую
// котировку в fan-out exchange
func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <config.yaml> SOURCE_TARGET [SOURCE_TARGET ...]", os.Args[0])
	}

	// Загрузка конфигурации
	var app config.MktpubApp
	loggingSettings, err := config.Load(os.Args[1], &app)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(loggingSettings)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Валютные пары из аргументов командной строки
	pairs := make([]service.Pair, 0, len(os.Args)-2)
	for _, arg := range os.Args[2:] {
		pair, err := service.ParsePair(arg)
		if err != nil {
			logger.Fatalw("bad currency pair argument", "arg", arg, "error", err)
		}
		pairs = append(pairs, pair)
	}

	requester := provider.NewRequester(app.Resource, nil)
	svc := service.NewQuoteService(requester, pairs, time.Duration(app.PullDelay)*time.Second, logger.Named("quotes"))

	connector := broker.NewConnector(app.MQ)
	role := broker.NewPublisherRole("quotes-publisher", app.Exchange, svc.Work)
	agent := broker.New(role, connector, true, broker.DefaultReconnectPolicy(), logger.Named("agent"))

	metrics.Serve(app.MetricsAddr, logger)

	sup := supervisor.New(logger, supervisor.Member{Name: "quotes-publisher", Agent: agent})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Infow("shutdown requested")
		sup.Stop()
	}()

	logger.Infow("mktpub started", "pairs", len(pairs), "exchange", app.Exchange)
	if err := sup.Run(); err != nil {
		logger.Errorw("mktpub stopped abnormally", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Infow("mktpub exited")
}
