// Package logging собирает структурированный логгер процесса из YAML
// настроек. Читается один раз на старте и передается явно каждому
// компоненту; глобального логгера нет.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeboulanger/saifu/internal/models"
)

// New собирает *zap.SugaredLogger из уровня и формата настроек.
// Location с путем к файлу пишет в файл; "stdout" (значение по
// умолчанию) и пустая строка - в консоль.
func New(settings models.LoggingSettings) (*zap.SugaredLogger, error) {
	level, err := levelFromString(settings.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if settings.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink, closeSink, err := openSink(settings.Location)
	if err != nil {
		return nil, err
	}
	_ = closeSink // sink живет все время процесса, закрывать нечего

	core := zapcore.NewCore(encoder, sink, level)
	logger := zap.New(core).Named(settings.Category)
	return logger.Sugar(), nil
}

func levelFromString(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func openSink(location string) (zapcore.WriteSyncer, func() error, error) {
	if location == "" || location == "stdout" {
		return zapcore.Lock(zapcore.AddSync(os.Stdout)), func() error { return nil }, nil
	}
	ws, closer, err := zap.Open(location)
	if err != nil {
		return nil, nil, fmt.Errorf("open log sink %s: %w", location, err)
	}
	return ws, func() error { closer(); return nil }, nil
}
