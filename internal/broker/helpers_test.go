package broker

import (
	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/models"
)

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func testMQSettings() models.MQSettings {
	return models.MQSettings{
		Host: "localhost:1", // заведомо недоступный брокер
		Credentials: models.BasicCredentials{
			Username: "guest",
			Password: "guest",
		},
	}
}
