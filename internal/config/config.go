// Package config загружает YAML конфигурацию сервиса (первый
// позиционный аргумент командной строки) в явную структуру настроек.
// Конфигурация читается один раз на старте и передается конструкторам;
// глобального состояния нет.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeboulanger/saifu/internal/models"
)

// document отражает общую верхнеуровневую форму `conf: { logging, app }`.
// Блок `app` декодируется вторым проходом в тип конкретного сервиса -
// схема app у каждого сервиса своя.
type document struct {
	Conf struct {
		Logging models.LoggingSettings `yaml:"logging"`
		App     yaml.Node              `yaml:"app"`
	} `yaml:"conf"`
}

// Load читает YAML файл по пути path, декодирует его блок `conf.app`
// в app и возвращает рядом общие настройки логирования
func Load(path string, app interface{}) (models.LoggingSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.LoggingSettings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.LoggingSettings{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := doc.Conf.App.Decode(app); err != nil {
		return models.LoggingSettings{}, fmt.Errorf("parse app config %s: %w", path, err)
	}

	return doc.Conf.Logging, nil
}
