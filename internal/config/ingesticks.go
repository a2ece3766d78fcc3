package config

import "github.com/jeboulanger/saifu/internal/models"

// IngesticksApp - блок `conf.app` сервиса ingesticks
type IngesticksApp struct {
	Exchange    string                  `yaml:"exchange"`
	Database    models.DatabaseSettings `yaml:"database"`
	MQ          models.MQSettings       `yaml:"mq"`
	MetricsAddr string                  `yaml:"metrics_addr"`
}
