package config

import "github.com/jeboulanger/saifu/internal/models"

// PortpriceApp - блок `conf.app` сервиса portprice
type PortpriceApp struct {
	WorkQueue   string                  `yaml:"work_queue"`
	Database    models.DatabaseSettings `yaml:"database"`
	MQ          models.MQSettings       `yaml:"mq"`
	MetricsAddr string                  `yaml:"metrics_addr"`
}
