package config

import "github.com/jeboulanger/saifu/internal/models"

// SchedpriceApp - блок `conf.app` сервиса schedprice
type SchedpriceApp struct {
	PullDelay   int                     `yaml:"pull_delay"`
	WorkQueue   string                  `yaml:"work_queue"`
	Database    models.DatabaseSettings `yaml:"database"`
	MQ          models.MQSettings       `yaml:"mq"`
	MetricsAddr string                  `yaml:"metrics_addr"`
}
