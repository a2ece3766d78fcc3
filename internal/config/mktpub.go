package config

import "github.com/jeboulanger/saifu/internal/models"

// MktpubApp - блок `conf.app` сервиса mktpub
type MktpubApp struct {
	PullDelay   int               `yaml:"pull_delay"`
	Exchange    string            `yaml:"exchange"`
	Resource    string            `yaml:"res"`
	MQ          models.MQSettings `yaml:"mq"`
	MetricsAddr string            `yaml:"metrics_addr"`
}
