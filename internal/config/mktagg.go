package config

import "github.com/jeboulanger/saifu/internal/models"

// MktaggApp - блок `conf.app` сервиса mktagg
type MktaggApp struct {
	AggregationWindow int               `yaml:"aggregation_window"`
	StartImmediate    *bool             `yaml:"start_immediate"` // по умолчанию true когда отсутствует
	SubExchange       string            `yaml:"sub_exchange"`
	PubExchange       string            `yaml:"pub_exchange"`
	MQ                models.MQSettings `yaml:"mq"`
	MetricsAddr       string            `yaml:"metrics_addr"`
}

// StartImmediateOrDefault возвращает настроенную политику первого
// окна; по умолчанию true - первое же событие закрывает частичное окно
func (a MktaggApp) StartImmediateOrDefault() bool {
	if a.StartImmediate == nil {
		return true
	}
	return *a.StartImmediate
}
