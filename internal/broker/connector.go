// Package broker - каркас агентов брокера: единообразный долгоживущий
// агент под надзором, который владеет одним AMQP каналом и
// переподключается при транспортных сбоях. Вместо иерархии типов -
// один цикл Run, параметризованный дескриптором роли (публикатор,
// подписчик, диспетчер, воркер).
package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jeboulanger/saifu/internal/models"
)

// Connector открывает соединения с брокером из настроек. От соединения
// берется ровно один канал, и им владеет одна горутина-агент всю
// свою жизнь.
type Connector struct {
	settings models.MQSettings
}

// NewConnector создает Connector из настроек брокера
func NewConnector(settings models.MQSettings) *Connector {
	return &Connector{settings: settings}
}

// Connect дозванивается до брокера и открывает один канал на новом
// соединении
func (c *Connector) Connect() (*amqp.Connection, *amqp.Channel, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s/", c.settings.Credentials.Username, c.settings.Credentials.Password, c.settings.Host)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	return conn, ch, nil
}
