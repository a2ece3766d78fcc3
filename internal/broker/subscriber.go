package broker

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewSubscriberRole строит роль подписчика: объявляет fan-out exchange,
// привязывает к нему эксклюзивную автоименованную очередь и отдает тело
// каждого сообщения в received без подтверждения (at-most-once до
// обработчика). Ненулевая ошибка из received считается транспортной и
// уводит агента в цикл переподключения.
func NewSubscriberRole(name, exchange string, received func(body []byte) error) Role {
	var mu sync.Mutex
	var queueName string
	var consumerTag string

	return Role{
		Name: name,
		Initialize: func(ch *amqp.Channel) error {
			if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, false, false, false, false, nil); err != nil {
				return err
			}
			q, err := ch.QueueDeclare("", false, false, true, false, nil)
			if err != nil {
				return err
			}
			if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
				return err
			}
			mu.Lock()
			queueName = q.Name
			mu.Unlock()
			return nil
		},
		Drive: func(ctx context.Context, ch *amqp.Channel) error {
			mu.Lock()
			q := queueName
			tag := name + "-" + q
			consumerTag = tag
			mu.Unlock()

			deliveries, err := ch.Consume(q, tag, true, true, false, false, nil)
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return nil
					}
					if err := received(d.Body); err != nil {
						return err
					}
				}
			}
		},
		OnStop: func(ch *amqp.Channel) {
			mu.Lock()
			tag := consumerTag
			mu.Unlock()
			if tag != "" {
				ch.Cancel(tag, false)
			}
		},
	}
}
