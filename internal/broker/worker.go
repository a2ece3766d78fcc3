package broker

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewWorkerRole строит роль воркера: объявляет фиксированный direct
// exchange и именованную durable очередь, привязанную фиксированным
// routing key, и отдает тело каждого сообщения в handle без
// подтверждения. Сообщение в полете теряется при падении mid-handle -
// осознанный размен на простоту, переповторов брокер не делает.
// Ненулевая ошибка из handle уводит агента в переподключение, а
// нарушение инварианта роняет процесс.
func NewWorkerRole(name, queue string, handle func(body []byte) error) Role {
	var mu sync.Mutex
	var consumerTag string

	return Role{
		Name: name,
		Initialize: func(ch *amqp.Channel) error {
			if err := ch.ExchangeDeclare(DirectExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
				return err
			}
			if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
				return err
			}
			return ch.QueueBind(queue, RoutingKey, DirectExchange, false, nil)
		},
		Drive: func(ctx context.Context, ch *amqp.Channel) error {
			tag := name + "-worker"
			mu.Lock()
			consumerTag = tag
			mu.Unlock()

			deliveries, err := ch.Consume(queue, tag, true, false, false, false, nil)
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
					if err := handle(d.Body); err != nil {
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
