package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublishFunc отправляет одно тело сообщения в exchange роли
type PublishFunc func(body []byte) error

// NewPublisherRole строит роль публикатора: объявляет fan-out exchange
// и гоняет work с PublishFunc, привязанной к нему с пустым routing key.
// work - пользовательский цикл, который сам решает когда публиковать и
// возвращается когда ctx погашен.
func NewPublisherRole(name, exchange string, work func(ctx context.Context, publish PublishFunc) error) Role {
	return Role{
		Name: name,
		Initialize: func(ch *amqp.Channel) error {
			return ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, false, false, false, false, nil)
		},
		Drive: func(ctx context.Context, ch *amqp.Channel) error {
			publish := func(body []byte) error {
				return ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
					ContentType: "application/json",
					Body:        body,
				})
			}
			return work(ctx, publish)
		},
	}
}
