package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Фиксированная топология рабочей очереди заданий
const (
	DirectExchange = "Direct-X"
	RoutingKey     = "Key1"
)

// DispatchFunc отправляет одно тело сообщения в рабочую очередь
type DispatchFunc func(body []byte) error

// NewDispatcherRole строит роль диспетчера: объявляет фиксированный
// direct exchange и гоняет work с DispatchFunc, привязанной к
// фиксированному routing key. Сообщения помечаются persistent - под
// стать durable очереди воркера.
//
// Диспетчер объявляет и привязывает workQueue сам (идемпотентно, тем
// же объявлением что и воркер): direct exchange молча теряет
// сообщения без привязанной очереди, а планировщик не должен терять
// задание только потому, что процесс воркера еще не стартовал.
func NewDispatcherRole(name, workQueue string, work func(ctx context.Context, dispatch DispatchFunc) error) Role {
	return Role{
		Name: name,
		Initialize: func(ch *amqp.Channel) error {
			if err := ch.ExchangeDeclare(DirectExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
				return err
			}
			if _, err := ch.QueueDeclare(workQueue, true, false, false, false, nil); err != nil {
				return err
			}
			return ch.QueueBind(workQueue, RoutingKey, DirectExchange, false, nil)
		},
		Drive: func(ctx context.Context, ch *amqp.Channel) error {
			dispatch := func(body []byte) error {
				return ch.PublishWithContext(ctx, DirectExchange, RoutingKey, false, false, amqp.Publishing{
					ContentType:  "application/json",
					DeliveryMode: amqp.Persistent,
					Body:         body,
				})
			}
			return work(ctx, dispatch)
		},
	}
}
