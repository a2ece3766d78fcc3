package broker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/pkg/errs"
)

// State - состояние жизненного цикла агента
type State int32

const (
	StateConnecting State = iota
	StateInitializing
	StateRunning
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ReconnectPolicy - backoff между неудачными попытками подключения
// или инициализации
type ReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultReconnectPolicy возвращает политику по умолчанию: backoff с
// потолком, чтобы лежащий брокер не крутил процесс вхолостую
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{InitialDelay: 1 * time.Second, MaxDelay: 30 * time.Second}
}

// Role - набор способностей конкретного агента (публикатор, подписчик,
// диспетчер, воркер), который общий цикл Run исполняет
type Role struct {
	// Name идентифицирует роль в логах, например "quotes-publisher"
	Name string

	// Initialize объявляет exchanges/очереди/привязки, один раз на
	// соединение
	Initialize func(ch *amqp.Channel) error

	// Drive - основная работа роли на канале. Обязан вернуться когда
	// ctx погашен. Ненулевая ошибка считается транспортным сбоем и
	// ведет к переподключению (или падению агента, если reconnect
	// выключен); нарушение инварианта фатально всегда.
	Drive func(ctx context.Context, ch *amqp.Channel) error

	// OnStop вызывается с текущим каналом при Stop, пока Drive может
	// быть заблокирован на consume - единственный межпоточный сигнал
	// внутри агента
	OnStop func(ch *amqp.Channel)
}

// Agent владеет одним каналом брокера на протяжении жизни и гоняет на
// нем Role, переподключаясь при транспортных сбоях до останова
type Agent struct {
	role      Role
	connector *Connector
	reconnect bool
	policy    ReconnectPolicy
	logger    *zap.SugaredLogger

	running int32 // atomic bool
	state   int32 // atomic State

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	ch   *amqp.Channel
	conn *amqp.Connection
}

// New собирает агента. reconnect=false делает любой транспортный сбой
// фатальным для Run.
func New(role Role, connector *Connector, reconnect bool, policy ReconnectPolicy, logger *zap.SugaredLogger) *Agent {
	ctx, cancel := context.WithCancel(context.Background())
	return &Agent{
		role:      role,
		connector: connector,
		reconnect: reconnect,
		policy:    policy,
		logger:    logger,
		running:   1,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State возвращает текущее состояние жизненного цикла
func (a *Agent) State() State {
	return State(atomic.LoadInt32(&a.state))
}

func (a *Agent) setState(s State) {
	atomic.StoreInt32(&a.state, int32(s))
}

// Running сообщает, не был ли еще вызван Stop
func (a *Agent) Running() bool {
	return atomic.LoadInt32(&a.running) == 1
}

// Run ведет агента по жизненному циклу connecting → initializing →
// running → reconnecting, пока не позовут Stop или не случится
// невосстановимый сбой. Блокирует вызывающую горутину.
func (a *Agent) Run() error {
	delay := a.policy.InitialDelay

	for a.Running() {
		a.setState(StateConnecting)
		conn, ch, err := a.connector.Connect()
		if err != nil {
			if !a.reconnect {
				a.setState(StateStopped)
				return err
			}
			a.logger.Warnw("connect failed, will retry", "role", a.role.Name, "error", err, "delay", delay)
			if !a.sleep(delay) {
				break
			}
			delay = nextDelay(delay, a.policy.MaxDelay)
			continue
		}

		a.setState(StateInitializing)
		if err := a.role.Initialize(ch); err != nil {
			conn.Close()
			if !a.reconnect {
				a.setState(StateStopped)
				return err
			}
			a.logger.Warnw("initialize failed, will retry", "role", a.role.Name, "error", err, "delay", delay)
			if !a.sleep(delay) {
				break
			}
			delay = nextDelay(delay, a.policy.MaxDelay)
			continue
		}

		a.mu.Lock()
		a.ch = ch
		a.conn = conn
		a.mu.Unlock()

		delay = a.policy.InitialDelay // сброс backoff после чистого подключения
		a.setState(StateRunning)

		driveErr := a.role.Drive(a.ctx, ch)

		conn.Close()
		a.mu.Lock()
		a.ch = nil
		a.conn = nil
		a.mu.Unlock()

		if !a.Running() {
			break
		}

		if driveErr != nil {
			// Нарушение инварианта - ошибка программиста: не
			// переподключаемся, роняем агента, супервизор погасит процесс
			if !a.reconnect || errs.IsInvariant(driveErr) {
				a.setState(StateStopped)
				return driveErr
			}
			a.logger.Warnw("transport failure, reconnecting", "role", a.role.Name, "error", driveErr)
			a.setState(StateReconnecting)
			continue
		}
	}

	a.setState(StateStopped)
	return nil
}

// Stop запрашивает останов агента. Безопасен из любой горутины, в том
// числе пока Run заблокирован внутри Drive.
func (a *Agent) Stop() {
	if !atomic.CompareAndSwapInt32(&a.running, 1, 0) {
		return
	}
	a.cancel()

	a.mu.Lock()
	ch := a.ch
	a.mu.Unlock()

	if ch != nil && a.role.OnStop != nil {
		a.role.OnStop(ch)
	}
}

func (a *Agent) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-a.ctx.Done():
		return false
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
