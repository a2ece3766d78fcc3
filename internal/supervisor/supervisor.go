// Package supervisor запускает фиксированный набор агентов и следит за
// их живостью. Падение любого агента останавливает остальных и
// завершает процесс с ошибкой - fail-fast, перезапуск делает внешний
// менеджер процессов.
package supervisor

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// pollInterval - период служебного лога живости
const pollInterval = 5 * time.Second

// Ошибки супервизора
var (
	ErrAgentDied = errors.New("agent terminated unexpectedly")
)

// Agent - долгоживущий поток под надзором. Run блокируется до останова
// или фатального сбоя; Stop можно звать из любой горутины, в том числе
// пока Run заблокирован на consume.
type Agent interface {
	Run() error
	Stop()
}

// Member - агент с именем для логов
type Member struct {
	Name  string
	Agent Agent
}

// Supervisor управляет группой агентов
type Supervisor struct {
	members []Member
	logger  *zap.SugaredLogger

	stopping int32 // atomic: Stop был запрошен снаружи
	stopOnce sync.Once
}

// New создает супервизор над группой агентов
func New(logger *zap.SugaredLogger, members ...Member) *Supervisor {
	return &Supervisor{members: members, logger: logger}
}

type exit struct {
	name string
	err  error
}

// Run запускает всех агентов и блокируется до первого завершения.
// Завершение любого агента - штатное или нет - останавливает
// остальных. Возвращает nil только если первый завершившийся агент
// вышел без ошибки после запрошенного Stop; иначе ErrAgentDied.
//
// Частный случай одного агента сводится к простому ожиданию.
func (s *Supervisor) Run() error {
	exits := make(chan exit, len(s.members))
	var wg sync.WaitGroup

	for _, m := range s.members {
		wg.Add(1)
		go func(m Member) {
			defer wg.Done()
			err := m.Agent.Run()
			exits <- exit{name: m.Name, err: err}
		}(m)
	}

	var first exit
	if len(s.members) == 1 {
		first = <-exits
	} else {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

	wait:
		for {
			select {
			case first = <-exits:
				break wait
			case <-ticker.C:
				s.logger.Debugw("agents alive", "count", len(s.members))
			}
		}
	}

	if first.err != nil {
		s.logger.Errorw("agent failed", "agent", first.name, "error", first.err)
	} else {
		s.logger.Infow("agent stopped", "agent", first.name)
	}

	requested := atomic.LoadInt32(&s.stopping) == 1

	// Гасим остальных и дожидаемся всех
	s.stopAll()
	wg.Wait()

	if first.err != nil {
		return errors.Join(ErrAgentDied, first.err)
	}
	if !requested {
		// Агент вышел сам без ошибки - для группы это все равно смерть
		return ErrAgentDied
	}
	return nil
}

// Stop запрашивает останов всех агентов. Идемпотентен.
func (s *Supervisor) Stop() {
	atomic.StoreInt32(&s.stopping, 1)
	s.stopAll()
}

func (s *Supervisor) stopAll() {
	s.stopOnce.Do(func() {
		for _, m := range s.members {
			m.Agent.Stop()
		}
	})
}
