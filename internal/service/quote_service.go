package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeboulanger/saifu/internal/broker"
	"github.com/jeboulanger/saifu/internal/metrics"
	"github.com/jeboulanger/saifu/internal/wire"
	"github.com/jeboulanger/saifu/pkg/ratelimit"
)

// Ошибки разбора валютных пар
var (
	ErrBadPairFormat = errors.New("currency pair must look like SOURCE_TARGET")
)

// Pair - валютная пара, за которой следит публикатор
type Pair struct {
	Source string
	Target string
}

// ParsePair разбирает аргумент командной строки вида "BTC_USD"
func ParsePair(arg string) (Pair, error) {
	parts := strings.Split(arg, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("%w: %q", ErrBadPairFormat, arg)
	}
	return Pair{Source: parts[0], Target: parts[1]}, nil
}

// QuoteService - публикатор котировок (mktpub)
//
// Назначение: опрашивать поставщика и рассылать котировки в fan-out
// exchange. Поставщик опрашивается одним запросом с объединениями
// исходных и целевых валют; публикуется декартово произведение пар
// из ответа.
type QuoteService struct {
	requester QuoteRequesterInterface
	pairs     []Pair
	pullDelay time.Duration
	limiter   *ratelimit.RateLimiter
	logger    *zap.SugaredLogger
}

// NewQuoteService создает новый экземпляр публикатора.
// Limiter страхует поставщика от слишком частых опросов при очень
// маленьком pull_delay.
func NewQuoteService(requester QuoteRequesterInterface, pairs []Pair, pullDelay time.Duration, logger *zap.SugaredLogger) *QuoteService {
	return &QuoteService{
		requester: requester,
		pairs:     pairs,
		pullDelay: pullDelay,
		limiter:   ratelimit.NewRateLimiter(1, 2),
		logger:    logger,
	}
}

// Sources возвращает объединение исходных валют в порядке первого
// появления
func (s *QuoteService) Sources() []string {
	return s.union(func(p Pair) string { return p.Source })
}

// Targets возвращает объединение целевых валют в порядке первого
// появления
func (s *QuoteService) Targets() []string {
	return s.union(func(p Pair) string { return p.Target })
}

func (s *QuoteService) union(pick func(Pair) string) []string {
	seen := make(map[string]bool, len(s.pairs))
	var codes []string
	for _, p := range s.pairs {
		code := pick(p)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// Work - бесконечный цикл публикатора: запросить котировки, разослать
// каждую, уснуть на pull_delay. Сбой запроса логируется, и цикл
// повторяется после той же паузы. Ошибка публикации - транспортная:
// возвращается агенту для переподключения.
func (s *QuoteService) Work(ctx context.Context, publish broker.PublishFunc) error {
	sources := s.Sources()
	targets := s.Targets()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}

		quotes, err := s.requester.Request(ctx, sources, targets)
		if err != nil {
			s.logger.Warnw("quote request failed", "error", err)
			if !sleepCtx(ctx, s.pullDelay) {
				return nil
			}
			continue
		}

		for _, q := range quotes {
			body, err := wire.EncodeQuote(q)
			if err != nil {
				s.logger.Warnw("failed to encode quote", "ticker", q.Ticker, "error", err)
				continue
			}
			if err := publish(body); err != nil {
				return err
			}
			metrics.QuotesPublished.Inc()
		}
		s.logger.Debugw("published quotes", "count", len(quotes))

		if !sleepCtx(ctx, s.pullDelay) {
			return nil
		}
	}
}
