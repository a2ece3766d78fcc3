package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/jeboulanger/saifu/internal/models"
	"github.com/jeboulanger/saifu/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RequesterFailure - единая восстановимая ошибка запроса котировок.
// Транспортные сбои, не-200 ответы и ошибки, о которых сообщил сам
// поставщик, сводятся к ней: вызывающая сторона логирует и повторяет
// запрос после pull_delay.
type RequesterFailure struct {
	Reason string
	Err    error
}

func (e *RequesterFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote request failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("quote request failed: %s", e.Reason)
}

func (e *RequesterFailure) Unwrap() error {
	return e.Err
}

// Requester опрашивает внешнего поставщика котировок.
//
// URL строится подстановкой {sources} и {targets} (коды валют через
// запятую) в шаблон из конфигурации. Успех - HTTP 200 с телом вида
// { source_code: { target_code: price, ... }, ... }. Ошибка поставщика
// обозначается верхнеуровневым "Response": "Error" с "Message".
type Requester struct {
	template string
	client   *http.Client
	retryCfg retry.Config

	now func() time.Time
}

// NewRequester создает новый экземпляр Requester для шаблона URL
func NewRequester(template string, client *http.Client) *Requester {
	if client == nil {
		client = NewHTTPClient(DefaultHTTPClientConfig())
	}

	cfg := retry.NetworkConfig()
	cfg.RetryIf = retry.IsRetryable

	return &Requester{
		template: template,
		client:   client,
		retryCfg: cfg,
		now:      time.Now,
	}
}

// Request запрашивает котировки для объединения исходных и целевых
// валют одним вызовом и возвращает декартово произведение пар из
// ответа. Временная метка каждой котировки - момент получения ответа
// (UTC).
func (r *Requester) Request(ctx context.Context, sources, targets []string) ([]models.Quote, error) {
	url := strings.NewReplacer(
		"{sources}", strings.Join(sources, ","),
		"{targets}", strings.Join(targets, ","),
	).Replace(r.template)

	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return r.fetch(ctx, url)
	}, r.retryCfg)
	if err != nil {
		var failure *RequesterFailure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, &RequesterFailure{Reason: "transport error", Err: err}
	}

	return r.parse(body)
}

// fetch выполняет один POST к поставщику. Транспортные сбои и не-200
// ответы помечаются временными, чтобы retry их повторил; ошибку в
// самом конверте ответа повторять бессмысленно.
func (r *Requester) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, retry.Permanent(&RequesterFailure{Reason: "build request", Err: err})
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, retry.Temporary(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retry.Temporary(&RequesterFailure{Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Temporary(err)
	}

	return body, nil
}

// parse разбирает тело ответа в котировки
func (r *Requester) parse(body []byte) ([]models.Quote, error) {
	var envelope map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RequesterFailure{Reason: "malformed response", Err: err}
	}

	if raw, ok := envelope["Response"]; ok {
		var response string
		if err := json.Unmarshal(raw, &response); err == nil && response == "Error" {
			message := "unknown provider error"
			if rawMsg, ok := envelope["Message"]; ok {
				var m string
				if err := json.Unmarshal(rawMsg, &m); err == nil {
					m = strings.TrimSpace(m)
					if m != "" {
						message = m
					}
				}
			}
			return nil, &RequesterFailure{Reason: message}
		}
	}

	received := r.now().UTC()

	var quotes []models.Quote
	for source, raw := range envelope {
		var prices map[string]float64
		if err := json.Unmarshal(raw, &prices); err != nil {
			// Всё, что не разбирается как карта цен, считается данными
			// конверта, а не парой валют
			continue
		}
		for target, price := range prices {
			quotes = append(quotes, models.Quote{
				Ticker:    source + target,
				Price:     price,
				Timestamp: received,
			})
		}
	}

	return quotes, nil
}
