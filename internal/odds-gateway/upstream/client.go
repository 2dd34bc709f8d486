// Package upstream implementa o fetch client resiliente do fornecedor de
// odds: cache TTL por evento, retry com backoff exponencial respeitando
// Retry-After, e classificação das falhas numa taxonomia tipada.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Status que valem nova tentativa quando ainda há tentativas disponíveis
var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooEarly:            true, // 425
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Options agrupa os parâmetros de construção do cliente.
// Headers e DefaultParams são opacos (imitação de navegador exigida pelo
// fornecedor) e vêm da configuração do deployment.
type Options struct {
	BaseURL       string
	Headers       map[string]string
	DefaultParams map[string]string
	Timeout       time.Duration
	MaxRetries    int
	BackoffFactor float64 // segundos; backoff = factor * 2^attempt
	MaxBackoff    time.Duration
	CacheTTL      time.Duration
}

// Client busca o payload bruto de odds de um evento no fornecedor.
// O pool de conexões do transporte é um recurso do processo: criado uma vez
// no startup e liberado via Close no shutdown.
type Client struct {
	baseURL       string
	headers       map[string]string
	params        map[string]string
	httpClient    *http.Client
	log           *zap.Logger
	maxRetries    int
	backoffFactor float64
	maxBackoff    time.Duration
	cache         *payloadCache

	// sleep é injetável em teste; o default respeita cancelamento do contexto
	sleep func(ctx context.Context, d time.Duration) error

	// Hooks de métricas (opcionais), ligados no main.
	// OnAttempt recebe o status da tentativa (0 = falha de transporte).
	OnCacheHit  func()
	OnCacheMiss func()
	OnAttempt   func(status int, elapsed time.Duration)
	OnError     func(code string)
}

func New(opts Options, log *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		headers:       opts.Headers,
		params:        opts.DefaultParams,
		httpClient:    &http.Client{Timeout: timeout, Transport: transport},
		log:           log,
		maxRetries:    opts.MaxRetries,
		backoffFactor: opts.BackoffFactor,
		maxBackoff:    opts.MaxBackoff,
		cache:         newPayloadCache(opts.CacheTTL),
		sleep:         sleepContext,
	}
}

// Close libera as conexões ociosas do transporte
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// FetchOdds devolve o payload bruto (já decodificado como any) do evento,
// usando o cache quando válido. Toda falha terminal é um *Error tipado.
func (c *Client) FetchOdds(ctx context.Context, eventID string) (any, error) {
	if payload, ok := c.cache.get(eventID); ok {
		if c.OnCacheHit != nil {
			c.OnCacheHit()
		}
		c.log.Debug("odds cache hit", zap.String("event_id", eventID))
		return payload, nil
	}
	if c.OnCacheMiss != nil {
		c.OnCacheMiss()
	}

	requestURL := c.requestURL(eventID)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, c.fail(&Error{
				Code:       CodeConnectionError,
				Message:    "Fetch canceled while contacting upstream odds service.",
				StatusCode: http.StatusGatewayTimeout,
				Cause:      ctx.Err(),
			})
		}

		start := time.Now()
		resp, err := c.do(ctx, requestURL)
		if err != nil {
			if c.OnAttempt != nil {
				c.OnAttempt(0, time.Since(start))
			}
			c.log.Warn("upstream request failed",
				zap.String("event_id", eventID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt == c.maxRetries {
				return nil, c.fail(&Error{
					Code:       CodeConnectionError,
					Message:    "Unable to contact upstream odds service.",
					StatusCode: http.StatusGatewayTimeout,
					Cause:      err,
				})
			}
			if serr := c.sleep(ctx, c.backoff(attempt, nil)); serr != nil {
				return nil, c.fail(&Error{
					Code:       CodeConnectionError,
					Message:    "Fetch canceled during retry backoff.",
					StatusCode: http.StatusGatewayTimeout,
					Cause:      serr,
				})
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if c.OnAttempt != nil {
			c.OnAttempt(resp.StatusCode, time.Since(start))
		}

		if resp.StatusCode == http.StatusOK {
			// 200 com corpo malformado é estrutural, não transitório: sem retry
			var payload any
			if readErr != nil || json.Unmarshal(body, &payload) != nil {
				return nil, c.fail(&Error{
					Code:           CodeInvalidPayload,
					Message:        "Upstream odds service returned invalid JSON.",
					StatusCode:     http.StatusBadGateway,
					UpstreamStatus: resp.StatusCode,
				})
			}
			c.cache.set(eventID, payload)
			c.log.Debug("odds fetched",
				zap.String("event_id", eventID),
				zap.Int("attempt", attempt),
			)
			return payload, nil
		}

		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			if attempt == c.maxRetries {
				return nil, c.fail(&Error{
					Code:           CodeUnavailable,
					Message:        "Upstream odds service temporarily unavailable.",
					StatusCode:     resp.StatusCode,
					UpstreamStatus: resp.StatusCode,
					RetryAfter:     retryAfter,
				})
			}
			if serr := c.sleep(ctx, c.backoff(attempt, retryAfter)); serr != nil {
				return nil, c.fail(&Error{
					Code:       CodeConnectionError,
					Message:    "Fetch canceled during retry backoff.",
					StatusCode: http.StatusGatewayTimeout,
					Cause:      serr,
				})
			}
			continue
		}

		if retryableStatusCodes[resp.StatusCode] && attempt < c.maxRetries {
			c.log.Warn("retryable upstream status",
				zap.String("event_id", eventID),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt),
			)
			if serr := c.sleep(ctx, c.backoff(attempt, retryAfter)); serr != nil {
				return nil, c.fail(&Error{
					Code:       CodeConnectionError,
					Message:    "Fetch canceled during retry backoff.",
					StatusCode: http.StatusGatewayTimeout,
					Cause:      serr,
				})
			}
			continue
		}

		// Status não recuperável, ou recuperável na última tentativa
		return nil, c.fail(&Error{
			Code:           CodeHTTPError,
			Message:        "Upstream odds service responded with an error.",
			StatusCode:     http.StatusBadGateway,
			UpstreamStatus: resp.StatusCode,
			RetryAfter:     retryAfter,
		})
	}

	// Defensivo: o loop sempre retorna ou falha antes de chegar aqui
	return nil, c.fail(&Error{
		Code:       CodeRetryExhausted,
		Message:    "Failed to retrieve odds after retries.",
		StatusCode: http.StatusBadGateway,
	})
}

func (c *Client) do(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.headers {
		// Accept-Encoding fica por conta do transporte, que negocia e
		// descomprime gzip sozinho; fixar o header manualmente desligaria isso
		if strings.EqualFold(key, "Accept-Encoding") {
			continue
		}
		req.Header.Set(key, value)
	}
	return c.httpClient.Do(req)
}

// requestURL monta a URL com os parâmetros fixos do deployment mais o eventId
func (c *Client) requestURL(eventID string) string {
	query := url.Values{}
	for key, value := range c.params {
		query.Set(key, value)
	}
	query.Set("eventId", eventID)
	return c.baseURL + "?" + query.Encode()
}

// backoff calcula a espera: min(maxBackoff, factor * 2^attempt), sobrescrita
// pela dica Retry-After do fornecedor quando presente (ainda limitada ao teto)
func (c *Client) backoff(attempt int, retryAfter *float64) time.Duration {
	if retryAfter != nil {
		d := time.Duration(*retryAfter * float64(time.Second))
		if d < 0 {
			d = 0
		}
		if d > c.maxBackoff {
			d = c.maxBackoff
		}
		return d
	}

	d := time.Duration(c.backoffFactor * math.Pow(2, float64(attempt)) * float64(time.Second))
	if d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

func (c *Client) fail(e *Error) error {
	if c.OnError != nil {
		c.OnError(e.Code)
	}
	return e
}

// parseRetryAfter aceita segundos ou uma HTTP-date (RFC 7231), convertida em
// delta não negativo; valores não reconhecidos são ignorados
func parseRetryAfter(header string) *float64 {
	if header == "" {
		return nil
	}
	if seconds, err := strconv.ParseFloat(header, 64); err == nil {
		return &seconds
	}
	if at, err := http.ParseTime(header); err == nil {
		delta := time.Until(at).Seconds()
		if delta < 0 {
			delta = 0
		}
		return &delta
	}
	return nil
}

// sleepContext aguarda d, mas retorna imediatamente se o contexto for
// cancelado; é o único ponto de suspensão entre tentativas
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
