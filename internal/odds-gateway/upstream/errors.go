package upstream

import "fmt"

// Códigos da taxonomia de falha do fetch client. Todo erro devolvido pelo
// cliente carrega um desses códigos; nunca uma falha genérica.
const (
	CodeConnectionError = "upstream_connection_error" // transporte esgotou as tentativas
	CodeInvalidPayload  = "upstream_invalid_payload"  // 200 com corpo não decodificável
	CodeUnavailable     = "upstream_unavailable"      // 429/503 esgotou as tentativas
	CodeHTTPError       = "upstream_http_error"       // demais status não-2xx
	CodeRetryExhausted  = "upstream_retry_exhausted"  // fallback defensivo do loop
)

// Error é a falha tipada do fetch client.
// StatusCode é o status HTTP a expor ao consumidor; UpstreamStatus registra o
// status devolvido pelo fornecedor (0 quando desconhecido); RetryAfter carrega
// a dica de espera em segundos quando o fornecedor enviou uma.
type Error struct {
	Code           string
	Message        string
	StatusCode     int
	UpstreamStatus int
	RetryAfter     *float64
	Cause          error
}

func (e *Error) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Code, e.Message, e.UpstreamStatus)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
