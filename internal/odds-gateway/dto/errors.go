package dto

// APIErrorDetail é o corpo estruturado de erro devolvido aos consumidores
type APIErrorDetail struct {
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	UpstreamStatus *int     `json:"upstream_status,omitempty"`
	RetryAfter     *float64 `json:"retry_after,omitempty"` // segundos
}

type APIErrorResponse struct {
	Error APIErrorDetail `json:"error"`
}
