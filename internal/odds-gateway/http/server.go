package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/normalizer"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/upstream"
)

// Fetcher busca o payload bruto de odds de um evento no fornecedor
type Fetcher interface {
	FetchOdds(ctx context.Context, eventID string) (any, error)
}

// Publisher replica snapshots normalizados para consumidores downstream
type Publisher interface {
	Publish(ctx context.Context, odds dto.OddsResponse) error
}

// API expõe o endpoint REST de consulta de odds de um evento
type API struct {
	Log        *zap.Logger
	Fetcher    Fetcher
	Normalizer *normalizer.Normalizer
	Publishers []Publisher // opcionais; falha de publicação não afeta a resposta
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", a.root)
	r.Get("/odds/{eventID}", a.getOdds) // Odds normalizadas de um evento
	return r
}

func (a *API) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "odds-gateway", "status": "ok"})
}

// getOdds busca no upstream (com cache e retry), normaliza e serializa
func (a *API) getOdds(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		writeJSON(w, http.StatusBadRequest, dto.APIErrorResponse{Error: dto.APIErrorDetail{
			Code:    "invalid_request",
			Message: "event id is required",
		}})
		return
	}

	payload, err := a.Fetcher.FetchOdds(r.Context(), eventID)
	if err != nil {
		a.writeError(w, eventID, err)
		return
	}

	odds, err := a.Normalizer.Normalize(eventID, payload)
	if err != nil {
		// payload de topo não-objeto é defeito na camada de fetch,
		// não um erro de upstream voltado ao usuário
		a.Log.Error("unexpected upstream payload shape",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, dto.APIErrorResponse{Error: dto.APIErrorDetail{
			Code:    "internal_error",
			Message: "Unexpected upstream payload shape.",
		}})
		return
	}

	a.publishSnapshot(odds)
	writeJSON(w, http.StatusOK, odds)
}

// writeError mapeia a taxonomia tipada do fetch client para o corpo de erro
// estruturado e o status HTTP correspondente
func (a *API) writeError(w http.ResponseWriter, eventID string, err error) {
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		a.Log.Error("unexpected fetch failure", zap.String("event_id", eventID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.APIErrorResponse{Error: dto.APIErrorDetail{
			Code:    "internal_error",
			Message: "Unexpected failure while fetching odds.",
		}})
		return
	}

	a.Log.Warn("upstream fetch failed",
		zap.String("event_id", eventID),
		zap.String("code", upErr.Code),
		zap.Int("upstream_status", upErr.UpstreamStatus),
	)

	detail := dto.APIErrorDetail{
		Code:       upErr.Code,
		Message:    upErr.Message,
		RetryAfter: upErr.RetryAfter,
	}
	if upErr.UpstreamStatus != 0 {
		status := upErr.UpstreamStatus
		detail.UpstreamStatus = &status
	}

	writeJSON(w, upErr.StatusCode, dto.APIErrorResponse{Error: detail})
}

// publishSnapshot replica o snapshot em segundo plano; a resposta ao caller
// nunca espera pelos publishers
func (a *API) publishSnapshot(odds dto.OddsResponse) {
	if len(a.Publishers) == 0 {
		return
	}

	publishers := a.Publishers
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		for _, p := range publishers {
			if err := p.Publish(ctx, odds); err != nil {
				a.Log.Warn("snapshot publish failed",
					zap.String("event_id", odds.Event.EventID),
					zap.Error(err),
				)
			}
		}
	}()
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
