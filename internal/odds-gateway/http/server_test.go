package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/event-odds-gateway/internal/odds-gateway/dto"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/normalizer"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/upstream"
)

type fakeFetcher struct {
	payload any
	err     error
}

func (f *fakeFetcher) FetchOdds(ctx context.Context, eventID string) (any, error) {
	return f.payload, f.err
}

type fakePublisher struct {
	published chan dto.OddsResponse
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, odds dto.OddsResponse) error {
	p.published <- odds
	return p.err
}

func newTestAPI(fetcher Fetcher, publishers ...Publisher) *API {
	return &API{
		Log:        zap.NewNop(),
		Fetcher:    fetcher,
		Normalizer: &normalizer.Normalizer{DefaultSource: "livesport"},
		Publishers: publishers,
	}
}

func doRequest(t *testing.T, api *API, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) dto.APIErrorDetail {
	t.Helper()
	var body dto.APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error
}

func TestGetOddsSuccess(t *testing.T) {
	var payload any
	raw := `{"event": {"name": "Inter vs Milan", "bookmakers": [{"id": "b1", "markets": []}]}}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatal(err)
	}

	api := newTestAPI(&fakeFetcher{payload: payload})
	rec := doRequest(t, api, "/odds/ev-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: %s", ct)
	}

	var body dto.OddsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body: %v", err)
	}
	if body.Event.EventID != "ev-1" {
		t.Errorf("event id: %q", body.Event.EventID)
	}
	if body.Event.EventName == nil || *body.Event.EventName != "Inter vs Milan" {
		t.Errorf("event name: %v", body.Event.EventName)
	}
	if len(body.Event.Bookmakers) != 1 {
		t.Errorf("bookmakers: %d", len(body.Event.Bookmakers))
	}
	if body.Source == nil || *body.Source != "livesport" {
		t.Errorf("source: %v", body.Source)
	}
}

func TestGetOddsUpstreamErrorMapping(t *testing.T) {
	retryAfter := 7.0
	api := newTestAPI(&fakeFetcher{err: &upstream.Error{
		Code:           upstream.CodeUnavailable,
		Message:        "Upstream odds service temporarily unavailable.",
		StatusCode:     http.StatusTooManyRequests,
		UpstreamStatus: http.StatusTooManyRequests,
		RetryAfter:     &retryAfter,
	}})
	rec := doRequest(t, api, "/odds/ev-2")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status: %d", rec.Code)
	}
	detail := decodeErrorBody(t, rec)
	if detail.Code != upstream.CodeUnavailable {
		t.Errorf("code: %s", detail.Code)
	}
	if detail.UpstreamStatus == nil || *detail.UpstreamStatus != http.StatusTooManyRequests {
		t.Errorf("upstream_status: %v", detail.UpstreamStatus)
	}
	if detail.RetryAfter == nil || *detail.RetryAfter != 7.0 {
		t.Errorf("retry_after: %v", detail.RetryAfter)
	}
}

func TestGetOddsConnectionErrorOmitsUpstreamStatus(t *testing.T) {
	api := newTestAPI(&fakeFetcher{err: &upstream.Error{
		Code:       upstream.CodeConnectionError,
		Message:    "Unable to contact upstream odds service.",
		StatusCode: http.StatusGatewayTimeout,
	}})
	rec := doRequest(t, api, "/odds/ev-3")

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status: %d", rec.Code)
	}

	// upstream_status e retry_after devem sumir do JSON quando desconhecidos
	var raw map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["error"]["upstream_status"]; ok {
		t.Error("upstream_status should be omitted")
	}
	if _, ok := raw["error"]["retry_after"]; ok {
		t.Error("retry_after should be omitted")
	}
}

func TestGetOddsUntypedErrorIsInternal(t *testing.T) {
	api := newTestAPI(&fakeFetcher{err: errors.New("boom")})
	rec := doRequest(t, api, "/odds/ev-4")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", rec.Code)
	}
	if detail := decodeErrorBody(t, rec); detail.Code != "internal_error" {
		t.Errorf("code: %s", detail.Code)
	}
}

func TestGetOddsNonObjectPayloadIsInternal(t *testing.T) {
	api := newTestAPI(&fakeFetcher{payload: []any{1.0, 2.0}})
	rec := doRequest(t, api, "/odds/ev-5")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: %d", rec.Code)
	}
	if detail := decodeErrorBody(t, rec); detail.Code != "internal_error" {
		t.Errorf("code: %s", detail.Code)
	}
}

func TestGetOddsPublishesSnapshotInBackground(t *testing.T) {
	publisher := &fakePublisher{published: make(chan dto.OddsResponse, 1)}
	api := newTestAPI(&fakeFetcher{payload: map[string]any{}}, publisher)

	rec := doRequest(t, api, "/odds/ev-6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}

	select {
	case snapshot := <-publisher.published:
		if snapshot.Event.EventID != "ev-6" {
			t.Errorf("published event id: %q", snapshot.Event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot was never published")
	}
}

func TestGetOddsPublisherFailureDoesNotAffectResponse(t *testing.T) {
	publisher := &fakePublisher{
		published: make(chan dto.OddsResponse, 1),
		err:       errors.New("broker down"),
	}
	api := newTestAPI(&fakeFetcher{payload: map[string]any{}}, publisher)

	rec := doRequest(t, api, "/odds/ev-7")
	if rec.Code != http.StatusOK {
		t.Fatalf("publisher failures must be invisible to the caller: %d", rec.Code)
	}
	<-publisher.published
}

func TestRootEndpoint(t *testing.T) {
	api := newTestAPI(&fakeFetcher{})
	rec := doRequest(t, api, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["service"] != "odds-gateway" || body["status"] != "ok" {
		t.Errorf("body: %v", body)
	}
}
