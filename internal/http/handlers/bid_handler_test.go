// HTTP-level tests for the bid session flow.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"drover/internal/http/handlers"
	"drover/internal/modules/bid"
	"drover/internal/modules/pricing"
	"drover/internal/types"
)

type stubRides struct {
	mu        sync.Mutex
	submitErr error
	declines  int
}

func (s *stubRides) SubmitBid(_ context.Context, _ types.ID, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

func (s *stubRides) DeclineRideRequest(_ context.Context, _ types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines++
	return nil
}

type stubNotifier struct{}

func (stubNotifier) SubscribeOutcome(_ context.Context, _, _ types.ID, _ bid.OutcomeHandler) (bid.Unsubscribe, error) {
	return func() {}, nil
}

func (stubNotifier) ResumeGeneralListening(_ context.Context, _ types.ID) error { return nil }

type pushRecorder struct {
	mu     sync.Mutex
	frames []any
}

func (p *pushRecorder) Push(_ types.ID, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, v)
}

func buildTestRouter(rides *stubRides) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := bid.NewService(nil, rides, stubNotifier{}, bid.Config{ListenTimeout: time.Minute}, nil)
	h := handlers.NewBidHandler(svc, pricing.NewService(), &pushRecorder{})
	r := gin.New()
	api := r.Group("/api")
	api.POST("/bids", h.Create)
	api.GET("/bids/:id", h.Get)
	api.POST("/bids/:id/adjust", h.Adjust)
	api.POST("/bids/:id/amount", h.SetAmount)
	api.POST("/bids/:id/reset", h.Reset)
	api.POST("/bids/:id/submit", h.Submit)
	api.POST("/bids/:id/confirm", h.Confirm)
	api.POST("/bids/:id/cancel-confirm", h.CancelConfirm)
	api.POST("/bids/:id/cancel", h.Cancel)
	api.GET("/bids/:id/quote", h.Quote)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

func createSession(t *testing.T, r *gin.Engine, defaultAmount string) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/bids", map[string]any{
		"ride_request_id": "ride-1",
		"driver_id":       "driver-1",
		"default_amount":  defaultAmount,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", w.Code, w.Body.String())
	}
	id, _ := decode(t, w)["session_id"].(string)
	if id == "" {
		t.Fatal("no session_id in response")
	}
	return id
}

func TestBidFlow_AdjustSubmitConfirm(t *testing.T) {
	rides := &stubRides{}
	r := buildTestRouter(rides)
	id := createSession(t, r, "15.00")

	// Six -$2 taps clamp the draft at the floor.
	for i := 0; i < 6; i++ {
		w := doRequest(r, http.MethodPost, "/api/bids/"+id+"/adjust", map[string]any{
			"kind": "amount", "value": "2.00", "direction": "decrease",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("adjust %d: status %d: %s", i, w.Code, w.Body.String())
		}
		if i == 5 {
			body := decode(t, w)
			if body["working_amount"] != "5.00" {
				t.Fatalf("working_amount = %v, want 5.00", body["working_amount"])
			}
			if body["boundary_hit"] != "min" {
				t.Fatalf("boundary_hit = %v, want min", body["boundary_hit"])
			}
		}
	}

	w := doRequest(r, http.MethodPost, "/api/bids/"+id+"/reset", nil)
	if body := decode(t, w); body["working_amount"] != "15.00" {
		t.Fatalf("reset: working_amount = %v", body["working_amount"])
	}

	w = doRequest(r, http.MethodPost, "/api/bids/"+id+"/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["confirmation_required"] != true {
		t.Fatal("submit must require confirmation")
	}
	quote, _ := body["quote"].(map[string]any)
	if quote["net"] != "12.75" || quote["commission"] != "2.25" {
		t.Fatalf("quote = %v", quote)
	}

	w = doRequest(r, http.MethodPost, "/api/bids/"+id+"/confirm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status %d: %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["state"] != "listening" || body["submitted_amount"] != "15.00" {
		t.Fatalf("confirm body = %v", body)
	}

	// Adjusting after submission is caller misuse.
	w = doRequest(r, http.MethodPost, "/api/bids/"+id+"/adjust", map[string]any{
		"kind": "amount", "value": "1.00", "direction": "increase",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("adjust while listening: status %d", w.Code)
	}
}

func TestBidFlow_CooldownSurfaced(t *testing.T) {
	rides := &stubRides{submitErr: &bid.SubmitError{Code: bid.CodeCooldown, RetrySeconds: 90}}
	r := buildTestRouter(rides)
	id := createSession(t, r, "20.00")

	doRequest(r, http.MethodPost, "/api/bids/"+id+"/submit", nil)
	w := doRequest(r, http.MethodPost, "/api/bids/"+id+"/confirm", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("confirm: status %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["code"] != "cooldown" || body["retry_seconds"] != float64(90) {
		t.Fatalf("body = %v", body)
	}

	// Back in editing, the session is retryable.
	w = doRequest(r, http.MethodGet, "/api/bids/"+id, nil)
	if body := decode(t, w); body["state"] != "editing" {
		t.Fatalf("state = %v, want editing", body["state"])
	}
}

func TestBidFlow_CancelIdempotent(t *testing.T) {
	rides := &stubRides{}
	r := buildTestRouter(rides)
	id := createSession(t, r, "25.00")

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPost, "/api/bids/"+id+"/cancel", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("cancel %d: status %d: %s", i, w.Code, w.Body.String())
		}
	}
	rides.mu.Lock()
	declines := rides.declines
	rides.mu.Unlock()
	if declines != 1 {
		t.Fatalf("declines = %d, want 1", declines)
	}
}

func TestBidFlow_InvalidAmountRejected(t *testing.T) {
	r := buildTestRouter(&stubRides{})
	id := createSession(t, r, "25.00")

	w := doRequest(r, http.MethodPost, "/api/bids/"+id+"/amount", map[string]any{"amount": "abc"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	// Draft survived the invalid input.
	w = doRequest(r, http.MethodGet, "/api/bids/"+id, nil)
	if body := decode(t, w); body["working_amount"] != "25.00" {
		t.Fatalf("working_amount = %v, want 25.00", body["working_amount"])
	}
}

func TestBidFlow_DuplicateCreateConflicts(t *testing.T) {
	r := buildTestRouter(&stubRides{})
	createSession(t, r, "25.00")

	w := doRequest(r, http.MethodPost, "/api/bids", map[string]any{
		"ride_request_id": "ride-1",
		"driver_id":       "driver-1",
		"default_amount":  "30.00",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestBidFlow_UnknownSession(t *testing.T) {
	r := buildTestRouter(&stubRides{})
	w := doRequest(r, http.MethodGet, "/api/bids/doesnotexist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
