// Package http exposes a machine over a small JSON API: signals in,
// committed state out. It is host transport glue around the engine; the
// engine itself defines no wire format.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stratafsm/strata/pkg/chart"
	"github.com/stratafsm/strata/pkg/domain"
)

// Engine is the surface the handler needs from a machine.
type Engine interface {
	SubmitSync(ctx context.Context, ev domain.Event) error
	Current() domain.Value
}

// stateResponse is the JSON form of a state value.
type stateResponse struct {
	State   domain.StateID `json:"state"`
	Payload any            `json:"payload,omitempty"`
}

// errorResponse carries a machine-level failure to the client.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates an HTTP handler for the engine.
//
//	POST /events   submit a signal, respond with the resulting state
//	GET  /state    current state
//	GET  /healthz  liveness
func NewHandler(engine Engine) http.Handler {
	s := &server{engine: engine}

	r := chi.NewRouter()
	r.Post("/events", s.submitEvent)
	r.Get("/state", s.currentState)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

type server struct {
	engine Engine
}

func (s *server) submitEvent(w http.ResponseWriter, r *http.Request) {
	var sig chart.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if sig.Name == "" {
		http.Error(w, "signal name is required", http.StatusBadRequest)
		return
	}

	if err := s.engine.SubmitSync(r.Context(), sig); err != nil {
		status := http.StatusInternalServerError

		var invalid *domain.InvalidStateError
		var ruleErr *domain.RuleError
		switch {
		case errors.As(err, &invalid):
			// The machine is live and unchanged; the event was bad.
			status = http.StatusUnprocessableEntity
		case errors.As(err, &ruleErr):
			status = http.StatusUnprocessableEntity
		}

		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	current := s.engine.Current()
	writeJSON(w, http.StatusOK, stateResponse{State: current.Type, Payload: current.Payload})
}

func (s *server) currentState(w http.ResponseWriter, r *http.Request) {
	current := s.engine.Current()
	writeJSON(w, http.StatusOK, stateResponse{State: current.Type, Payload: current.Payload})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
