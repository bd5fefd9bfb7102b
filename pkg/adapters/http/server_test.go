package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafsm/strata/pkg/chart"
	"github.com/stratafsm/strata/pkg/domain"
)

// fakeEngine records the last submitted event and plays back a scripted
// response.
type fakeEngine struct {
	current   domain.Value
	submitErr error
	lastEvent domain.Event
}

func (f *fakeEngine) SubmitSync(_ context.Context, ev domain.Event) error {
	f.lastEvent = ev
	return f.submitErr
}

func (f *fakeEngine) Current() domain.Value { return f.current }

func TestSubmitEvent(t *testing.T) {
	engine := &fakeEngine{current: domain.NewValue("Running", 5)}
	srv := httptest.NewServer(NewHandler(engine))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(`{"name":"start","data":{"speed":2}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	sig, ok := engine.lastEvent.(chart.Signal)
	require.True(t, ok)
	assert.Equal(t, "start", sig.Name)

	body := decodeBody(t, resp)
	assert.Equal(t, "Running", body["state"])
	assert.Equal(t, float64(5), body["payload"])
}

func TestSubmitEventRejectsBadRequests(t *testing.T) {
	engine := &fakeEngine{}
	srv := httptest.NewServer(NewHandler(engine))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/events", "application/json", strings.NewReader(`{"data":{}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Nil(t, engine.lastEvent, "malformed requests never reach the engine")
}

func TestSubmitEventErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "undeclared result state",
			err:        &domain.InvalidStateError{State: "Ghost"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "rule failure",
			err:        &domain.RuleError{State: "Idle", Event: "start", Err: errors.New("boom")},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "engine failure",
			err:        errors.New("machine stopped"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{submitErr: tt.err}
			srv := httptest.NewServer(NewHandler(engine))
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(`{"name":"start"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Contains(t, body["error"], tt.err.Error())
		})
	}
}

func TestCurrentState(t *testing.T) {
	engine := &fakeEngine{current: domain.NewValue("Paused", nil)}
	srv := httptest.NewServer(NewHandler(engine))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Paused", body["state"])
	_, hasPayload := body["payload"]
	assert.False(t, hasPayload, "nil payload is omitted")
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewHandler(&fakeEngine{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
