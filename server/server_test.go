package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
)

// echoAgent returns string payloads uppercased.
type echoAgent struct{}

func (echoAgent) Name() string { return "echo" }

func (echoAgent) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         "echo",
		Description:  "Echoes text uppercased",
		Version:      "0.1.0",
		Capabilities: []string{"echo"},
	}
}

func (echoAgent) Capabilities() []string { return []string{"echo"} }

func (echoAgent) Process(_ context.Context, input any) (any, error) {
	s, _ := input.(string)
	return strings.ToUpper(s), nil
}

func (echoAgent) HandleError(context.Context, error) {}

func newTestServer(t *testing.T) (*Server, *bus.Coordinator) {
	t.Helper()
	c := bus.New()
	c.Register(echoAgent{})
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)

	return New(":0", c, func(o *Options) { o.WorkflowTimeout = 2 * time.Second }), c
}

func TestHandleAgents(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents []struct {
			Name         string   `json:"name"`
			Capabilities []string `json:"capabilities"`
		} `json:"agents"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, "echo", body.Agents[0].Name)
	assert.Equal(t, []string{"echo"}, body.Agents[0].Capabilities)
}

func TestHandleAgentsRejectsPost(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/agents", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"steps":[{"agent":"echo","input":"hello"},{"agent":"echo","input":"bus"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/workflows", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Results []any  `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, []any{"HELLO", "BUS"}, body.Results)
}

func TestHandleWorkflowRejectsEmptySteps(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflows", bytes.NewBufferString(`{"steps":[]}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleWorkflowRejectsBadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workflows", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
