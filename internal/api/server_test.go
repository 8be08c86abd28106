package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/agent"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/emotion"
	"github.com/Vik0t/ai-agent-autonomous-life/internal/world"
)

func newTestServer(t *testing.T) (*Server, *agent.Agent) {
	t.Helper()
	w := world.New(nil, zap.NewNop())
	alice := agent.New("Alice", emotion.Personality{Extraversion: 0.7}, nil)
	w.AddAgent(alice)
	return New(w, zap.NewNop()), alice
}

func TestHandleStatus_ReturnsAgentSnapshot(t *testing.T) {
	s, alice := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tick   int `json:"tick"`
		Agents []struct {
			ID string `json:"ID"`
		} `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Agents, 1)
	assert.Equal(t, alice.ID, body.Agents[0].ID)
}

func TestHandleInjectEvent_RequiresDescription(t *testing.T) {
	s, _ := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader([]byte(`{}`)))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInjectEvent_Accepted(t *testing.T) {
	s, _ := newTestServer(t)

	payload, _ := json.Marshal(map[string]interface{}{"description": "a meteor passes overhead"})
	r := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleSetSpeed_AppliesMultiplier(t *testing.T) {
	s, _ := newTestServer(t)

	payload, _ := json.Marshal(map[string]interface{}{"multiplier": 2.0})
	r := httptest.NewRequest(http.MethodPost, "/speed", bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleEnqueueMessage_Accepted(t *testing.T) {
	s, _ := newTestServer(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"sender_id": "operator", "receiver_id": "alice", "content": "hello there",
	})
	r := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
