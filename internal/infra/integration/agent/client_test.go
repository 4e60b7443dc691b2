package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/auth"
)

// fakeAgentService simula el servicio de agentes: sesiones en memoria y
// un /run con respuesta fija.
type fakeAgentService struct {
	sessions    map[string]bool
	getCalls    int
	createCalls int
	runResponse any
	runStatus   int
	lastRunBody RunRequest
}

func newFakeAgentService() *fakeAgentService {
	return &fakeAgentService{
		sessions:  make(map[string]bool),
		runStatus: http.StatusOK,
	}
}

func (f *fakeAgentService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/apps/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			f.getCalls++
			if f.sessions[r.URL.Path] {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"state": {}}`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			f.createCalls++
			var state SessionState
			require.NoError(t, json.NewDecoder(r.Body).Decode(&state))
			assert.Equal(t, "Spanish", state.State["preferred_language"])
			assert.EqualValues(t, 5, state.State["visit_count"])
			f.sessions[r.URL.Path] = true
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)
		}
	})

	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastRunBody))
		w.WriteHeader(f.runStatus)
		json.NewEncoder(w).Encode(f.runResponse)
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeAgentService) *Client {
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)
	return NewClient(server.URL, auth.StaticTokenSource{Value: "test-token"})
}

func TestEnsureSessionIdempotence(t *testing.T) {
	fake := newFakeAgentService()
	client := newTestClient(t, fake)
	ctx := context.Background()

	// Primera llamada: GET 404 → POST de creación.
	require.NoError(t, client.EnsureSession(ctx, "agent_aa_app", "56912345678", "56912345678"))
	assert.Equal(t, 1, fake.getCalls)
	assert.Equal(t, 1, fake.createCalls)

	// Segunda llamada secuencial: GET 200, sin POST adicional.
	require.NoError(t, client.EnsureSession(ctx, "agent_aa_app", "56912345678", "56912345678"))
	assert.Equal(t, 2, fake.getCalls)
	assert.Equal(t, 1, fake.createCalls)
}

func TestEnsureSessionNotConfigured(t *testing.T) {
	client := NewClient("", auth.StaticTokenSource{Value: "test-token"})
	err := client.EnsureSession(context.Background(), "app", "user", "session")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendHappyPath(t *testing.T) {
	fake := newFakeAgentService()
	fake.runResponse = []map[string]any{
		{"content": map[string]any{"parts": []map[string]any{{"text": "pensando..."}}}},
		{"content": map[string]any{"parts": []map[string]any{{"text": "  ¡Hola! ¿En qué te ayudo?  "}}}},
	}
	client := newTestClient(t, fake)

	answer, err := client.Send(context.Background(), "agent_aa_app", "56912345678", "56912345678", "Hola")
	require.NoError(t, err)

	// Solo cuenta el último evento, y el texto viene recortado.
	assert.Equal(t, "¡Hola! ¿En qué te ayudo?", answer)

	assert.Equal(t, "agent_aa_app", fake.lastRunBody.AppName)
	assert.Equal(t, "56912345678", fake.lastRunBody.UserID)
	assert.Equal(t, "56912345678", fake.lastRunBody.SessionID)
	assert.Equal(t, "user", fake.lastRunBody.NewMessage.Role)
	require.Len(t, fake.lastRunBody.NewMessage.Parts, 1)
	assert.Equal(t, "Hola", fake.lastRunBody.NewMessage.Parts[0].Text)
	assert.False(t, fake.lastRunBody.Streaming)
}

func TestSendUnexpectedResponse(t *testing.T) {
	cases := []struct {
		name     string
		response any
	}{
		{"lista vacía", []any{}},
		{"evento sin content", []map[string]any{{"author": "model"}}},
		{"content sin parts", []map[string]any{{"content": map[string]any{}}}},
		{"part sin text", []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"functionCall": map[string]any{"name": "buscar"}}}}},
		}},
		{"no es lista", map[string]any{"detail": "algo"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeAgentService()
			fake.runResponse = tc.response
			client := newTestClient(t, fake)

			_, err := client.Send(context.Background(), "app", "user", "session", "Hola")
			assert.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestSendAgentError(t *testing.T) {
	fake := newFakeAgentService()
	fake.runStatus = http.StatusInternalServerError
	fake.runResponse = map[string]string{"detail": "boom"}
	client := newTestClient(t, fake)

	_, err := client.Send(context.Background(), "app", "user", "session", "Hola")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", auth.StaticTokenSource{Value: "test-token"})
	_, err := client.Send(context.Background(), "app", "user", "session", "Hola")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExtractResponseText(t *testing.T) {
	raw := []byte(`[{"content": {"parts": [{"text": "hola"}]}, "usage_metadata": {"total_tokens": 10}}]`)
	text, ok := extractResponseText(raw)
	require.True(t, ok)
	assert.Equal(t, "hola", text)

	_, ok = extractResponseText([]byte(`[]`))
	assert.False(t, ok)

	_, ok = extractResponseText([]byte(`no json`))
	assert.False(t, ok)
}
