package agent

import "encoding/json"

// RunRequest es el envelope que espera el endpoint /run del servicio de
// agentes.
type RunRequest struct {
	AppName    string     `json:"app_name"`
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id"`
	NewMessage NewMessage `json:"new_message"`
	Streaming  bool       `json:"streaming"`
}

type NewMessage struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

type MessagePart struct {
	Text string `json:"text"`
}

// Event es un evento de la lista que devuelve /run. Solo el último evento
// con content.parts[0].text cuenta como respuesta; el resto del evento se
// ignora.
type Event struct {
	Content *EventContent `json:"content"`
}

type EventContent struct {
	Parts []json.RawMessage `json:"parts"`
}

type eventPart struct {
	Text *string `json:"text"`
}

// SessionState es el estado default con que se crean las sesiones.
type SessionState struct {
	State map[string]any `json:"state"`
}

// DefaultSessionState replica el estado inicial que el servicio de
// agentes espera para una conversación nueva.
func DefaultSessionState() SessionState {
	return SessionState{State: map[string]any{
		"preferred_language": "Spanish",
		"visit_count":        5,
	}}
}
