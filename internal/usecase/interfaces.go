package usecase

import (
	"context"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/integration/whatsapp"
)

// SessionKeeper garantiza que exista la sesión en el servicio de agentes
// antes de despachar.
type SessionKeeper interface {
	EnsureSession(ctx context.Context, appName, userID, sessionID string) error
}

// AgentDispatcher despacha un mensaje de texto y devuelve la respuesta
// del agente. Los errores son tipados (ver paquete agent); este paquete
// los traduce a respuestas seguras para el usuario.
type AgentDispatcher interface {
	Send(ctx context.Context, appName, userID, sessionID, message string) (string, error)
}

// Messenger envía la respuesta de vuelta por WhatsApp.
type Messenger interface {
	SendText(ctx context.Context, profile config.AppProfile, to, body string) (*whatsapp.SendMessageResponse, error)
}

// MediaDownloader baja el contenido de una nota de voz.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, profile config.AppProfile, mediaID string) ([]byte, error)
}

// Transcriber convierte audio a texto. "" sin error significa que el
// reconocedor no produjo resultados.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ActionSender envía indicadores de conversación (typing, mark_seen);
// siempre best-effort.
type ActionSender interface {
	SendTypingIndicator(ctx context.Context, profile config.AppProfile, to string)
	MarkMessageAsRead(ctx context.Context, profile config.AppProfile, to string)
}
