package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
)

// WebhookProcessor es el pipeline que corre en background con el body
// crudo de un delivery.
type WebhookProcessor interface {
	Execute(ctx context.Context, profile config.AppProfile, rawBody []byte)
}

// TaskDispatcher agenda trabajo fire-and-forget.
type TaskDispatcher interface {
	Dispatch(name string, fn func(ctx context.Context))
}

// WebhookHandler atiende los webhooks de WhatsApp para ambas variantes.
// Un solo handler parametrizado por perfil: AA y PP solo difieren en
// configuración, nunca en lógica.
type WebhookHandler struct {
	Processor WebhookProcessor
	Tasks     TaskDispatcher
}

func NewWebhookHandler(processor WebhookProcessor, tasks TaskDispatcher) *WebhookHandler {
	return &WebhookHandler{Processor: processor, Tasks: tasks}
}

// Verify atiende el handshake de suscripción del proveedor. Responde el
// challenge como entero JSON solo si el modo es "subscribe" y el token
// coincide; cualquier otra combinación es 403.
func (h *WebhookHandler) Verify(profile config.AppProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("hub.mode")
		token := r.URL.Query().Get("hub.verify_token")
		challenge := r.URL.Query().Get("hub.challenge")

		if mode != "subscribe" || profile.VerifyToken == "" || token != profile.VerifyToken {
			log.Printf("⚠️ [%s] Verificación de webhook rechazada (mode=%q)", profile.Label(), mode)
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Webhook verification failed"})
			return
		}

		if challenge == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Challenge parameter required"})
			return
		}

		challengeInt, err := strconv.Atoi(challenge)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Challenge must be a valid integer"})
			return
		}

		log.Printf("✅ [%s] Webhook verificado (challenge=%d)", profile.Label(), challengeInt)
		writeJSON(w, http.StatusOK, challengeInt)
	}
}

// Receive recibe un delivery. El único invariante que manda: el proveedor
// siempre ve 200 (salvo JSON malformado), porque un no-200 gatilla
// redelivery y procesamiento duplicado. El procesamiento real se agenda
// en background después del ACK.
func (h *WebhookHandler) Receive(profile config.AppProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			// Si ni siquiera pudimos leer el body, igual ACK: no hay nada
			// que reintentar con provecho.
			log.Printf("⚠️ [%s] Error leyendo body del webhook: %v", profile.Label(), err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		if !json.Valid(body) {
			log.Printf("❌ [%s] Webhook con JSON inválido", profile.Label())
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid JSON format"})
			return
		}

		log.Printf("📥 [%s] Delivery recibido (%d bytes), ACK inmediato", profile.Label(), len(body))

		h.Tasks.Dispatch("webhook_"+string(profile.Type), func(ctx context.Context) {
			h.Processor.Execute(ctx, profile, body)
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
