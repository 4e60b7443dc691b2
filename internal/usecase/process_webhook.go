package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/entity"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/http/middleware"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/integration/agent"
)

// WebhookProcessor orquesta el pipeline completo de un delivery de
// webhook: parseo, sesión, transcripción, despacho al agente y respuesta.
// Corre en background; el ACK HTTP ya salió cuando esto se ejecuta.
type WebhookProcessor struct {
	Sessions    SessionKeeper
	Agent       AgentDispatcher
	Messenger   Messenger
	Media       MediaDownloader
	Transcriber Transcriber
	Actions     ActionSender
}

func NewWebhookProcessor(
	sessions SessionKeeper,
	dispatcher AgentDispatcher,
	messenger Messenger,
	media MediaDownloader,
	transcriber Transcriber,
	actions ActionSender,
) *WebhookProcessor {
	return &WebhookProcessor{
		Sessions:    sessions,
		Agent:       dispatcher,
		Messenger:   messenger,
		Media:       media,
		Transcriber: transcriber,
		Actions:     actions,
	}
}

// Execute procesa el body crudo de un delivery para una variante. Nunca
// devuelve error: todo fallo termina en log y, cuando se puede, en una
// disculpa al usuario. Los mensajes del mismo delivery se procesan en
// orden, uno a la vez.
func (uc *WebhookProcessor) Execute(ctx context.Context, profile config.AppProfile, rawBody []byte) {
	middleware.RecordWebhookDelivery(profile.Label())

	payload := entity.ParseWebhookPayload(rawBody)
	if payload == nil {
		log.Printf("❌ [%s] No se pudo parsear el payload del webhook", profile.Label())
		return
	}

	messages := payload.GetAllMessages()
	if len(messages) == 0 {
		log.Printf("📭 [%s] Delivery sin mensajes atribuibles", profile.Label())
		return
	}

	for _, im := range messages {
		if err := uc.processMessage(ctx, profile, im); err != nil {
			log.Printf("❌ [%s] Error procesando mensaje %s: %v", profile.Label(), im.Message.ID, err)
			middleware.RecordMessageProcessed(profile.Label(), im.Message.Type, "error")
			uc.sendBestEffort(ctx, profile, im.SenderWaID, ReplyProcessingError)
			continue
		}
		middleware.RecordMessageProcessed(profile.Label(), im.Message.Type, "ok")
	}
}

// processMessage ejecuta la sub-máquina por mensaje: sesión →
// (¿transcripción?) → despacho → respuesta.
func (uc *WebhookProcessor) processMessage(ctx context.Context, profile config.AppProfile, im entity.InboundMessage) error {
	// Sin API URL o token no hay canal de vuelta: se aborta solo con log,
	// porque la disculpa viajaría por el mismo canal que falta.
	if !profile.MessagingConfigured() {
		log.Printf("❌ [%s] Configuración de WhatsApp incompleta, mensaje %s abortado",
			profile.Label(), im.Message.ID)
		return nil
	}

	sender := im.SenderWaID
	msg := im.Message

	if uc.Actions != nil {
		uc.Actions.MarkMessageAsRead(ctx, profile, sender)
		uc.Actions.SendTypingIndicator(ctx, profile, sender)
	}

	switch msg.Type {
	case entity.MessageTypeText:
		return uc.processTextMessage(ctx, profile, sender, msg)
	case entity.MessageTypeAudio:
		if msg.Audio == nil {
			return uc.reply(ctx, profile, sender, ReplyUnsupportedType)
		}
		return uc.processAudioMessage(ctx, profile, sender, msg.Audio.ID)
	default:
		// Tipos no soportados se contestan sin pasar por el agente.
		return uc.reply(ctx, profile, sender, ReplyUnsupportedType)
	}
}

func (uc *WebhookProcessor) processTextMessage(ctx context.Context, profile config.AppProfile, sender string, msg entity.Message) error {
	body := msg.GetMessageContent()
	if body == "" {
		log.Printf("⚠️ [%s] Mensaje de texto %s sin contenido, descartado", profile.Label(), msg.ID)
		return nil
	}

	if err := uc.Sessions.EnsureSession(ctx, profile.AppName, sender, sender); err != nil {
		return fmt.Errorf("asegurando sesión: %w", err)
	}

	answer := uc.dispatch(ctx, profile, sender, body)
	return uc.reply(ctx, profile, sender, answer)
}

func (uc *WebhookProcessor) processAudioMessage(ctx context.Context, profile config.AppProfile, sender, mediaID string) error {
	if err := uc.Sessions.EnsureSession(ctx, profile.AppName, sender, sender); err != nil {
		return fmt.Errorf("asegurando sesión: %w", err)
	}

	audio, err := uc.Media.DownloadMedia(ctx, profile, mediaID)
	if err != nil || len(audio) == 0 {
		if err != nil {
			log.Printf("⚠️ [%s] Descarga de audio %s falló: %v", profile.Label(), mediaID, err)
		}
		return uc.reply(ctx, profile, sender, ReplyAudioDownload)
	}

	transcript, err := uc.Transcriber.Transcribe(ctx, audio)
	if err != nil || transcript == "" {
		if err != nil {
			log.Printf("⚠️ [%s] Transcripción de audio %s falló: %v", profile.Label(), mediaID, err)
		}
		middleware.RecordTranscription("failed")
		return uc.reply(ctx, profile, sender, ReplyAudioTranscribe)
	}
	middleware.RecordTranscription("ok")

	answer := uc.dispatch(ctx, profile, sender, transcript)
	return uc.reply(ctx, profile, sender, answer)
}

// dispatch envía el texto al agente y traduce cada error tipado a una
// respuesta segura en español. Acá se cumple el contrato "el usuario
// siempre recibe un string": el despacho nunca propaga su error.
func (uc *WebhookProcessor) dispatch(ctx context.Context, profile config.AppProfile, sender, text string) string {
	answer, err := uc.Agent.Send(ctx, profile.AppName, sender, sender, text)
	switch {
	case err == nil:
		if answer == "" {
			return ReplyEmptyAgentAnswer
		}
		return answer
	case errors.Is(err, agent.ErrNotConfigured):
		log.Printf("❌ [%s] Agente no configurado: %v", profile.Label(), err)
		return replyAgentNotConfigured
	case errors.Is(err, agent.ErrUnexpectedResponse):
		return replyAgentBadFormat
	default:
		log.Printf("❌ [%s] Error comunicándose con el agente: %v", profile.Label(), err)
		return replyAgentUnreachable
	}
}

// reply envía la respuesta final; el error se propaga para que el
// catch-all por mensaje lo registre.
func (uc *WebhookProcessor) reply(ctx context.Context, profile config.AppProfile, to, body string) error {
	if _, err := uc.Messenger.SendText(ctx, profile, to, body); err != nil {
		return fmt.Errorf("enviando respuesta: %w", err)
	}
	return nil
}

// sendBestEffort intenta la disculpa final sin propagar nada: es el
// último recurso del catch-all.
func (uc *WebhookProcessor) sendBestEffort(ctx context.Context, profile config.AppProfile, to, body string) {
	if !profile.MessagingConfigured() {
		return
	}
	if _, err := uc.Messenger.SendText(ctx, profile, to, body); err != nil {
		log.Printf("❌ [%s] No se pudo enviar disculpa a %s: %v", profile.Label(), to, err)
	}
}
