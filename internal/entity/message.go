package entity

import (
	"encoding/json"
	"log"
)

// Tipos de mensaje soportados por la API Cloud de WhatsApp.
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeAudio       = "audio"
	MessageTypeVideo       = "video"
	MessageTypeDocument    = "document"
	MessageTypeSticker     = "sticker"
	MessageTypeLocation    = "location"
	MessageTypeContacts    = "contacts"
	MessageTypeInteractive = "interactive"
	MessageTypeReaction    = "reaction"
	MessageTypeSystem      = "system"
	MessageTypeUnsupported = "unsupported"
)

// WebhookPayload es el sobre completo que entrega WhatsApp en cada POST.
// Un payload sin "entry" es válido y simplemente no contiene mensajes.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change etiqueta un campo. Solo "messages" nos interesa; el resto
// (statuses, template updates, etc) se ignora.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata,omitempty"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string          `json:"wa_id"`
	Profile *ContactProfile `json:"profile,omitempty"`
}

type ContactProfile struct {
	Name string `json:"name"`
}

// Message es polimórfico sobre Type: solo el sub-objeto correspondiente
// al tipo viene poblado.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`

	Text        *TextContent        `json:"text,omitempty"`
	Image       *MediaContent       `json:"image,omitempty"`
	Audio       *AudioContent       `json:"audio,omitempty"`
	Video       *MediaContent       `json:"video,omitempty"`
	Document    *DocumentContent    `json:"document,omitempty"`
	Sticker     *MediaContent       `json:"sticker,omitempty"`
	Location    *LocationContent    `json:"location,omitempty"`
	Contacts    json.RawMessage     `json:"contacts,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
	Reaction    *ReactionContent    `json:"reaction,omitempty"`
	System      *SystemContent      `json:"system,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type AudioContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
}

type DocumentContent struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type InteractiveContent struct {
	Type        string          `json:"type"`
	ButtonReply *ReplySelection `json:"button_reply,omitempty"`
	ListReply   *ReplySelection `json:"list_reply,omitempty"`
}

type ReplySelection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ReactionContent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji,omitempty"`
}

type SystemContent struct {
	Body string `json:"body,omitempty"`
	Type string `json:"type,omitempty"`
}

// InboundMessage es un mensaje ya atribuido a su remitente.
type InboundMessage struct {
	SenderWaID string
	Message    Message
}

// ParseWebhookPayload intenta convertir el body crudo del webhook en un
// sobre tipado. Devuelve nil si el body no se puede coercer; el caller
// debe tratar nil como "no hay mensajes", nunca como error fatal.
// Campos desconocidos se ignoran para tolerar cambios de la API.
func ParseWebhookPayload(raw []byte) *WebhookPayload {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("⚠️ Payload de webhook no parseable: %v", err)
		return nil
	}
	return &payload
}

// senderWaID devuelve el wa_id del primer contacto, o "" si no hay.
func (v *Value) senderWaID() string {
	if len(v.Contacts) > 0 {
		return v.Contacts[0].WaID
	}
	return ""
}

// GetAllMessages recorre entry → changes → value y devuelve cada mensaje
// con su remitente. Un value sin contactos no permite atribuir remitente:
// sus mensajes se descartan con warning, nunca en silencio.
func (p *WebhookPayload) GetAllMessages() []InboundMessage {
	var result []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			sender := change.Value.senderWaID()
			if sender == "" {
				if len(change.Value.Messages) > 0 {
					log.Printf("⚠️ Change sin contacts: %d mensaje(s) descartado(s) (entry=%s)",
						len(change.Value.Messages), entry.ID)
				}
				continue
			}
			for _, msg := range change.Value.Messages {
				result = append(result, InboundMessage{SenderWaID: sender, Message: msg})
			}
		}
	}
	return result
}

// GetTextMessages filtra GetAllMessages a mensajes de texto con body.
// Un mensaje de texto sin body se descarta con warning en vez de
// atribuirse como texto vacío.
func (p *WebhookPayload) GetTextMessages() []InboundMessage {
	var result []InboundMessage
	for _, im := range p.GetAllMessages() {
		if im.Message.Type != MessageTypeText {
			continue
		}
		if im.Message.Text == nil || im.Message.Text.Body == "" {
			log.Printf("⚠️ Mensaje de texto %s sin body, descartado", im.Message.ID)
			continue
		}
		result = append(result, im)
	}
	return result
}

// GetMessageContent devuelve el body de un mensaje de texto, o "" para
// cualquier otro tipo.
func (m *Message) GetMessageContent() string {
	if m.Type == MessageTypeText && m.Text != nil {
		return m.Text.Body
	}
	return ""
}
