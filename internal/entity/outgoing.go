package entity

import "strings"

// La API de WhatsApp rechaza bodies de más de 4096 caracteres.
const maxOutgoingBodyRunes = 4096

// OutgoingMessage es el payload de envío hacia la API de WhatsApp.
type OutgoingMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             OutgoingTextBody `json:"text"`
}

type OutgoingTextBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

// NewOutgoingTextMessage arma un mensaje de texto saliente. El número de
// destino siempre queda con prefijo "+" y el body se recorta al límite
// del proveedor.
func NewOutgoingTextMessage(to, body string) OutgoingMessage {
	return OutgoingMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               NormalizePhone(to),
		Type:             "text",
		Text:             OutgoingTextBody{Body: truncateBody(body)},
	}
}

// NormalizePhone asegura el formato que espera la API: "+" seguido del
// número, sin espacios.
func NormalizePhone(to string) string {
	to = strings.TrimSpace(to)
	if to == "" || strings.HasPrefix(to, "+") {
		return to
	}
	return "+" + to
}

func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxOutgoingBodyRunes {
		return body
	}
	return string(runes[:maxOutgoingBodyRunes])
}
