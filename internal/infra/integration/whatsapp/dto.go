package whatsapp

// SendMessageResponse es la respuesta de la API al enviar un mensaje.
type SendMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// mediaInfo es la metadata que devuelve GET {api_url}/{media_id}; la URL
// que trae es la de descarga real.
type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	ID       string `json:"id"`
}

// Action es una acción de conversación (indicadores, no mensajes).
type Action string

const (
	ActionMarkSeen Action = "mark_seen"
	ActionTyping   Action = "typing"
)

type actionPayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Action           Action `json:"action"`
}
