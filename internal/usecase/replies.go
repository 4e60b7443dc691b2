package usecase

// Respuestas fijas hacia el usuario. El contrato del pipeline es que el
// usuario siempre recibe *algo*, aunque un paso interno haya fallado.
const (
	ReplyUnsupportedType  = "Solo puedo procesar mensajes de texto y audio. ¿En qué puedo ayudarte?"
	ReplyAudioDownload    = "No pude descargar tu audio."
	ReplyAudioTranscribe  = "No pude entender tu audio."
	ReplyProcessingError  = "Error procesando mensaje."
	ReplyEmptyAgentAnswer = "No pude procesar tu mensaje. Intenta de nuevo."

	replyAgentNotConfigured = "Error: Servicio de agente no configurado."
	replyAgentUnreachable   = "Error: Fallo la comunicación con el servicio del agente."
	replyAgentBadFormat     = "Error: No se pudo extraer el texto de la respuesta del agente."
)
