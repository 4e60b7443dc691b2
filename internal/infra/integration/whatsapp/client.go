package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/entity"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/http/middleware"
)

var (
	// ErrNotConfigured indica que el perfil no tiene API URL o token.
	ErrNotConfigured = errors.New("whatsapp: perfil sin API URL o token")
	// ErrNoMediaURL indica que la metadata del media no trae URL de descarga.
	ErrNoMediaURL = errors.New("whatsapp: media sin URL de descarga")
)

const (
	sendTimeout  = 30 * time.Second
	mediaTimeout = 60 * time.Second
)

// Client habla con la API Cloud de WhatsApp. Las credenciales llegan por
// perfil en cada llamada porque AA y PP usan apps de Facebook distintas.
type Client struct {
	sendClient  *http.Client
	mediaClient *http.Client
}

func NewClient() *Client {
	return &Client{
		sendClient:  &http.Client{Timeout: sendTimeout},
		mediaClient: &http.Client{Timeout: mediaTimeout},
	}
}

// SendText envía un mensaje de texto. Los errores se propagan: el caller
// del pipeline ya envuelve todo envío en su catch-all.
func (c *Client) SendText(ctx context.Context, profile config.AppProfile, to, body string) (*SendMessageResponse, error) {
	if !profile.MessagingConfigured() {
		return nil, ErrNotConfigured
	}

	msg := entity.NewOutgoingTextMessage(to, body)
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(profile.FacebookAppURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+profile.WspToken)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("📤 Enviando mensaje de WhatsApp a %s", msg.To)

	resp, err := c.sendClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("enviando mensaje: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("whatsapp api devolvió %d: %s", resp.StatusCode, respBody)
	}

	var result SendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parseando respuesta de whatsapp: %w", err)
	}
	if result.Error != nil {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}

	log.Printf("✅ Mensaje enviado a %s", msg.To)
	return &result, nil
}

// DownloadMedia baja el contenido de un media en dos pasos: primero la
// metadata con la URL firmada, después el binario.
func (c *Client) DownloadMedia(ctx context.Context, profile config.AppProfile, mediaID string) ([]byte, error) {
	if !profile.MessagingConfigured() {
		return nil, ErrNotConfigured
	}

	metaURL := strings.TrimRight(profile.FacebookAppURL, "/") + "/" + mediaID
	info, err := c.fetchMediaInfo(ctx, metaURL, profile.WspToken)
	if err != nil {
		return nil, err
	}
	if info.URL == "" {
		return nil, fmt.Errorf("%w: media_id=%s", ErrNoMediaURL, mediaID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+profile.WspToken)

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("descargando media %s: %w", mediaID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("descarga de media %s devolvió %d", mediaID, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leyendo media %s: %w", mediaID, err)
	}

	log.Printf("✅ Media %s descargado: %d bytes", mediaID, len(content))
	return content, nil
}

func (c *Client) fetchMediaInfo(ctx context.Context, url, token string) (*mediaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("consultando metadata de media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		middleware.RecordIntegrationError("whatsapp")
		return nil, fmt.Errorf("metadata de media devolvió %d", resp.StatusCode)
	}

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("parseando metadata de media: %w", err)
	}
	return &info, nil
}

// SendAction envía un indicador de conversación (typing / mark_seen).
func (c *Client) SendAction(ctx context.Context, profile config.AppProfile, to string, action Action) error {
	if !profile.MessagingConfigured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(actionPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               entity.NormalizePhone(to),
		Action:           action,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(profile.FacebookAppURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+profile.WspToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.sendClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviando acción %s: %w", action, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("acción %s devolvió %d", action, resp.StatusCode)
	}
	return nil
}

// SendTypingIndicator es best-effort: loguea y traga el error.
func (c *Client) SendTypingIndicator(ctx context.Context, profile config.AppProfile, to string) {
	if err := c.SendAction(ctx, profile, to, ActionTyping); err != nil {
		log.Printf("⚠️ No se pudo enviar typing a %s: %v", to, err)
	}
}

// MarkMessageAsRead es best-effort: loguea y traga el error.
func (c *Client) MarkMessageAsRead(ctx context.Context, profile config.AppProfile, to string) {
	if err := c.SendAction(ctx, profile, to, ActionMarkSeen); err != nil {
		log.Printf("⚠️ No se pudo marcar como leído para %s: %v", to, err)
	}
}
