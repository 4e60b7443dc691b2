package agent

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

	"golang.org/x/sync/singleflight"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/auth"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/http/middleware"
)

var (
	// ErrNotConfigured indica que falta APP_URL.
	ErrNotConfigured = errors.New("agent: servicio no configurado (APP_URL)")
	// ErrUnexpectedResponse indica que la respuesta del agente no trae
	// content.parts[0].text en su último evento.
	ErrUnexpectedResponse = errors.New("agent: formato de respuesta inesperado")
	// ErrUnavailable indica fallo de transporte o status no-2xx.
	ErrUnavailable = errors.New("agent: servicio no disponible")
)

const defaultTimeout = 30 * time.Second

// Client habla con el servicio de agentes: sesiones y despacho de
// mensajes. Una instancia sirve a ambas variantes (AA/PP); el app_name
// llega por llamada.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client

	// ensure serializa creaciones de sesión concurrentes para la misma
	// llave (app|user|session); ver EnsureSession.
	ensure singleflight.Group
}

func NewClient(baseURL string, tokens auth.TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) sessionURL(appName, userID, sessionID string) string {
	return fmt.Sprintf("%s/apps/%s/users/%s/sessions/%s", c.baseURL, appName, userID, sessionID)
}

// EnsureSession garantiza que exista la sesión (app, user, session) en el
// servicio de agentes. Chequea con GET antes de crear para no pisar el
// estado de una conversación en curso. La secuencia GET+POST no es
// atómica entre réplicas; dentro del proceso la serializa singleflight.
func (c *Client) EnsureSession(ctx context.Context, appName, userID, sessionID string) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	key := appName + "|" + userID + "|" + sessionID
	_, err, _ := c.ensure.Do(key, func() (any, error) {
		return nil, c.ensureSession(ctx, appName, userID, sessionID)
	})
	return err
}

func (c *Client) ensureSession(ctx context.Context, appName, userID, sessionID string) error {
	token, err := c.tokens.Token(ctx, c.baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	url := c.sessionURL(appName, userID, sessionID)

	status, err := c.getSession(ctx, url, token)
	switch {
	case err != nil:
		log.Printf("⚠️ No se pudo consultar sesión %s: %v, intentando crear", sessionID, err)
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		// Sesión nueva, cae a la creación.
	default:
		// Status raro: asumimos que no existe y creamos igual.
		log.Printf("⚠️ Consulta de sesión %s devolvió status %d, intentando crear", sessionID, status)
	}

	return c.createSession(ctx, url, token, userID, sessionID)
}

func (c *Client) getSession(ctx context.Context, url, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) createSession(ctx context.Context, url, token, userID, sessionID string) error {
	body, err := json.Marshal(DefaultSessionState())
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("agent")
		return fmt.Errorf("%w: creando sesión: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		middleware.RecordIntegrationError("agent")
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: creación de sesión devolvió %d: %s", ErrUnavailable, resp.StatusCode, respBody)
	}

	log.Printf("✅ Sesión creada: user=%s session=%s", userID, sessionID)
	return nil
}

// Send despacha un mensaje de texto al agente y devuelve el texto de
// respuesta. El caller decide qué string mostrarle al usuario ante cada
// tipo de error; acá nunca se inventan respuestas.
func (c *Client) Send(ctx context.Context, appName, userID, sessionID, message string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	token, err := c.tokens.Token(ctx, c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	payload := RunRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
		NewMessage: NewMessage{
			Role:  "user",
			Parts: []MessagePart{{Text: message}},
		},
		Streaming: false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("📤 Despachando mensaje al agente: app=%s user=%s", appName, userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("agent")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: leyendo respuesta: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		middleware.RecordIntegrationError("agent")
		return "", fmt.Errorf("%w: /run devolvió %d: %s", ErrUnavailable, resp.StatusCode, respBody)
	}

	text, ok := extractResponseText(respBody)
	if !ok {
		log.Printf("⚠️ Respuesta del agente con formato inesperado: %s", respBody)
		return "", ErrUnexpectedResponse
	}
	return text, nil
}

// extractResponseText baja por la cadena último-evento → content →
// parts[0] → text. Cualquier eslabón ausente es fallo de extracción.
func extractResponseText(raw []byte) (string, bool) {
	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil || len(events) == 0 {
		return "", false
	}

	last := events[len(events)-1]
	if last.Content == nil || len(last.Content.Parts) == 0 {
		return "", false
	}

	var part eventPart
	if err := json.Unmarshal(last.Content.Parts[0], &part); err != nil || part.Text == nil {
		return "", false
	}
	return strings.TrimSpace(*part.Text), true
}
