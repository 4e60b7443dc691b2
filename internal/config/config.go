package config

import (
	"fmt"
	"os"
	"strconv"
)

// AppType identifica la variante de aplicación atendida por el webhook.
type AppType string

const (
	AppTypeAA AppType = "aa" // Estandar AA
	AppTypePP AppType = "pp" // Estandar PP
)

// AppProfile agrupa la configuración específica de una variante: a qué
// agente despachar y con qué credenciales responder por WhatsApp. Se
// resuelve una sola vez al arranque y se inyecta, nunca se lee el
// environment en caliente.
type AppProfile struct {
	Type           AppType
	AppName        string // app del agente en el servicio ADK
	FacebookAppURL string // base URL de la API de WhatsApp para esta variante
	WspToken       string
	VerifyToken    string
}

// MessagingConfigured indica si el perfil puede enviar mensajes de vuelta.
func (p AppProfile) MessagingConfigured() bool {
	return p.FacebookAppURL != "" && p.WspToken != ""
}

func (p AppProfile) Label() string {
	switch p.Type {
	case AppTypeAA:
		return "AA"
	case AppTypePP:
		return "PP"
	}
	return string(p.Type)
}

// Config es la configuración completa del proceso.
type Config struct {
	Port        int
	Host        string
	LogLevel    string
	Environment string

	// AgentURL es el host del servicio de agentes (APP_URL). También es
	// la audience de los ID tokens.
	AgentURL string

	// WorkerLimit acota cuántos webhooks se procesan en paralelo en
	// background.
	WorkerLimit int

	AA AppProfile
	PP AppProfile
}

// Load construye la configuración desde variables de entorno. Perfiles
// incompletos no son fatales: el pipeline aborta por request cuando le
// falta configuración, pero el proceso igual debe levantar para la otra
// variante.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("PORT inválido: %w", err)
	}

	workerLimit, err := strconv.Atoi(getenv("WORKER_LIMIT", "64"))
	if err != nil || workerLimit < 1 {
		return nil, fmt.Errorf("WORKER_LIMIT inválido: %q", os.Getenv("WORKER_LIMIT"))
	}

	cfg := &Config{
		Port:        port,
		Host:        getenv("HOST", "0.0.0.0"),
		LogLevel:    getenv("LOG_LEVEL", "INFO"),
		Environment: getenv("ENVIRONMENT", "development"),
		AgentURL:    os.Getenv("APP_URL"),
		WorkerLimit: workerLimit,
		AA:          loadProfile(AppTypeAA),
		PP:          loadProfile(AppTypePP),
	}
	return cfg, nil
}

// loadProfile resuelve las variables ESTANDAR_{AA,PP}_* con fallback a
// los tokens globales VERIFY_TOKEN / WSP_TOKEN.
func loadProfile(t AppType) AppProfile {
	suffix := "AA"
	if t == AppTypePP {
		suffix = "PP"
	}
	return AppProfile{
		Type:           t,
		AppName:        os.Getenv("ESTANDAR_" + suffix + "_APP_NAME"),
		FacebookAppURL: os.Getenv("ESTANDAR_" + suffix + "_FACEBOOK_APP"),
		WspToken:       getenv("WHATSAPP_TOKEN_"+suffix, os.Getenv("WSP_TOKEN")),
		VerifyToken:    getenv("VERIFY_TOKEN_"+suffix, os.Getenv("VERIFY_TOKEN")),
	}
}

func (c *Config) Profile(t AppType) AppProfile {
	if t == AppTypePP {
		return c.PP
	}
	return c.AA
}

func (c *Config) IsProduction() bool {
	switch c.Environment {
	case "prd", "prod", "production":
		return true
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
