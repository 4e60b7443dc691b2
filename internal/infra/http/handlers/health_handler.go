package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
)

type HealthHandler struct {
	Config    *config.Config
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		Config:    cfg,
		StartTime: time.Now(),
	}
}

// Handle reporta el estado de configuración de los colaboradores. No
// hace llamadas de red: los servicios externos son responsabilidad de
// sus propios healthchecks.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.Config.AgentURL != "" {
		deps["agent"] = "configured"
	} else {
		deps["agent"] = "not configured"
	}

	for _, profile := range []config.AppProfile{h.Config.AA, h.Config.PP} {
		key := fmt.Sprintf("whatsapp_%s", profile.Type)
		if profile.MessagingConfigured() {
			deps[key] = "configured"
		} else {
			deps[key] = "not configured"
		}
	}

	response := HealthResponse{
		Status:       "healthy",
		Version:      "0.1.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// HandleReady es el readiness probe: si el proceso atiende, está listo.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
