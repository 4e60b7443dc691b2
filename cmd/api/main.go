package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/config"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/auth"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/http/handlers"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/http/middleware"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/integration/agent"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/integration/speech"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/integration/whatsapp"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/infra/worker"
	"github.com/RodrigoVasquez/agro-extension-digital-project/internal/usecase"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuración inválida: %v", err)
	}
	if cfg.AgentURL == "" {
		log.Println("⚠️ APP_URL no configurado: el despacho al agente va a fallar")
	}
	for _, p := range []config.AppProfile{cfg.AA, cfg.PP} {
		if !p.MessagingConfigured() {
			log.Printf("⚠️ Perfil %s sin configuración de WhatsApp completa", p.Label())
		}
	}

	// 1. Clientes de integración
	tokens := auth.NewMetadataTokenSource()
	agentClient := agent.NewClient(cfg.AgentURL, tokens)
	whatsappClient := whatsapp.NewClient()
	transcriber := speech.NewTranscriber()
	defer transcriber.Close()

	// 2. Pipeline + dispatcher de background
	processor := usecase.NewWebhookProcessor(
		agentClient,    // sesiones
		agentClient,    // despacho
		whatsappClient, // mensajería
		whatsappClient, // media
		transcriber,
		whatsappClient, // acciones (typing / mark_seen)
	)
	tasks := worker.NewDispatcher(cfg.WorkerLimit)

	// 3. Handlers
	webhookHandler := handlers.NewWebhookHandler(processor, tasks)
	healthHandler := handlers.NewHealthHandler(cfg)

	// 4. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Get("/estandar_aa_webhook", webhookHandler.Verify(cfg.AA))
	r.Post("/estandar_aa_webhook", webhookHandler.Receive(cfg.AA))
	r.Get("/estandar_pp_webhook", webhookHandler.Verify(cfg.PP))
	r.Post("/estandar_pp_webhook", webhookHandler.Receive(cfg.PP))

	r.Get("/health", healthHandler.Handle)
	r.Get("/ready", healthHandler.HandleReady)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("🚀 Webhook de WhatsApp escuchando en %s (env=%s)", addr, cfg.Environment)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("❌ Servidor HTTP terminó: %v", err)
	}
}
