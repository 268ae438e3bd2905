package main

import (
	"fmt"
	"log"
	"net/http"

	"billing-backend/internal/cache"
	"billing-backend/internal/config"
	"billing-backend/internal/db"
	"billing-backend/internal/handlers"
	"billing-backend/internal/health"
	h "billing-backend/internal/http"
	"billing-backend/internal/jobs"
	"billing-backend/internal/middleware"
	"billing-backend/internal/monitoring"
	"billing-backend/internal/pdfgen"
	"billing-backend/internal/repositories"
	"billing-backend/internal/services"
	"billing-backend/internal/uac"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional; token cache and job store degrade to in-memory.
	redisClient, err := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("[Redis] not available, using in-memory fallback: %v", err)
	}
	var tokenStore cache.TokenStore = cache.NewMemoryTokenStore()
	if redisClient != nil {
		tokenStore = cache.NewRedisTokenStore(redisClient)
	}

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	syncedRepo := repositories.NewSyncedInvoiceRepository(pool)
	approvalRepo := repositories.NewApprovalRepository(pool)

	// Platform connectors
	genericClient := uac.NewGenericClient(cfg)
	tokenSource := uac.NewTokenSource(genericClient, tokenStore)
	waveClient := uac.NewWaveClient(cfg, orgRepo, genericClient)
	dynamicsClient := uac.NewDynamicsClient(cfg, tokenSource)
	qboClient := uac.NewQuickBooksClient(cfg, tokenSource, genericClient)
	dispatcher := uac.NewDispatcher(genericClient, waveClient, dynamicsClient, qboClient)

	// Job store: Redis-backed when available so jobs survive restarts.
	var jobStore jobs.Store = jobs.NewMemoryStore()
	if redisClient != nil {
		jobStore = jobs.NewRedisStore(redisClient)
	}
	jobHub := jobs.NewHub()

	// PDF fallback uploader is optional.
	uploader, err := pdfgen.NewUploader(cfg)
	if err != nil {
		log.Printf("[Storage] uploader not configured, PDF fallback disabled: %v", err)
	}

	// Services
	paymentService := services.NewPaymentLinkService(cfg)
	emailService := services.NewEmailService(cfg, syncedRepo, dispatcher, waveClient,
		dynamicsClient, paymentService, uploader)
	syncService := services.NewSyncService(orgRepo, invoiceRepo, syncedRepo, dispatcher,
		services.NewPayloadService(), emailService, jobStore, jobHub)
	approvalService := services.NewApprovalService(approvalRepo, syncService)

	// Handlers
	syncHandler := handlers.NewSyncHandler(syncService)
	jobHandler := handlers.NewJobHandler(jobStore, jobHub)
	actionHandler := handlers.NewActionHandler(orgRepo, dispatcher)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	invoiceHandler := handlers.NewInvoiceHandler(syncedRepo)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool, redisClient))
	monitoringHandler := handlers.NewMonitoringHandler(monitoring.NewCollector(pool))

	router := h.NewRouter(syncHandler, jobHandler, actionHandler, approvalHandler,
		invoiceHandler, healthHandler, monitoringHandler)

	handler := middleware.NewCORS(cfg)(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
