package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billing-backend/internal/handlers"
	"billing-backend/internal/middleware"
)

func NewRouter(
	syncHandler *handlers.SyncHandler,
	jobHandler *handlers.JobHandler,
	actionHandler *handlers.ActionHandler,
	approvalHandler *handlers.ApprovalHandler,
	invoiceHandler *handlers.InvoiceHandler,
	healthHandler *handlers.HealthHandler,
	monitoringHandler *handlers.MonitoringHandler,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Invoice sync and platform actions
	accountingAPI := r.PathPrefix("/accounting").Subrouter()
	accountingAPI.HandleFunc("/{organizationId}/invoices/{invoiceId}/sync", syncHandler.SyncInvoice).Methods("POST")
	accountingAPI.HandleFunc("/{organizationId}/invoices/{invoiceId}/actions", actionHandler.PerformAction).Methods("POST")
	accountingAPI.HandleFunc("/invoices/{id}", invoiceHandler.GetSyncedInvoice).Methods("GET")

	// Job tracking
	accountingAPI.HandleFunc("/jobs/{jobId}", jobHandler.GetJob).Methods("GET")
	accountingAPI.HandleFunc("/jobs/{jobId}/ws", jobHandler.StreamJob)

	// Approvals
	accountingAPI.HandleFunc("/{organizationId}/approvals", approvalHandler.ListApprovals).Methods("GET")
	accountingAPI.HandleFunc("/{organizationId}/approvals", approvalHandler.CreateApproval).Methods("POST")
	accountingAPI.HandleFunc("/{organizationId}/approvals/{id}", approvalHandler.GetApproval).Methods("GET")
	accountingAPI.HandleFunc("/{organizationId}/approvals/{id}", approvalHandler.UpdateApproval).Methods("PATCH")
	accountingAPI.HandleFunc("/{organizationId}/approvals/{id}", approvalHandler.DeleteApproval).Methods("DELETE")

	// Health checks
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Operational stats
	r.HandleFunc("/api/monitoring/stats", monitoringHandler.GetStats).Methods("GET")

	return r
}
