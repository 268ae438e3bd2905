package handlers

import (
	"net/http"

	"billing-backend/internal/monitoring"
	"billing-backend/pkg/utils"
)

type MonitoringHandler struct {
	collector *monitoring.Collector
}

func NewMonitoringHandler(collector *monitoring.Collector) *MonitoringHandler {
	return &MonitoringHandler{collector: collector}
}

// GetStats returns host and database pool statistics.
func (h *MonitoringHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.collector.Collect())
}
