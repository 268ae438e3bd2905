package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"billing-backend/internal/apperrors"
	"billing-backend/internal/jobs"
	"billing-backend/internal/models"
	"billing-backend/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type JobHandler struct {
	Store jobs.Store
	Hub   *jobs.Hub
}

func NewJobHandler(store jobs.Store, hub *jobs.Hub) *JobHandler {
	return &JobHandler{Store: store, Hub: hub}
}

// GetJob returns the current metadata of a sync job.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	meta, err := h.Store.Get(r.Context(), jobID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if meta == nil {
		utils.Error(w, apperrors.NotFound("Job with id %s not found", jobID))
		return
	}

	utils.JSON(w, http.StatusOK, meta)
}

// StreamJob upgrades to a websocket and pushes every status change of the
// job until it reaches a terminal state or the client disconnects.
func (h *JobHandler) StreamJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Jobs] websocket upgrade failed for job %s: %v", jobID, err)
		return
	}
	defer conn.Close()

	updates := h.Hub.Subscribe(jobID)
	defer h.Hub.Unsubscribe(jobID, updates)

	// Send the current state first so late subscribers see it.
	if meta, err := h.Store.Get(r.Context(), jobID); err == nil && meta != nil {
		if h.writeUpdate(conn, *meta) || terminal(meta.Status) {
			return
		}
	}

	for {
		select {
		case meta, ok := <-updates:
			if !ok {
				return
			}
			if h.writeUpdate(conn, meta) || terminal(meta.Status) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// writeUpdate reports true when the connection is gone.
func (h *JobHandler) writeUpdate(conn *websocket.Conn, meta models.JobMetadata) bool {
	if err := conn.WriteJSON(meta); err != nil {
		log.Printf("[Jobs] websocket write failed for job %s: %v", meta.JobID, err)
		return true
	}
	return false
}

func terminal(status models.JobStatus) bool {
	return status == models.JobSuccess || status == models.JobFailed
}
