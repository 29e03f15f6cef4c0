package api

import (
	"net/http"
)

func (s *Server) handleImportStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth":  s.orchestrator.QueueDepth(),
		"tracked_jobs": s.orchestrator.TrackedJobs(),
		"imports":      s.orchestrator.Stats().Snapshot(),
	})
}
