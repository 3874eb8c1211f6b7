package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":    s.cfg.LLMProvider,
		"model":       s.runner.Model(),
		"stats":       s.runner.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
