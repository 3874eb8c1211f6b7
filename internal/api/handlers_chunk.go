package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/cvparse/internal/chunker"
)

type chunkRequest struct {
	Text      string `json:"text"`
	ChunkSize *int   `json:"chunk_size"`
	Overlap   *int   `json:"overlap"`
}

// handleChunk splits raw text without calling the model.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := chunker.Config{ChunkSize: s.cfg.ChunkSize, ChunkOverlap: s.cfg.ChunkOverlap}
	if req.ChunkSize != nil {
		cfg.ChunkSize = *req.ChunkSize
	}
	if req.Overlap != nil {
		cfg.ChunkOverlap = *req.Overlap
	}

	chunks, err := chunker.SplitChunks(req.Text, cfg)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunk_size": cfg.ChunkSize,
		"overlap":    cfg.ChunkOverlap,
		"count":      len(chunks),
		"chunks":     chunks,
	})
}
