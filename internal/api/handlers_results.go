package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/cvparse/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		jsonError(w, "result store disabled", http.StatusNotFound)
		return
	}
	entry, err := st.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "result not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	st := s.runner.Store()
	if st == nil {
		jsonError(w, "result store disabled", http.StatusNotFound)
		return
	}
	key := chi.URLParam(r, "key")
	if err := st.Delete(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "result not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("deleted result", "key", key)
	w.WriteHeader(http.StatusNoContent)
}
