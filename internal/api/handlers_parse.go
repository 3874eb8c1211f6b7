package api

import (
	"net/http"

	"github.com/dgallion1/cvparse/internal/pipeline"
)

// handleParse runs the pipeline synchronously for one uploaded file. A reply
// the model got wrong still answers 200; the result status says
// decode_failed and carries the raw text.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r, s.cfg.MaxUploadBytes+1024*1024) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.requestOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	up, err := s.readUpload(header)
	if err != nil {
		jsonError(w, err.Error(), uploadStatus(err))
		return
	}

	out, err := s.runner.Run(r.Context(), pipeline.Input{
		Filename: up.filename,
		Title:    r.FormValue("title"),
		Data:     up.data,
		Options:  opts,
		NoCache:  r.FormValue("no_cache") == "true",
	})
	if err != nil {
		s.log.Error("parse failed", "filename", up.filename, "error", err)
		s.metrics.DocumentDone(string(pipeline.StatusFailed))
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	s.metrics.DocumentDone(string(out.Status()))

	if r.FormValue("include_chunks") != "true" {
		out.Chunks = nil
	}
	writeJSON(w, http.StatusOK, out)
}
