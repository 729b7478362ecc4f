package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openclaw/qrcodemaker/store"
)

func (s *Server) handleGetJobs(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	jobs, err := s.Store.GetJobs(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}

	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	job, err := s.Store.GetJob(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, job)
}
