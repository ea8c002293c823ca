package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	models, err := s.store.ListActiveModels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load models")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "Invalid limit")
			return
		}
		limit = n
	}
	comparisons, err := s.store.ListComparisons(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load comparisons")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparisons": comparisons})
}
