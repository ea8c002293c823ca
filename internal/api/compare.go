package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"aistudio/internal/provider"
	"aistudio/internal/store"
	"aistudio/internal/stream"
)

const maxPromptLength = 10000

// CompareRequest is the body of the model-comparison endpoint.
type CompareRequest struct {
	Prompt     string `json:"prompt"`
	Model1ID   int64  `json:"model1Id"`
	Model2ID   int64  `json:"model2Id"`
	Model1Name string `json:"model1Name,omitempty"`
	Model2Name string `json:"model2Name,omitempty"`
}

// handleCompare streams two models' responses to the same prompt over one
// SSE channel, frames tagged model1/model2.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		writeBadRequest(w, "Prompt is required")
		return
	}
	if len(req.Prompt) > maxPromptLength {
		writeBadRequest(w, fmt.Sprintf("Prompt exceeds %d characters", maxPromptLength))
		return
	}
	if req.Model1ID <= 0 || req.Model2ID <= 0 {
		writeBadRequest(w, "model1Id and model2Id are required")
		return
	}

	spec1, err := s.streamSpec("model1", req.Model1ID, req.Model1Name, req.Prompt)
	if err != nil {
		s.writeModelError(w, err)
		return
	}
	spec2, err := s.streamSpec("model2", req.Model2ID, req.Model2Name, req.Prompt)
	if err != nil {
		s.writeModelError(w, err)
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeBadRequest(w, "Streaming not supported")
		return
	}
	s.mux.RunComparison(r.Context(), req.Prompt, []stream.StreamSpec{spec1, spec2}, sse)
}

// streamSpec resolves one catalog model into a constituent stream spec.
func (s *Server) streamSpec(identity string, modelID int64, nameOverride, prompt string) (stream.StreamSpec, error) {
	model, err := s.store.GetModelConfig(modelID)
	if err != nil {
		return stream.StreamSpec{}, fmt.Errorf("model %d: %w", modelID, err)
	}
	p, ok := s.providers.Get(model.Provider)
	if !ok {
		return stream.StreamSpec{}, fmt.Errorf("model %d: provider %q: %w", modelID, model.Provider, store.ErrNotFound)
	}
	name := model.Name
	if nameOverride != "" {
		name = nameOverride
	}
	return stream.StreamSpec{
		Identity:  identity,
		Provider:  p,
		ModelName: name,
		Request: provider.Request{
			Model:    model.ModelID,
			Messages: []provider.Message{{Role: "user", Content: prompt}},
		},
	}, nil
}

func (s *Server) writeModelError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeNotFound(w, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
