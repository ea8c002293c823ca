package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"aistudio/internal/store"
	"aistudio/internal/stream"
)

const maxChainPrompts = 10

// ChainRequest is the body of the chained-prompt endpoint. Prompts run in
// order; later prompts may reference earlier outputs via {{result_k}}.
type ChainRequest struct {
	Prompts []ChainPromptRequest `json:"prompts"`
}

type ChainPromptRequest struct {
	PromptID  int64  `json:"promptId,omitempty"`
	Content   string `json:"content"`
	ModelID   int64  `json:"modelId"`
	ModelName string `json:"modelName,omitempty"`
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSession(w, r); !ok {
		return
	}

	var req ChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if len(req.Prompts) == 0 {
		writeBadRequest(w, "At least one prompt is required")
		return
	}
	if len(req.Prompts) > maxChainPrompts {
		writeBadRequest(w, fmt.Sprintf("At most %d prompts are allowed", maxChainPrompts))
		return
	}

	prompts := make([]stream.ChainPrompt, 0, len(req.Prompts))
	for i, p := range req.Prompts {
		if p.Content == "" {
			writeBadRequest(w, fmt.Sprintf("Prompt %d is empty", i+1))
			return
		}
		if len(p.Content) > maxPromptLength {
			writeBadRequest(w, fmt.Sprintf("Prompt %d exceeds %d characters", i+1, maxPromptLength))
			return
		}
		if p.ModelID <= 0 {
			writeBadRequest(w, fmt.Sprintf("Prompt %d is missing modelId", i+1))
			return
		}

		model, err := s.store.GetModelConfig(p.ModelID)
		if err != nil {
			s.writeModelError(w, fmt.Errorf("model %d: %w", p.ModelID, err))
			return
		}
		prov, ok := s.providers.Get(model.Provider)
		if !ok {
			s.writeModelError(w, fmt.Errorf("model %d: provider %q: %w", p.ModelID, model.Provider, store.ErrNotFound))
			return
		}
		name := model.Name
		if p.ModelName != "" {
			name = p.ModelName
		}
		prompts = append(prompts, stream.ChainPrompt{
			PromptID:  p.PromptID,
			Content:   p.Content,
			Provider:  prov,
			ModelName: name,
			Model:     model.ModelID,
		})
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		writeBadRequest(w, "Streaming not supported")
		return
	}
	s.mux.RunChain(r.Context(), prompts, sse)
}
