package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tinysteps/internal/service"
	"tinysteps/internal/suggestion"
)

// AIHandler serves the one-shot generation endpoints
type AIHandler struct {
	generator *service.GenerationService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(generator *service.GenerationService) *AIHandler {
	return &AIHandler{generator: generator}
}

// Generate runs a caller-written prompt and returns the JSON the model produced
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondWithError(w, http.StatusBadRequest, "Prompt is required", "", nil)
		return
	}

	doc, err := h.generator.Adhoc(r.Context(), req.Prompt, req.DiscardedActivities)
	if errors.Is(err, suggestion.ErrParseFailure) {
		respondWithError(w, http.StatusInternalServerError, MsgInvalidModelJSON, "model reply was not JSON", err)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, MsgGenerationFailed, "adhoc generation failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, GenerateResponse{Response: doc})
}

// GenerateStory writes a short story for the described child
func (h *AIHandler) GenerateStory(w http.ResponseWriter, r *http.Request) {
	var req suggestion.StoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}
	if strings.TrimSpace(req.Context) == "" {
		respondWithError(w, http.StatusBadRequest, "Context is required", "", nil)
		return
	}

	story, err := h.generator.Story(r.Context(), req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, MsgGenerationFailed, "story generation failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, story)
}
