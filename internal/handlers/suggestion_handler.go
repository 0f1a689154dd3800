package handlers

import (
	"context"
	"net/http"

	"tinysteps/internal/models"
	"tinysteps/internal/service"
	"tinysteps/internal/suggestion"
)

// SuggestionHandler drives the per-student suggestion carousel
type SuggestionHandler struct {
	students    *service.StudentService
	suggestions *service.SuggestionService
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(students *service.StudentService, suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{students: students, suggestions: suggestions}
}

type sessionStep func(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error)

func (h *SuggestionHandler) serveSession(step sessionStep, logMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, userID, ok := loadStudent(w, r, h.students)
		if !ok {
			return
		}
		session, err := step(r.Context(), userID, student)
		if err != nil {
			respondWithServiceError(w, err, logMsg)
			return
		}
		respondWithJSON(w, http.StatusOK, newSessionView(session))
	}
}

// View returns the carousel without changing it
func (h *SuggestionHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serveSession(h.suggestions.Current, "failed to load suggestions")(w, r)
}

// Generate asks the model for a new batch
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.serveSession(h.suggestions.Generate, "failed to generate suggestions")(w, r)
}

// Next moves the cursor forward
func (h *SuggestionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.serveSession(h.suggestions.Next, "failed to move cursor")(w, r)
}

// Previous moves the cursor back
func (h *SuggestionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.serveSession(h.suggestions.Previous, "failed to move cursor")(w, r)
}

type sessionAction func(ctx context.Context, userID int64, student *models.Student) (*models.StoredActivity, suggestion.Session, error)

func (h *SuggestionHandler) act(w http.ResponseWriter, r *http.Request, action sessionAction, logMsg string) {
	student, userID, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	stored, session, err := action(r.Context(), userID, student)
	if err != nil {
		respondWithServiceError(w, err, logMsg)
		return
	}
	respondWithJSON(w, http.StatusOK, SessionActionResponse{Activity: stored, Session: newSessionView(session)})
}

// Save stores the candidate under the cursor
func (h *SuggestionHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.suggestions.Save, "failed to save suggestion")
}

// Discard stores the candidate under the cursor as discarded
func (h *SuggestionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.suggestions.Discard, "failed to discard suggestion")
}

// Reset clears the caller's carousel
func (h *SuggestionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := loadStudent(w, r, h.students); !ok {
		return
	}
	userID, _ := GetUserIDFromContext(r.Context())
	if err := h.suggestions.Reset(r.Context(), userID); err != nil {
		respondWithServiceError(w, err, "failed to reset suggestions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
