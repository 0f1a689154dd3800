package handlers

import (
	"net/http"

	"tinysteps/internal/models"
	"tinysteps/internal/service"
)

// StoryHandler manages the stories saved under a student
type StoryHandler struct {
	students *service.StudentService
	stories  *service.StoryService
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(students *service.StudentService, stories *service.StoryService) *StoryHandler {
	return &StoryHandler{students: students, stories: stories}
}

// List returns a student's stories
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	stories, err := h.stories.List(r.Context(), student)
	if err != nil {
		respondWithServiceError(w, err, "failed to list stories")
		return
	}
	respondWithJSON(w, http.StatusOK, stories)
}

// Save stores a generated story
func (h *StoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	var story models.Story
	if err := decodeJSON(r, &story); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}
	if err := h.stories.Save(r.Context(), student, &story); err != nil {
		respondWithServiceError(w, err, "failed to save story")
		return
	}
	respondWithJSON(w, http.StatusCreated, story)
}

// Delete removes a story
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	storyID, ok := pathID(w, r, "storyID")
	if !ok {
		return
	}
	if err := h.stories.Delete(r.Context(), student, storyID); err != nil {
		respondWithServiceError(w, err, "failed to delete story")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
