package handlers

import (
	"net/http"
	"strconv"

	"tinysteps/internal/models"
	"tinysteps/internal/service"
)

// ActivityHandler serves a student's saved, discarded and history collections
type ActivityHandler struct {
	students   *service.StudentService
	activities *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(students *service.StudentService, activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{students: students, activities: activities}
}

// List returns a handler listing one collection
func (h *ActivityHandler) List(collection models.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, _, ok := loadStudent(w, r, h.students)
		if !ok {
			return
		}
		list, err := h.activities.List(r.Context(), student, collection)
		if err != nil {
			respondWithServiceError(w, err, "failed to list activities")
			return
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

// Add returns a handler posting an activity straight into a collection
func (h *ActivityHandler) Add(collection models.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, _, ok := loadStudent(w, r, h.students)
		if !ok {
			return
		}
		var req CandidateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
			return
		}

		stored, err := h.activities.Add(r.Context(), student, collection, req.toCandidate())
		if err != nil {
			respondWithServiceError(w, err, "failed to store activity")
			return
		}
		respondWithJSON(w, http.StatusCreated, stored)
	}
}

// Delete returns a handler removing an activity from a collection
func (h *ActivityHandler) Delete(collection models.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, _, ok := loadStudent(w, r, h.students)
		if !ok {
			return
		}
		activityID, ok := pathID(w, r, "activityID")
		if !ok {
			return
		}
		if err := h.activities.Delete(r.Context(), student, collection, activityID); err != nil {
			respondWithServiceError(w, err, "failed to delete activity")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Restore moves a discarded activity back to saved
func (h *ActivityHandler) Restore(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	activityID, ok := pathID(w, r, "activityID")
	if !ok {
		return
	}

	restored, err := h.activities.Restore(r.Context(), student, activityID)
	if err != nil {
		respondWithServiceError(w, err, "failed to restore activity")
		return
	}
	respondWithJSON(w, http.StatusOK, RestoreResponse{Restored: restored != nil, Activity: restored})
}

// AddPastActivity logs an activity the student already did
func (h *ActivityHandler) AddPastActivity(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	var req PastActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	activity := req.toActivity()
	if err := h.activities.AddPastActivity(r.Context(), student, &activity); err != nil {
		respondWithServiceError(w, err, "failed to log past activity")
		return
	}
	respondWithJSON(w, http.StatusCreated, activity)
}

// Compare contrasts the skills of two saved activities given as ?a= and ?b=
func (h *ActivityHandler) Compare(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	aID, errA := strconv.ParseInt(r.URL.Query().Get("a"), 10, 64)
	bID, errB := strconv.ParseInt(r.URL.Query().Get("b"), 10, 64)
	if errA != nil || errB != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameters a and b must be activity ids", "", nil)
		return
	}

	cmp, err := h.activities.Compare(r.Context(), student, aID, bID)
	if err != nil {
		respondWithServiceError(w, err, "failed to compare activities")
		return
	}
	respondWithJSON(w, http.StatusOK, cmp)
}
