package handlers

import (
	"net/http"
	"strconv"

	"tinysteps/internal/models"
	"tinysteps/internal/service"
)

// StudentHandler handles student profile and sample preview requests
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, MsgInvalidID, "", nil)
		return 0, false
	}
	return id, true
}

// loadStudent resolves the {id} path value to a student the caller may
// read, writing the error response itself when it cannot
func loadStudent(w http.ResponseWriter, r *http.Request, students *service.StudentService) (*models.Student, int64, bool) {
	userID, _ := GetUserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, 0, false
	}
	student, err := students.GetStudent(r.Context(), userID, id)
	if err != nil {
		respondWithServiceError(w, err, "failed to load student")
		return nil, 0, false
	}
	return student, userID, true
}

// List returns the caller's students
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	students, err := h.students.ListStudents(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "failed to list students")
		return
	}
	respondWithJSON(w, http.StatusOK, students)
}

// Create adds a student
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	var student models.Student
	if err := decodeJSON(r, &student); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}
	if err := h.students.CreateStudent(r.Context(), userID, &student); err != nil {
		respondWithServiceError(w, err, "failed to create student")
		return
	}
	respondWithJSON(w, http.StatusCreated, student)
}

// Get returns one student
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	student, _, ok := loadStudent(w, r, h.students)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, student)
}

// Update replaces a student's profile
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var update models.Student
	if err := decodeJSON(r, &update); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	student, err := h.students.UpdateStudent(r.Context(), userID, id, &update)
	if err != nil {
		respondWithServiceError(w, err, "failed to update student")
		return
	}
	respondWithJSON(w, http.StatusOK, student)
}

// Delete removes a student and everything stored under it
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.students.DeleteStudent(r.Context(), userID, id); err != nil {
		respondWithServiceError(w, err, "failed to delete student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSamples returns the public sample students
func (h *StudentHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := h.students.ListSamples(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "failed to list samples")
		return
	}
	respondWithJSON(w, http.StatusOK, samples)
}

// GetSample returns one sample student
func (h *StudentHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sample, err := h.students.GetSample(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "failed to load sample")
		return
	}
	respondWithJSON(w, http.StatusOK, sample)
}
