package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// StudentsHandler handles enrollment and roster endpoints
type StudentsHandler struct {
	service *classroom.Service
}

// NewStudentsHandler creates a new students handler
func NewStudentsHandler(service *classroom.Service) *StudentsHandler {
	return &StudentsHandler{service: service}
}

type enrollRequest struct {
	Roll      string    `json:"roll" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Batch     string    `json:"batch" validate:"required"`
	Section   string    `json:"section" validate:"required"`
	Embedding []float64 `json:"embedding" validate:"required"`
}

// EnrollResponse is returned for both accepted and rejected enrollments
type EnrollResponse struct {
	Duplicate bool          `json:"duplicate"`
	Reason    string        `json:"reason,omitempty"`
	Message   string        `json:"message"`
	ID        int64         `json:"id,omitempty"`
	Match     *MatchSummary `json:"match,omitempty"`
}

// MatchSummary identifies the already enrolled student a face matched
type MatchSummary struct {
	Roll    string `json:"roll"`
	Name    string `json:"name"`
	Batch   string `json:"batch"`
	Section string `json:"section"`
}

// StudentResponse is a roster entry. The embedding is never exposed.
type StudentResponse struct {
	ID        int64     `json:"id"`
	Roll      string    `json:"roll"`
	Name      string    `json:"name"`
	Batch     string    `json:"batch"`
	Section   string    `json:"section"`
	CreatedAt time.Time `json:"created_at"`
}

func toStudentResponse(s database.Student) StudentResponse {
	return StudentResponse{
		ID:        s.ID,
		Roll:      s.RollID,
		Name:      s.Name,
		Batch:     s.Batch,
		Section:   s.Section,
		CreatedAt: s.CreatedAt,
	}
}

// Enroll handles POST /api/students/enroll
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.service.Enroll(r.Context(), classroom.EnrollRequest{
		RollID:    req.Roll,
		Name:      req.Name,
		Batch:     req.Batch,
		Section:   req.Section,
		Embedding: facematch.Embedding(req.Embedding),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if !result.Enrolled() {
		resp := EnrollResponse{
			Duplicate: true,
			Reason:    string(result.Verdict.Reason),
			Message:   result.Message,
		}
		if m := result.Verdict.Match; m != nil && result.Verdict.Reason == facematch.ReasonBiometricMatch {
			resp.Match = &MatchSummary{Roll: m.RollID, Name: m.Name, Batch: m.Batch, Section: m.Section}
		}
		respondJSON(w, http.StatusConflict, resp)
		return
	}

	respondJSON(w, http.StatusCreated, EnrollResponse{
		Duplicate: false,
		Message:   result.Message,
		ID:        result.Student.ID,
	})
}

// List handles GET /api/students with optional batch, section and name filters
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.list(w, r, database.StudentFilter{
		Batch:   q.Get("batch"),
		Section: q.Get("section"),
		Name:    q.Get("name"),
	})
}

// ListAll handles GET /api/students/list
func (h *StudentsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, database.StudentFilter{})
}

func (h *StudentsHandler) list(w http.ResponseWriter, r *http.Request, filter database.StudentFilter) {
	students, err := h.service.ListStudents(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}
