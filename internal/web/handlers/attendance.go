package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	service *classroom.Service
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(service *classroom.Service) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

type markRequest struct {
	FacultyID   string      `json:"facultyId" validate:"required"`
	Subject     string      `json:"subject" validate:"required"`
	Batch       string      `json:"batch" validate:"required"`
	Section     string      `json:"section" validate:"required"`
	Timestamp   string      `json:"timestamp"`
	Descriptors [][]float64 `json:"detectedDescriptors" validate:"required"`
}

// RecordResponse is a stored attendance session
type RecordResponse struct {
	ID        string                      `json:"id"`
	FacultyID string                      `json:"facultyId"`
	Subject   string                      `json:"subject"`
	Batch     string                      `json:"batch"`
	Section   string                      `json:"section"`
	Timestamp time.Time                   `json:"timestamp"`
	Present   []string                    `json:"present"`
	Matches   []facematch.AttendanceMatch `json:"matches"`
}

// MarkResponse wraps the stored record
type MarkResponse struct {
	OK     bool           `json:"ok"`
	Record RecordResponse `json:"record"`
}

func toRecordResponse(rec *database.AttendanceRecord) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		FacultyID: rec.FacultyID,
		Subject:   rec.Subject,
		Batch:     rec.Batch,
		Section:   rec.Section,
		Timestamp: rec.Timestamp,
		Present:   rec.Present,
		Matches:   rec.Matches,
	}
}

// Mark handles POST /api/attendance/mark
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			respondError(w, http.StatusBadRequest, "timestamp must be RFC3339")
			return
		}
		ts = parsed
	}

	descriptors := make([]facematch.Embedding, len(req.Descriptors))
	for i, d := range req.Descriptors {
		descriptors[i] = facematch.Embedding(d)
	}

	record, err := h.service.MarkAttendance(r.Context(), classroom.MarkRequest{
		FacultyID:   req.FacultyID,
		Subject:     req.Subject,
		Batch:       req.Batch,
		Section:     req.Section,
		Timestamp:   ts,
		Descriptors: descriptors,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, MarkResponse{OK: true, Record: toRecordResponse(record)})
}

// List handles GET /api/attendance with optional subject, batch and section filters
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.service.ListAttendance(r.Context(), database.AttendanceFilter{
		Subject: q.Get("subject"),
		Batch:   q.Get("batch"),
		Section: q.Get("section"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
