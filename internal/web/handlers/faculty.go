package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
	"golang.org/x/crypto/bcrypt"
)

// FacultyHandler handles login and faculty account management
type FacultyHandler struct {
	faculty        database.FacultyWriter
	sessionManager *middleware.SessionManager
	bcryptCost     int
}

// NewFacultyHandler creates a new faculty handler
func NewFacultyHandler(faculty database.FacultyWriter, sm *middleware.SessionManager) *FacultyHandler {
	return &FacultyHandler{
		faculty:        faculty,
		sessionManager: sm,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type addFacultyRequest struct {
	ID       string   `json:"id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Subjects []string `json:"subjects"`
	IsAdmin  bool     `json:"isAdmin"`
}

// updateFacultyRequest only changes the fields that are present
type updateFacultyRequest struct {
	Name     *string  `json:"name"`
	Password *string  `json:"password" validate:"omitnil,min=1"`
	Subjects []string `json:"subjects"`
	IsAdmin  *bool    `json:"isAdmin"`
}

// FacultyResponse is the public view of a faculty account
type FacultyResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
	IsAdmin  bool     `json:"isAdmin"`
}

func toFacultyResponse(f *database.Faculty) FacultyResponse {
	subjects := f.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return FacultyResponse{
		ID:       f.ID,
		Username: f.Username,
		Name:     f.Name,
		Subjects: subjects,
		IsAdmin:  f.IsAdmin,
	}
}

// LoginResponse represents a login response
type LoginResponse struct {
	OK        bool             `json:"ok"`
	Faculty   *FacultyResponse `json:"faculty,omitempty"`
	ExpiresAt string           `json:"expires_at,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// StatusResponse represents the session status
type StatusResponse struct {
	Authenticated bool             `json:"authenticated"`
	Faculty       *FacultyResponse `json:"faculty,omitempty"`
	ExpiresAt     string           `json:"expires_at,omitempty"`
}

// Login handles POST /api/faculty/login
func (h *FacultyHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	f, err := h.faculty.GetByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("login lookup for %q failed: %v", sanitizeForLog(req.Username), err)
		respondError(w, http.StatusInternalServerError, errInternal)
		return
	}
	if f == nil || bcrypt.CompareHashAndPassword([]byte(f.PasswordHash), []byte(req.Password)) != nil {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{OK: false, Error: "invalid credentials"})
		return
	}

	session, err := h.sessionManager.CreateSession(f.ID, f.IsAdmin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessionManager.SetSessionCookie(w, r, session)

	resp := toFacultyResponse(f)
	respondJSON(w, http.StatusOK, LoginResponse{
		OK:        true,
		Faculty:   &resp,
		ExpiresAt: session.ToJSON().ExpiresAt,
	})
}

// Logout handles POST /api/faculty/logout
func (h *FacultyHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Status handles GET /api/faculty/status
func (h *FacultyHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}

	f, err := h.faculty.GetByID(r.Context(), session.FacultyID)
	if err != nil {
		log.Printf("status lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, errInternal)
		return
	}
	if f == nil {
		// Account deleted while the session was alive.
		h.sessionManager.DeleteSession(session.ID)
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}

	resp := toFacultyResponse(f)
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Faculty:       &resp,
		ExpiresAt:     session.ToJSON().ExpiresAt,
	})
}

// Add handles POST /api/faculty/add (admin only)
func (h *FacultyHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addFacultyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid password")
		return
	}

	f := &database.Faculty{
		ID:           req.ID,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hash),
		Subjects:     req.Subjects,
		IsAdmin:      req.IsAdmin,
	}
	if err := h.faculty.Create(r.Context(), f); err != nil {
		if errors.Is(err, database.ErrUsernameExists) {
			respondError(w, http.StatusConflict, "faculty username already exists")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	resp := toFacultyResponse(f)
	respondJSON(w, http.StatusCreated, map[string]any{"ok": true, "faculty": resp})
}

// Update handles PUT /api/faculty/{id}/update (admin only)
func (h *FacultyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateFacultyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	f, err := h.faculty.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if f == nil {
		respondError(w, http.StatusNotFound, "faculty not found")
		return
	}

	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.Subjects != nil {
		f.Subjects = req.Subjects
	}
	if req.IsAdmin != nil {
		f.IsAdmin = *req.IsAdmin
	}
	// An empty hash keeps the stored password.
	f.PasswordHash = ""
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), h.bcryptCost)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid password")
			return
		}
		f.PasswordHash = string(hash)
	}

	if err := h.faculty.Update(r.Context(), f); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "faculty not found")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	resp := toFacultyResponse(f)
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "faculty": resp})
}

// List handles GET /api/faculty/list (admin only)
func (h *FacultyHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.faculty.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]FacultyResponse, 0, len(all))
	for i := range all {
		out = append(out, toFacultyResponse(&all[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /api/faculty/{id}/delete (admin only)
func (h *FacultyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.faculty.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "faculty not found")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Subjects handles GET /api/faculty/{id}/subjects
func (h *FacultyHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f, err := h.faculty.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if f == nil {
		respondError(w, http.StatusNotFound, "faculty not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"subjects": toFacultyResponse(f).Subjects})
}
