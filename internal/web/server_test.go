package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}

	svc := classroom.New(mock.NewMockStudentStore(), mock.NewMockAttendanceStore(), classroom.Options{
		Dim:        2,
		Enrollment: facematch.DefaultEnrollmentPolicy(),
		Attendance: facematch.DefaultAttendancePolicy(),
	})

	faculty := mock.NewMockFacultyStore()
	for _, f := range []struct {
		id, username, password string
		admin                  bool
	}{
		{"F-1", "admin", "adminpass", true},
		{"F-2", "teacher", "teachpass", false},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(f.password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("bcrypt: %v", err)
		}
		faculty.AddFaculty(database.Faculty{ID: f.id, Username: f.username, Name: f.username, PasswordHash: string(hash), IsAdmin: f.admin})
	}

	s := NewServer(cfg, 0, "127.0.0.1", "test-secret", svc, faculty, nil)
	t.Cleanup(s.sessionManager.Stop)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "198.51.100.7:5555"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, username, password string) []*http.Cookie {
	t.Helper()
	w := do(t, s, "POST", "/api/faculty/login", map[string]string{"username": username, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login as %s: status %d body %s", username, w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

func TestServer_PublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := do(t, s, "GET", "/api/health", nil, nil); w.Code != http.StatusOK {
		t.Errorf("health status %d", w.Code)
	}

	w := do(t, s, "GET", "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "face_attendance_http_requests_total") {
		t.Error("metrics output misses the request counter")
	}
}

func TestServer_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{"POST", "/api/students/enroll"},
		{"GET", "/api/students"},
		{"GET", "/api/students/list"},
		{"POST", "/api/attendance/mark"},
		{"GET", "/api/attendance"},
		{"GET", "/api/faculty/F-1/subjects"},
		{"GET", "/api/faculty/list"},
	} {
		if w := do(t, s, route.method, route.path, nil, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", route.method, route.path, w.Code)
		}
	}
}

func TestServer_AdminRoutes(t *testing.T) {
	s := newTestServer(t)
	teacher := login(t, s, "teacher", "teachpass")
	admin := login(t, s, "admin", "adminpass")

	if w := do(t, s, "GET", "/api/faculty/list", nil, teacher); w.Code != http.StatusForbidden {
		t.Errorf("teacher list status %d, want 403", w.Code)
	}
	if w := do(t, s, "GET", "/api/faculty/list", nil, admin); w.Code != http.StatusOK {
		t.Errorf("admin list status %d, want 200", w.Code)
	}

	newFaculty := map[string]any{"id": "F-3", "username": "new", "password": "pw", "name": "New"}
	if w := do(t, s, "POST", "/api/faculty/add", newFaculty, teacher); w.Code != http.StatusForbidden {
		t.Errorf("teacher add status %d, want 403", w.Code)
	}
	if w := do(t, s, "POST", "/api/faculty/add", newFaculty, admin); w.Code != http.StatusCreated {
		t.Errorf("admin add status %d, want 201", w.Code)
	}
	if w := do(t, s, "DELETE", "/api/faculty/F-404/delete", nil, admin); w.Code != http.StatusNotFound {
		t.Errorf("delete missing status %d, want 404", w.Code)
	}
}

func TestServer_EnrollThenMark(t *testing.T) {
	s := newTestServer(t)
	cookies := login(t, s, "teacher", "teachpass")

	w := do(t, s, "POST", "/api/students/enroll", map[string]any{
		"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{0.6, 0.8},
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("enroll status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, s, "POST", "/api/students/enroll", map[string]any{
		"roll": "R2", "name": "Asha Twin", "batch": "2024", "section": "B", "embedding": []float64{0.6, 0.8},
	}, cookies)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate enroll status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, s, "POST", "/api/attendance/mark", map[string]any{
		"facultyId": "F-2", "subject": "Physics", "batch": "2024", "section": "A",
		"detectedDescriptors": [][]float64{{0.6, 0.8}},
	}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("mark status %d body %s", w.Code, w.Body.String())
	}

	w = do(t, s, "GET", "/api/attendance?subject=Physics", nil, cookies)
	var summary classroom.AttendanceSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Total != 1 || len(summary.Records) != 1 || summary.Records[0].RollID != "R1" {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestServer_LoginRateLimited(t *testing.T) {
	s := newTestServer(t)

	limited := false
	for range 10 {
		w := do(t, s, "POST", "/api/faculty/login", map[string]string{"username": "teacher", "password": "wrong"}, nil)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected repeated logins to be rate limited")
	}
}
