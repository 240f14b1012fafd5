package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/classroom"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestStudentsHandler_Enroll_Success(t *testing.T) {
	svc, students, _ := newTestService(t)
	h := NewStudentsHandler(svc)

	req := jsonRequest(t, "POST", "/api/students/enroll", map[string]any{
		"roll": "R1", "name": "Asha", "batch": "2024", "section": "A",
		"embedding": []float64{3, 4},
	})
	recorder := httptest.NewRecorder()

	h.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var resp EnrollResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Duplicate {
		t.Error("expected duplicate=false")
	}
	if resp.Message != classroom.MessageEnrolled {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.ID == 0 {
		t.Error("expected stored id")
	}
	if len(students.SaveCalls) != 1 {
		t.Errorf("expected 1 save, got %d", len(students.SaveCalls))
	}
}

func TestStudentsHandler_Enroll_RollExists(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{RollID: "R1", Name: "Asha", Batch: "2024", Section: "A", Embedding: []float32{1, 0}})
	h := NewStudentsHandler(svc)

	req := jsonRequest(t, "POST", "/api/students/enroll", map[string]any{
		"roll": "R1", "name": "Someone", "batch": "2024", "section": "B",
		"embedding": []float64{0, 1},
	})
	recorder := httptest.NewRecorder()

	h.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)

	var resp EnrollResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Duplicate || resp.Reason != "roll_already_exists" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Message != classroom.MessageRollExists {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Match != nil {
		t.Error("roll collision should not carry a match")
	}
}

func TestStudentsHandler_Enroll_BiometricMatch(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{RollID: "R1", Name: "Asha", Batch: "2024", Section: "A", Embedding: []float32{1, 0}})
	h := NewStudentsHandler(svc)

	req := jsonRequest(t, "POST", "/api/students/enroll", map[string]any{
		"roll": "R2", "name": "Asha Again", "batch": "2024", "section": "B",
		"embedding": []float64{2, 0},
	})
	recorder := httptest.NewRecorder()

	h.Enroll(recorder, req)

	assertStatusCode(t, recorder, http.StatusConflict)

	var resp EnrollResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Reason != "biometric_match" {
		t.Errorf("Reason = %q", resp.Reason)
	}
	if resp.Match == nil || resp.Match.Roll != "R1" || resp.Match.Section != "A" {
		t.Errorf("unexpected match %+v", resp.Match)
	}
	if !strings.Contains(resp.Message, "Already enrolled as Asha (Roll: R1, Batch: 2024, Section: A)") {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestStudentsHandler_Enroll_BadRequests(t *testing.T) {
	svc, students, _ := newTestService(t)
	h := NewStudentsHandler(svc)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{"},
		{"missing fields", map[string]any{"roll": "R1"}},
		{"wrong dimension", map[string]any{
			"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{1, 0, 0},
		}},
		{"zero vector", map[string]any{
			"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{0, 0},
		}},
		{"empty embedding", map[string]any{
			"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{},
		}},
		{"blank roll", map[string]any{
			"roll": "  ", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{1, 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			h.Enroll(recorder, jsonRequest(t, "POST", "/api/students/enroll", tt.body))
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}

	if len(students.SaveCalls) != 0 {
		t.Errorf("invalid requests must not be saved, got %d saves", len(students.SaveCalls))
	}
}

func TestStudentsHandler_Enroll_StoreError(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.RosterError = errors.New("db down")
	h := NewStudentsHandler(svc)

	recorder := httptest.NewRecorder()
	h.Enroll(recorder, jsonRequest(t, "POST", "/api/students/enroll", map[string]any{
		"roll": "R1", "name": "Asha", "batch": "2024", "section": "A", "embedding": []float64{1, 0},
	}))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, errInternal)
}

func TestStudentsHandler_List(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{RollID: "R1", Name: "José Núñez", Batch: "2024", Section: "A", Embedding: []float32{1, 0}})
	students.AddStudent(database.Student{RollID: "R2", Name: "Asha", Batch: "2024", Section: "B", Embedding: []float32{0, 1}})
	students.AddStudent(database.Student{RollID: "R3", Name: "Jose Perez", Batch: "2023", Section: "A", Embedding: []float32{0, 1}})
	h := NewStudentsHandler(svc)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"by section", "?batch=2024&section=A", []string{"R1"}},
		{"by name ignores accents", "?name=jose", []string{"R1", "R3"}},
		{"no filter", "", []string{"R1", "R2", "R3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			h.List(recorder, httptest.NewRequest("GET", "/api/students"+tt.query, nil))

			assertStatusCode(t, recorder, http.StatusOK)

			var resp []StudentResponse
			parseJSONResponse(t, recorder, &resp)
			if len(resp) != len(tt.want) {
				t.Fatalf("got %d students, want %d: %+v", len(resp), len(tt.want), resp)
			}
			for i, roll := range tt.want {
				if resp[i].Roll != roll {
					t.Errorf("position %d: got %s, want %s", i, resp[i].Roll, roll)
				}
			}
		})
	}
}

func TestStudentsHandler_ListAll_OmitsEmbedding(t *testing.T) {
	svc, students, _ := newTestService(t)
	students.AddStudent(database.Student{RollID: "R1", Name: "Asha", Batch: "2024", Section: "A", Embedding: []float32{1, 0}})
	h := NewStudentsHandler(svc)

	recorder := httptest.NewRecorder()
	h.ListAll(recorder, httptest.NewRequest("GET", "/api/students/list", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if strings.Contains(recorder.Body.String(), "embedding") {
		t.Errorf("listing leaks embeddings: %s", recorder.Body.String())
	}
}

func TestStudentsHandler_List_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewStudentsHandler(svc)

	recorder := httptest.NewRecorder()
	h.ListAll(recorder, httptest.NewRequest("GET", "/api/students/list", nil))

	if strings.TrimSpace(recorder.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", recorder.Body.String())
	}
}
