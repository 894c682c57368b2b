package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

type stubTutorSearch struct {
	lastQuery services.SearchQuery
	results   []models.TutorWithScore
}

func (s *stubTutorSearch) MatchTutors(_ context.Context, _ string, query services.SearchQuery) ([]models.TutorWithScore, error) {
	s.lastQuery = query
	return s.results, nil
}

type stubTutorProfiles struct {
	user *models.User
	err  error
}

func (s *stubTutorProfiles) Get(context.Context, string, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func newSearchApp(search *stubTutorSearch, profiles *stubTutorProfiles) *fiber.App {
	handler := NewSearchHandler(search, profiles)
	app := fiber.New()
	app.Get("/api/v1/tutors", handler.SearchTutors)
	app.Get("/api/v1/tutors/:uid", handler.GetTutor)
	return app
}

func TestSearchTutorsParsesSubjects(t *testing.T) {
	search := &stubTutorSearch{}
	app := newSearchApp(search, &stubTutorProfiles{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutors?subjects=Algebra,%20Chemistry&max_rate=40", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(search.lastQuery.Subjects) != 2 || search.lastQuery.Subjects[1] != "Chemistry" {
		t.Fatalf("subjects not parsed: %v", search.lastQuery.Subjects)
	}
	if search.lastQuery.MaxHourlyRate != 40 {
		t.Fatalf("max rate not parsed: %v", search.lastQuery.MaxHourlyRate)
	}
}

func TestGetTutorEnumeratesSlotPreview(t *testing.T) {
	availability := schedule.Availability{}
	window, err := schedule.NewWindow("Gunn Library", "Monday", 10*60, 12*60)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	if err := availability.Add(window); err != nil {
		t.Fatalf("Add: %v", err)
	}
	tutor := &models.User{
		ID:           uuid.New(),
		Role:         models.RoleTutor,
		Availability: availability,
	}
	app := newSearchApp(&stubTutorSearch{}, &stubTutorProfiles{user: tutor})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutors/"+tutor.ID.String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Slots []string `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Slots) != 3 {
		t.Fatalf("expected 3 hour slots on half-hour steps, got %d: %v", len(body.Slots), body.Slots)
	}
	if body.Slots[0] != "Gunn Library on Mondays from 10:00 AM to 11:00 AM" {
		t.Fatalf("unexpected first slot: %q", body.Slots[0])
	}
}

func TestGetTutorHidesNonTutors(t *testing.T) {
	pupil := &models.User{ID: uuid.New(), Role: models.RolePupil}
	app := newSearchApp(&stubTutorSearch{}, &stubTutorProfiles{user: pupil})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutors/"+pupil.ID.String(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
