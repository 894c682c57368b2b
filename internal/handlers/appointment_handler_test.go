package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

type stubAppointmentReads struct {
	lastFilter repository.AppointmentListFilter
	lastUID    uuid.UUID
	list       []models.AppointmentDetail
	detail     *models.AppointmentDetail
	err        error
}

func (s *stubAppointmentReads) List(_ context.Context, _ string, actorUID uuid.UUID, _ string, filter repository.AppointmentListFilter) ([]models.AppointmentDetail, error) {
	s.lastUID = actorUID
	s.lastFilter = filter
	return s.list, s.err
}

func (s *stubAppointmentReads) Get(_ context.Context, _ string, actorUID uuid.UUID, _ string, _ uuid.UUID) (*models.AppointmentDetail, error) {
	s.lastUID = actorUID
	return s.detail, s.err
}

type stubRatings struct {
	scores []float64
}

func (s *stubRatings) SubmitRating(_ context.Context, _ string, _ uuid.UUID, _ *models.Appointment, score float64) error {
	s.scores = append(s.scores, score)
	return nil
}

func newAppointmentApp(service *stubAppointmentReads, uid uuid.UUID) *fiber.App {
	handler := NewAppointmentHandler(service, &stubRatings{})
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uid)
		c.Locals("role", models.RoleTutor)
		return c.Next()
	})
	app.Get("/api/v1/appointments", handler.ListAppointments)
	return app
}

func TestListAppointmentsForwardsDayFilter(t *testing.T) {
	uid := uuid.New()
	service := &stubAppointmentReads{}
	app := newAppointmentApp(service, uid)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?status=upcoming&day=mondays", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFilter.Status != "upcoming" {
		t.Fatalf("expected upcoming filter, got %q", service.lastFilter.Status)
	}
	if service.lastFilter.Day != "Monday" {
		t.Fatalf("expected canonical Monday, got %q", service.lastFilter.Day)
	}
	if service.lastUID != uid {
		t.Fatalf("actor uid not forwarded")
	}
}

func TestListAppointmentsRejectsBadDay(t *testing.T) {
	service := &stubAppointmentReads{}
	app := newAppointmentApp(service, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?day=Caturday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastFilter.Day != "" {
		t.Fatalf("service should not be called with an invalid day")
	}
}
