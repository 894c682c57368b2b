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
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

type stubRequestReads struct {
	lastFilter repository.RequestListFilter
	lastUID    uuid.UUID
	list       []models.RequestDetail
	detail     *models.RequestDetail
	err        error
}

func (s *stubRequestReads) List(_ context.Context, _ string, actorUID uuid.UUID, _ string, filter repository.RequestListFilter) ([]models.RequestDetail, error) {
	s.lastUID = actorUID
	s.lastFilter = filter
	return s.list, s.err
}

func (s *stubRequestReads) Get(_ context.Context, _ string, actorUID uuid.UUID, _ string, _ uuid.UUID) (*models.RequestDetail, error) {
	s.lastUID = actorUID
	return s.detail, s.err
}

func newRequestApp(service *stubRequestReads, uid uuid.UUID) *fiber.App {
	handler := NewRequestHandler(service)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uid)
		c.Locals("role", models.RolePupil)
		return c.Next()
	})
	app.Get("/api/v1/requests", handler.ListRequests)
	app.Get("/api/v1/requests/:id", handler.GetRequest)
	return app
}

func TestListRequestsForwardsStatusFilter(t *testing.T) {
	uid := uuid.New()
	service := &stubRequestReads{list: []models.RequestDetail{{}, {}}}
	app := newRequestApp(service, uid)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests?status=pending", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFilter.Status != "pending" {
		t.Fatalf("expected pending filter, got %q", service.lastFilter.Status)
	}
	if service.lastUID != uid {
		t.Fatalf("actor uid not forwarded")
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("expected count 2, got %d", body.Count)
	}
}

func TestGetRequestRejectsBadID(t *testing.T) {
	app := newRequestApp(&stubRequestReads{}, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/not-a-uuid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetRequestMapsForbidden(t *testing.T) {
	service := &stubRequestReads{err: services.ErrForbidden}
	app := newRequestApp(service, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
