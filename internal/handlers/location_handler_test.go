package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type stubWebsiteReads struct {
	website *models.Website
	err     error
}

func (s *stubWebsiteReads) GetByDomain(_ context.Context, _, _ string) (*models.Website, error) {
	return s.website, s.err
}

func (s *stubWebsiteReads) ListByLocation(_ context.Context, _ string, _ uuid.UUID) ([]models.Website, error) {
	return nil, s.err
}

type stubLocationReads struct{}

func (s *stubLocationReads) List(_ context.Context, _ string) ([]models.Location, error) {
	return nil, nil
}

func (s *stubLocationReads) Get(_ context.Context, _ string, _ uuid.UUID) (*models.Location, error) {
	return &models.Location{}, nil
}

func newWebsiteApp(websites *stubWebsiteReads) *fiber.App {
	handler := NewLocationHandler(&stubLocationReads{}, websites)
	app := fiber.New()
	app.Get("/api/v1/websites/by-domain/:domain", handler.GetWebsiteByDomain)
	return app
}

func TestGetWebsiteByDomainHidesUnpublished(t *testing.T) {
	app := newWebsiteApp(&stubWebsiteReads{website: &models.Website{Domain: "tutors.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/websites/by-domain/tutors.example.org", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unpublished site, got %d", resp.StatusCode)
	}
}

func TestGetWebsiteByDomainReturnsPublished(t *testing.T) {
	app := newWebsiteApp(&stubWebsiteReads{website: &models.Website{Domain: "tutors.example.org", Published: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/websites/by-domain/tutors.example.org", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestGetWebsiteByDomainMapsMissing(t *testing.T) {
	app := newWebsiteApp(&stubWebsiteReads{err: pgx.ErrNoRows})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/websites/by-domain/unknown.example.org", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
