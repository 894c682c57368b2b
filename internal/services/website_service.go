package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

// WebsiteService manages the white-label marketing-site records a location's
// supervisors publish.
type WebsiteService struct {
	websiteRepo  *repository.WebsiteRepository
	locationRepo locationReader
	notifier     *Notifier
}

func NewWebsiteService(
	websiteRepo *repository.WebsiteRepository,
	locationRepo locationReader,
	notifier *Notifier,
) *WebsiteService {
	return &WebsiteService{
		websiteRepo:  websiteRepo,
		locationRepo: locationRepo,
		notifier:     notifier,
	}
}

type CreateWebsiteInput struct {
	LocationID   uuid.UUID
	Domain       string
	Title        string
	Tagline      *string
	BrandColor   *string
	LogoURL      *string
	HeroURL      *string
	ContactEmail *string
}

func (s *WebsiteService) Create(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	input CreateWebsiteInput,
) (*models.Website, error) {
	domain := strings.ToLower(strings.TrimSpace(input.Domain))
	if domain == "" || strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidInput
	}

	location, err := s.requireSupervised(ctx, partition, actorUID, input.LocationID)
	if err != nil {
		return nil, err
	}

	website := &models.Website{
		Partition:    partition,
		LocationID:   location.ID,
		Domain:       domain,
		Title:        input.Title,
		Tagline:      input.Tagline,
		BrandColor:   input.BrandColor,
		LogoURL:      input.LogoURL,
		HeroURL:      input.HeroURL,
		ContactEmail: input.ContactEmail,
	}
	if err := s.websiteRepo.Create(ctx, website); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notifier.DocumentEvent("websites", "create", website, LocationTopic(location.Name))
	return website, nil
}

func (s *WebsiteService) Update(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	websiteID uuid.UUID,
	input repository.UpdateWebsiteInput,
) (*models.Website, error) {
	website, err := s.websiteRepo.GetByID(ctx, partition, websiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	location, err := s.requireSupervised(ctx, partition, actorUID, website.LocationID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrInvalidInput
	}

	updated, err := s.websiteRepo.Update(ctx, partition, websiteID, input)
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("websites", "update", updated, LocationTopic(location.Name))
	return updated, nil
}

func (s *WebsiteService) Delete(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	websiteID uuid.UUID,
) error {
	website, err := s.websiteRepo.GetByID(ctx, partition, websiteID)
	if err != nil {
		return err
	}
	location, err := s.requireSupervised(ctx, partition, actorUID, website.LocationID)
	if err != nil {
		return err
	}
	if err := s.websiteRepo.Delete(ctx, partition, websiteID); err != nil {
		return err
	}
	s.notifier.DocumentEvent("websites", "delete", website.ID.String(), LocationTopic(location.Name))
	return nil
}

func (s *WebsiteService) GetByDomain(ctx context.Context, partition, domain string) (*models.Website, error) {
	return s.websiteRepo.GetByDomain(ctx, partition, strings.ToLower(strings.TrimSpace(domain)))
}

func (s *WebsiteService) ListByLocation(ctx context.Context, partition string, locationID uuid.UUID) ([]models.Website, error) {
	return s.websiteRepo.ListByLocation(ctx, partition, locationID)
}

func (s *WebsiteService) requireSupervised(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	locationID uuid.UUID,
) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, partition, locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if !location.SupervisedBy(actorUID) {
		return nil, ErrForbidden
	}
	return location, nil
}
