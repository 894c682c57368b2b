package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

type LocationService struct {
	locationRepo *repository.LocationRepository
	notifier     *Notifier
}

func NewLocationService(locationRepo *repository.LocationRepository, notifier *Notifier) *LocationService {
	return &LocationService{locationRepo: locationRepo, notifier: notifier}
}

type CreateLocationInput struct {
	Name            string
	Description     *string
	Hours           schedule.Availability
	Rounding        models.RoundingConfig
	AutoClockoutMin *int
}

func (s *LocationService) Create(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	input CreateLocationInput,
) (*models.Location, error) {
	if actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}
	if input.Name == "" {
		return nil, ErrInvalidInput
	}
	rounding := input.Rounding
	if rounding.Rounding == "" && rounding.Threshold == "" {
		rounding = models.RoundingConfig{Rounding: schedule.RoundNormally, Threshold: "minute"}
	}
	if !schedule.ValidRounding(rounding.Rounding, rounding.Threshold) {
		return nil, ErrInvalidInput
	}
	if input.AutoClockoutMin != nil && *input.AutoClockoutMin <= 0 {
		return nil, ErrInvalidInput
	}

	location := &models.Location{
		Partition:       partition,
		Name:            input.Name,
		Description:     input.Description,
		Supervisors:     []uuid.UUID{actorUID},
		Hours:           input.Hours,
		Rounding:        rounding,
		AutoClockoutMin: input.AutoClockoutMin,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notifier.DocumentEvent("locations", "create", location, LocationTopic(location.Name))
	return location, nil
}

type UpdateLocationInput struct {
	repository.UpdateLocationInput
}

func (s *LocationService) Update(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	locationID uuid.UUID,
	input UpdateLocationInput,
) (*models.Location, error) {
	location, err := s.requireSupervised(ctx, partition, actorUID, locationID)
	if err != nil {
		return nil, err
	}

	rounding, threshold := location.Rounding.Rounding, location.Rounding.Threshold
	if input.Rounding != nil {
		rounding = *input.Rounding
	}
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	if !schedule.ValidRounding(rounding, threshold) {
		return nil, ErrInvalidInput
	}
	if input.AutoClockoutMin != nil && *input.AutoClockoutMin <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Supervisors != nil && len(*input.Supervisors) == 0 {
		return nil, ErrInvalidInput
	}

	updated, err := s.locationRepo.Update(ctx, partition, locationID, input.UpdateLocationInput)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}

	s.notifier.DocumentEvent("locations", "update", updated, LocationTopic(updated.Name))
	return updated, nil
}

func (s *LocationService) Delete(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	locationID uuid.UUID,
) error {
	location, err := s.requireSupervised(ctx, partition, actorUID, locationID)
	if err != nil {
		return err
	}
	if err := s.locationRepo.Delete(ctx, partition, locationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLocationNotFound
		}
		return err
	}
	s.notifier.DocumentEvent("locations", "delete", location.ID.String(), LocationTopic(location.Name))
	return nil
}

func (s *LocationService) List(ctx context.Context, partition string) ([]models.Location, error) {
	return s.locationRepo.List(ctx, partition)
}

func (s *LocationService) Get(ctx context.Context, partition string, locationID uuid.UUID) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, partition, locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return location, nil
}

func (s *LocationService) requireSupervised(
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
