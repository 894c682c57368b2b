package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/pkg/utils"
)

type userReader interface {
	GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.User, error)
}

type locationReader interface {
	GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Location, error)
	GetByName(ctx context.Context, partition, name string) (*models.Location, error)
	ListSupervised(ctx context.Context, partition string, uid uuid.UUID) ([]models.Location, error)
}

type UserService struct {
	db           *pgxpool.Pool
	userRepo     *repository.UserRepository
	locationRepo locationReader
	notifier     *Notifier
}

func NewUserService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	locationRepo locationReader,
	notifier *Notifier,
) *UserService {
	return &UserService{
		db:           db,
		userRepo:     userRepo,
		locationRepo: locationRepo,
		notifier:     notifier,
	}
}

type CreateUserInput struct {
	Email    string
	Password string
	Role     string
	Name     *string
}

func (s *UserService) Create(ctx context.Context, partition string, input CreateUserInput) (*models.User, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, ErrInvalidInput
	}
	if len(input.Password) < 8 || !models.ValidRole(input.Role) {
		return nil, ErrInvalidInput
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Partition:    partition,
		Email:        strings.ToLower(parsed.Address),
		PasswordHash: hashed,
		Role:         input.Role,
		Name:         input.Name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("users", "create", user, user.ID.String())
	return user, nil
}

type UpdateUserInput struct {
	repository.UpdateUserInput

	// Supervisor-only fields. Stripped for everyone else: users cannot write
	// their own rating, verified flag, or service-hour counters.
	Verified *bool
}

func (s *UserService) Update(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	targetUID uuid.UUID,
	input UpdateUserInput,
) (*models.User, error) {
	supervisor := actorRole == models.RoleSupervisor
	if actorUID != targetUID && !supervisor {
		return nil, ErrForbidden
	}

	if input.PaymentMethod != nil {
		switch *input.PaymentMethod {
		case models.MethodPayPal, models.MethodStripe, models.MethodNone:
		default:
			return nil, ErrInvalidInput
		}
	}
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.Update(ctx, partition, targetUID, input.UpdateUserInput)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Verified != nil && supervisor {
		if err := s.userRepo.SetVerified(ctx, partition, targetUID, *input.Verified); err != nil {
			return nil, err
		}
		user.Verified = *input.Verified
	}

	if complete := profileComplete(user); complete != user.ProfileComplete {
		if err := s.userRepo.SetProfileComplete(ctx, partition, targetUID, complete); err != nil {
			return nil, err
		}
		user.ProfileComplete = complete
	}

	s.notifier.DocumentEvent("users", "update", user, user.ID.String())
	return user, nil
}

func (s *UserService) Delete(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	targetUID uuid.UUID,
) error {
	if actorUID != targetUID && actorRole != models.RoleSupervisor {
		return ErrForbidden
	}
	if err := s.userRepo.Delete(ctx, partition, targetUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.notifier.DocumentEvent("users", "delete", targetUID.String(), targetUID.String())
	return nil
}

func (s *UserService) GetByEmail(ctx context.Context, partition, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, partition, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, partition string, uid uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, partition, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetAvailability replaces a tutor's weekly availability. Windows must land
// inside the opening hours of their location.
func (s *UserService) SetAvailability(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	windows []schedule.Window,
) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, partition, actorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleTutor {
		return nil, ErrForbidden
	}

	availability := schedule.Availability{}
	for _, window := range windows {
		location, err := s.locationRepo.GetByName(ctx, partition, window.Location)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrLocationNotFound
			}
			return nil, err
		}
		if len(location.Hours) > 0 && !location.Hours.FitsWithin(window) {
			return nil, ErrInvalidInput
		}
		if err := availability.Add(window); err != nil {
			return nil, ErrInvalidInput
		}
	}

	if err := s.userRepo.UpdateAvailability(ctx, partition, actorUID, availability); err != nil {
		return nil, err
	}
	user.Availability = availability

	s.notifier.DocumentEvent("users", "update", user, user.ID.String())
	return user, nil
}

// SubmitRating lets the pupil side rate the tutor (or vice versa) after a
// done appointment. The rated profile never writes its own score.
func (s *UserService) SubmitRating(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	appointment *models.Appointment,
	score float64,
) error {
	if appointment == nil || appointment.Status != models.AppointmentDone {
		return ErrInvalidStateTransition
	}
	if score < 1 || score > 5 {
		return ErrInvalidInput
	}

	var ratedUID uuid.UUID
	switch actorUID {
	case appointment.PupilUID:
		ratedUID = appointment.TutorUID
	case appointment.TutorUID:
		ratedUID = appointment.PupilUID
	default:
		return ErrForbidden
	}

	if err := s.userRepo.ApplyRating(ctx, partition, ratedUID, score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// profileComplete checks the role's required fields: every profile needs a
// name, and tutors additionally need subjects, a rate, and availability.
func profileComplete(user *models.User) bool {
	if user.Name == nil || strings.TrimSpace(*user.Name) == "" {
		return false
	}
	if user.Role != models.RoleTutor {
		return true
	}
	if len(user.Subjects) == 0 || user.HourlyRate == nil || *user.HourlyRate < 0 {
		return false
	}
	return len(user.Availability.OpenWindows()) > 0
}
