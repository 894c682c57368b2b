package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

// ClockService runs the supervised timesheet: tutors file clock-in/out
// entries, supervisors decide them, and approved clock-outs turn into
// rounded service hours plus a captured payment.
type ClockService struct {
	db           *pgxpool.Pool
	clockRepo    *repository.ClockRepository
	apptRepo     *repository.AppointmentRepository
	userRepo     *repository.UserRepository
	paymentRepo  *repository.PaymentRepository
	locationRepo locationReader
	providers    *ProviderSet
	notifier     *Notifier
	now          func() time.Time
}

func NewClockService(
	db *pgxpool.Pool,
	clockRepo *repository.ClockRepository,
	apptRepo *repository.AppointmentRepository,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	locationRepo locationReader,
	providers *ProviderSet,
	notifier *Notifier,
) *ClockService {
	return &ClockService{
		db:           db,
		clockRepo:    clockRepo,
		apptRepo:     apptRepo,
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		locationRepo: locationRepo,
		providers:    providers,
		notifier:     notifier,
		now:          time.Now,
	}
}

// ClockIn files a pending clock-in entry for an upcoming appointment.
func (s *ClockService) ClockIn(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	apptID uuid.UUID,
) (*models.ClockEntry, error) {
	return s.fileEntry(ctx, partition, actorUID, apptID, models.ClockKindIn, models.AppointmentUpcoming)
}

// ClockOut files a pending clock-out entry for an active appointment.
func (s *ClockService) ClockOut(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	apptID uuid.UUID,
) (*models.ClockEntry, error) {
	return s.fileEntry(ctx, partition, actorUID, apptID, models.ClockKindOut, models.AppointmentActive)
}

func (s *ClockService) fileEntry(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	apptID uuid.UUID,
	kind string,
	requiredStatus string,
) (*models.ClockEntry, error) {
	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if appointment.TutorUID != actorUID {
		return nil, ErrForbidden
	}
	if appointment.Status != requiredStatus {
		return nil, ErrInvalidStateTransition
	}

	at := s.now().UTC()
	if kind == models.ClockKindIn && !nearWindowStart(at, appointment.Window) {
		return nil, ErrConflict
	}
	if kind == models.ClockKindOut {
		clockIn, err := s.clockRepo.LatestApproved(ctx, partition, apptID, models.ClockKindIn)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidStateTransition
			}
			return nil, err
		}
		if at.Before(clockIn.ProposedTime) {
			return nil, ErrInvalidInput
		}
	}

	pending, err := s.clockRepo.HasPending(ctx, partition, apptID, kind)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrConflict
	}

	entry, err := s.clockRepo.Create(ctx, partition, apptID, actorUID, kind, at)
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("clock_entries", "create", entry,
		entry.TutorUID.String(), LocationTopic(appointment.Window.Location))
	return entry, nil
}

// ApproveClockIn marks the entry approved and flips the appointment active.
func (s *ClockService) ApproveClockIn(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
) (*models.ClockEntry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txClockRepo := repository.NewClockRepository(tx)
	txApptRepo := repository.NewAppointmentRepository(tx)

	entry, appointment, _, err := s.loadPendingEntry(
		ctx, txClockRepo, txApptRepo, partition, actorUID, entryID, models.ClockKindIn)
	if err != nil {
		return nil, err
	}

	decided, err := txClockRepo.Decide(ctx, partition, entry.ID, models.ClockApproved, actorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if _, err := txApptRepo.SetClockIn(ctx, partition, appointment.ID, entry.ProposedTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("clock_entries", "update", decided,
		decided.TutorUID.String(), LocationTopic(appointment.Window.Location))
	return decided, nil
}

// RejectClockIn marks the entry rejected; the appointment stays upcoming.
func (s *ClockService) RejectClockIn(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
) (*models.ClockEntry, error) {
	return s.reject(ctx, partition, actorUID, entryID, models.ClockKindIn)
}

// RejectClockOut marks the entry rejected; the appointment stays active.
func (s *ClockService) RejectClockOut(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
) (*models.ClockEntry, error) {
	return s.reject(ctx, partition, actorUID, entryID, models.ClockKindOut)
}

// ApproveClockOut settles the lesson: rounds the elapsed time per the
// location's policy, credits service hours to both parties, flips the
// appointment done, and captures the authorized payment.
func (s *ClockService) ApproveClockOut(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
) (*models.ClockEntry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txClockRepo := repository.NewClockRepository(tx)
	txApptRepo := repository.NewAppointmentRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	entry, appointment, location, err := s.loadPendingEntry(
		ctx, txClockRepo, txApptRepo, partition, actorUID, entryID, models.ClockKindOut)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentActive || appointment.ClockIn == nil {
		return nil, ErrInvalidStateTransition
	}

	elapsed := entry.ProposedTime.Sub(*appointment.ClockIn)
	if elapsed < 0 {
		return nil, ErrInvalidInput
	}
	rounded := schedule.RoundDuration(elapsed, location.Rounding.Rounding, location.Rounding.Threshold)
	seconds := int64(rounded / time.Second)

	decided, err := txClockRepo.Decide(ctx, partition, entry.ID, models.ClockApproved, actorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	updated, err := txApptRepo.SetClockOut(ctx, partition, appointment.ID, entry.ProposedTime, seconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := txUserRepo.AddServiceSeconds(
		ctx, partition, updated.TutorUID, updated.PupilUID, seconds); err != nil {
		return nil, err
	}

	payment, err := txPaymentRepo.GetByAppointmentIDForUpdate(ctx, partition, updated.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var captureOrder func() error
	if err == nil && payment.Status == models.PaymentAuthorized {
		if _, err := txPaymentRepo.UpdateStatusIfCurrent(
			ctx, partition, payment.ID, models.PaymentAuthorized, models.PaymentCaptured); err != nil {
			return nil, err
		}
		provider := s.providers.ForMethod(payment.Method)
		orderID := ""
		if payment.ProviderOrderID != nil {
			orderID = *payment.ProviderOrderID
		}
		captureOrder = func() error {
			return provider.CaptureOrder(ctx, orderID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if captureOrder != nil {
		if err := captureOrder(); err != nil {
			return nil, err
		}
	}

	s.notifier.DocumentEvent("clock_entries", "update", decided,
		decided.TutorUID.String(), LocationTopic(updated.Window.Location))
	s.notifier.DocumentEvent("appointments", "update", updated,
		updated.TutorUID.String(), updated.PupilUID.String(), LocationTopic(updated.Window.Location))

	parties, err := s.userRepo.ListByIDs(ctx, partition, []uuid.UUID{updated.TutorUID, updated.PupilUID})
	if err == nil {
		pointers := make([]*models.User, 0, len(parties))
		for _, party := range parties {
			partyCopy := party
			pointers = append(pointers, &partyCopy)
		}
		s.notifier.EmailUsers(
			"Lesson complete",
			fmt.Sprintf("The %s lesson %s logged %s of service.", updated.Subject,
				schedule.FormatWindowString(updated.Window), rounded),
			pointers...,
		)
	}
	return decided, nil
}

// ListPending lists undecided entries at the locations the supervisor runs.
func (s *ClockService) ListPending(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
) ([]models.ClockEntry, error) {
	if actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}
	locations, err := s.locationRepo.ListSupervised(ctx, partition, actorUID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(locations))
	for _, location := range locations {
		names = append(names, location.Name)
	}
	return s.clockRepo.ListPendingForLocations(ctx, partition, names)
}

func (s *ClockService) reject(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
	kind string,
) (*models.ClockEntry, error) {
	entry, appointment, _, err := s.loadPendingEntry(
		ctx, s.clockRepo, s.apptRepo, partition, actorUID, entryID, kind)
	if err != nil {
		return nil, err
	}

	decided, err := s.clockRepo.Decide(ctx, partition, entry.ID, models.ClockRejected, actorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.DocumentEvent("clock_entries", "update", decided,
		decided.TutorUID.String(), LocationTopic(appointment.Window.Location))
	return decided, nil
}

// clockInGrace is how early a tutor may clock in before the window opens.
const clockInGrace = 30 * time.Minute

// nearWindowStart reports whether now falls on the lesson's weekday at or
// after the grace period before its opening time.
func nearWindowStart(now time.Time, window schedule.Window) bool {
	if now.Weekday().String() != window.Day {
		return false
	}
	minutes := schedule.Minutes(now.Hour()*60 + now.Minute())
	return minutes >= window.Open-schedule.Minutes(clockInGrace/time.Minute)
}

// loadPendingEntry fetches the entry, its appointment, and the location, and
// checks the actor supervises that location.
func (s *ClockService) loadPendingEntry(
	ctx context.Context,
	clockRepo *repository.ClockRepository,
	apptRepo *repository.AppointmentRepository,
	partition string,
	actorUID uuid.UUID,
	entryID uuid.UUID,
	kind string,
) (*models.ClockEntry, *models.Appointment, *models.Location, error) {
	entry, err := clockRepo.GetByIDForUpdate(ctx, partition, entryID)
	if err != nil {
		return nil, nil, nil, err
	}
	if entry.Kind != kind || entry.Status != models.ClockPending {
		return nil, nil, nil, ErrInvalidStateTransition
	}

	appointment, err := apptRepo.GetByIDForUpdate(ctx, partition, entry.AppointmentID)
	if err != nil {
		return nil, nil, nil, err
	}

	location, err := s.locationRepo.GetByName(ctx, partition, appointment.Window.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, ErrLocationNotFound
		}
		return nil, nil, nil, err
	}
	if !location.SupervisedBy(actorUID) {
		return nil, nil, nil, ErrForbidden
	}
	return entry, appointment, location, nil
}
