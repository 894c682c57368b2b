package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

type AppointmentService struct {
	db           *pgxpool.Pool
	apptRepo     *repository.AppointmentRepository
	paymentRepo  *repository.PaymentRepository
	userRepo     *repository.UserRepository
	locationRepo locationReader
	providers    *ProviderSet
	notifier     *Notifier
}

func NewAppointmentService(
	db *pgxpool.Pool,
	apptRepo *repository.AppointmentRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo *repository.UserRepository,
	locationRepo locationReader,
	providers *ProviderSet,
	notifier *Notifier,
) *AppointmentService {
	return &AppointmentService{
		db:           db,
		apptRepo:     apptRepo,
		paymentRepo:  paymentRepo,
		userRepo:     userRepo,
		locationRepo: locationRepo,
		providers:    providers,
		notifier:     notifier,
	}
}

func (s *AppointmentService) List(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	role string,
	filter repository.AppointmentListFilter,
) ([]models.AppointmentDetail, error) {
	filter.ActorUID = actorUID
	filter.Role = role
	appointments, err := s.apptRepo.List(ctx, partition, filter)
	if err != nil {
		return nil, err
	}

	apptIDs := make([]uuid.UUID, 0, len(appointments))
	for _, appointment := range appointments {
		apptIDs = append(apptIDs, appointment.ID)
	}
	paymentsByAppt, err := s.paymentRepo.ListByAppointmentIDs(ctx, partition, apptIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.AppointmentDetail, 0, len(appointments))
	for _, appointment := range appointments {
		detail := models.AppointmentDetail{Appointment: appointment}
		if payment, ok := paymentsByAppt[appointment.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *AppointmentService) Get(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	apptID uuid.UUID,
) (*models.AppointmentDetail, error) {
	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if !isAppointmentParty(actorUID, appointment) && actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}

	detail := &models.AppointmentDetail{Appointment: *appointment}
	payment, err := s.paymentRepo.GetByAppointmentID(ctx, partition, apptID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

type ModifyAppointmentInput struct {
	Window        *schedule.Window
	LessonMinutes *int
}

// Modify moves an upcoming appointment to a new window: frees the old slot
// on the tutor's availability, re-checks the new one, and books it.
func (s *AppointmentService) Modify(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	apptID uuid.UUID,
	input ModifyAppointmentInput,
) (*models.Appointment, error) {
	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePartyOrSupervisor(ctx, partition, actorUID, actorRole, appointment); err != nil {
		return nil, err
	}
	if input.Window == nil && input.LessonMinutes == nil {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", appointment.TutorUID.String()); err != nil {
		return nil, err
	}

	appointment, err = txApptRepo.GetByIDForUpdate(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentUpcoming {
		return nil, ErrInvalidStateTransition
	}

	window := appointment.Window
	if input.Window != nil {
		window, err = schedule.NewWindow(
			input.Window.Location, input.Window.Day, input.Window.Open, input.Window.Close)
		if err != nil {
			return nil, ErrInvalidInput
		}
	}
	minutes := appointment.LessonMinutes
	if input.LessonMinutes != nil {
		minutes = *input.LessonMinutes
	}
	if minutes <= 0 || schedule.Minutes(minutes) != window.Duration() {
		return nil, ErrInvalidInput
	}

	tutor, err := txUserRepo.GetByIDForUpdate(ctx, partition, appointment.TutorUID)
	if err != nil {
		return nil, err
	}
	if err := tutor.Availability.MarkFree(appointment.Window); err != nil {
		return nil, ErrConflict
	}
	if !tutor.Availability.FitsWithin(window) {
		return nil, ErrConflict
	}
	if err := tutor.Availability.MarkBooked(window); err != nil {
		return nil, ErrConflict
	}
	if err := txUserRepo.UpdateAvailability(ctx, partition, tutor.ID, tutor.Availability); err != nil {
		return nil, err
	}

	updated, err := txApptRepo.UpdateWindow(ctx, partition, apptID, window, minutes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("appointments", "update", updated,
		updated.TutorUID.String(), updated.PupilUID.String(), LocationTopic(updated.Window.Location))
	return updated, nil
}

// Cancel calls off an upcoming appointment, frees the tutor's window, and
// voids the authorized payment.
func (s *AppointmentService) Cancel(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	apptID uuid.UUID,
) (*models.Appointment, error) {
	appointment, err := s.apptRepo.GetByID(ctx, partition, apptID)
	if err != nil {
		return nil, err
	}
	if err := s.requirePartyOrSupervisor(ctx, partition, actorUID, actorRole, appointment); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txApptRepo := repository.NewAppointmentRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", appointment.TutorUID.String()); err != nil {
		return nil, err
	}

	updated, err := txApptRepo.UpdateStatusIfCurrent(
		ctx, partition, apptID, models.AppointmentUpcoming, models.AppointmentCanceled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	tutor, err := txUserRepo.GetByIDForUpdate(ctx, partition, updated.TutorUID)
	if err != nil {
		return nil, err
	}
	if err := tutor.Availability.MarkFree(updated.Window); err == nil {
		if err := txUserRepo.UpdateAvailability(ctx, partition, tutor.ID, tutor.Availability); err != nil {
			return nil, err
		}
	}

	payment, err := txPaymentRepo.GetByAppointmentIDForUpdate(ctx, partition, apptID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var voidOrder func() error
	if err == nil && payment.Status == models.PaymentAuthorized {
		if _, err := txPaymentRepo.UpdateStatusIfCurrent(
			ctx, partition, payment.ID, models.PaymentAuthorized, models.PaymentVoided); err != nil {
			return nil, err
		}
		provider := s.providers.ForMethod(payment.Method)
		orderID := ""
		if payment.ProviderOrderID != nil {
			orderID = *payment.ProviderOrderID
		}
		voidOrder = func() error {
			return provider.VoidOrder(ctx, orderID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if voidOrder != nil {
		if err := voidOrder(); err != nil {
			return nil, err
		}
	}

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
			"Lesson canceled",
			fmt.Sprintf("The %s lesson %s was canceled.", updated.Subject,
				schedule.FormatWindowString(updated.Window)),
			pointers...,
		)
	}
	return updated, nil
}

func (s *AppointmentService) requirePartyOrSupervisor(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	appointment *models.Appointment,
) error {
	if isAppointmentParty(actorUID, appointment) {
		return nil
	}
	if actorRole != models.RoleSupervisor {
		return ErrForbidden
	}
	location, err := s.locationRepo.GetByName(ctx, partition, appointment.Window.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if !location.SupervisedBy(actorUID) {
		return ErrForbidden
	}
	return nil
}

func isAppointmentParty(actorUID uuid.UUID, appointment *models.Appointment) bool {
	return actorUID == appointment.TutorUID || actorUID == appointment.PupilUID
}
