package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

type RequestService struct {
	db           *pgxpool.Pool
	requestRepo  *repository.RequestRepository
	userRepo     *repository.UserRepository
	apptRepo     *repository.AppointmentRepository
	paymentRepo  *repository.PaymentRepository
	locationRepo locationReader
	providers    *ProviderSet
	notifier     *Notifier
}

func NewRequestService(
	db *pgxpool.Pool,
	requestRepo *repository.RequestRepository,
	userRepo *repository.UserRepository,
	apptRepo *repository.AppointmentRepository,
	paymentRepo *repository.PaymentRepository,
	locationRepo locationReader,
	providers *ProviderSet,
	notifier *Notifier,
) *RequestService {
	return &RequestService{
		db:           db,
		requestRepo:  requestRepo,
		userRepo:     userRepo,
		apptRepo:     apptRepo,
		paymentRepo:  paymentRepo,
		locationRepo: locationRepo,
		providers:    providers,
		notifier:     notifier,
	}
}

type NewRequestInput struct {
	Subject       string
	Window        schedule.Window
	LessonMinutes int
	TutorUID      uuid.UUID
	PupilUID      uuid.UUID
	Message       *string
}

// New files a lesson request. Only the pupil side sends requests: the pupil
// themselves, or a parent on their behalf.
func (s *RequestService) New(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	input NewRequestInput,
) (*models.Request, error) {
	switch actorRole {
	case models.RolePupil:
		if actorUID != input.PupilUID {
			return nil, ErrForbidden
		}
	case models.RoleParent:
	default:
		return nil, ErrForbidden
	}

	window, err := schedule.NewWindow(input.Window.Location, input.Window.Day, input.Window.Open, input.Window.Close)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if input.Subject == "" || input.LessonMinutes <= 0 ||
		schedule.Minutes(input.LessonMinutes) != window.Duration() {
		return nil, ErrInvalidInput
	}
	if input.TutorUID == input.PupilUID {
		return nil, ErrInvalidInput
	}

	tutor, err := s.userRepo.GetByID(ctx, partition, input.TutorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if tutor.Role != models.RoleTutor || !tutor.ProfileComplete {
		return nil, ErrInvalidInput
	}
	if !tutor.Availability.FitsWithin(window) {
		return nil, ErrConflict
	}

	amount := 0.0
	if tutor.HourlyRate != nil {
		amount = *tutor.HourlyRate * float64(input.LessonMinutes) / 60
	}

	request, err := s.requestRepo.Create(ctx, repository.CreateRequestInput{
		Partition:     partition,
		Subject:       input.Subject,
		Window:        window,
		LessonMinutes: input.LessonMinutes,
		SenderUID:     actorUID,
		SenderRole:    actorRole,
		TutorUID:      input.TutorUID,
		PupilUID:      input.PupilUID,
		Message:       input.Message,
		PaymentMethod: tutor.PaymentMethod,
		Amount:        amount,
		Currency:      "USD",
	})
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("requests", "create", request,
		request.TutorUID.String(), request.SenderUID.String(), LocationTopic(window.Location))
	s.notifier.EmailUsers(
		"New lesson request",
		fmt.Sprintf("You have a new %s lesson request %s.", request.Subject, schedule.FormatWindowString(window)),
		tutor,
	)
	return request, nil
}

type ModifyRequestInput struct {
	Subject       *string
	Window        *schedule.Window
	LessonMinutes *int
	Message       *string
}

// Modify edits a pending request. Parties only; a new window must still fit
// the tutor's open availability.
func (s *RequestService) Modify(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	requestID uuid.UUID,
	input ModifyRequestInput,
) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if !isRequestParty(actorUID, request) {
		return nil, ErrForbidden
	}
	if request.Status != models.RequestPending {
		return nil, ErrInvalidStateTransition
	}

	update := repository.UpdateRequestInput{
		Subject: input.Subject,
		Message: input.Message,
	}

	if input.Window != nil || input.LessonMinutes != nil {
		window := request.Window
		if input.Window != nil {
			window, err = schedule.NewWindow(
				input.Window.Location, input.Window.Day, input.Window.Open, input.Window.Close)
			if err != nil {
				return nil, ErrInvalidInput
			}
		}
		minutes := request.LessonMinutes
		if input.LessonMinutes != nil {
			minutes = *input.LessonMinutes
		}
		if minutes <= 0 || schedule.Minutes(minutes) != window.Duration() {
			return nil, ErrInvalidInput
		}

		tutor, err := s.userRepo.GetByID(ctx, partition, request.TutorUID)
		if err != nil {
			return nil, err
		}
		if !tutor.Availability.FitsWithin(window) {
			return nil, ErrConflict
		}

		amount := request.Amount
		if tutor.HourlyRate != nil {
			amount = *tutor.HourlyRate * float64(minutes) / 60
		}
		update.Window = &window
		update.LessonMinutes = &minutes
		update.Amount = &amount
	}

	updated, err := s.requestRepo.Update(ctx, partition, requestID, update)
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("requests", "update", updated,
		updated.TutorUID.String(), updated.SenderUID.String(), LocationTopic(updated.Window.Location))
	return updated, nil
}

// Cancel withdraws a pending request. Sender only.
func (s *RequestService) Cancel(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	requestID uuid.UUID,
) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if request.SenderUID != actorUID {
		return nil, ErrForbidden
	}
	return s.transition(ctx, partition, request, models.RequestCanceled)
}

// Reject declines a pending request. Tutor side or a location supervisor.
func (s *RequestService) Reject(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	requestID uuid.UUID,
) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTutorOrSupervisor(ctx, partition, actorUID, actorRole, request); err != nil {
		return nil, err
	}
	return s.transition(ctx, partition, request, models.RequestRejected)
}

// Approve turns a pending request into an appointment: authorizes the payment
// with the tutor's provider, then transactionally re-checks the window, books
// it on the tutor's availability, and creates the appointment.
//
// The provider round-trip runs before the transaction so a slow provider
// never stalls other bookings for the tutor; if the booking then fails, the
// authorization is voided.
func (s *RequestService) Approve(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	requestID uuid.UUID,
) (*models.AppointmentDetail, error) {
	request, err := s.requestRepo.GetByID(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTutorOrSupervisor(ctx, partition, actorUID, actorRole, request); err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, ErrInvalidStateTransition
	}

	provider := s.providers.ForMethod(request.PaymentMethod)
	orderID, err := provider.AuthorizeOrder(
		ctx,
		request.Amount,
		request.Currency,
		fmt.Sprintf("%s lesson %s", request.Subject, schedule.FormatWindowString(request.Window)),
	)
	if err != nil {
		return nil, err
	}
	authorizedAmount := request.Amount

	booked := false
	defer func() {
		if booked {
			return
		}
		if err := provider.VoidOrder(ctx, orderID); err != nil {
			log.Printf("void order %s after failed booking: %v", orderID, err)
		}
	}()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txRequestRepo := repository.NewRequestRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)
	txApptRepo := repository.NewAppointmentRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	// Serialize booking decisions per tutor.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", request.TutorUID.String()); err != nil {
		return nil, err
	}

	request, err = txRequestRepo.GetByIDForUpdate(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, ErrInvalidStateTransition
	}
	// Modified since we authorized; the caller re-approves at the new price.
	if request.Amount != authorizedAmount {
		return nil, ErrConflict
	}

	tutor, err := txUserRepo.GetByIDForUpdate(ctx, partition, request.TutorUID)
	if err != nil {
		return nil, err
	}
	if !tutor.Availability.FitsWithin(request.Window) {
		return nil, ErrConflict
	}
	if err := tutor.Availability.MarkBooked(request.Window); err != nil {
		return nil, ErrConflict
	}
	if err := txUserRepo.UpdateAvailability(ctx, partition, tutor.ID, tutor.Availability); err != nil {
		return nil, err
	}

	if _, err := txRequestRepo.UpdateStatusIfCurrent(
		ctx, partition, requestID, models.RequestPending, models.RequestApproved); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	appointment, err := txApptRepo.Create(ctx, repository.CreateAppointmentInput{
		Partition:     partition,
		RequestID:     request.ID,
		Subject:       request.Subject,
		Window:        request.Window,
		LessonMinutes: request.LessonMinutes,
		TutorUID:      request.TutorUID,
		PupilUID:      request.PupilUID,
	})
	if err != nil {
		return nil, err
	}

	payment, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		Partition:       partition,
		RequestID:       request.ID,
		AppointmentID:   &appointment.ID,
		PayerUID:        request.SenderUID,
		PayeeUID:        request.TutorUID,
		Method:          request.PaymentMethod,
		Amount:          request.Amount,
		Currency:        request.Currency,
		ProviderOrderID: &orderID,
		Status:          models.PaymentAuthorized,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	booked = true

	detail := &models.AppointmentDetail{Appointment: *appointment, Payment: payment}
	s.notifier.DocumentEvent("appointments", "create", detail,
		appointment.TutorUID.String(), appointment.PupilUID.String(),
		request.SenderUID.String(), LocationTopic(appointment.Window.Location))

	pupil, err := s.userRepo.GetByID(ctx, partition, request.PupilUID)
	if err == nil {
		s.notifier.EmailUsers(
			"Lesson request approved",
			fmt.Sprintf("Your %s lesson %s is booked.", appointment.Subject,
				schedule.FormatWindowString(appointment.Window)),
			pupil,
		)
	}
	return detail, nil
}

func (s *RequestService) List(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	role string,
	filter repository.RequestListFilter,
) ([]models.RequestDetail, error) {
	filter.ActorUID = actorUID
	filter.Role = role
	if role == models.RoleSupervisor {
		locations, err := s.locationRepo.ListSupervised(ctx, partition, actorUID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(locations))
		for _, location := range locations {
			names = append(names, location.Name)
		}
		filter.Locations = names
	}
	requests, err := s.requestRepo.List(ctx, partition, filter)
	if err != nil {
		return nil, err
	}

	requestIDs := make([]uuid.UUID, 0, len(requests))
	for _, request := range requests {
		requestIDs = append(requestIDs, request.ID)
	}
	paymentsByRequest, err := s.paymentRepo.ListByRequestIDs(ctx, partition, requestIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.RequestDetail, 0, len(requests))
	for _, request := range requests {
		detail := models.RequestDetail{Request: request}
		if payment, ok := paymentsByRequest[request.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

func (s *RequestService) Get(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	requestID uuid.UUID,
) (*models.RequestDetail, error) {
	request, err := s.requestRepo.GetByID(ctx, partition, requestID)
	if err != nil {
		return nil, err
	}
	if !isRequestParty(actorUID, request) && actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}

	detail := &models.RequestDetail{Request: *request}
	payment, err := s.paymentRepo.GetByRequestID(ctx, partition, requestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

func (s *RequestService) transition(
	ctx context.Context,
	partition string,
	request *models.Request,
	nextStatus string,
) (*models.Request, error) {
	updated, err := s.requestRepo.UpdateStatusIfCurrent(
		ctx, partition, request.ID, models.RequestPending, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.DocumentEvent("requests", "update", updated,
		updated.TutorUID.String(), updated.SenderUID.String(), LocationTopic(updated.Window.Location))
	return updated, nil
}

func (s *RequestService) requireTutorOrSupervisor(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	request *models.Request,
) error {
	if actorUID == request.TutorUID {
		return nil
	}
	if actorRole != models.RoleSupervisor {
		return ErrForbidden
	}
	location, err := s.locationRepo.GetByName(ctx, partition, request.Window.Location)
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

func isRequestParty(actorUID uuid.UUID, request *models.Request) bool {
	return actorUID == request.SenderUID || actorUID == request.TutorUID || actorUID == request.PupilUID
}
