package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

// PaymentService covers the money trail after capture: supervisor sign-off
// on captured payments and tutor payout runs. Authorization, capture, and
// void happen inside the request, clock, and appointment lifecycles.
type PaymentService struct {
	db           *pgxpool.Pool
	paymentRepo  *repository.PaymentRepository
	payoutRepo   *repository.PayoutRepository
	userRepo     *repository.UserRepository
	apptRepo     *repository.AppointmentRepository
	locationRepo locationReader
	providers    *ProviderSet
	notifier     *Notifier
}

func NewPaymentService(
	db *pgxpool.Pool,
	paymentRepo *repository.PaymentRepository,
	payoutRepo *repository.PayoutRepository,
	userRepo *repository.UserRepository,
	apptRepo *repository.AppointmentRepository,
	locationRepo locationReader,
	providers *ProviderSet,
	notifier *Notifier,
) *PaymentService {
	return &PaymentService{
		db:           db,
		paymentRepo:  paymentRepo,
		payoutRepo:   payoutRepo,
		userRepo:     userRepo,
		apptRepo:     apptRepo,
		locationRepo: locationRepo,
		providers:    providers,
		notifier:     notifier,
	}
}

// Approve lets a location supervisor sign off on a captured payment, making
// it payable to the tutor.
func (s *PaymentService) Approve(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	paymentID uuid.UUID,
) (*models.Payment, error) {
	return s.decide(ctx, partition, actorUID, actorRole, paymentID, models.PaymentApproved)
}

// Deny lets a location supervisor reject a captured payment, keeping it out
// of payout runs.
func (s *PaymentService) Deny(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	paymentID uuid.UUID,
) (*models.Payment, error) {
	return s.decide(ctx, partition, actorUID, actorRole, paymentID, models.PaymentDenied)
}

func (s *PaymentService) decide(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
	paymentID uuid.UUID,
	nextStatus string,
) (*models.Payment, error) {
	if actorRole != models.RoleSupervisor {
		return nil, ErrForbidden
	}

	payment, err := s.paymentRepo.GetByID(ctx, partition, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentCaptured {
		return nil, ErrInvalidStateTransition
	}
	if err := s.requireSupervisesPayment(ctx, partition, actorUID, payment); err != nil {
		return nil, err
	}

	decided, err := s.paymentRepo.Decide(ctx, partition, paymentID, nextStatus, actorUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.DocumentEvent("payments", "update", decided,
		decided.PayeeUID.String(), decided.PayerUID.String())
	return decided, nil
}

// RequestPayout bundles the tutor's approved unpaid payments into one payout
// and sends it through their provider. The provider call happens after
// commit; a failed send flips the payout to failed.
func (s *PaymentService) RequestPayout(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	actorRole string,
) (*models.Payout, error) {
	if actorRole != models.RoleTutor {
		return nil, ErrForbidden
	}

	tutor, err := s.userRepo.GetByID(ctx, partition, actorUID)
	if err != nil {
		return nil, err
	}
	if tutor.PaymentMethod == models.MethodNone ||
		tutor.PaymentAccount == nil || *tutor.PaymentAccount == "" {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txPaymentRepo := repository.NewPaymentRepository(tx)
	txPayoutRepo := repository.NewPayoutRepository(tx)

	payable, err := txPaymentRepo.ListPayableForUpdate(ctx, partition, actorUID)
	if err != nil {
		return nil, err
	}
	if len(payable) == 0 {
		return nil, ErrInvalidStateTransition
	}

	total := 0.0
	currency := payable[0].Currency
	paymentIDs := make([]uuid.UUID, 0, len(payable))
	for _, payment := range payable {
		total += payment.Amount
		paymentIDs = append(paymentIDs, payment.ID)
	}

	payout := &models.Payout{
		Partition: partition,
		TutorUID:  actorUID,
		Amount:    total,
		Currency:  currency,
		Method:    tutor.PaymentMethod,
		Status:    models.PayoutRequested,
	}
	if err := txPayoutRepo.Create(ctx, payout); err != nil {
		return nil, err
	}
	if err := txPaymentRepo.AssignPayout(ctx, partition, paymentIDs, payout.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	provider := s.providers.ForMethod(tutor.PaymentMethod)
	batchID, sendErr := provider.SendPayout(ctx, *tutor.PaymentAccount, total, currency)
	if sendErr != nil {
		if _, err := s.payoutRepo.UpdateStatusIfCurrent(
			ctx, partition, payout.ID, models.PayoutRequested, models.PayoutFailed, nil); err != nil {
			return nil, err
		}
		return nil, sendErr
	}

	sent, err := s.payoutRepo.UpdateStatusIfCurrent(
		ctx, partition, payout.ID, models.PayoutRequested, models.PayoutSent, &batchID)
	if err != nil {
		return nil, err
	}

	s.notifier.DocumentEvent("payouts", "create", sent, sent.TutorUID.String())
	s.notifier.EmailUsers(
		"Payout on its way",
		"Your tutoring payout was sent to your payment account.",
		tutor,
	)
	return sent, nil
}

// ListForUser lists payments the user is on either side of, newest first.
func (s *PaymentService) ListForUser(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
) ([]models.Payment, error) {
	return s.paymentRepo.ListForUser(ctx, partition, actorUID)
}

// ListPayouts lists the tutor's payout history, newest first.
func (s *PaymentService) ListPayouts(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
) ([]models.Payout, error) {
	return s.payoutRepo.ListForTutor(ctx, partition, actorUID)
}

// requireSupervisesPayment checks the actor supervises the location of the
// payment's appointment.
func (s *PaymentService) requireSupervisesPayment(
	ctx context.Context,
	partition string,
	actorUID uuid.UUID,
	payment *models.Payment,
) error {
	if payment.AppointmentID == nil {
		return ErrForbidden
	}
	appointment, err := s.apptRepo.GetByID(ctx, partition, *payment.AppointmentID)
	if err != nil {
		return err
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
