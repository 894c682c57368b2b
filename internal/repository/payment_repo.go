package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

const paymentColumns = `
	id, partition, request_id, appointment_id, payer_uid, payee_uid, method,
	amount, currency, provider_order_id, status, captured_at, decided_by,
	payout_id, created_at, updated_at
`

type CreatePaymentInput struct {
	Partition       string
	RequestID       uuid.UUID
	AppointmentID   *uuid.UUID
	PayerUID        uuid.UUID
	PayeeUID        uuid.UUID
	Method          string
	Amount          float64
	Currency        string
	ProviderOrderID *string
	Status          string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (partition, request_id, appointment_id, payer_uid, payee_uid,
			method, amount, currency, provider_order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(
		ctx,
		query,
		input.Partition,
		input.RequestID,
		input.AppointmentID,
		input.PayerUID,
		input.PayeeUID,
		input.Method,
		input.Amount,
		input.Currency,
		input.ProviderOrderID,
		input.Status,
	))
}

func (r *PaymentRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE partition = $1 AND id = $2`
	return scanPayment(r.db.QueryRow(ctx, query, partition, id))
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, partition string, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE partition = $1 AND id = $2 FOR UPDATE`
	return scanPayment(r.db.QueryRow(ctx, query, partition, id))
}

func (r *PaymentRepository) GetByRequestID(ctx context.Context, partition string, requestID uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND request_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPayment(r.db.QueryRow(ctx, query, partition, requestID))
}

func (r *PaymentRepository) GetByAppointmentID(ctx context.Context, partition string, appointmentID uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND appointment_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPayment(r.db.QueryRow(ctx, query, partition, appointmentID))
}

func (r *PaymentRepository) GetByAppointmentIDForUpdate(ctx context.Context, partition string, appointmentID uuid.UUID) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND appointment_id = $2
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`
	return scanPayment(r.db.QueryRow(ctx, query, partition, appointmentID))
}

// ListByAppointmentIDs batch-loads the newest payment per appointment.
func (r *PaymentRepository) ListByAppointmentIDs(ctx context.Context, partition string, appointmentIDs []uuid.UUID) (map[uuid.UUID]models.Payment, error) {
	payments := make(map[uuid.UUID]models.Payment, len(appointmentIDs))
	if len(appointmentIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (appointment_id) ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND appointment_id = ANY($2)
		ORDER BY appointment_id, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, partition, appointmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		if payment.AppointmentID != nil {
			payments[*payment.AppointmentID] = *payment
		}
	}
	return payments, rows.Err()
}

// ListByRequestIDs batch-loads the newest payment per request.
func (r *PaymentRepository) ListByRequestIDs(ctx context.Context, partition string, requestIDs []uuid.UUID) (map[uuid.UUID]models.Payment, error) {
	payments := make(map[uuid.UUID]models.Payment, len(requestIDs))
	if len(requestIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (request_id) ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND request_id = ANY($2)
		ORDER BY request_id, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, partition, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.RequestID] = *payment
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) ListForUser(ctx context.Context, partition string, uid uuid.UUID) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND (payer_uid = $2 OR payee_uid = $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, partition, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $4,
			captured_at = CASE WHEN $4 = 'captured' THEN NOW() ELSE captured_at END,
			updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = $3
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query, partition, id, currentStatus, nextStatus))
}

func (r *PaymentRepository) Decide(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	nextStatus string,
	decidedBy uuid.UUID,
) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3, decided_by = $4, updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = 'captured'
		RETURNING ` + paymentColumns
	return scanPayment(r.db.QueryRow(ctx, query, partition, id, nextStatus, decidedBy))
}

// ListPayableForUpdate locks the tutor's approved payments not yet covered by
// a payout.
func (r *PaymentRepository) ListPayableForUpdate(ctx context.Context, partition string, tutorUID uuid.UUID) ([]models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE partition = $1 AND payee_uid = $2 AND status = 'approved' AND payout_id IS NULL
		ORDER BY created_at ASC
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, partition, tutorUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) AssignPayout(ctx context.Context, partition string, paymentIDs []uuid.UUID, payoutID uuid.UUID) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	query := `
		UPDATE payments SET payout_id = $3, updated_at = NOW()
		WHERE partition = $1 AND id = ANY($2) AND payout_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, partition, paymentIDs, payoutID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(paymentIDs)) {
		return pgx.ErrNoRows
	}
	return nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	return scanPaymentRow(row)
}

func scanPaymentRow(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.Partition,
		&payment.RequestID,
		&payment.AppointmentID,
		&payment.PayerUID,
		&payment.PayeeUID,
		&payment.Method,
		&payment.Amount,
		&payment.Currency,
		&payment.ProviderOrderID,
		&payment.Status,
		&payment.CapturedAt,
		&payment.DecidedBy,
		&payment.PayoutID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
