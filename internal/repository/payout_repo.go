package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

const payoutColumns = `
	id, partition, tutor_uid, amount, currency, method, provider_batch_id,
	status, created_at, updated_at
`

type PayoutRepository struct {
	db DBTX
}

func NewPayoutRepository(db DBTX) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, payout *models.Payout) error {
	query := `
		INSERT INTO payouts (partition, tutor_uid, amount, currency, method, provider_batch_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		payout.Partition,
		payout.TutorUID,
		payout.Amount,
		payout.Currency,
		payout.Method,
		payout.ProviderBatchID,
		payout.Status,
	).Scan(&payout.ID, &payout.CreatedAt, &payout.UpdatedAt)
}

func (r *PayoutRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE partition = $1 AND id = $2`
	return scanPayout(r.db.QueryRow(ctx, query, partition, id))
}

func (r *PayoutRepository) ListForTutor(ctx context.Context, partition string, tutorUID uuid.UUID) ([]models.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE partition = $1 AND tutor_uid = $2
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, partition, tutorUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]models.Payout, 0)
	for rows.Next() {
		payout, err := scanPayoutRow(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *payout)
	}
	return payouts, rows.Err()
}

func (r *PayoutRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
	providerBatchID *string,
) (*models.Payout, error) {
	query := `
		UPDATE payouts
		SET status = $4, provider_batch_id = COALESCE($5, provider_batch_id), updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = $3
		RETURNING ` + payoutColumns
	return scanPayout(r.db.QueryRow(ctx, query, partition, id, currentStatus, nextStatus, providerBatchID))
}

func scanPayout(row pgx.Row) (*models.Payout, error) {
	return scanPayoutRow(row)
}

func scanPayoutRow(row pgx.Row) (*models.Payout, error) {
	var payout models.Payout
	err := row.Scan(
		&payout.ID,
		&payout.Partition,
		&payout.TutorUID,
		&payout.Amount,
		&payout.Currency,
		&payout.Method,
		&payout.ProviderBatchID,
		&payout.Status,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
