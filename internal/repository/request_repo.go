package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

const requestColumns = `
	id, partition, subject, location_name, day, open_min, close_min,
	lesson_minutes, sender_uid, sender_role, tutor_uid, pupil_uid, message,
	payment_method, amount, currency, status, created_at, updated_at
`

type CreateRequestInput struct {
	Partition     string
	Subject       string
	Window        schedule.Window
	LessonMinutes int
	SenderUID     uuid.UUID
	SenderRole    string
	TutorUID      uuid.UUID
	PupilUID      uuid.UUID
	Message       *string
	PaymentMethod string
	Amount        float64
	Currency      string
}

type RequestListFilter struct {
	ActorUID uuid.UUID
	Role     string
	Status   string
	// Locations widens a supervisor's view to every request at the
	// locations they run, on top of the ones they sent themselves.
	Locations []string
}

type RequestRepository struct {
	db DBTX
}

func NewRequestRepository(db DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, input CreateRequestInput) (*models.Request, error) {
	query := `
		INSERT INTO requests (partition, subject, location_name, day, open_min, close_min,
			lesson_minutes, sender_uid, sender_role, tutor_uid, pupil_uid, message,
			payment_method, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 'pending')
		RETURNING ` + requestColumns
	return scanRequest(r.db.QueryRow(
		ctx,
		query,
		input.Partition,
		input.Subject,
		input.Window.Location,
		input.Window.Day,
		input.Window.Open,
		input.Window.Close,
		input.LessonMinutes,
		input.SenderUID,
		input.SenderRole,
		input.TutorUID,
		input.PupilUID,
		input.Message,
		input.PaymentMethod,
		input.Amount,
		input.Currency,
	))
}

func (r *RequestRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE partition = $1 AND id = $2`
	return scanRequest(r.db.QueryRow(ctx, query, partition, id))
}

func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, partition string, id uuid.UUID) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE partition = $1 AND id = $2 FOR UPDATE`
	return scanRequest(r.db.QueryRow(ctx, query, partition, id))
}

func (r *RequestRepository) List(ctx context.Context, partition string, filter RequestListFilter) ([]models.Request, error) {
	actorColumn := "sender_uid"
	switch filter.Role {
	case models.RoleTutor:
		actorColumn = "tutor_uid"
	case models.RolePupil:
		actorColumn = "pupil_uid"
	}

	args := []any{partition, filter.ActorUID}
	whereParts := []string{"partition = $1", fmt.Sprintf("(%s = $2 OR sender_uid = $2)", actorColumn)}
	if filter.Role == models.RoleSupervisor {
		args = append(args, filter.Locations)
		whereParts[1] = fmt.Sprintf("(location_name = ANY($%d) OR sender_uid = $2)", len(args))
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM requests
		WHERE %s
		ORDER BY created_at DESC, id DESC
	`, requestColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.Request, 0)
	for rows.Next() {
		request, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

type UpdateRequestInput struct {
	Subject       *string
	Window        *schedule.Window
	LessonMinutes *int
	Message       *string
	Amount        *float64
}

func (r *RequestRepository) Update(ctx context.Context, partition string, id uuid.UUID, input UpdateRequestInput) (*models.Request, error) {
	var location, day *string
	var open, close *schedule.Minutes
	if input.Window != nil {
		location, day = &input.Window.Location, &input.Window.Day
		open, close = &input.Window.Open, &input.Window.Close
	}

	query := `
		UPDATE requests SET
			subject = COALESCE($3, subject),
			location_name = COALESCE($4, location_name),
			day = COALESCE($5, day),
			open_min = COALESCE($6, open_min),
			close_min = COALESCE($7, close_min),
			lesson_minutes = COALESCE($8, lesson_minutes),
			message = COALESCE($9, message),
			amount = COALESCE($10, amount),
			updated_at = NOW()
		WHERE partition = $1 AND id = $2
		RETURNING ` + requestColumns
	return scanRequest(r.db.QueryRow(
		ctx,
		query,
		partition,
		id,
		input.Subject,
		location,
		day,
		open,
		close,
		input.LessonMinutes,
		input.Message,
		input.Amount,
	))
}

func (r *RequestRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
) (*models.Request, error) {
	query := `
		UPDATE requests
		SET status = $4, updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = $3
		RETURNING ` + requestColumns
	return scanRequest(r.db.QueryRow(ctx, query, partition, id, currentStatus, nextStatus))
}

// ExpirePendingBefore sweeps every partition: pending requests created before
// the cutoff flip to expired.
func (r *RequestRepository) ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	query := `
		UPDATE requests
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1
		RETURNING ` + requestColumns

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expired := make([]models.Request, 0)
	for rows.Next() {
		request, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *request)
	}
	return expired, rows.Err()
}

func scanRequest(row pgx.Row) (*models.Request, error) {
	return scanRequestRow(row)
}

func scanRequestRow(row pgx.Row) (*models.Request, error) {
	var request models.Request
	err := row.Scan(
		&request.ID,
		&request.Partition,
		&request.Subject,
		&request.Window.Location,
		&request.Window.Day,
		&request.Window.Open,
		&request.Window.Close,
		&request.LessonMinutes,
		&request.SenderUID,
		&request.SenderRole,
		&request.TutorUID,
		&request.PupilUID,
		&request.Message,
		&request.PaymentMethod,
		&request.Amount,
		&request.Currency,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
