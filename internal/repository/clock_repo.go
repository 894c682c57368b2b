package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

const clockColumns = `
	id, partition, appointment_id, tutor_uid, kind, proposed_time, status,
	decided_by, decided_at, created_at
`

type ClockRepository struct {
	db DBTX
}

func NewClockRepository(db DBTX) *ClockRepository {
	return &ClockRepository{db: db}
}

func (r *ClockRepository) Create(
	ctx context.Context,
	partition string,
	appointmentID uuid.UUID,
	tutorUID uuid.UUID,
	kind string,
	proposedTime time.Time,
) (*models.ClockEntry, error) {
	query := `
		INSERT INTO clock_entries (partition, appointment_id, tutor_uid, kind, proposed_time, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING ` + clockColumns
	return scanClockEntry(r.db.QueryRow(ctx, query, partition, appointmentID, tutorUID, kind, proposedTime))
}

func (r *ClockRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.ClockEntry, error) {
	query := `SELECT ` + clockColumns + ` FROM clock_entries WHERE partition = $1 AND id = $2`
	return scanClockEntry(r.db.QueryRow(ctx, query, partition, id))
}

func (r *ClockRepository) GetByIDForUpdate(ctx context.Context, partition string, id uuid.UUID) (*models.ClockEntry, error) {
	query := `SELECT ` + clockColumns + ` FROM clock_entries WHERE partition = $1 AND id = $2 FOR UPDATE`
	return scanClockEntry(r.db.QueryRow(ctx, query, partition, id))
}

// HasPending reports whether an undecided entry of the given kind already
// exists for the appointment.
func (r *ClockRepository) HasPending(ctx context.Context, partition string, appointmentID uuid.UUID, kind string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM clock_entries
			WHERE partition = $1 AND appointment_id = $2 AND kind = $3 AND status = 'pending'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, partition, appointmentID, kind).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// LatestApproved returns the newest approved entry of the given kind for the
// appointment.
func (r *ClockRepository) LatestApproved(ctx context.Context, partition string, appointmentID uuid.UUID, kind string) (*models.ClockEntry, error) {
	query := `
		SELECT ` + clockColumns + `
		FROM clock_entries
		WHERE partition = $1 AND appointment_id = $2 AND kind = $3 AND status = 'approved'
		ORDER BY decided_at DESC
		LIMIT 1
	`
	return scanClockEntry(r.db.QueryRow(ctx, query, partition, appointmentID, kind))
}

func (r *ClockRepository) Decide(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	nextStatus string,
	decidedBy uuid.UUID,
) (*models.ClockEntry, error) {
	query := `
		UPDATE clock_entries
		SET status = $3, decided_by = $4, decided_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = 'pending'
		RETURNING ` + clockColumns
	return scanClockEntry(r.db.QueryRow(ctx, query, partition, id, nextStatus, decidedBy))
}

// ListPendingForLocations lists undecided entries whose appointment sits at
// one of the given locations, newest first.
func (r *ClockRepository) ListPendingForLocations(ctx context.Context, partition string, locationNames []string) ([]models.ClockEntry, error) {
	entries := make([]models.ClockEntry, 0)
	if len(locationNames) == 0 {
		return entries, nil
	}

	query := `
		SELECT ce.id, ce.partition, ce.appointment_id, ce.tutor_uid, ce.kind,
			ce.proposed_time, ce.status, ce.decided_by, ce.decided_at, ce.created_at
		FROM clock_entries ce
		JOIN appointments a ON a.id = ce.appointment_id AND a.partition = ce.partition
		WHERE ce.partition = $1 AND ce.status = 'pending' AND a.location_name = ANY($2)
		ORDER BY ce.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, partition, locationNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanClockEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanClockEntry(row pgx.Row) (*models.ClockEntry, error) {
	return scanClockEntryRow(row)
}

func scanClockEntryRow(row pgx.Row) (*models.ClockEntry, error) {
	var entry models.ClockEntry
	err := row.Scan(
		&entry.ID,
		&entry.Partition,
		&entry.AppointmentID,
		&entry.TutorUID,
		&entry.Kind,
		&entry.ProposedTime,
		&entry.Status,
		&entry.DecidedBy,
		&entry.DecidedAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
