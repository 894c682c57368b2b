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

const appointmentColumns = `
	id, partition, request_id, subject, location_name, day, open_min, close_min,
	lesson_minutes, tutor_uid, pupil_uid, status, clock_in, clock_out,
	duration_seconds, created_at, updated_at
`

type CreateAppointmentInput struct {
	Partition     string
	RequestID     uuid.UUID
	Subject       string
	Window        schedule.Window
	LessonMinutes int
	TutorUID      uuid.UUID
	PupilUID      uuid.UUID
}

type AppointmentListFilter struct {
	ActorUID uuid.UUID
	Role     string
	Status   string
	Day      string
}

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	query := `
		INSERT INTO appointments (partition, request_id, subject, location_name, day,
			open_min, close_min, lesson_minutes, tutor_uid, pupil_uid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'upcoming')
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(
		ctx,
		query,
		input.Partition,
		input.RequestID,
		input.Subject,
		input.Window.Location,
		input.Window.Day,
		input.Window.Open,
		input.Window.Close,
		input.LessonMinutes,
		input.TutorUID,
		input.PupilUID,
	))
}

func (r *AppointmentRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE partition = $1 AND id = $2`
	return scanAppointment(r.db.QueryRow(ctx, query, partition, id))
}

func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, partition string, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE partition = $1 AND id = $2 FOR UPDATE`
	return scanAppointment(r.db.QueryRow(ctx, query, partition, id))
}

func (r *AppointmentRepository) List(ctx context.Context, partition string, filter AppointmentListFilter) ([]models.Appointment, error) {
	actorColumn := "pupil_uid"
	if filter.Role == models.RoleTutor {
		actorColumn = "tutor_uid"
	}

	args := []any{partition, filter.ActorUID}
	whereParts := []string{"partition = $1", fmt.Sprintf("%s = $2", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if day := strings.TrimSpace(filter.Day); day != "" {
		args = append(args, day)
		whereParts = append(whereParts, fmt.Sprintf("day = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE %s
		ORDER BY created_at DESC, id DESC
	`, appointmentColumns, strings.Join(whereParts, " AND "))

	return r.queryAppointments(ctx, query, args...)
}

func (r *AppointmentRepository) UpdateWindow(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	window schedule.Window,
	lessonMinutes int,
) (*models.Appointment, error) {
	query := `
		UPDATE appointments SET
			location_name = $3, day = $4, open_min = $5, close_min = $6,
			lesson_minutes = $7, updated_at = NOW()
		WHERE partition = $1 AND id = $2
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(
		ctx,
		query,
		partition,
		id,
		window.Location,
		window.Day,
		window.Open,
		window.Close,
		lessonMinutes,
	))
}

func (r *AppointmentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $4, updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = $3
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(ctx, query, partition, id, currentStatus, nextStatus))
}

// SetClockIn stamps an approved clock-in and flips the appointment active.
func (r *AppointmentRepository) SetClockIn(ctx context.Context, partition string, id uuid.UUID, at time.Time) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET clock_in = $3, status = 'active', updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = 'upcoming'
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(ctx, query, partition, id, at))
}

// SetClockOut stamps an approved clock-out with the rounded duration and
// flips the appointment done.
func (r *AppointmentRepository) SetClockOut(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	at time.Time,
	durationSeconds int64,
) (*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET clock_out = $3, duration_seconds = $4, status = 'done', updated_at = NOW()
		WHERE partition = $1 AND id = $2 AND status = 'active'
		RETURNING ` + appointmentColumns
	return scanAppointment(r.db.QueryRow(ctx, query, partition, id, at, durationSeconds))
}

// ListActiveSince lists active appointments across partitions whose approved
// clock-in is older than the cutoff, for the auto clock-out sweep.
func (r *AppointmentRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'active' AND clock_in IS NOT NULL AND clock_in < $1
		ORDER BY clock_in ASC
	`
	return r.queryAppointments(ctx, query, cutoff)
}

// ListUpcomingOnDay lists upcoming appointments across partitions falling on
// the given weekday, for the reminder sweep.
func (r *AppointmentRepository) ListUpcomingOnDay(ctx context.Context, day string) ([]models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'upcoming' AND day = $1
		ORDER BY open_min ASC
	`
	return r.queryAppointments(ctx, query, day)
}

func (r *AppointmentRepository) queryAppointments(ctx context.Context, query string, args ...any) ([]models.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]models.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointmentRow(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *appointment)
	}
	return appointments, rows.Err()
}

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	return scanAppointmentRow(row)
}

func scanAppointmentRow(row pgx.Row) (*models.Appointment, error) {
	var appointment models.Appointment
	err := row.Scan(
		&appointment.ID,
		&appointment.Partition,
		&appointment.RequestID,
		&appointment.Subject,
		&appointment.Window.Location,
		&appointment.Window.Day,
		&appointment.Window.Open,
		&appointment.Window.Close,
		&appointment.LessonMinutes,
		&appointment.TutorUID,
		&appointment.PupilUID,
		&appointment.Status,
		&appointment.ClockIn,
		&appointment.ClockOut,
		&appointment.DurationSeconds,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}
