package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

const locationColumns = `
	id, partition, name, description, supervisors, hours, rounding, threshold,
	auto_clockout_min, created_at, updated_at
`

type LocationRepository struct {
	db DBTX
}

func NewLocationRepository(db DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	query := `
		INSERT INTO locations (partition, name, description, supervisors, hours, rounding, threshold, auto_clockout_min)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if location.Hours == nil {
		location.Hours = schedule.Availability{}
	}
	return r.db.QueryRow(
		ctx,
		query,
		location.Partition,
		location.Name,
		location.Description,
		location.Supervisors,
		location.Hours,
		location.Rounding.Rounding,
		location.Rounding.Threshold,
		location.AutoClockoutMin,
	).Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt)
}

func (r *LocationRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE partition = $1 AND id = $2`
	return scanLocation(r.db.QueryRow(ctx, query, partition, id))
}

func (r *LocationRepository) GetByName(ctx context.Context, partition, name string) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE partition = $1 AND name = $2`
	return scanLocation(r.db.QueryRow(ctx, query, partition, name))
}

func (r *LocationRepository) List(ctx context.Context, partition string) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE partition = $1 ORDER BY name ASC`
	return r.queryLocations(ctx, query, partition)
}

// ListSupervised lists the locations a user administers.
func (r *LocationRepository) ListSupervised(ctx context.Context, partition string, uid uuid.UUID) ([]models.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE partition = $1 AND $2 = ANY(supervisors)
		ORDER BY name ASC
	`
	return r.queryLocations(ctx, query, partition, uid)
}

type UpdateLocationInput struct {
	Description     *string
	Supervisors     *[]uuid.UUID
	Hours           *schedule.Availability
	Rounding        *string
	Threshold       *string
	AutoClockoutMin *int
}

func (r *LocationRepository) Update(ctx context.Context, partition string, id uuid.UUID, input UpdateLocationInput) (*models.Location, error) {
	query := `
		UPDATE locations SET
			description = COALESCE($3, description),
			supervisors = COALESCE($4, supervisors),
			hours = COALESCE($5, hours),
			rounding = COALESCE($6, rounding),
			threshold = COALESCE($7, threshold),
			auto_clockout_min = COALESCE($8, auto_clockout_min),
			updated_at = NOW()
		WHERE partition = $1 AND id = $2
		RETURNING ` + locationColumns
	return scanLocation(r.db.QueryRow(
		ctx,
		query,
		partition,
		id,
		input.Description,
		input.Supervisors,
		input.Hours,
		input.Rounding,
		input.Threshold,
		input.AutoClockoutMin,
	))
}

func (r *LocationRepository) Delete(ctx context.Context, partition string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE partition = $1 AND id = $2`, partition, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *LocationRepository) queryLocations(ctx context.Context, query string, args ...any) ([]models.Location, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		location, err := scanLocationRow(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *location)
	}
	return locations, rows.Err()
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	return scanLocationRow(row)
}

func scanLocationRow(row pgx.Row) (*models.Location, error) {
	var location models.Location
	err := row.Scan(
		&location.ID,
		&location.Partition,
		&location.Name,
		&location.Description,
		&location.Supervisors,
		&location.Hours,
		&location.Rounding.Rounding,
		&location.Rounding.Threshold,
		&location.AutoClockoutMin,
		&location.CreatedAt,
		&location.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &location, nil
}
