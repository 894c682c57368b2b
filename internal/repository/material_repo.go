package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type MaterialRepository struct {
	db DBTX
}

func NewMaterialRepository(db DBTX) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	query := `
		INSERT INTO materials (partition, appointment_id, tutor_uid, title, description, file_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		material.Partition,
		material.AppointmentID,
		material.TutorUID,
		material.Title,
		material.Description,
		material.FileURL,
	).Scan(&material.ID, &material.CreatedAt)
}

func (r *MaterialRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Material, error) {
	query := `
		SELECT id, partition, appointment_id, tutor_uid, title, description, file_url, created_at
		FROM materials
		WHERE partition = $1 AND id = $2
	`
	var material models.Material
	err := r.db.QueryRow(ctx, query, partition, id).Scan(
		&material.ID,
		&material.Partition,
		&material.AppointmentID,
		&material.TutorUID,
		&material.Title,
		&material.Description,
		&material.FileURL,
		&material.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *MaterialRepository) ListByAppointment(ctx context.Context, partition string, appointmentID uuid.UUID) ([]models.Material, error) {
	query := `
		SELECT id, partition, appointment_id, tutor_uid, title, description, file_url, created_at
		FROM materials
		WHERE partition = $1 AND appointment_id = $2
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, partition, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := make([]models.Material, 0)
	for rows.Next() {
		var material models.Material
		if err := rows.Scan(
			&material.ID,
			&material.Partition,
			&material.AppointmentID,
			&material.TutorUID,
			&material.Title,
			&material.Description,
			&material.FileURL,
			&material.CreatedAt,
		); err != nil {
			return nil, err
		}
		materials = append(materials, material)
	}
	return materials, rows.Err()
}

func (r *MaterialRepository) Delete(ctx context.Context, partition string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE partition = $1 AND id = $2`, partition, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
