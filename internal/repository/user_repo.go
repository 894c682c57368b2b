package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

const userColumns = `
	id, partition, email, password_hash, role, name, bio, grade, phone,
	avatar_url, subjects, hourly_rate, payment_method, payment_account,
	availability, seconds_tutored, seconds_pupiled, rating_avg, rating_count,
	verified, profile_complete, created_at, updated_at
`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (partition, email, password_hash, role, name, payment_method, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, subjects, seconds_tutored, seconds_pupiled, rating_count,
			verified, profile_complete, created_at, updated_at
	`
	if user.Availability == nil {
		user.Availability = schedule.Availability{}
	}
	if user.PaymentMethod == "" {
		user.PaymentMethod = models.MethodNone
	}
	return r.db.QueryRow(
		ctx,
		query,
		user.Partition,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Name,
		user.PaymentMethod,
		user.Availability,
	).Scan(
		&user.ID,
		&user.Subjects,
		&user.SecondsTutored,
		&user.SecondsPupiled,
		&user.RatingCount,
		&user.Verified,
		&user.ProfileComplete,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepository) GetByEmail(ctx context.Context, partition, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE partition = $1 AND email = $2`
	return scanUser(r.db.QueryRow(ctx, query, partition, email))
}

func (r *UserRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE partition = $1 AND id = $2`
	return scanUser(r.db.QueryRow(ctx, query, partition, id))
}

func (r *UserRepository) GetByIDForUpdate(ctx context.Context, partition string, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE partition = $1 AND id = $2 FOR UPDATE`
	return scanUser(r.db.QueryRow(ctx, query, partition, id))
}

type UpdateUserInput struct {
	Name           *string
	Bio            *string
	Grade          *string
	Phone          *string
	AvatarURL      *string
	Subjects       *[]string
	HourlyRate     *float64
	PaymentMethod  *string
	PaymentAccount *string
}

func (r *UserRepository) Update(ctx context.Context, partition string, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	query := `
		UPDATE users SET
			name = COALESCE($3, name),
			bio = COALESCE($4, bio),
			grade = COALESCE($5, grade),
			phone = COALESCE($6, phone),
			avatar_url = COALESCE($7, avatar_url),
			subjects = COALESCE($8, subjects),
			hourly_rate = COALESCE($9, hourly_rate),
			payment_method = COALESCE($10, payment_method),
			payment_account = COALESCE($11, payment_account),
			updated_at = NOW()
		WHERE partition = $1 AND id = $2
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(
		ctx,
		query,
		partition,
		id,
		input.Name,
		input.Bio,
		input.Grade,
		input.Phone,
		input.AvatarURL,
		input.Subjects,
		input.HourlyRate,
		input.PaymentMethod,
		input.PaymentAccount,
	))
}

func (r *UserRepository) UpdateAvailability(
	ctx context.Context,
	partition string,
	id uuid.UUID,
	availability schedule.Availability,
) error {
	query := `
		UPDATE users SET availability = $3, updated_at = NOW()
		WHERE partition = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, partition, id, availability)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) SetProfileComplete(ctx context.Context, partition string, id uuid.UUID, complete bool) error {
	query := `
		UPDATE users SET profile_complete = $3, updated_at = NOW()
		WHERE partition = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, partition, id, complete)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) SetVerified(ctx context.Context, partition string, id uuid.UUID, verified bool) error {
	query := `
		UPDATE users SET verified = $3, updated_at = NOW()
		WHERE partition = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, partition, id, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddServiceSeconds accumulates an approved lesson duration on the tutor and
// pupil clocks. Internal flows only; profile updates never touch these.
func (r *UserRepository) AddServiceSeconds(
	ctx context.Context,
	partition string,
	tutorUID uuid.UUID,
	pupilUID uuid.UUID,
	seconds int64,
) error {
	query := `
		UPDATE users SET
			seconds_tutored = seconds_tutored + CASE WHEN id = $3 THEN $5::bigint ELSE 0 END,
			seconds_pupiled = seconds_pupiled + CASE WHEN id = $4 THEN $5::bigint ELSE 0 END,
			updated_at = NOW()
		WHERE partition = $1 AND id = ANY($2)
	`
	tag, err := r.db.Exec(ctx, query, partition, []uuid.UUID{tutorUID, pupilUID}, tutorUID, pupilUID, seconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ApplyRating folds one more rating score into the stored average.
func (r *UserRepository) ApplyRating(ctx context.Context, partition string, id uuid.UUID, score float64) error {
	query := `
		UPDATE users SET
			rating_avg = (COALESCE(rating_avg, 0) * rating_count + $3) / (rating_count + 1),
			rating_count = rating_count + 1,
			updated_at = NOW()
		WHERE partition = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, partition, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, partition string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE partition = $1 AND id = $2`, partition, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) ListTutors(ctx context.Context, partition string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE partition = $1 AND role = 'tutor'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, partition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tutors := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		tutors = append(tutors, *user)
	}
	return tutors, rows.Err()
}

func (r *UserRepository) ListByIDs(ctx context.Context, partition string, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	users := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE partition = $1 AND id = ANY($2)`
	rows, err := r.db.Query(ctx, query, partition, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = *user
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	return scanUserRow(row)
}

func scanUserRow(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Partition,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Name,
		&user.Bio,
		&user.Grade,
		&user.Phone,
		&user.AvatarURL,
		&user.Subjects,
		&user.HourlyRate,
		&user.PaymentMethod,
		&user.PaymentAccount,
		&user.Availability,
		&user.SecondsTutored,
		&user.SecondsPupiled,
		&user.RatingAvg,
		&user.RatingCount,
		&user.Verified,
		&user.ProfileComplete,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
