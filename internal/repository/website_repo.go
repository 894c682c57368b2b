package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

const websiteColumns = `
	id, partition, location_id, domain, title, tagline, brand_color, logo_url,
	hero_url, contact_email, published, created_at, updated_at
`

type WebsiteRepository struct {
	db DBTX
}

func NewWebsiteRepository(db DBTX) *WebsiteRepository {
	return &WebsiteRepository{db: db}
}

func (r *WebsiteRepository) Create(ctx context.Context, website *models.Website) error {
	query := `
		INSERT INTO websites (partition, location_id, domain, title, tagline, brand_color, logo_url, hero_url, contact_email, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		website.Partition,
		website.LocationID,
		website.Domain,
		website.Title,
		website.Tagline,
		website.BrandColor,
		website.LogoURL,
		website.HeroURL,
		website.ContactEmail,
		website.Published,
	).Scan(&website.ID, &website.CreatedAt, &website.UpdatedAt)
}

func (r *WebsiteRepository) GetByID(ctx context.Context, partition string, id uuid.UUID) (*models.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites WHERE partition = $1 AND id = $2`
	return scanWebsite(r.db.QueryRow(ctx, query, partition, id))
}

func (r *WebsiteRepository) GetByDomain(ctx context.Context, partition, domain string) (*models.Website, error) {
	query := `SELECT ` + websiteColumns + ` FROM websites WHERE partition = $1 AND domain = $2`
	return scanWebsite(r.db.QueryRow(ctx, query, partition, domain))
}

func (r *WebsiteRepository) ListByLocation(ctx context.Context, partition string, locationID uuid.UUID) ([]models.Website, error) {
	query := `
		SELECT ` + websiteColumns + `
		FROM websites
		WHERE partition = $1 AND location_id = $2
		ORDER BY domain ASC
	`
	rows, err := r.db.Query(ctx, query, partition, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	websites := make([]models.Website, 0)
	for rows.Next() {
		website, err := scanWebsiteRow(rows)
		if err != nil {
			return nil, err
		}
		websites = append(websites, *website)
	}
	return websites, rows.Err()
}

type UpdateWebsiteInput struct {
	Title        *string
	Tagline      *string
	BrandColor   *string
	LogoURL      *string
	HeroURL      *string
	ContactEmail *string
	Published    *bool
}

func (r *WebsiteRepository) Update(ctx context.Context, partition string, id uuid.UUID, input UpdateWebsiteInput) (*models.Website, error) {
	query := `
		UPDATE websites SET
			title = COALESCE($3, title),
			tagline = COALESCE($4, tagline),
			brand_color = COALESCE($5, brand_color),
			logo_url = COALESCE($6, logo_url),
			hero_url = COALESCE($7, hero_url),
			contact_email = COALESCE($8, contact_email),
			published = COALESCE($9, published),
			updated_at = NOW()
		WHERE partition = $1 AND id = $2
		RETURNING ` + websiteColumns
	return scanWebsite(r.db.QueryRow(
		ctx,
		query,
		partition,
		id,
		input.Title,
		input.Tagline,
		input.BrandColor,
		input.LogoURL,
		input.HeroURL,
		input.ContactEmail,
		input.Published,
	))
}

func (r *WebsiteRepository) Delete(ctx context.Context, partition string, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM websites WHERE partition = $1 AND id = $2`, partition, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanWebsite(row pgx.Row) (*models.Website, error) {
	return scanWebsiteRow(row)
}

func scanWebsiteRow(row pgx.Row) (*models.Website, error) {
	var website models.Website
	err := row.Scan(
		&website.ID,
		&website.Partition,
		&website.LocationID,
		&website.Domain,
		&website.Title,
		&website.Tagline,
		&website.BrandColor,
		&website.LogoURL,
		&website.HeroURL,
		&website.ContactEmail,
		&website.Published,
		&website.CreatedAt,
		&website.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &website, nil
}
