package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

// RoundingConfig is a location's service-hour rounding policy.
type RoundingConfig struct {
	Rounding  string `json:"rounding"`
	Threshold string `json:"threshold"`
}

type Location struct {
	ID              uuid.UUID             `json:"id"`
	Partition       string                `json:"partition"`
	Name            string                `json:"name"`
	Description     *string               `json:"description"`
	Supervisors     []uuid.UUID           `json:"supervisors"`
	Hours           schedule.Availability `json:"hours"`
	Rounding        RoundingConfig        `json:"rounding"`
	AutoClockoutMin *int                  `json:"auto_clockout_min"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// SupervisedBy reports whether the given user administers this location.
func (l *Location) SupervisedBy(uid uuid.UUID) bool {
	for _, supervisor := range l.Supervisors {
		if supervisor == uid {
			return true
		}
	}
	return false
}

// Website is a location's white-label marketing-site configuration.
type Website struct {
	ID           uuid.UUID `json:"id"`
	Partition    string    `json:"partition"`
	LocationID   uuid.UUID `json:"location_id"`
	Domain       string    `json:"domain"`
	Title        string    `json:"title"`
	Tagline      *string   `json:"tagline"`
	BrandColor   *string   `json:"brand_color"`
	LogoURL      *string   `json:"logo_url"`
	HeroURL      *string   `json:"hero_url"`
	ContactEmail *string   `json:"contact_email"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
