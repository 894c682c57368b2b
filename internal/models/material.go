package models

import (
	"time"

	"github.com/google/uuid"
)

// Material is a lesson file a tutor attached to an appointment.
type Material struct {
	ID            uuid.UUID `json:"id"`
	Partition     string    `json:"partition"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	TutorUID      uuid.UUID `json:"tutor_uid"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	FileURL       string    `json:"file_url"`
	CreatedAt     time.Time `json:"created_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
