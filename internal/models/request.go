package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

// Lesson request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestCanceled = "canceled"
	RequestExpired  = "expired"
)

type Request struct {
	ID            uuid.UUID       `json:"id"`
	Partition     string          `json:"partition"`
	Subject       string          `json:"subject"`
	Window        schedule.Window `json:"window"`
	LessonMinutes int             `json:"lesson_minutes"`
	SenderUID     uuid.UUID       `json:"sender_uid"`
	SenderRole    string          `json:"sender_role"`
	TutorUID      uuid.UUID       `json:"tutor_uid"`
	PupilUID      uuid.UUID       `json:"pupil_uid"`
	Message       *string         `json:"message"`
	PaymentMethod string          `json:"payment_method"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type RequestDetail struct {
	Request
	Payment *Payment `json:"payment,omitempty"`
}
