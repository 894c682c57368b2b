package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

// Appointment statuses. An appointment is "active" between an approved
// clock-in and an approved clock-out.
const (
	AppointmentUpcoming = "upcoming"
	AppointmentActive   = "active"
	AppointmentDone     = "done"
	AppointmentCanceled = "canceled"
)

type Appointment struct {
	ID              uuid.UUID       `json:"id"`
	Partition       string          `json:"partition"`
	RequestID       uuid.UUID       `json:"request_id"`
	Subject         string          `json:"subject"`
	Window          schedule.Window `json:"window"`
	LessonMinutes   int             `json:"lesson_minutes"`
	TutorUID        uuid.UUID       `json:"tutor_uid"`
	PupilUID        uuid.UUID       `json:"pupil_uid"`
	Status          string          `json:"status"`
	ClockIn         *time.Time      `json:"clock_in"`
	ClockOut        *time.Time      `json:"clock_out"`
	DurationSeconds int64           `json:"duration_seconds"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type AppointmentDetail struct {
	Appointment
	Payment *Payment `json:"payment,omitempty"`
}

// Clock entry kinds and statuses. Every tutor-reported clock-in/out sits
// pending until a location supervisor decides it.
const (
	ClockKindIn  = "in"
	ClockKindOut = "out"

	ClockPending  = "pending"
	ClockApproved = "approved"
	ClockRejected = "rejected"
)

type ClockEntry struct {
	ID            uuid.UUID  `json:"id"`
	Partition     string     `json:"partition"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	TutorUID      uuid.UUID  `json:"tutor_uid"`
	Kind          string     `json:"kind"`
	ProposedTime  time.Time  `json:"proposed_time"`
	Status        string     `json:"status"`
	DecidedBy     *uuid.UUID `json:"decided_by"`
	DecidedAt     *time.Time `json:"decided_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
