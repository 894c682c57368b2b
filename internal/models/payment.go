package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. A payment is authorized when the request is approved,
// captured when the lesson completes, and then approved or denied by a
// supervisor. Canceling voids an authorization.
const (
	PaymentAuthorized = "authorized"
	PaymentCaptured   = "captured"
	PaymentApproved   = "approved"
	PaymentDenied     = "denied"
	PaymentVoided     = "voided"
)

type Payment struct {
	ID              uuid.UUID  `json:"id"`
	Partition       string     `json:"partition"`
	RequestID       uuid.UUID  `json:"request_id"`
	AppointmentID   *uuid.UUID `json:"appointment_id"`
	PayerUID        uuid.UUID  `json:"payer_uid"`
	PayeeUID        uuid.UUID  `json:"payee_uid"`
	Method          string     `json:"method"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	ProviderOrderID *string    `json:"provider_order_id"`
	Status          string     `json:"status"`
	CapturedAt      *time.Time `json:"captured_at"`
	DecidedBy       *uuid.UUID `json:"decided_by"`
	PayoutID        *uuid.UUID `json:"payout_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Payout statuses.
const (
	PayoutRequested = "requested"
	PayoutSent      = "sent"
	PayoutFailed    = "failed"
)

type Payout struct {
	ID              uuid.UUID `json:"id"`
	Partition       string    `json:"partition"`
	TutorUID        uuid.UUID `json:"tutor_uid"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Method          string    `json:"method"`
	ProviderBatchID *string   `json:"provider_batch_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
