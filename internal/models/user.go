package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

// Roles a profile can hold. Supervisors administer locations; parents act on
// behalf of their pupils.
const (
	RoleTutor      = "tutor"
	RolePupil      = "pupil"
	RoleTeacher    = "teacher"
	RoleParent     = "parent"
	RoleSupervisor = "supervisor"
)

func ValidRole(role string) bool {
	switch role {
	case RoleTutor, RolePupil, RoleTeacher, RoleParent, RoleSupervisor:
		return true
	}
	return false
}

// Payment methods a profile can be paid (or pay) through.
const (
	MethodPayPal = "paypal"
	MethodStripe = "stripe"
	MethodNone   = "none"
)

type User struct {
	ID              uuid.UUID             `json:"id"`
	Partition       string                `json:"partition"`
	Email           string                `json:"email"`
	PasswordHash    string                `json:"-"`
	Role            string                `json:"role"`
	Name            *string               `json:"name"`
	Bio             *string               `json:"bio"`
	Grade           *string               `json:"grade"`
	Phone           *string               `json:"phone"`
	AvatarURL       *string               `json:"avatar_url"`
	Subjects        []string              `json:"subjects"`
	HourlyRate      *float64              `json:"hourly_rate"`
	PaymentMethod   string                `json:"payment_method"`
	PaymentAccount  *string               `json:"payment_account"`
	Availability    schedule.Availability `json:"availability"`
	SecondsTutored  int64                 `json:"seconds_tutored"`
	SecondsPupiled  int64                 `json:"seconds_pupiled"`
	RatingAvg       *float64              `json:"rating_avg"`
	RatingCount     int                   `json:"rating_count"`
	Verified        bool                  `json:"verified"`
	ProfileComplete bool                  `json:"profile_complete"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TutorWithScore is a discovery result: a tutor profile plus its match score
// for the querying pupil.
type TutorWithScore struct {
	User
	MatchScore int `json:"match_score"`
}
