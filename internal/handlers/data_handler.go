package handlers

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
	"github.com/nicholaschiang/foss-tutorbook/pkg/utils"
)

var validate = validator.New()

type userActionService interface {
	Create(ctx context.Context, partition string, input services.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, targetUID uuid.UUID, input services.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, targetUID uuid.UUID) error
	SetAvailability(ctx context.Context, partition string, actorUID uuid.UUID, windows []schedule.Window) (*models.User, error)
}

type locationActionService interface {
	Create(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, input services.CreateLocationInput) (*models.Location, error)
	Update(ctx context.Context, partition string, actorUID uuid.UUID, locationID uuid.UUID, input services.UpdateLocationInput) (*models.Location, error)
	Delete(ctx context.Context, partition string, actorUID uuid.UUID, locationID uuid.UUID) error
}

type websiteActionService interface {
	Create(ctx context.Context, partition string, actorUID uuid.UUID, input services.CreateWebsiteInput) (*models.Website, error)
	Update(ctx context.Context, partition string, actorUID uuid.UUID, websiteID uuid.UUID, input repository.UpdateWebsiteInput) (*models.Website, error)
	Delete(ctx context.Context, partition string, actorUID uuid.UUID, websiteID uuid.UUID) error
}

type requestActionService interface {
	New(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, input services.NewRequestInput) (*models.Request, error)
	Modify(ctx context.Context, partition string, actorUID uuid.UUID, requestID uuid.UUID, input services.ModifyRequestInput) (*models.Request, error)
	Cancel(ctx context.Context, partition string, actorUID uuid.UUID, requestID uuid.UUID) (*models.Request, error)
	Reject(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, requestID uuid.UUID) (*models.Request, error)
	Approve(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, requestID uuid.UUID) (*models.AppointmentDetail, error)
}

type appointmentActionService interface {
	Modify(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, apptID uuid.UUID, input services.ModifyAppointmentInput) (*models.Appointment, error)
	Cancel(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, apptID uuid.UUID) (*models.Appointment, error)
}

type clockActionService interface {
	ClockIn(ctx context.Context, partition string, actorUID uuid.UUID, apptID uuid.UUID) (*models.ClockEntry, error)
	ClockOut(ctx context.Context, partition string, actorUID uuid.UUID, apptID uuid.UUID) (*models.ClockEntry, error)
	ApproveClockIn(ctx context.Context, partition string, actorUID uuid.UUID, entryID uuid.UUID) (*models.ClockEntry, error)
	RejectClockIn(ctx context.Context, partition string, actorUID uuid.UUID, entryID uuid.UUID) (*models.ClockEntry, error)
	ApproveClockOut(ctx context.Context, partition string, actorUID uuid.UUID, entryID uuid.UUID) (*models.ClockEntry, error)
	RejectClockOut(ctx context.Context, partition string, actorUID uuid.UUID, entryID uuid.UUID) (*models.ClockEntry, error)
}

type paymentActionService interface {
	Approve(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, paymentID uuid.UUID) (*models.Payment, error)
	Deny(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, paymentID uuid.UUID) (*models.Payment, error)
	RequestPayout(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string) (*models.Payout, error)
}

// DataHandler is the mutating REST surface: every write arrives as
// {"action": "...", "payload": {...}} on POST /api/data.
type DataHandler struct {
	users        userActionService
	locations    locationActionService
	websites     websiteActionService
	requests     requestActionService
	appointments appointmentActionService
	clock        clockActionService
	payments     paymentActionService
}

func NewDataHandler(
	users userActionService,
	locations locationActionService,
	websites websiteActionService,
	requests requestActionService,
	appointments appointmentActionService,
	clock clockActionService,
	payments paymentActionService,
) *DataHandler {
	return &DataHandler{
		users:        users,
		locations:    locations,
		websites:     websites,
		requests:     requests,
		appointments: appointments,
		clock:        clock,
		payments:     payments,
	}
}

type actionEnvelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func (h *DataHandler) Dispatch(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role := actorRole(c)
	partition := requestPartition(c)

	var envelope actionEnvelope
	if err := c.BodyParser(&envelope); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch envelope.Action {
	case "createUser":
		return h.createUser(c, partition, envelope.Payload)
	case "updateUser":
		return h.updateUser(c, partition, uid, role, envelope.Payload)
	case "deleteUser":
		return h.deleteUser(c, partition, uid, role, envelope.Payload)
	case "createLocation":
		return h.createLocation(c, partition, uid, role, envelope.Payload)
	case "updateLocation":
		return h.updateLocation(c, partition, uid, envelope.Payload)
	case "deleteLocation":
		return h.deleteLocation(c, partition, uid, envelope.Payload)
	case "createWebsite":
		return h.createWebsite(c, partition, uid, envelope.Payload)
	case "updateWebsite":
		return h.updateWebsite(c, partition, uid, envelope.Payload)
	case "deleteWebsite":
		return h.deleteWebsite(c, partition, uid, envelope.Payload)
	case "newRequest":
		return h.newRequest(c, partition, uid, role, envelope.Payload)
	case "modifyRequest":
		return h.modifyRequest(c, partition, uid, envelope.Payload)
	case "cancelRequest":
		return h.requestTransition(c, partition, uid, role, envelope.Payload, "cancel")
	case "rejectRequest":
		return h.requestTransition(c, partition, uid, role, envelope.Payload, "reject")
	case "approveRequest":
		return h.approveRequest(c, partition, uid, role, envelope.Payload)
	case "modifyAppointment":
		return h.modifyAppointment(c, partition, uid, role, envelope.Payload)
	case "cancelAppointment":
		return h.cancelAppointment(c, partition, uid, role, envelope.Payload)
	case "clockIn", "clockOut":
		return h.clockEntry(c, partition, uid, envelope.Action, envelope.Payload)
	case "approveClockIn", "rejectClockIn", "approveClockOut", "rejectClockOut":
		return h.clockDecision(c, partition, uid, envelope.Action, envelope.Payload)
	case "approvePayment", "denyPayment":
		return h.paymentDecision(c, partition, uid, role, envelope.Action, envelope.Payload)
	case "requestPayout":
		return h.requestPayout(c, partition, uid, role)
	default:
		return mapServiceError(c, services.ErrUnknownAction)
	}
}

type createUserPayload struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" validate:"required,oneof=tutor pupil teacher parent supervisor"`
	Name     *string `json:"name"`
}

func (h *DataHandler) createUser(c *fiber.Ctx, partition string, raw json.RawMessage) error {
	var payload createUserPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.users.Create(c.Context(), partition, services.CreateUserInput{
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
		Name:     payload.Name,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

type updateUserPayload struct {
	UID            *string  `json:"uid"`
	Name           *string  `json:"name"`
	Bio            *string  `json:"bio"`
	Grade          *string  `json:"grade"`
	Phone          *string  `json:"phone"`
	AvatarURL      *string  `json:"avatar_url"`
	Subjects       *[]string `json:"subjects"`
	HourlyRate     *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	PaymentMethod  *string  `json:"payment_method" validate:"omitempty,oneof=paypal stripe none"`
	PaymentAccount *string  `json:"payment_account"`
	Verified       *bool    `json:"verified"`

	// Weekly availability as window strings, e.g.
	// "Gunn Academic Center on Mondays from 2:45 PM to 3:45 PM".
	Availability *[]string `json:"availability"`
}

func (h *DataHandler) updateUser(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload updateUserPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	targetUID := uid
	if payload.UID != nil {
		parsed, err := utils.ParseUID(*payload.UID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid uid"})
		}
		targetUID = parsed
	}

	user, err := h.users.Update(c.Context(), partition, uid, role, targetUID, services.UpdateUserInput{
		UpdateUserInput: repository.UpdateUserInput{
			Name:           payload.Name,
			Bio:            payload.Bio,
			Grade:          payload.Grade,
			Phone:          payload.Phone,
			AvatarURL:      payload.AvatarURL,
			Subjects:       payload.Subjects,
			HourlyRate:     payload.HourlyRate,
			PaymentMethod:  payload.PaymentMethod,
			PaymentAccount: payload.PaymentAccount,
		},
		Verified: payload.Verified,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	if payload.Availability != nil {
		windows, err := parseWindowStrings(*payload.Availability)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		user, err = h.users.SetAvailability(c.Context(), partition, targetUID, windows)
		if err != nil {
			return mapServiceError(c, err)
		}
	}
	return c.JSON(fiber.Map{"user": user})
}

type uidPayload struct {
	UID string `json:"uid" validate:"required"`
}

func (h *DataHandler) deleteUser(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload uidPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	targetUID, err := utils.ParseUID(payload.UID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid uid"})
	}

	if err := h.users.Delete(c.Context(), partition, uid, role, targetUID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": targetUID})
}

type roundingPayload struct {
	Rounding  string `json:"rounding" validate:"required,oneof=normally up down"`
	Threshold string `json:"threshold" validate:"required,oneof=minute 5min 15min 30min hour"`
}

type createLocationPayload struct {
	Name            string           `json:"name" validate:"required"`
	Description     *string          `json:"description"`
	Hours           []string         `json:"hours"`
	Rounding        *roundingPayload `json:"rounding"`
	AutoClockoutMin *int             `json:"auto_clockout_min" validate:"omitempty,gt=0"`
}

func (h *DataHandler) createLocation(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload createLocationPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hours, err := buildAvailability(payload.Hours)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	input := services.CreateLocationInput{
		Name:            payload.Name,
		Description:     payload.Description,
		Hours:           hours,
		AutoClockoutMin: payload.AutoClockoutMin,
	}
	if payload.Rounding != nil {
		input.Rounding = models.RoundingConfig{
			Rounding:  payload.Rounding.Rounding,
			Threshold: payload.Rounding.Threshold,
		}
	}

	location, err := h.locations.Create(c.Context(), partition, uid, role, input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"location": location})
}

type updateLocationPayload struct {
	ID              string    `json:"id" validate:"required,uuid"`
	Description     *string   `json:"description"`
	Supervisors     *[]string `json:"supervisors"`
	Hours           *[]string `json:"hours"`
	Rounding        *string   `json:"rounding" validate:"omitempty,oneof=normally up down"`
	Threshold       *string   `json:"threshold" validate:"omitempty,oneof=minute 5min 15min 30min hour"`
	AutoClockoutMin *int      `json:"auto_clockout_min" validate:"omitempty,gt=0"`
}

func (h *DataHandler) updateLocation(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload updateLocationPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	locationID := uuid.MustParse(payload.ID)

	input := services.UpdateLocationInput{
		UpdateLocationInput: repository.UpdateLocationInput{
			Description:     payload.Description,
			Rounding:        payload.Rounding,
			Threshold:       payload.Threshold,
			AutoClockoutMin: payload.AutoClockoutMin,
		},
	}
	if payload.Supervisors != nil {
		supervisors := make([]uuid.UUID, 0, len(*payload.Supervisors))
		for _, value := range *payload.Supervisors {
			supervisorUID, err := utils.ParseUID(value)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid supervisor uid"})
			}
			supervisors = append(supervisors, supervisorUID)
		}
		input.Supervisors = &supervisors
	}
	if payload.Hours != nil {
		hours, err := buildAvailability(*payload.Hours)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		input.Hours = &hours
	}

	location, err := h.locations.Update(c.Context(), partition, uid, locationID, input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"location": location})
}

type idPayload struct {
	ID string `json:"id" validate:"required,uuid"`
}

func (h *DataHandler) deleteLocation(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	locationID := uuid.MustParse(payload.ID)

	if err := h.locations.Delete(c.Context(), partition, uid, locationID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": locationID})
}

type createWebsitePayload struct {
	LocationID   string  `json:"location_id" validate:"required,uuid"`
	Domain       string  `json:"domain" validate:"required,fqdn"`
	Title        string  `json:"title" validate:"required"`
	Tagline      *string `json:"tagline"`
	BrandColor   *string `json:"brand_color"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	HeroURL      *string `json:"hero_url" validate:"omitempty,url"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

func (h *DataHandler) createWebsite(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload createWebsitePayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	website, err := h.websites.Create(c.Context(), partition, uid, services.CreateWebsiteInput{
		LocationID:   uuid.MustParse(payload.LocationID),
		Domain:       payload.Domain,
		Title:        payload.Title,
		Tagline:      payload.Tagline,
		BrandColor:   payload.BrandColor,
		LogoURL:      payload.LogoURL,
		HeroURL:      payload.HeroURL,
		ContactEmail: payload.ContactEmail,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"website": website})
}

type updateWebsitePayload struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Title        *string `json:"title"`
	Tagline      *string `json:"tagline"`
	BrandColor   *string `json:"brand_color"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	HeroURL      *string `json:"hero_url" validate:"omitempty,url"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
	Published    *bool   `json:"published"`
}

func (h *DataHandler) updateWebsite(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload updateWebsitePayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	website, err := h.websites.Update(c.Context(), partition, uid, uuid.MustParse(payload.ID), repository.UpdateWebsiteInput{
		Title:        payload.Title,
		Tagline:      payload.Tagline,
		BrandColor:   payload.BrandColor,
		LogoURL:      payload.LogoURL,
		HeroURL:      payload.HeroURL,
		ContactEmail: payload.ContactEmail,
		Published:    payload.Published,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"website": website})
}

func (h *DataHandler) deleteWebsite(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	websiteID := uuid.MustParse(payload.ID)

	if err := h.websites.Delete(c.Context(), partition, uid, websiteID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": websiteID})
}

type newRequestPayload struct {
	Subject       string  `json:"subject" validate:"required"`
	Window        string  `json:"window" validate:"required"`
	LessonMinutes int     `json:"lesson_minutes" validate:"required,gt=0"`
	TutorUID      string  `json:"tutor_uid" validate:"required"`
	PupilUID      string  `json:"pupil_uid" validate:"required"`
	Message       *string `json:"message"`
}

func (h *DataHandler) newRequest(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload newRequestPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	window, err := schedule.ParseWindowString(payload.Window)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	tutorUID, err := utils.ParseUID(payload.TutorUID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor uid"})
	}
	pupilUID, err := utils.ParseUID(payload.PupilUID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pupil uid"})
	}

	request, err := h.requests.New(c.Context(), partition, uid, role, services.NewRequestInput{
		Subject:       payload.Subject,
		Window:        window,
		LessonMinutes: payload.LessonMinutes,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
		Message:       payload.Message,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

type modifyRequestPayload struct {
	ID            string  `json:"id" validate:"required,uuid"`
	Subject       *string `json:"subject"`
	Window        *string `json:"window"`
	LessonMinutes *int    `json:"lesson_minutes" validate:"omitempty,gt=0"`
	Message       *string `json:"message"`
}

func (h *DataHandler) modifyRequest(c *fiber.Ctx, partition string, uid uuid.UUID, raw json.RawMessage) error {
	var payload modifyRequestPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.ModifyRequestInput{
		Subject:       payload.Subject,
		LessonMinutes: payload.LessonMinutes,
		Message:       payload.Message,
	}
	if payload.Window != nil {
		window, err := schedule.ParseWindowString(*payload.Window)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		input.Window = &window
	}

	request, err := h.requests.Modify(c.Context(), partition, uid, uuid.MustParse(payload.ID), input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *DataHandler) requestTransition(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage, kind string) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	requestID := uuid.MustParse(payload.ID)

	var request *models.Request
	var err error
	if kind == "cancel" {
		request, err = h.requests.Cancel(c.Context(), partition, uid, requestID)
	} else {
		request, err = h.requests.Reject(c.Context(), partition, uid, role, requestID)
	}
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *DataHandler) approveRequest(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	detail, err := h.requests.Approve(c.Context(), partition, uid, role, uuid.MustParse(payload.ID))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": detail})
}

type modifyAppointmentPayload struct {
	ID            string  `json:"id" validate:"required,uuid"`
	Window        *string `json:"window"`
	LessonMinutes *int    `json:"lesson_minutes" validate:"omitempty,gt=0"`
}

func (h *DataHandler) modifyAppointment(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload modifyAppointmentPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.ModifyAppointmentInput{LessonMinutes: payload.LessonMinutes}
	if payload.Window != nil {
		window, err := schedule.ParseWindowString(*payload.Window)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		input.Window = &window
	}

	appointment, err := h.appointments.Modify(c.Context(), partition, uid, role, uuid.MustParse(payload.ID), input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

func (h *DataHandler) cancelAppointment(c *fiber.Ctx, partition string, uid uuid.UUID, role string, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	appointment, err := h.appointments.Cancel(c.Context(), partition, uid, role, uuid.MustParse(payload.ID))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": appointment})
}

type appointmentIDPayload struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

func (h *DataHandler) clockEntry(c *fiber.Ctx, partition string, uid uuid.UUID, action string, raw json.RawMessage) error {
	var payload appointmentIDPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	apptID := uuid.MustParse(payload.AppointmentID)

	var entry *models.ClockEntry
	var err error
	if action == "clockIn" {
		entry, err = h.clock.ClockIn(c.Context(), partition, uid, apptID)
	} else {
		entry, err = h.clock.ClockOut(c.Context(), partition, uid, apptID)
	}
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"clock_entry": entry})
}

func (h *DataHandler) clockDecision(c *fiber.Ctx, partition string, uid uuid.UUID, action string, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	entryID := uuid.MustParse(payload.ID)

	var entry *models.ClockEntry
	var err error
	switch action {
	case "approveClockIn":
		entry, err = h.clock.ApproveClockIn(c.Context(), partition, uid, entryID)
	case "rejectClockIn":
		entry, err = h.clock.RejectClockIn(c.Context(), partition, uid, entryID)
	case "approveClockOut":
		entry, err = h.clock.ApproveClockOut(c.Context(), partition, uid, entryID)
	default:
		entry, err = h.clock.RejectClockOut(c.Context(), partition, uid, entryID)
	}
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"clock_entry": entry})
}

func (h *DataHandler) paymentDecision(c *fiber.Ctx, partition string, uid uuid.UUID, role, action string, raw json.RawMessage) error {
	var payload idPayload
	if err := parsePayload(raw, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	paymentID := uuid.MustParse(payload.ID)

	var payment *models.Payment
	var err error
	if action == "approvePayment" {
		payment, err = h.payments.Approve(c.Context(), partition, uid, role, paymentID)
	} else {
		payment, err = h.payments.Deny(c.Context(), partition, uid, role, paymentID)
	}
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

func (h *DataHandler) requestPayout(c *fiber.Ctx, partition string, uid uuid.UUID, role string) error {
	payout, err := h.payments.RequestPayout(c.Context(), partition, uid, role)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payout": payout})
}

func parsePayload(raw json.RawMessage, payload any) error {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return services.ErrInvalidInput
	}
	return validate.Struct(payload)
}

func buildAvailability(values []string) (schedule.Availability, error) {
	availability := schedule.Availability{}
	for _, value := range values {
		window, err := schedule.ParseWindowString(value)
		if err != nil {
			return nil, err
		}
		if err := availability.Add(window); err != nil {
			return nil, err
		}
	}
	return availability, nil
}

func parseWindowStrings(values []string) ([]schedule.Window, error) {
	windows := make([]schedule.Window, 0, len(values))
	for _, value := range values {
		window, err := schedule.ParseWindowString(value)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}
