package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

type stubUserActions struct {
	createInput       services.CreateUserInput
	updateInput       services.UpdateUserInput
	updateTarget      uuid.UUID
	availability      []schedule.Window
	availabilityCalls int
	deleted           uuid.UUID
	user              *models.User
	err               error
}

func (s *stubUserActions) Create(_ context.Context, _ string, input services.CreateUserInput) (*models.User, error) {
	s.createInput = input
	return s.user, s.err
}

func (s *stubUserActions) Update(_ context.Context, _ string, _ uuid.UUID, _ string, targetUID uuid.UUID, input services.UpdateUserInput) (*models.User, error) {
	s.updateTarget = targetUID
	s.updateInput = input
	return s.user, s.err
}

func (s *stubUserActions) Delete(_ context.Context, _ string, _ uuid.UUID, _ string, targetUID uuid.UUID) error {
	s.deleted = targetUID
	return s.err
}

func (s *stubUserActions) SetAvailability(_ context.Context, _ string, _ uuid.UUID, windows []schedule.Window) (*models.User, error) {
	s.availabilityCalls++
	s.availability = windows
	return s.user, s.err
}

type stubLocationActions struct{}

func (s *stubLocationActions) Create(_ context.Context, _ string, _ uuid.UUID, _ string, _ services.CreateLocationInput) (*models.Location, error) {
	return &models.Location{}, nil
}

func (s *stubLocationActions) Update(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID, _ services.UpdateLocationInput) (*models.Location, error) {
	return &models.Location{}, nil
}

func (s *stubLocationActions) Delete(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) error {
	return nil
}

type stubWebsiteActions struct{}

func (s *stubWebsiteActions) Create(_ context.Context, _ string, _ uuid.UUID, _ services.CreateWebsiteInput) (*models.Website, error) {
	return &models.Website{}, nil
}

func (s *stubWebsiteActions) Update(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID, _ repository.UpdateWebsiteInput) (*models.Website, error) {
	return &models.Website{}, nil
}

func (s *stubWebsiteActions) Delete(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) error {
	return nil
}

type stubRequestActions struct {
	newInput   services.NewRequestInput
	canceledID uuid.UUID
	approvedID uuid.UUID
	request    *models.Request
	detail     *models.AppointmentDetail
	err        error
}

func (s *stubRequestActions) New(_ context.Context, _ string, _ uuid.UUID, _ string, input services.NewRequestInput) (*models.Request, error) {
	s.newInput = input
	return s.request, s.err
}

func (s *stubRequestActions) Modify(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID, _ services.ModifyRequestInput) (*models.Request, error) {
	return s.request, s.err
}

func (s *stubRequestActions) Cancel(_ context.Context, _ string, _ uuid.UUID, requestID uuid.UUID) (*models.Request, error) {
	s.canceledID = requestID
	return s.request, s.err
}

func (s *stubRequestActions) Reject(_ context.Context, _ string, _ uuid.UUID, _ string, _ uuid.UUID) (*models.Request, error) {
	return s.request, s.err
}

func (s *stubRequestActions) Approve(_ context.Context, _ string, _ uuid.UUID, _ string, requestID uuid.UUID) (*models.AppointmentDetail, error) {
	s.approvedID = requestID
	return s.detail, s.err
}

type stubAppointmentActions struct{}

func (s *stubAppointmentActions) Modify(_ context.Context, _ string, _ uuid.UUID, _ string, _ uuid.UUID, _ services.ModifyAppointmentInput) (*models.Appointment, error) {
	return &models.Appointment{}, nil
}

func (s *stubAppointmentActions) Cancel(_ context.Context, _ string, _ uuid.UUID, _ string, _ uuid.UUID) (*models.Appointment, error) {
	return &models.Appointment{}, nil
}

type stubClockActions struct {
	lastCall string
	entry    *models.ClockEntry
	err      error
}

func (s *stubClockActions) record(call string) (*models.ClockEntry, error) {
	s.lastCall = call
	return s.entry, s.err
}

func (s *stubClockActions) ClockIn(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("clockIn")
}

func (s *stubClockActions) ClockOut(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("clockOut")
}

func (s *stubClockActions) ApproveClockIn(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("approveClockIn")
}

func (s *stubClockActions) RejectClockIn(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("rejectClockIn")
}

func (s *stubClockActions) ApproveClockOut(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("approveClockOut")
}

func (s *stubClockActions) RejectClockOut(_ context.Context, _ string, _ uuid.UUID, _ uuid.UUID) (*models.ClockEntry, error) {
	return s.record("rejectClockOut")
}

type stubPaymentActions struct {
	payoutCalls int
	payout      *models.Payout
	err         error
}

func (s *stubPaymentActions) Approve(_ context.Context, _ string, _ uuid.UUID, _ string, _ uuid.UUID) (*models.Payment, error) {
	return &models.Payment{}, s.err
}

func (s *stubPaymentActions) Deny(_ context.Context, _ string, _ uuid.UUID, _ string, _ uuid.UUID) (*models.Payment, error) {
	return &models.Payment{}, s.err
}

func (s *stubPaymentActions) RequestPayout(_ context.Context, _ string, _ uuid.UUID, _ string) (*models.Payout, error) {
	s.payoutCalls++
	return s.payout, s.err
}

type dataStubs struct {
	users    *stubUserActions
	requests *stubRequestActions
	clock    *stubClockActions
	payments *stubPaymentActions
}

func newDataApp(role string, uid uuid.UUID) (*fiber.App, dataStubs) {
	stubs := dataStubs{
		users:    &stubUserActions{user: &models.User{ID: uid}},
		requests: &stubRequestActions{request: &models.Request{}, detail: &models.AppointmentDetail{}},
		clock:    &stubClockActions{entry: &models.ClockEntry{}},
		payments: &stubPaymentActions{payout: &models.Payout{}},
	}
	handler := NewDataHandler(
		stubs.users,
		&stubLocationActions{},
		&stubWebsiteActions{},
		stubs.requests,
		&stubAppointmentActions{},
		stubs.clock,
		stubs.payments,
	)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uid)
		c.Locals("role", role)
		c.Locals("partition", "default")
		return c.Next()
	})
	app.Post("/api/data", handler.Dispatch)
	return app, stubs
}

func postAction(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/data", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	app, _ := newDataApp(models.RolePupil, uuid.New())

	resp := postAction(t, app, `{"action": "mintTokens", "payload": {}}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "unknown action" {
		t.Fatalf("expected error %q, got %q", "unknown action", body["error"])
	}
}

func TestDispatchRequiresActor(t *testing.T) {
	handler := NewDataHandler(
		&stubUserActions{}, &stubLocationActions{}, &stubWebsiteActions{},
		&stubRequestActions{}, &stubAppointmentActions{}, &stubClockActions{}, &stubPaymentActions{},
	)
	app := fiber.New()
	app.Post("/api/data", handler.Dispatch)

	resp := postAction(t, app, `{"action": "requestPayout"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestDispatchNewRequestParsesWindow(t *testing.T) {
	pupilUID := uuid.New()
	tutorUID := uuid.New()
	app, stubs := newDataApp(models.RolePupil, pupilUID)

	body := fmt.Sprintf(`{
		"action": "newRequest",
		"payload": {
			"subject": "Algebra",
			"window": "Gunn Library on Mondays from 10:00 AM to 11:00 AM",
			"lesson_minutes": 60,
			"tutor_uid": %q,
			"pupil_uid": %q
		}
	}`, tutorUID, pupilUID)

	resp := postAction(t, app, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	input := stubs.requests.newInput
	if input.Window.Location != "Gunn Library" || input.Window.Day != "Monday" {
		t.Fatalf("unexpected window: %+v", input.Window)
	}
	if input.Window.Open != 600 || input.Window.Close != 660 {
		t.Fatalf("expected 600-660, got %d-%d", input.Window.Open, input.Window.Close)
	}
	if input.TutorUID != tutorUID || input.PupilUID != pupilUID {
		t.Fatalf("uids not forwarded")
	}
}

func TestDispatchNewRequestRejectsBadWindow(t *testing.T) {
	app, _ := newDataApp(models.RolePupil, uuid.New())

	body := fmt.Sprintf(`{
		"action": "newRequest",
		"payload": {
			"subject": "Algebra",
			"window": "sometime next week",
			"lesson_minutes": 60,
			"tutor_uid": %q,
			"pupil_uid": %q
		}
	}`, uuid.New(), uuid.New())

	resp := postAction(t, app, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDispatchRoutesClockDecisions(t *testing.T) {
	app, stubs := newDataApp(models.RoleSupervisor, uuid.New())

	for _, action := range []string{"approveClockIn", "rejectClockIn", "approveClockOut", "rejectClockOut"} {
		body := fmt.Sprintf(`{"action": %q, "payload": {"id": %q}}`, action, uuid.New())
		resp := postAction(t, app, body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", action, resp.StatusCode)
		}
		if stubs.clock.lastCall != action {
			t.Fatalf("expected call %q, got %q", action, stubs.clock.lastCall)
		}
	}
}

func TestDispatchCancelRequestForwardsID(t *testing.T) {
	app, stubs := newDataApp(models.RolePupil, uuid.New())
	requestID := uuid.New()

	resp := postAction(t, app, fmt.Sprintf(`{"action": "cancelRequest", "payload": {"id": %q}}`, requestID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stubs.requests.canceledID != requestID {
		t.Fatalf("expected cancel of %s, got %s", requestID, stubs.requests.canceledID)
	}
}

func TestDispatchRequestPayoutNeedsNoPayload(t *testing.T) {
	app, stubs := newDataApp(models.RoleTutor, uuid.New())

	resp := postAction(t, app, `{"action": "requestPayout"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if stubs.payments.payoutCalls != 1 {
		t.Fatalf("expected 1 payout call, got %d", stubs.payments.payoutCalls)
	}
}

func TestDispatchUpdateUserSetsAvailability(t *testing.T) {
	uid := uuid.New()
	app, stubs := newDataApp(models.RoleTutor, uid)

	body := `{
		"action": "updateUser",
		"payload": {
			"bio": "Calculus tutor",
			"availability": [
				"Gunn Library on Mondays from 10:00 AM to 11:00 AM",
				"Gunn Library on Fridays from 2:00 PM to 4:00 PM"
			]
		}
	}`

	resp := postAction(t, app, body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if stubs.users.updateTarget != uid {
		t.Fatalf("expected self-update, got target %s", stubs.users.updateTarget)
	}
	if stubs.users.availabilityCalls != 1 {
		t.Fatalf("expected availability call, got %d", stubs.users.availabilityCalls)
	}
	if len(stubs.users.availability) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(stubs.users.availability))
	}
	if stubs.users.availability[1].Day != "Friday" {
		t.Fatalf("expected Friday window, got %s", stubs.users.availability[1].Day)
	}
}

func TestDispatchValidatesCreateUserPayload(t *testing.T) {
	app, _ := newDataApp(models.RoleSupervisor, uuid.New())

	resp := postAction(t, app, `{"action": "createUser", "payload": {"email": "not-an-email", "password": "short", "role": "pupil"}}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
