package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestRequestServiceApproveBooksWindow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	service := newIntegrationRequestService(pool)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 30)
	pupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	window := mustWindow(t, "Gunn Library", "Monday", 600, 660)
	request, err := service.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Algebra",
		Window:        window,
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if request.Status != models.RequestPending {
		t.Fatalf("expected pending request, got %q", request.Status)
	}
	if request.Amount != 30 {
		t.Fatalf("expected amount 30, got %.2f", request.Amount)
	}

	detail, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, request.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if detail.Appointment.Status != models.AppointmentUpcoming {
		t.Fatalf("expected upcoming appointment, got %q", detail.Appointment.Status)
	}
	if detail.Payment == nil || detail.Payment.Status != models.PaymentAuthorized {
		t.Fatalf("expected authorized payment, got %+v", detail.Payment)
	}

	tutor, err := repository.NewUserRepository(pool).GetByID(ctx, partition, tutorUID)
	if err != nil {
		t.Fatalf("GetByID tutor: %v", err)
	}
	if tutor.Availability.FitsWithin(window) {
		t.Fatalf("expected booked window to no longer fit open availability")
	}

	// The booked slot is gone, so a second request for it is refused.
	_, err = service.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Algebra",
		Window:        window,
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	})
	if err != ErrConflict {
		t.Fatalf("expected ErrConflict for the booked window, got %v", err)
	}
}

func TestRequestServiceApproveRefusesDoubleBooking(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	service := newIntegrationRequestService(pool)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 25)
	firstPupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	secondPupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	first, err := service.New(ctx, partition, firstPupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Geometry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 600, 660),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      firstPupilUID,
	})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	second, err := service.New(ctx, partition, secondPupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Geometry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 630, 690),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      secondPupilUID,
	})
	if err != nil {
		t.Fatalf("second New: %v", err)
	}

	if _, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, first.ID); err != nil {
		t.Fatalf("Approve first: %v", err)
	}
	if _, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, second.ID); err != ErrConflict {
		t.Fatalf("expected ErrConflict approving the overlapping request, got %v", err)
	}
}

func TestClockServiceSettlesLesson(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	requestService := newIntegrationRequestService(pool)
	clockService := newIntegrationClockService(pool)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 40)
	pupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	request, err := requestService.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Chemistry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 600, 660),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	detail, err := requestService.Approve(ctx, partition, tutorUID, models.RoleTutor, request.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	apptID := detail.Appointment.ID

	start := time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC)
	clockService.now = func() time.Time { return start }
	clockIn, err := clockService.ClockIn(ctx, partition, tutorUID, apptID)
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if _, err := clockService.ApproveClockIn(ctx, partition, supervisorUID, clockIn.ID); err != nil {
		t.Fatalf("ApproveClockIn: %v", err)
	}

	// 52 minutes of tutoring rounds to a full hour at this location.
	clockService.now = func() time.Time { return start.Add(52 * time.Minute) }
	clockOut, err := clockService.ClockOut(ctx, partition, tutorUID, apptID)
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if _, err := clockService.ApproveClockOut(ctx, partition, supervisorUID, clockOut.ID); err != nil {
		t.Fatalf("ApproveClockOut: %v", err)
	}

	appointment, err := repository.NewAppointmentRepository(pool).GetByID(ctx, partition, apptID)
	if err != nil {
		t.Fatalf("GetByID appointment: %v", err)
	}
	if appointment.Status != models.AppointmentDone {
		t.Fatalf("expected done appointment, got %q", appointment.Status)
	}
	if appointment.DurationSeconds != 3600 {
		t.Fatalf("expected 3600 rounded seconds, got %d", appointment.DurationSeconds)
	}

	tutor, err := repository.NewUserRepository(pool).GetByID(ctx, partition, tutorUID)
	if err != nil {
		t.Fatalf("GetByID tutor: %v", err)
	}
	if tutor.SecondsTutored != 3600 {
		t.Fatalf("expected 3600 seconds tutored, got %d", tutor.SecondsTutored)
	}

	payment, err := repository.NewPaymentRepository(pool).GetByAppointmentID(ctx, partition, apptID)
	if err != nil {
		t.Fatalf("GetByAppointmentID: %v", err)
	}
	if payment.Status != models.PaymentCaptured {
		t.Fatalf("expected captured payment, got %q", payment.Status)
	}
}

func TestRequestServiceApproveVoidsAuthorizationOnConflict(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	provider := &recordingProvider{}
	service := newIntegrationRequestServiceWithProvider(pool, provider)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 25)
	firstPupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	secondPupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	method := models.MethodPayPal
	if _, err := repository.NewUserRepository(pool).Update(ctx, partition, tutorUID, repository.UpdateUserInput{
		PaymentMethod: &method,
	}); err != nil {
		t.Fatalf("Update payment method: %v", err)
	}

	first, err := service.New(ctx, partition, firstPupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Geometry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 600, 660),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      firstPupilUID,
	})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	second, err := service.New(ctx, partition, secondPupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Geometry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 630, 690),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      secondPupilUID,
	})
	if err != nil {
		t.Fatalf("second New: %v", err)
	}

	detail, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, first.ID)
	if err != nil {
		t.Fatalf("Approve first: %v", err)
	}
	if detail.Payment == nil || detail.Payment.ProviderOrderID == nil || *detail.Payment.ProviderOrderID != "order-1" {
		t.Fatalf("expected the first authorization on the payment, got %+v", detail.Payment)
	}
	if voided := provider.voidedOrders(); len(voided) != 0 {
		t.Fatalf("expected no voids after a clean booking, got %v", voided)
	}

	// The overlapping window no longer fits, so the booking fails after the
	// authorization and the order is released.
	if _, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, second.ID); err != ErrConflict {
		t.Fatalf("expected ErrConflict approving the overlapping request, got %v", err)
	}
	if voided := provider.voidedOrders(); len(voided) != 1 || voided[0] != "order-2" {
		t.Fatalf("expected the second authorization voided, got %v", voided)
	}
}

func TestRequestServiceApproveFailedAuthorizationKeepsRequestPending(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	provider := &recordingProvider{failAuthorize: true}
	service := newIntegrationRequestServiceWithProvider(pool, provider)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 25)
	pupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	method := models.MethodPayPal
	if _, err := repository.NewUserRepository(pool).Update(ctx, partition, tutorUID, repository.UpdateUserInput{
		PaymentMethod: &method,
	}); err != nil {
		t.Fatalf("Update payment method: %v", err)
	}

	window := mustWindow(t, "Gunn Library", "Monday", 600, 660)
	request, err := service.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Geometry",
		Window:        window,
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := service.Approve(ctx, partition, tutorUID, models.RoleTutor, request.ID); err == nil {
		t.Fatalf("expected Approve to surface the provider failure")
	}

	reloaded, err := repository.NewRequestRepository(pool).GetByID(ctx, partition, request.ID)
	if err != nil {
		t.Fatalf("GetByID request: %v", err)
	}
	if reloaded.Status != models.RequestPending {
		t.Fatalf("expected the request to stay pending, got %q", reloaded.Status)
	}
	tutor, err := repository.NewUserRepository(pool).GetByID(ctx, partition, tutorUID)
	if err != nil {
		t.Fatalf("GetByID tutor: %v", err)
	}
	if !tutor.Availability.FitsWithin(window) {
		t.Fatalf("expected the window to stay open when nothing was booked")
	}
}

func TestRequestListSupervisorSeesLocationRequests(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	service := newIntegrationRequestService(pool)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	outsiderUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 30)
	pupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	if _, err := service.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Algebra",
		Window:        mustWindow(t, "Gunn Library", "Monday", 600, 660),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	}); err != nil {
		t.Fatalf("New: %v", err)
	}

	details, err := service.List(ctx, partition, supervisorUID, models.RoleSupervisor, repository.RequestListFilter{})
	if err != nil {
		t.Fatalf("List as supervisor: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected the supervisor to see the location's request, got %d", len(details))
	}

	details, err = service.List(ctx, partition, outsiderUID, models.RoleSupervisor, repository.RequestListFilter{})
	if err != nil {
		t.Fatalf("List as outsider: %v", err)
	}
	if len(details) != 0 {
		t.Fatalf("expected a supervisor with no locations to see nothing, got %d", len(details))
	}
}

func TestClockOutBeforeApprovedClockInRefused(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	partition := testPartition(t, ctx, pool)
	requestService := newIntegrationRequestService(pool)
	clockService := newIntegrationClockService(pool)

	supervisorUID := createTestAccount(t, ctx, pool, partition, models.RoleSupervisor, 0)
	tutorUID := createTestAccount(t, ctx, pool, partition, models.RoleTutor, 40)
	pupilUID := createTestAccount(t, ctx, pool, partition, models.RolePupil, 0)
	createTestLocation(t, ctx, pool, partition, "Gunn Library", supervisorUID)

	request, err := requestService.New(ctx, partition, pupilUID, models.RolePupil, NewRequestInput{
		Subject:       "Chemistry",
		Window:        mustWindow(t, "Gunn Library", "Monday", 600, 660),
		LessonMinutes: 60,
		TutorUID:      tutorUID,
		PupilUID:      pupilUID,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	detail, err := requestService.Approve(ctx, partition, tutorUID, models.RoleTutor, request.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	apptID := detail.Appointment.ID

	start := time.Date(2030, 6, 3, 10, 0, 0, 0, time.UTC)
	clockService.now = func() time.Time { return start }
	clockIn, err := clockService.ClockIn(ctx, partition, tutorUID, apptID)
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if _, err := clockService.ApproveClockIn(ctx, partition, supervisorUID, clockIn.ID); err != nil {
		t.Fatalf("ApproveClockIn: %v", err)
	}

	clockService.now = func() time.Time { return start.Add(-5 * time.Minute) }
	if _, err := clockService.ClockOut(ctx, partition, tutorUID, apptID); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput clocking out before the approved clock-in, got %v", err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

// testPartition isolates each test in its own partition and removes every
// row it created on cleanup.
func testPartition(t *testing.T, ctx context.Context, pool *pgxpool.Pool) string {
	t.Helper()

	partition := fmt.Sprintf("it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		tables := []string{
			"chat_messages", "conversations", "materials", "clock_entries",
			"payments", "payouts", "appointments", "requests", "websites",
			"locations", "users",
		}
		for _, table := range tables {
			query := fmt.Sprintf("DELETE FROM %s WHERE partition = $1", table)
			if table == "chat_messages" {
				query = `
					DELETE FROM chat_messages WHERE conversation_id IN (
						SELECT id FROM conversations WHERE partition = $1
					)
				`
			}
			if _, err := pool.Exec(ctx, query, partition); err != nil {
				t.Fatalf("cleanup %s: %v", table, err)
			}
		}
	})
	return partition
}

func newIntegrationRequestService(pool *pgxpool.Pool) *RequestService {
	return newIntegrationRequestServiceWithProvider(pool, nil)
}

func newIntegrationRequestServiceWithProvider(pool *pgxpool.Pool, paypal Provider) *RequestService {
	return NewRequestService(
		pool,
		repository.NewRequestRepository(pool),
		repository.NewUserRepository(pool),
		repository.NewAppointmentRepository(pool),
		repository.NewPaymentRepository(pool),
		repository.NewLocationRepository(pool),
		NewProviderSet(paypal, nil),
		nil,
	)
}

// recordingProvider stands in for a payment provider: it numbers the orders
// it authorizes and remembers which ones were voided.
type recordingProvider struct {
	mu            sync.Mutex
	failAuthorize bool
	orders        int
	voided        []string
}

func (p *recordingProvider) AuthorizeOrder(_ context.Context, _ float64, _, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAuthorize {
		return "", fmt.Errorf("provider unavailable")
	}
	p.orders++
	return fmt.Sprintf("order-%d", p.orders), nil
}

func (p *recordingProvider) CaptureOrder(context.Context, string) error { return nil }

func (p *recordingProvider) VoidOrder(_ context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voided = append(p.voided, orderID)
	return nil
}

func (p *recordingProvider) SendPayout(context.Context, string, float64, string) (string, error) {
	return "", fmt.Errorf("payouts not supported")
}

func (p *recordingProvider) voidedOrders() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.voided...)
}

func newIntegrationClockService(pool *pgxpool.Pool) *ClockService {
	return NewClockService(
		pool,
		repository.NewClockRepository(pool),
		repository.NewAppointmentRepository(pool),
		repository.NewUserRepository(pool),
		repository.NewPaymentRepository(pool),
		repository.NewLocationRepository(pool),
		NewProviderSet(nil, nil),
		nil,
	)
}

func createTestAccount(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	partition string,
	role string,
	hourlyRate float64,
) uuid.UUID {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Partition:    partition,
		Email:        fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		t.Fatalf("Create(%s): %v", role, err)
	}

	if role != models.RoleTutor {
		return user.ID
	}

	subjects := []string{"Algebra", "Geometry", "Chemistry"}
	if _, err := userRepo.Update(ctx, partition, user.ID, repository.UpdateUserInput{
		Subjects:   &subjects,
		HourlyRate: &hourlyRate,
	}); err != nil {
		t.Fatalf("Update tutor: %v", err)
	}

	availability := schedule.Availability{}
	if err := availability.Add(mustWindow(t, "Gunn Library", "Monday", 540, 900)); err != nil {
		t.Fatalf("Add availability: %v", err)
	}
	if err := userRepo.UpdateAvailability(ctx, partition, user.ID, availability); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if err := userRepo.SetProfileComplete(ctx, partition, user.ID, true); err != nil {
		t.Fatalf("SetProfileComplete: %v", err)
	}
	return user.ID
}

func createTestLocation(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	partition string,
	name string,
	supervisorUID uuid.UUID,
) *models.Location {
	t.Helper()

	hours := schedule.Availability{}
	if err := hours.Add(mustWindow(t, name, "Monday", 480, 1080)); err != nil {
		t.Fatalf("Add hours: %v", err)
	}
	location := &models.Location{
		Partition:   partition,
		Name:        name,
		Supervisors: []uuid.UUID{supervisorUID},
		Hours:       hours,
		Rounding:    models.RoundingConfig{Rounding: schedule.RoundUp, Threshold: "hour"},
	}
	if err := repository.NewLocationRepository(pool).Create(ctx, location); err != nil {
		t.Fatalf("Create location: %v", err)
	}
	return location
}
