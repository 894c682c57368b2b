package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

// Sweeper runs the periodic maintenance jobs: expiring stale requests,
// filing auto clock-outs for lessons that ran long, and mailing next-day
// reminders. Jobs cross partitions; every follow-up write scopes back to the
// row's own partition.
type Sweeper struct {
	requestRepo  *repository.RequestRepository
	apptRepo     *repository.AppointmentRepository
	clockRepo    *repository.ClockRepository
	locationRepo *repository.LocationRepository
	userRepo     *repository.UserRepository
	notifier     *services.Notifier

	requestTTL time.Duration
	now        func() time.Time
}

func NewSweeper(
	requestRepo *repository.RequestRepository,
	apptRepo *repository.AppointmentRepository,
	clockRepo *repository.ClockRepository,
	locationRepo *repository.LocationRepository,
	userRepo *repository.UserRepository,
	notifier *services.Notifier,
	requestTTLHours int,
) *Sweeper {
	return &Sweeper{
		requestRepo:  requestRepo,
		apptRepo:     apptRepo,
		clockRepo:    clockRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		requestTTL:   time.Duration(requestTTLHours) * time.Hour,
		now:          time.Now,
	}
}

// Schedule registers the sweeps on the scheduler. The caller starts it.
func (s *Sweeper) Schedule(scheduler *cron.Cron, sweepSpec, reminderSpec string) error {
	if _, err := scheduler.AddFunc(sweepSpec, func() {
		ctx := context.Background()
		s.ExpireRequests(ctx)
		s.AutoClockOut(ctx)
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	if _, err := scheduler.AddFunc(reminderSpec, func() {
		s.SendReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	return nil
}

// ExpireRequests flips pending requests older than the TTL to expired and
// tells both sides.
func (s *Sweeper) ExpireRequests(ctx context.Context) {
	cutoff := s.now().Add(-s.requestTTL)
	expired, err := s.requestRepo.ExpirePendingBefore(ctx, cutoff)
	if err != nil {
		log.Printf("sweeper: expire requests: %v", err)
		return
	}

	for i := range expired {
		request := &expired[i]
		s.notifier.DocumentEvent("requests", "update", request,
			request.TutorUID.String(), request.SenderUID.String(),
			services.LocationTopic(request.Window.Location))

		parties, err := s.userRepo.ListByIDs(ctx, request.Partition, []uuid.UUID{request.SenderUID, request.TutorUID})
		if err != nil {
			log.Printf("sweeper: load request parties: %v", err)
			continue
		}
		body := fmt.Sprintf("Your %s lesson request (%s) expired before it was approved.",
			request.Subject, schedule.FormatWindowString(request.Window))
		for _, party := range parties {
			partyCopy := party
			s.notifier.EmailUsers("Lesson request expired", body, &partyCopy)
		}
	}
	if len(expired) > 0 {
		log.Printf("sweeper: expired %d pending requests", len(expired))
	}
}

// AutoClockOut files a pending clock-out on the tutor's behalf when an
// active lesson has outrun its length by more than the location's threshold.
// Supervisors still approve the entry like any other.
func (s *Sweeper) AutoClockOut(ctx context.Context) {
	now := s.now()
	active, err := s.apptRepo.ListActiveSince(ctx, now)
	if err != nil {
		log.Printf("sweeper: list active appointments: %v", err)
		return
	}

	for i := range active {
		appointment := &active[i]
		if appointment.ClockIn == nil {
			continue
		}
		location, err := s.locationRepo.GetByName(ctx, appointment.Partition, appointment.Window.Location)
		if err != nil || location.AutoClockoutMin == nil {
			continue
		}

		lessonEnd := appointment.ClockIn.Add(time.Duration(appointment.LessonMinutes) * time.Minute)
		deadline := lessonEnd.Add(time.Duration(*location.AutoClockoutMin) * time.Minute)
		if now.Before(deadline) {
			continue
		}

		pending, err := s.clockRepo.HasPending(ctx, appointment.Partition, appointment.ID, models.ClockKindOut)
		if err != nil || pending {
			continue
		}

		entry, err := s.clockRepo.Create(ctx, appointment.Partition, appointment.ID,
			appointment.TutorUID, models.ClockKindOut, lessonEnd)
		if err != nil {
			log.Printf("sweeper: auto clock-out %s: %v", appointment.ID, err)
			continue
		}
		s.notifier.DocumentEvent("clock_entries", "create", entry,
			appointment.TutorUID.String(), services.LocationTopic(appointment.Window.Location))
	}
}

// SendReminders mails both parties of every appointment falling on
// tomorrow's weekday.
func (s *Sweeper) SendReminders(ctx context.Context) {
	day := s.now().Add(24 * time.Hour).Weekday().String()
	upcoming, err := s.apptRepo.ListUpcomingOnDay(ctx, day)
	if err != nil {
		log.Printf("sweeper: list upcoming appointments: %v", err)
		return
	}

	for i := range upcoming {
		appointment := &upcoming[i]
		parties, err := s.userRepo.ListByIDs(ctx, appointment.Partition, []uuid.UUID{appointment.TutorUID, appointment.PupilUID})
		if err != nil {
			log.Printf("sweeper: load appointment parties: %v", err)
			continue
		}
		body := fmt.Sprintf("Reminder: your %s lesson is tomorrow (%s).",
			appointment.Subject, schedule.FormatWindowString(appointment.Window))
		for _, party := range parties {
			partyCopy := party
			s.notifier.EmailUsers("Lesson reminder", body, &partyCopy)
		}
	}
}
