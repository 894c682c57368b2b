package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

type stubTutorLister struct {
	tutors []models.User
}

func (s *stubTutorLister) ListTutors(_ context.Context, _ string) ([]models.User, error) {
	return s.tutors, nil
}

func TestMatchTutorsSortsByScoreThenRating(t *testing.T) {
	algebra := buildTutor(t, []string{"Algebra", "Geometry"}, 4.8, 25, true)
	chemistry := buildTutor(t, []string{"Chemistry"}, 4.9, 30, false)
	history := buildTutor(t, []string{"History"}, 5.0, 20, false)
	service := NewSearchService(&stubTutorLister{
		tutors: []models.User{algebra, chemistry, history},
	})

	matched, err := service.MatchTutors(context.Background(), "default", SearchQuery{
		Subjects:      []string{"algebra", "chemistry"},
		MaxHourlyRate: 28,
		Limit:         3,
	})
	if err != nil {
		t.Fatalf("MatchTutors: %v", err)
	}

	if got := len(matched); got != 3 {
		t.Fatalf("expected 3 tutors, got %d", got)
	}
	// Subject + rating + budget + verified.
	if matched[0].ID != algebra.ID || matched[0].MatchScore != 85 {
		t.Fatalf("expected algebra tutor with score 85 first, got %s with score %d", matched[0].ID, matched[0].MatchScore)
	}
	// Subject + rating, over budget.
	if matched[1].ID != chemistry.ID || matched[1].MatchScore != 60 {
		t.Fatalf("expected chemistry tutor with score 60 second, got %s with score %d", matched[1].ID, matched[1].MatchScore)
	}
	// Rating + budget only.
	if matched[2].ID != history.ID || matched[2].MatchScore != 35 {
		t.Fatalf("expected history tutor with score 35 third, got %s with score %d", matched[2].ID, matched[2].MatchScore)
	}
}

func TestMatchTutorsAppliesLimit(t *testing.T) {
	math := buildTutor(t, []string{"Algebra"}, 4.5, 40, false)
	reading := buildTutor(t, []string{"Reading"}, 4.9, 40, false)
	service := NewSearchService(&stubTutorLister{
		tutors: []models.User{math, reading},
	})

	matched, err := service.MatchTutors(context.Background(), "default", SearchQuery{
		Subjects: []string{"algebra"},
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("MatchTutors: %v", err)
	}
	if got := len(matched); got != 1 {
		t.Fatalf("expected 1 tutor, got %d", got)
	}
	if matched[0].ID != math.ID {
		t.Fatalf("expected the algebra tutor first, got %s", matched[0].ID)
	}
}

func TestMatchTutorsFiltersByLocation(t *testing.T) {
	here := buildTutor(t, []string{"Algebra"}, 4.5, 40, false)
	elsewhere := buildTutor(t, []string{"Algebra"}, 4.5, 40, false)
	elsewhere.Availability = schedule.Availability{}
	if err := elsewhere.Availability.Add(mustWindow(t, "Paly Library", "Monday", 600, 720)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	service := NewSearchService(&stubTutorLister{
		tutors: []models.User{here, elsewhere},
	})

	matched, err := service.MatchTutors(context.Background(), "default", SearchQuery{
		Location: "Gunn Library",
	})
	if err != nil {
		t.Fatalf("MatchTutors: %v", err)
	}
	if got := len(matched); got != 1 {
		t.Fatalf("expected 1 tutor, got %d", got)
	}
	if matched[0].ID != here.ID {
		t.Fatalf("expected the Gunn Library tutor, got %s", matched[0].ID)
	}
}

func TestMatchTutorsSkipsIncompleteProfiles(t *testing.T) {
	complete := buildTutor(t, []string{"Algebra"}, 4.5, 40, false)
	incomplete := buildTutor(t, []string{"Algebra"}, 4.5, 40, false)
	incomplete.ProfileComplete = false
	service := NewSearchService(&stubTutorLister{
		tutors: []models.User{complete, incomplete},
	})

	matched, err := service.MatchTutors(context.Background(), "default", SearchQuery{})
	if err != nil {
		t.Fatalf("MatchTutors: %v", err)
	}
	if got := len(matched); got != 1 {
		t.Fatalf("expected 1 tutor, got %d", got)
	}
}

func TestMatchTutorsNormalizesSubjectSpelling(t *testing.T) {
	tutor := buildTutor(t, []string{"Computer Science"}, 0, 100, false)
	service := NewSearchService(&stubTutorLister{tutors: []models.User{tutor}})

	matched, err := service.MatchTutors(context.Background(), "default", SearchQuery{
		Subjects: []string{"computer-science"},
	})
	if err != nil {
		t.Fatalf("MatchTutors: %v", err)
	}
	if got := matched[0].MatchScore; got != 40 {
		t.Fatalf("expected normalized subject match score 40, got %d", got)
	}
}

func buildTutor(t *testing.T, subjects []string, rating float64, rate float64, verified bool) models.User {
	t.Helper()
	availability := schedule.Availability{}
	if err := availability.Add(mustWindow(t, "Gunn Library", "Monday", 600, 720)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return models.User{
		ID:              uuid.New(),
		Role:            models.RoleTutor,
		Subjects:        subjects,
		RatingAvg:       &rating,
		HourlyRate:      &rate,
		Availability:    availability,
		Verified:        verified,
		ProfileComplete: true,
	}
}

func mustWindow(t *testing.T, location, day string, open, close schedule.Minutes) schedule.Window {
	t.Helper()
	window, err := schedule.NewWindow(location, day, open, close)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	return window
}
