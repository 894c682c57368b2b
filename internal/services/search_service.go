package services

import (
	"context"
	"sort"
	"strings"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type TutorLister interface {
	ListTutors(ctx context.Context, partition string) ([]models.User, error)
}

// SearchService ranks tutors for a pupil's query: subject overlap first,
// then rating, open availability, budget fit, and verification.
type SearchService struct {
	userRepo TutorLister
}

func NewSearchService(userRepo TutorLister) *SearchService {
	return &SearchService{userRepo: userRepo}
}

type SearchQuery struct {
	Subjects      []string
	Location      string
	MaxHourlyRate float64
	Limit         int
}

func (s *SearchService) MatchTutors(
	ctx context.Context,
	partition string,
	query SearchQuery,
) ([]models.TutorWithScore, error) {
	tutors, err := s.userRepo.ListTutors(ctx, partition)
	if err != nil {
		return nil, err
	}

	matched := make([]models.TutorWithScore, 0, len(tutors))
	for _, tutor := range tutors {
		if !tutor.ProfileComplete {
			continue
		}
		if query.Location != "" && !teachesAt(&tutor, query.Location) {
			continue
		}
		matched = append(matched, models.TutorWithScore{
			User:       tutor,
			MatchScore: calculateMatchScore(&tutor, query),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchScore == matched[j].MatchScore {
			return ratingValue(&matched[i].User) > ratingValue(&matched[j].User)
		}
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

func calculateMatchScore(tutor *models.User, query SearchQuery) int {
	score := 0
	taught := normalizeSubjects(tutor.Subjects)

	for _, subject := range query.Subjects {
		if _, ok := taught[normalizeSubject(subject)]; ok {
			score += 40
		}
	}

	if ratingValue(tutor) > 4.0 {
		score += 20
	}
	if openWindows := tutor.Availability.OpenWindows(); len(openWindows) > 3 {
		score += 15
	}
	if query.MaxHourlyRate > 0 && tutor.HourlyRate != nil && *tutor.HourlyRate <= query.MaxHourlyRate {
		score += 15
	}
	if tutor.Verified {
		score += 10
	}

	return score
}

func teachesAt(tutor *models.User, locationName string) bool {
	for _, window := range tutor.Availability.OpenWindows() {
		if window.Location == locationName {
			return true
		}
	}
	return false
}

func normalizeSubjects(subjects []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		if key := normalizeSubject(subject); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalizeSubject(subject string) string {
	subject = strings.TrimSpace(strings.ToLower(subject))
	subject = strings.ReplaceAll(subject, " ", "_")
	subject = strings.ReplaceAll(subject, "-", "_")
	return subject
}

func ratingValue(user *models.User) float64 {
	if user.RatingAvg == nil {
		return 0
	}
	return *user.RatingAvg
}
