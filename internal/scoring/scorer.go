package scoring

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
)

const (
	weightRating     = 0.4
	weightCompletion = 0.3
	weightRecency    = 0.2
	weightDealSize   = 0.1

	// neutralRating stands in for freelancers with no reviews yet so they
	// are neither favored nor buried.
	neutralRating = 2.5
	maxRating     = 5.0

	tierOneRating     = 4.5
	tierOneCompletion = 0.9
	tierTwoRating     = 3.5
	tierTwoCompletion = 0.75
)

// Scorer ranks a freelancer against a target. It is deterministic: the same
// inputs always yield the same score and bucket.
type Scorer struct {
	// RecencyLookback caps how far back the inverse-recency term looks.
	// Freelancers idle for the full window (or never assigned) get the
	// maximum recency credit.
	RecencyLookback time.Duration
	Now             func() time.Time
}

// NewScorer builds a scorer with the provided lookback window.
func NewScorer(recencyLookback time.Duration) *Scorer {
	return &Scorer{
		RecencyLookback: recencyLookback,
		Now:             time.Now,
	}
}

// Result is one scored candidate.
type Result struct {
	Score  float64
	Bucket int
}

// Score computes the weighted composite for one freelancer:
// rating (neutral when unrated), completion rate, inverse recency since the
// last assignment, and how close the target's value sits to the freelancer's
// average assigned value. All terms normalize to [0, 1] before weighting.
func (s *Scorer) Score(projectValue decimal.Decimal, metrics models.FreelancerMetrics) Result {
	rating := neutralRating
	if metrics.Rating != nil {
		rating = clamp(*metrics.Rating, 0, maxRating)
	}
	ratingTerm := rating / maxRating

	completion := clamp(metrics.CompletionRate, 0, 1)

	recencyTerm := s.recencyTerm(metrics.LastAssignedAt)
	dealTerm := dealSizeTerm(projectValue, metrics.AvgAssignedValue)

	score := weightRating*ratingTerm +
		weightCompletion*completion +
		weightRecency*recencyTerm +
		weightDealSize*dealTerm

	return Result{
		Score:  score,
		Bucket: bucketFor(metrics.Rating, completion),
	}
}

// recencyTerm rewards freelancers who have waited longest since their last
// assignment. No prior assignment counts as a full wait.
func (s *Scorer) recencyTerm(lastAssignedAt *time.Time) float64 {
	if lastAssignedAt == nil {
		return 1
	}
	lookback := s.RecencyLookback
	if lookback <= 0 {
		return 1
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	idle := now().Sub(*lastAssignedAt)
	if idle <= 0 {
		return 0
	}
	if idle >= lookback {
		return 1
	}
	return idle.Seconds() / lookback.Seconds()
}

// dealSizeTerm measures proximity between the target's value and the
// freelancer's historical average: 1 at parity, decaying toward 0 as the two
// diverge. Freelancers without history get a neutral half credit.
func dealSizeTerm(projectValue, avgAssignedValue decimal.Decimal) float64 {
	if avgAssignedValue.IsZero() {
		return 0.5
	}
	project, _ := projectValue.Float64()
	avg, _ := avgAssignedValue.Float64()
	if avg <= 0 {
		return 0.5
	}
	larger := math.Max(project, avg)
	if larger <= 0 {
		return 1
	}
	return 1 - math.Abs(project-avg)/larger
}

// bucketFor assigns the priority tier from rating and completion rate.
// Unrated freelancers cannot reach the top tiers.
func bucketFor(rating *float64, completion float64) int {
	if rating == nil {
		return 3
	}
	switch {
	case *rating >= tierOneRating && completion >= tierOneCompletion:
		return 1
	case *rating >= tierTwoRating && completion >= tierTwoCompletion:
		return 2
	default:
		return 3
	}
}

func clamp(value, lower, upper float64) float64 {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
