package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/talentmatch-backend/internal/scoring"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// Candidate is one ranked freelancer. DeferUntil is set when the freelancer
// is selectable but must not be notified before that instant (quiet hours or
// snooze).
type Candidate struct {
	FreelancerID uuid.UUID
	Score        float64
	Bucket       int
	DeferUntil   *time.Time
	DeferReason  string
}

// PoolReader supplies the eligible freelancer feed for a target.
type PoolReader interface {
	EligiblePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error)
}

// ProfileReader supplies metrics and preferences in batch.
type ProfileReader interface {
	GetMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error)
	GetPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error)
}

// DailyCounter counts queue entries created for a freelancer since an instant.
type DailyCounter interface {
	CountCreatedSince(ctx context.Context, freelancerID uuid.UUID, since time.Time) (int64, error)
}

// Selector ranks eligible freelancers for a target.
type Selector struct {
	pool     PoolReader
	profiles ProfileReader
	counter  DailyCounter
	scorer   *scoring.Scorer
	now      func() time.Time
}

// NewSelector builds a selector.
func NewSelector(pool PoolReader, profiles ProfileReader, counter DailyCounter, scorer *scoring.Scorer) *Selector {
	return &Selector{
		pool:     pool,
		profiles: profiles,
		counter:  counter,
		scorer:   scorer,
		now:      time.Now,
	}
}

// SelectInput scopes one selection round.
type SelectInput struct {
	TargetType   enums.TargetType
	TargetID     uuid.UUID
	ProjectValue decimal.Decimal
	// Exclude removes freelancers already offered this target.
	Exclude map[uuid.UUID]struct{}
}

// Select returns candidates ordered by priority bucket, then score, then
// freelancer id as the stable tiebreak. Unavailable, capped, and excluded
// freelancers are filtered out entirely; quiet-hour and snoozed freelancers
// stay in ranking but carry a deferral hint.
func (s *Selector) Select(ctx context.Context, input SelectInput) ([]Candidate, error) {
	ids, err := s.pool.EligiblePool(ctx, input.TargetType, input.TargetID)
	if err != nil {
		return nil, fmt.Errorf("load eligible pool: %w", err)
	}

	filtered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, excluded := input.Exclude[id]; excluded {
			continue
		}
		filtered = append(filtered, id)
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	metricsByID, err := s.profiles.GetMetricsBatch(ctx, filtered)
	if err != nil {
		return nil, err
	}
	prefsByID, err := s.profiles.GetPreferenceBatch(ctx, filtered)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	candidates := make([]Candidate, 0, len(filtered))
	for _, id := range filtered {
		pref, ok := prefsByID[id]
		if !ok {
			pref = models.FreelancerPreference{
				FreelancerID:       id,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				Timezone:           "UTC",
			}
		}
		if pref.AvailabilityStatus == enums.AvailabilityStatusUnavailable {
			continue
		}
		capped, err := s.overDailyCap(ctx, id, pref, now)
		if err != nil {
			return nil, err
		}
		if capped {
			continue
		}

		metrics := metricsByID[id]
		metrics.FreelancerID = id
		result := s.scorer.Score(input.ProjectValue, metrics)
		candidate := Candidate{
			FreelancerID: id,
			Score:        result.Score,
			Bucket:       result.Bucket,
		}
		if deferUntil, reason := deferralFor(pref, now); deferUntil != nil {
			candidate.DeferUntil = deferUntil
			candidate.DeferReason = reason
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Bucket != candidates[j].Bucket {
			return candidates[i].Bucket < candidates[j].Bucket
		}
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].FreelancerID.String() < candidates[j].FreelancerID.String()
	})
	return candidates, nil
}

func (s *Selector) overDailyCap(ctx context.Context, freelancerID uuid.UUID, pref models.FreelancerPreference, now time.Time) (bool, error) {
	if pref.DailyMatchLimit == nil {
		return false, nil
	}
	limit := *pref.DailyMatchLimit
	if limit <= 0 {
		return true, nil
	}
	dayStart := startOfDayIn(now, pref.Timezone)
	count, err := s.counter.CountCreatedSince(ctx, freelancerID, dayStart)
	if err != nil {
		return false, fmt.Errorf("count daily matches: %w", err)
	}
	return count >= int64(limit), nil
}

// deferralFor returns the earliest instant the freelancer may be notified,
// or nil when notification can go out immediately. Snooze wins over quiet
// hours when both apply and snooze ends later.
func deferralFor(pref models.FreelancerPreference, now time.Time) (*time.Time, string) {
	var until *time.Time
	reason := ""
	if pref.SnoozedUntil != nil && pref.SnoozedUntil.After(now) {
		until = pref.SnoozedUntil
		reason = "snoozed"
	}
	if quietEnd := quietHoursEnd(pref, now); quietEnd != nil {
		if until == nil || quietEnd.After(*until) {
			until = quietEnd
			reason = "quiet_hours"
		}
	}
	return until, reason
}

// quietHoursEnd reports when the freelancer's current quiet window closes, or
// nil when now falls outside the window. Windows may wrap midnight.
func quietHoursEnd(pref models.FreelancerPreference, now time.Time) *time.Time {
	if pref.QuietHoursStart == nil || pref.QuietHoursEnd == nil {
		return nil
	}
	loc, err := time.LoadLocation(pref.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start, ok := atClock(local, *pref.QuietHoursStart)
	if !ok {
		return nil
	}
	end, ok := atClock(local, *pref.QuietHoursEnd)
	if !ok {
		return nil
	}

	if end.After(start) {
		// Same-day window, e.g. 13:00-15:00.
		if local.Before(start) || !local.Before(end) {
			return nil
		}
		endUTC := end.UTC()
		return &endUTC
	}
	// Wrapping window, e.g. 22:00-07:00.
	if !local.Before(start) {
		endNext := end.Add(24 * time.Hour).UTC()
		return &endNext
	}
	if local.Before(end) {
		endUTC := end.UTC()
		return &endUTC
	}
	return nil
}

// atClock pins an HH:MM string onto the reference date in its location.
func atClock(reference time.Time, clock string) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(reference.Year(), reference.Month(), reference.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, reference.Location()), true
}

func startOfDayIn(now time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}
