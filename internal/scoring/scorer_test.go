package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
)

func fixedScorer(now time.Time) *Scorer {
	scorer := NewScorer(14 * 24 * time.Hour)
	scorer.Now = func() time.Time { return now }
	return scorer
}

func floatPtr(v float64) *float64 { return &v }

func TestScore_UnratedFreelancerGetsNeutralRating(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)

	result := scorer.Score(decimal.NewFromInt(500), models.FreelancerMetrics{
		FreelancerID:   uuid.New(),
		CompletionRate: 0.5,
	})

	// 0.4*(2.5/5) + 0.3*0.5 + 0.2*1 (never assigned) + 0.1*0.5 (no history)
	assert.InDelta(t, 0.60, result.Score, 1e-9)
	assert.Equal(t, 3, result.Bucket)
}

func TestScore_TopPerformerLandsInBucketOne(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)
	lastAssigned := now.Add(-7 * 24 * time.Hour)

	result := scorer.Score(decimal.NewFromInt(1000), models.FreelancerMetrics{
		FreelancerID:     uuid.New(),
		Rating:           floatPtr(4.8),
		CompletionRate:   0.95,
		AvgAssignedValue: decimal.NewFromInt(1000),
		LastAssignedAt:   &lastAssigned,
	})

	// 0.4*0.96 + 0.3*0.95 + 0.2*0.5 + 0.1*1
	assert.InDelta(t, 0.869, result.Score, 1e-9)
	assert.Equal(t, 1, result.Bucket)
}

func TestScore_BucketTiers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)

	cases := []struct {
		name       string
		rating     *float64
		completion float64
		bucket     int
	}{
		{"tier one boundary", floatPtr(4.5), 0.9, 1},
		{"high rating low completion", floatPtr(4.9), 0.8, 2},
		{"tier two boundary", floatPtr(3.5), 0.75, 2},
		{"below tier two", floatPtr(3.4), 0.99, 3},
		{"unrated", nil, 1.0, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := scorer.Score(decimal.NewFromInt(100), models.FreelancerMetrics{
				Rating:         tc.rating,
				CompletionRate: tc.completion,
			})
			assert.Equal(t, tc.bucket, result.Bucket)
		})
	}
}

func TestScore_RecencyCapsAtLookback(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)

	monthAgo := now.Add(-30 * 24 * time.Hour)
	fortnightAgo := now.Add(-14 * 24 * time.Hour)
	idleMonth := scorer.Score(decimal.NewFromInt(100), models.FreelancerMetrics{LastAssignedAt: &monthAgo})
	idleFortnight := scorer.Score(decimal.NewFromInt(100), models.FreelancerMetrics{LastAssignedAt: &fortnightAgo})

	assert.Equal(t, idleFortnight.Score, idleMonth.Score)

	justAssigned := now
	busy := scorer.Score(decimal.NewFromInt(100), models.FreelancerMetrics{LastAssignedAt: &justAssigned})
	assert.Less(t, busy.Score, idleMonth.Score)
}

func TestScore_DealSizeProximity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)

	exact := scorer.Score(decimal.NewFromInt(800), models.FreelancerMetrics{
		AvgAssignedValue: decimal.NewFromInt(800),
	})
	distant := scorer.Score(decimal.NewFromInt(800), models.FreelancerMetrics{
		AvgAssignedValue: decimal.NewFromInt(100),
	})
	require.Greater(t, exact.Score, distant.Score)
}

func TestScore_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scorer := fixedScorer(now)
	metrics := models.FreelancerMetrics{
		Rating:           floatPtr(4.0),
		CompletionRate:   0.8,
		AvgAssignedValue: decimal.NewFromInt(300),
	}

	first := scorer.Score(decimal.NewFromInt(250), metrics)
	second := scorer.Score(decimal.NewFromInt(250), metrics)
	assert.Equal(t, first, second)
}
