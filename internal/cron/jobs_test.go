package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/internal/freelancers"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

type fakeExpirer struct {
	expired int
	err     error
	calls   int
}

func (f *fakeExpirer) ExpireDue(context.Context) (int, error) {
	f.calls++
	return f.expired, f.err
}

func TestExpirySweepJobDelegatesToEngine(t *testing.T) {
	engine := &fakeExpirer{expired: 3}
	job, err := NewExpirySweepJob(ExpirySweepJobParams{Logger: testLogger(), Engine: engine})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "expiry-sweep" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("expected one engine call, got %d", engine.calls)
	}

	engine.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected sweep error to propagate")
	}
}

type fakeWakeReader struct {
	due []models.DispatchWake
}

func (f *fakeWakeReader) DueWakes(context.Context, time.Time, int) ([]models.DispatchWake, error) {
	return f.due, nil
}

type fakeWakeRunner struct {
	failFor uuid.UUID
	ran     []uuid.UUID
}

func (f *fakeWakeRunner) RunWake(ctx context.Context, wake models.DispatchWake) error {
	if wake.ID == f.failFor {
		return errors.New("wake failed")
	}
	f.ran = append(f.ran, wake.ID)
	return nil
}

func TestDispatchWakeJobContinuesPastFailures(t *testing.T) {
	broken := models.DispatchWake{ID: uuid.New()}
	healthy := models.DispatchWake{ID: uuid.New()}
	runner := &fakeWakeRunner{failFor: broken.ID}
	job, err := NewDispatchWakeJob(DispatchWakeJobParams{
		Logger: testLogger(),
		Wakes:  &fakeWakeReader{due: []models.DispatchWake{broken, healthy}},
		Engine: runner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(runner.ran) != 1 || runner.ran[0] != healthy.ID {
		t.Fatalf("expected only the healthy wake to resume, got %v", runner.ran)
	}
}

type fakeAggregates struct {
	ids   []uuid.UUID
	stats map[uuid.UUID]freelancers.EntryStats
}

func (f *fakeAggregates) ResolvedFreelancerIDsSince(context.Context, time.Time) ([]uuid.UUID, error) {
	return f.ids, nil
}

func (f *fakeAggregates) EntryStats(ctx context.Context, freelancerID uuid.UUID) (freelancers.EntryStats, error) {
	return f.stats[freelancerID], nil
}

type nopFreelancerRepo struct{}

func (nopFreelancerRepo) WithTx(*gorm.DB) freelancers.Repository { return nopFreelancerRepo{} }
func (nopFreelancerRepo) FindMetrics(context.Context, uuid.UUID) (*models.FreelancerMetrics, error) {
	return nil, gorm.ErrRecordNotFound
}
func (nopFreelancerRepo) FindMetricsBatch(context.Context, []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error) {
	return nil, nil
}
func (nopFreelancerRepo) UpsertMetrics(context.Context, *models.FreelancerMetrics) error { return nil }
func (nopFreelancerRepo) BumpAssigned(context.Context, uuid.UUID) error                  { return nil }
func (nopFreelancerRepo) FindPreference(context.Context, uuid.UUID) (*models.FreelancerPreference, error) {
	return nil, gorm.ErrRecordNotFound
}
func (nopFreelancerRepo) FindPreferenceBatch(context.Context, []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error) {
	return nil, nil
}
func (nopFreelancerRepo) UpsertPreference(context.Context, *models.FreelancerPreference) error {
	return nil
}

type fakeRecomputer struct {
	recomputed []uuid.UUID
	seen       []freelancers.EntryStats
}

func (f *fakeRecomputer) Recompute(ctx context.Context, repo freelancers.Repository, stats freelancers.EntryStats, freelancerID uuid.UUID) error {
	f.recomputed = append(f.recomputed, freelancerID)
	f.seen = append(f.seen, stats)
	return nil
}

func TestMetricsRecomputeJobCoversResolvedFreelancers(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	recomputer := &fakeRecomputer{}
	job, err := NewMetricsRecomputeJob(MetricsRecomputeJobParams{
		Logger: testLogger(),
		Aggregates: &fakeAggregates{
			ids: []uuid.UUID{first, second},
			stats: map[uuid.UUID]freelancers.EntryStats{
				first:  {TotalAssigned: 4, TotalCompleted: 2},
				second: {TotalAssigned: 1},
			},
		},
		Repository: nopFreelancerRepo{},
		Service:    recomputer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(recomputer.recomputed) != 2 {
		t.Fatalf("expected 2 recomputes, got %d", len(recomputer.recomputed))
	}
	if recomputer.seen[0].TotalAssigned != 4 {
		t.Fatalf("stats not forwarded, got %+v", recomputer.seen[0])
	}
}

type fakeWakeCleaner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeWakeCleaner) DeleteConsumedWakesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestWakeRetentionJobUsesConfiguredWindow(t *testing.T) {
	cleaner := &fakeWakeCleaner{deleted: 5}
	job, err := NewWakeRetentionJob(WakeRetentionJobParams{
		Logger:    testLogger(),
		Wakes:     cleaner,
		Retention: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	before := time.Now().UTC()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := before.Add(-48 * time.Hour)
	if cleaner.cutoff.Before(want.Add(-time.Minute)) || cleaner.cutoff.After(want.Add(time.Minute)) {
		t.Fatalf("cutoff %v not near %v", cleaner.cutoff, want)
	}
}

type fakeNotificationCleaner struct {
	cutoff time.Time
}

func (f *fakeNotificationCleaner) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 2, nil
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	cleaner := &fakeNotificationCleaner{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		Repository: cleaner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if cleaner.cutoff.Before(want.Add(-time.Minute)) || cleaner.cutoff.After(want.Add(time.Minute)) {
		t.Fatalf("cutoff %v not near %v", cleaner.cutoff, want)
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutboxRetentionRepo struct {
	minAttempts int
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.minAttempts = minAttemptCount
	return 7, nil
}

func TestOutboxRetentionJobForwardsMinAttempts(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      testLogger(),
		DB:          fakeTxRunner{},
		Repository:  repo,
		MinAttempts: 3,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repo.minAttempts != 3 {
		t.Fatalf("expected min attempts 3, got %d", repo.minAttempts)
	}
}
