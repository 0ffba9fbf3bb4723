package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"referral-bot/internal/metrics"
	"referral-bot/internal/store"
)

type StatsSource interface {
	Stats(ctx context.Context) (store.Stats, error)
}

// LeaderboardWarmer refreshes the cached leaderboard.
type LeaderboardWarmer interface {
	Leaderboard(ctx context.Context) ([]store.Entry, error)
}

// StatsWorker periodically publishes population stats as metrics and
// warms the leaderboard cache.
type StatsWorker struct {
	Store    StatsSource
	Warmer   LeaderboardWarmer // optional
	Log      logrus.FieldLogger
	Interval time.Duration
	Timeout  time.Duration
}

func NewStatsWorker(s StatsSource, warmer LeaderboardWarmer, log logrus.FieldLogger, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		Store:    s,
		Warmer:   warmer,
		Log:      log,
		Interval: interval,
		Timeout:  30 * time.Second,
	}
}

// Start schedules the job, running it once immediately, and blocks until
// ctx is cancelled.
func (w *StatsWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() { w.RunOnce(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule stats job: %w", err)
	}

	sched.Start()
	w.Log.WithField("interval", w.Interval.String()).Info("Background stats worker started")

	<-ctx.Done()
	return sched.Shutdown()
}

// RunOnce performs a single stats cycle. Failures are logged; the next
// cycle tries again.
func (w *StatsWorker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	st, err := w.Store.Stats(ctx)
	if err != nil {
		w.Log.WithError(err).Error("Error querying stats")
		return
	}
	metrics.SetPopulation(st.Users, st.Referrals, st.TopScore)
	w.Log.WithFields(logrus.Fields{
		"users":     st.Users,
		"referrals": st.Referrals,
		"top_score": st.TopScore,
	}).Debug("Stats cycle done")

	if w.Warmer != nil {
		if _, err := w.Warmer.Leaderboard(ctx); err != nil {
			w.Log.WithError(err).Warn("Failed to warm leaderboard cache")
		}
	}
}
