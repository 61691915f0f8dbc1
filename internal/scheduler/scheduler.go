package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/tqwind/windalert/internal/alert"
	"github.com/tqwind/windalert/internal/config"
	"github.com/tqwind/windalert/internal/metrics"
	"github.com/tqwind/windalert/internal/notify"
	"github.com/tqwind/windalert/internal/stats"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/weather"
)

// Options bundles the collaborators of the periodic worker.
type Options struct {
	Source     weather.Source
	Readings   *store.ReadingRepository
	State      store.AlertStateRepository
	Dispatcher *alert.Dispatcher
	AlertCfg   alert.Config
	Counters   *stats.Counters
	StatsSink  stats.SnapshotSink
	Metrics    metrics.Provider
	Notifier   notify.Notifier
	ChatIDs    []int64
	Spot       weather.Spot

	CheckInterval time.Duration
	ForecastTime  config.TimeOfDay
	Timezone      *time.Location
}

// Scheduler drives the fetch-evaluate-dispatch pipeline on a fixed interval
// plus the daily forecast and the daily stats flush.
type Scheduler struct {
	opts      Options
	scheduler *gocron.Scheduler
	log       *zap.Logger

	// tickTimeout bounds one whole pipeline run so a slow fetch or send
	// cannot delay unrelated ticks indefinitely.
	tickTimeout time.Duration
}

func New(opts Options, log *zap.Logger) *Scheduler {
	return &Scheduler{
		opts:        opts,
		scheduler:   gocron.NewScheduler(opts.Timezone),
		log:         log.Named("scheduler"),
		tickTimeout: 2 * time.Minute,
	}
}

// Start registers the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	// SingletonMode: if a tick is still running when the next fires, the
	// next is skipped. Two concurrent evaluations for the same scope would
	// race on the alert state.
	_, err := s.scheduler.Every(s.opts.CheckInterval).
		SingletonMode().
		Do(s.runCheck)
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(1).Day().
		At(s.opts.ForecastTime.String()).
		Do(s.runDailyForecast)
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(1).Day().
		At("00:00").
		Do(s.runStatsFlush)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runCheck is one tick: fetch, store, evaluate, dispatch. Every failure is
// contained within the tick; the next tick is the retry policy.
func (s *Scheduler) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
	defer cancel()

	s.opts.Metrics.IncTick()

	reading, err := s.opts.Source.Current(ctx)
	if err != nil {
		if errors.Is(err, weather.ErrUnavailable) {
			// Expected, transient. Prior alert state stays untouched.
			s.log.Warn("weather unavailable this tick", zap.Error(err))
		} else {
			s.log.Error("weather fetch failed", zap.Error(err))
		}
		s.opts.Metrics.IncFetchFailure()
		return
	}

	// A check only counts once it produced a reading; failed fetches must
	// leave the usage stats untouched.
	s.opts.Counters.IncScheduledCheck()
	s.opts.Metrics.SetLastWindKnots(reading.WindKnots())

	if err := s.opts.Readings.Save(ctx, reading); err != nil {
		// Evaluation still proceeds on the in-hand reading.
		s.log.Warn("saving reading failed", zap.Error(err))
	}

	lastAlert, err := s.opts.State.Get(ctx, alert.DefaultScope)
	if err != nil {
		// Without the last-alert state the cooldown cannot be enforced;
		// skip rather than risk a spam loop until the state store recovers.
		s.log.Error("reading alert state failed; skipping evaluation", zap.Error(err))
		return
	}

	decision := alert.Evaluate(reading, lastAlert, s.opts.AlertCfg, time.Now())
	if !decision.Fire {
		s.log.Debug("no alert", zap.String("reason", decision.Reason),
			zap.Float64("wind_knots", reading.WindKnots()))
		return
	}

	s.log.Info("alert condition met", zap.String("reason", decision.Reason))
	s.opts.Dispatcher.Dispatch(ctx, reading, decision, lastAlert)
}

// runDailyForecast sends the morning forecast to every subscribed chat.
func (s *Scheduler) runDailyForecast() {
	ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
	defer cancel()

	reading, err := s.opts.Source.Current(ctx)
	if err != nil {
		s.log.Warn("daily forecast skipped: weather unavailable", zap.Error(err))
		s.opts.Metrics.IncFetchFailure()
		return
	}

	message := notify.FormatForecast(reading, s.opts.Spot, notify.LangEN)

	var wg sync.WaitGroup
	for _, chatID := range s.opts.ChatIDs {
		chatID := chatID
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.opts.Notifier.Send(ctx, chatID, message); err != nil {
				s.log.Error("daily forecast send failed", zap.Int64("chat_id", chatID), zap.Error(err))
				s.opts.Metrics.IncSendFailure()
			}
		}()
	}
	wg.Wait()
}

// runStatsFlush snapshots the usage counters into an immutable row.
func (s *Scheduler) runStatsFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.opts.Counters.Flush(ctx, s.opts.StatsSink, time.Now().UTC()); err != nil {
		s.log.Warn("stats flush failed; counters retained", zap.Error(err))
	}
}
