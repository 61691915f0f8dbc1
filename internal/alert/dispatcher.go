package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tqwind/windalert/internal/metrics"
	"github.com/tqwind/windalert/internal/notify"
	"github.com/tqwind/windalert/internal/stats"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/weather"
)

// DefaultScope is the alert-state key of the single-spot deployment.
const DefaultScope = "default"

// AlertLog records dispatched alerts for stats and deduplication audits.
type AlertLog interface {
	Record(ctx context.Context, entry store.AlertEntry) error
}

// Dispatcher fans a fired decision out to every subscribed chat, then
// records the new alert state. The evaluator never persists anything; the
// dispatcher is the single writer for AlertState and the alert log.
type Dispatcher struct {
	notifier    notify.Notifier
	chatIDs     []int64
	state       store.AlertStateRepository
	alertLog    AlertLog
	counters    *stats.Counters
	metrics     metrics.Provider
	spot        weather.Spot
	lang        notify.Language
	sendTimeout time.Duration
	log         *zap.Logger
}

func NewDispatcher(
	notifier notify.Notifier,
	chatIDs []int64,
	state store.AlertStateRepository,
	alertLog AlertLog,
	counters *stats.Counters,
	m metrics.Provider,
	spot weather.Spot,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		chatIDs:     chatIDs,
		state:       state,
		alertLog:    alertLog,
		counters:    counters,
		metrics:     m,
		spot:        spot,
		lang:        notify.LangEN,
		sendTimeout: 30 * time.Second,
		log:         log,
	}
}

// Dispatch sends the alert to all subscribed chats and, if at least one
// send succeeded, persists the new alert state. State is written after the
// send on purpose: a delivery failure must not record a "sent" state. The
// reverse failure (send succeeded, persistence failed) can duplicate one
// alert on the next tick, bounded by the cooldown once persistence
// recovers.
func (d *Dispatcher) Dispatch(ctx context.Context, reading weather.Reading, decision Decision, prev *store.AlertState) {
	if !decision.Fire {
		return
	}
	if len(d.chatIDs) == 0 {
		d.log.Warn("alert fired but no chats are subscribed", zap.String("reason", decision.Reason))
		return
	}

	message := notify.FormatAlert(reading, d.spot, d.lang)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	for _, chatID := range d.chatIDs {
		chatID := chatID
		wg.Add(1)
		go func() {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			if err := d.notifier.Send(sendCtx, chatID, message); err != nil {
				// One unreachable recipient must not block the rest.
				d.log.Error("alert send failed", zap.Int64("chat_id", chatID), zap.Error(err))
				d.metrics.IncSendFailure()
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succeeded == 0 {
		d.log.Error("alert not delivered to any chat; alert state left untouched",
			zap.Int("failed", failed))
		return
	}

	ok, err := d.state.CompareAndSet(ctx, DefaultScope, prev, decision.NextState)
	if err != nil {
		// Accepted risk: the alert went out but the cooldown state did not
		// stick, so the next tick may duplicate it.
		d.log.Warn("alert sent but state write failed; next tick may duplicate",
			zap.Error(err))
	} else if !ok {
		d.log.Info("alert state already advanced by a concurrent writer")
	}

	entry := store.AlertEntry{
		SentAt:     decision.NextState.SentAt,
		WindKnots:  decision.NextState.WindKnots,
		GustKnots:  reading.GustKnots(),
		Recipients: succeeded,
		Failed:     failed,
	}
	if err := d.alertLog.Record(ctx, entry); err != nil {
		d.log.Warn("recording alert entry failed", zap.Error(err))
	}

	d.counters.IncAlertSent()
	d.metrics.IncAlertSent()

	d.log.Info("wind alert dispatched",
		zap.Float64("wind_knots", decision.NextState.WindKnots),
		zap.Int("recipients", succeeded),
		zap.Int("failed", failed))
}
