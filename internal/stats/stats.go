package stats

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tqwind/windalert/internal/store"
)

// Command identifies a bot command for usage counting.
type Command string

const (
	CmdStart    Command = "start"
	CmdHelp     Command = "help"
	CmdWeather  Command = "weather"
	CmdForecast Command = "forecast"
	CmdWind     Command = "wind"
	CmdLanguage Command = "language"
)

// SnapshotSink is where flushed snapshots go.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, snap store.StatsSnapshot) error
}

// Counters tallies usage between snapshot flushes. All increments are
// atomic; the command loop, the scheduler and the dispatcher share one
// instance.
type Counters struct {
	messages  atomic.Int64
	start     atomic.Int64
	help      atomic.Int64
	weather   atomic.Int64
	forecast  atomic.Int64
	wind      atomic.Int64
	language  atomic.Int64
	checks    atomic.Int64
	alerts    atomic.Int64
	usersMu   sync.Mutex
	userIDs   map[int64]struct{}
}

func New() *Counters {
	return &Counters{userIDs: make(map[int64]struct{})}
}

func (c *Counters) IncMessage() { c.messages.Inc() }

func (c *Counters) IncCommand(cmd Command) {
	switch cmd {
	case CmdStart:
		c.start.Inc()
	case CmdHelp:
		c.help.Inc()
	case CmdWeather:
		c.weather.Inc()
	case CmdForecast:
		c.forecast.Inc()
	case CmdWind:
		c.wind.Inc()
	case CmdLanguage:
		c.language.Inc()
	}
}

func (c *Counters) IncScheduledCheck() { c.checks.Inc() }

func (c *Counters) IncAlertSent() { c.alerts.Inc() }

// MarkUser records a distinct active user for the current period.
func (c *Counters) MarkUser(userID int64) {
	c.usersMu.Lock()
	c.userIDs[userID] = struct{}{}
	c.usersMu.Unlock()
}

// Flush snapshots the live counters into an immutable row and resets them.
// On persistence failure the drained counts are added back so they survive
// until the next flush.
func (c *Counters) Flush(ctx context.Context, sink SnapshotSink, at time.Time) error {
	snap := store.StatsSnapshot{
		Timestamp:         at,
		MessagesProcessed: c.messages.Swap(0),
		StartCommands:     c.start.Swap(0),
		HelpCommands:      c.help.Swap(0),
		WeatherCommands:   c.weather.Swap(0),
		ForecastCommands:  c.forecast.Swap(0),
		WindCommands:      c.wind.Swap(0),
		LanguageCommands:  c.language.Swap(0),
		ScheduledChecks:   c.checks.Swap(0),
		AlertsSent:        c.alerts.Swap(0),
	}

	c.usersMu.Lock()
	drainedUsers := c.userIDs
	snap.ActiveUsers = int64(len(drainedUsers))
	c.userIDs = make(map[int64]struct{})
	c.usersMu.Unlock()

	if err := sink.SaveSnapshot(ctx, snap); err != nil {
		c.messages.Add(snap.MessagesProcessed)
		c.start.Add(snap.StartCommands)
		c.help.Add(snap.HelpCommands)
		c.weather.Add(snap.WeatherCommands)
		c.forecast.Add(snap.ForecastCommands)
		c.wind.Add(snap.WindCommands)
		c.language.Add(snap.LanguageCommands)
		c.checks.Add(snap.ScheduledChecks)
		c.alerts.Add(snap.AlertsSent)

		// Merge rather than overwrite: users marked during the failed save
		// must survive alongside the drained set.
		c.usersMu.Lock()
		for id := range drainedUsers {
			c.userIDs[id] = struct{}{}
		}
		c.usersMu.Unlock()
		return err
	}
	return nil
}
