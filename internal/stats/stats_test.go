package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwind/windalert/internal/store"
)

type sinkFunc func(ctx context.Context, snap store.StatsSnapshot) error

func (f sinkFunc) SaveSnapshot(ctx context.Context, snap store.StatsSnapshot) error {
	return f(ctx, snap)
}

func TestFlushResetsCounters(t *testing.T) {
	c := New()

	c.IncMessage()
	c.IncMessage()
	c.IncCommand(CmdWeather)
	c.IncCommand(CmdWind)
	c.IncCommand(CmdWind)
	c.IncScheduledCheck()
	c.IncAlertSent()
	c.MarkUser(100)
	c.MarkUser(100)
	c.MarkUser(200)

	var saved store.StatsSnapshot
	sink := sinkFunc(func(_ context.Context, snap store.StatsSnapshot) error {
		saved = snap
		return nil
	})

	at := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Flush(context.Background(), sink, at))

	assert.Equal(t, at, saved.Timestamp)
	assert.Equal(t, int64(2), saved.MessagesProcessed)
	assert.Equal(t, int64(1), saved.WeatherCommands)
	assert.Equal(t, int64(2), saved.WindCommands)
	assert.Equal(t, int64(1), saved.ScheduledChecks)
	assert.Equal(t, int64(1), saved.AlertsSent)
	assert.Equal(t, int64(2), saved.ActiveUsers, "duplicate user IDs count once")

	// A second flush starts from zero.
	require.NoError(t, c.Flush(context.Background(), sink, at.Add(24*time.Hour)))
	assert.Equal(t, int64(0), saved.MessagesProcessed)
	assert.Equal(t, int64(0), saved.WindCommands)
	assert.Equal(t, int64(0), saved.ActiveUsers)
}

func TestFlushRestoresCountsOnSaveFailure(t *testing.T) {
	c := New()

	c.IncMessage()
	c.IncCommand(CmdForecast)
	c.IncAlertSent()
	c.MarkUser(100)
	c.MarkUser(200)

	failing := sinkFunc(func(context.Context, store.StatsSnapshot) error {
		return errors.New("disk full")
	})
	err := c.Flush(context.Background(), failing, time.Now())
	require.Error(t, err)

	// A user seen between the failed flush and the retry still counts once.
	c.MarkUser(200)
	c.MarkUser(300)

	// The counts must survive into the next, successful flush.
	var saved store.StatsSnapshot
	ok := sinkFunc(func(_ context.Context, snap store.StatsSnapshot) error {
		saved = snap
		return nil
	})
	require.NoError(t, c.Flush(context.Background(), ok, time.Now()))
	assert.Equal(t, int64(1), saved.MessagesProcessed)
	assert.Equal(t, int64(1), saved.ForecastCommands)
	assert.Equal(t, int64(1), saved.AlertsSent)
	assert.Equal(t, int64(3), saved.ActiveUsers, "distinct users survive a failed flush")
}

func TestIncCommandCoversAllCommands(t *testing.T) {
	c := New()
	for _, cmd := range []Command{CmdStart, CmdHelp, CmdWeather, CmdForecast, CmdWind, CmdLanguage} {
		c.IncCommand(cmd)
	}

	var saved store.StatsSnapshot
	sink := sinkFunc(func(_ context.Context, snap store.StatsSnapshot) error {
		saved = snap
		return nil
	})
	require.NoError(t, c.Flush(context.Background(), sink, time.Now()))

	assert.Equal(t, int64(1), saved.StartCommands)
	assert.Equal(t, int64(1), saved.HelpCommands)
	assert.Equal(t, int64(1), saved.WeatherCommands)
	assert.Equal(t, int64(1), saved.ForecastCommands)
	assert.Equal(t, int64(1), saved.WindCommands)
	assert.Equal(t, int64(1), saved.LanguageCommands)
}
