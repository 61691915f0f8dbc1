package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tqwind/windalert/internal/metrics"
	"github.com/tqwind/windalert/internal/notify"
	"github.com/tqwind/windalert/internal/stats"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/weather"
)

const pollTimeout = 30 * time.Second

// Client is the Telegram surface the bot consumes: inbound updates plus
// outbound sends.
type Client interface {
	notify.Notifier
	Updates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]notify.Update, error)
}

// Bot runs the long-poll command loop. It only ever reads weather data and
// replies; alerting stays with the scheduler worker.
type Bot struct {
	client   Client
	source   weather.Source
	readings *store.ReadingRepository
	counters *stats.Counters
	metrics  metrics.Provider
	spot     weather.Spot
	chatIDs  []int64
	adminIDs []int64
	log      *zap.Logger

	langMu sync.Mutex
	langs  map[int64]notify.Language // per-chat preference, default English
}

func New(
	client Client,
	source weather.Source,
	readings *store.ReadingRepository,
	counters *stats.Counters,
	m metrics.Provider,
	spot weather.Spot,
	chatIDs, adminIDs []int64,
	log *zap.Logger,
) *Bot {
	return &Bot{
		client:   client,
		source:   source,
		readings: readings,
		counters: counters,
		metrics:  m,
		spot:     spot,
		chatIDs:  chatIDs,
		adminIDs: adminIDs,
		log:      log.Named("bot"),
		langs:    make(map[int64]notify.Language),
	}
}

// Run long-polls for updates until ctx is cancelled. A failed poll backs
// off briefly instead of spinning.
func (b *Bot) Run(ctx context.Context) {
	var offset int64

	for {
		if ctx.Err() != nil {
			return
		}

		pollCtx, cancel := context.WithTimeout(ctx, pollTimeout+10*time.Second)
		updates, err := b.client.Updates(pollCtx, offset, pollTimeout)
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.log.Warn("polling updates failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *notify.Message) {
	b.counters.IncMessage()
	if msg.From != nil {
		b.counters.MarkUser(msg.From.ID)
	}

	if !strings.HasPrefix(msg.Text, "/") {
		return
	}

	command, args := parseCommand(msg.Text)
	chatID := msg.Chat.ID
	lang := b.language(chatID)

	handleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var reply string
	switch command {
	case "start":
		b.count(stats.CmdStart, command)
		reply = b.startReply(chatID)
	case "help":
		b.count(stats.CmdHelp, command)
		reply = b.helpReply(msg)
	case "weather":
		b.count(stats.CmdWeather, command)
		reply = b.weatherReply(handleCtx, lang)
	case "forecast":
		b.count(stats.CmdForecast, command)
		reply = b.forecastReply(handleCtx, lang)
	case "wind":
		b.count(stats.CmdWind, command)
		reply = b.windReply(handleCtx, lang)
	case "language":
		b.count(stats.CmdLanguage, command)
		reply = b.languageReply(chatID, args)
	default:
		// Unknown commands are ignored, matching group-chat etiquette.
		return
	}

	if reply == "" {
		return
	}
	if err := b.client.Send(handleCtx, chatID, reply); err != nil {
		b.log.Error("command reply failed",
			zap.String("command", command),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (b *Bot) count(cmd stats.Command, name string) {
	b.counters.IncCommand(cmd)
	b.metrics.IncCommand(name)
}

// parseCommand splits "/weather@SomeBot arg1 arg2" into ("weather",
// ["arg1","arg2"]).
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	command := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), fields[1:]
}

func (b *Bot) language(chatID int64) notify.Language {
	b.langMu.Lock()
	defer b.langMu.Unlock()
	if lang, ok := b.langs[chatID]; ok {
		return lang
	}
	return notify.LangEN
}

func (b *Bot) setLanguage(chatID int64, lang notify.Language) {
	b.langMu.Lock()
	b.langs[chatID] = lang
	b.langMu.Unlock()
}

func (b *Bot) isSubscribedChat(chatID int64) bool {
	for _, id := range b.chatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) startReply(chatID int64) string {
	reply := "Hi! 👋 I'm your wind sports assistant.\n\n" +
		"• Current conditions 🌤️\n" +
		"• Wind speed in knots 💨\n" +
		"• Daily forecasts ⛵\n" +
		"• Wind alerts when it's worth rigging up 🏄‍♂️\n\n" +
		"Use /help to see available commands."
	if !b.isSubscribedChat(chatID) {
		reply += "\n\nNote: this chat is not subscribed to automated alerts. Commands still work."
	}
	return reply
}

func (b *Bot) helpReply(msg *notify.Message) string {
	reply := "*Available Commands:*\n\n" +
		"/weather - Current conditions\n" +
		"/forecast - Today's forecast\n" +
		"/wind - Current wind speed\n" +
		"/language en|ru - Set language\n" +
		"/help - Show this message"
	if msg.From != nil && b.isAdmin(msg.From.ID) {
		reply += "\n\n*Admin:*\nalerts are dispatched automatically by the worker"
	}
	return reply
}

func (b *Bot) weatherReply(ctx context.Context, lang notify.Language) string {
	reading, err := b.currentReading(ctx)
	if err != nil {
		return unavailableReply(lang)
	}
	return notify.FormatCurrent(reading, b.spot, lang)
}

func (b *Bot) forecastReply(ctx context.Context, lang notify.Language) string {
	reading, err := b.currentReading(ctx)
	if err != nil {
		return unavailableReply(lang)
	}
	return notify.FormatForecast(reading, b.spot, lang)
}

func (b *Bot) windReply(ctx context.Context, lang notify.Language) string {
	reading, err := b.currentReading(ctx)
	if err != nil {
		return unavailableReply(lang)
	}
	return notify.FormatWind(reading, lang)
}

func (b *Bot) languageReply(chatID int64, args []string) string {
	if len(args) == 0 {
		return "Please specify a language code (en/ru).\nExample: `/language en`"
	}
	lang := notify.Language(strings.ToLower(args[0]))
	if !lang.IsSupported() {
		return "Sorry, only English (en) and Russian (ru) are supported."
	}
	b.setLanguage(chatID, lang)
	if lang == notify.LangRU {
		return "Язык установлен на русский! 🇷🇺"
	}
	return "Language set to English! 🇬🇧"
}

// currentReading prefers a live fetch and falls back to the latest stored
// reading when the source is down, so commands degrade gracefully.
func (b *Bot) currentReading(ctx context.Context) (weather.Reading, error) {
	reading, err := b.source.Current(ctx)
	if err == nil {
		if saveErr := b.readings.Save(ctx, reading); saveErr != nil {
			b.log.Warn("saving on-demand reading failed", zap.Error(saveErr))
		}
		return reading, nil
	}

	b.log.Warn("live fetch failed; falling back to stored reading", zap.Error(err))
	return b.readings.Latest(ctx)
}

func unavailableReply(lang notify.Language) string {
	if lang == notify.LangRU {
		return "Извините, не удалось получить данные о погоде. Попробуйте позже."
	}
	return "Sorry, I couldn't retrieve the weather data. Please try again later."
}
