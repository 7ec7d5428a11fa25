// Package bot routes chat events to the umasen and netkeiba scrapers and
// formats the replies.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Vodeneev/keibabot/internal/parser/parsers/umasen"
	"github.com/Vodeneev/keibabot/internal/pkg/models"
	"github.com/Vodeneev/keibabot/internal/pkg/parserutil"
	"github.com/Vodeneev/keibabot/internal/pkg/performance"
	"github.com/Vodeneev/keibabot/internal/pkg/telemetry"
	"github.com/Vodeneev/keibabot/internal/resolver"
)

// RaceSource is the umasen side: today's races and the marks of one race
type RaceSource interface {
	ListToday(ctx context.Context, limit int) ([]models.RaceRef, error)
	Marks(ctx context.Context, slug string) ([]models.MarkRow, error)
}

// RaceResolver finds the netkeiba odds page of a race
type RaceResolver interface {
	Resolve(ctx context.Context, ref models.RaceRef, now time.Time) (models.Resolution, bool)
}

type command string

const (
	commandRaces command = "races"
	commandOdds  command = "odds"
	commandHelp  command = "help"
	commandMarks command = "marks"
)

var textCommands = map[string]command{
	"今日のレース": commandRaces,
	"本日のレース": commandRaces,
	"一覧":     commandRaces,
	"/today": commandRaces,

	"レース情報へ": commandOdds,
	"レース情報":  commandOdds,
	"オッズへ":   commandOdds,
	"/odds":  commandOdds,

	"使い方":    commandHelp,
	"help":   commandHelp,
	"ヘルプ":    commandHelp,
	"/help":  commandHelp,
	"/start": commandHelp,
}

// Options tunes a Bot; zero values are fine
type Options struct {
	ListLimit int
	Tracker   *performance.Tracker
	Now       func() time.Time
}

// Bot answers chat events. Events are handled one at a time by the caller.
type Bot struct {
	races    RaceSource
	resolver RaceResolver
	replier  Replier

	listLimit int
	tracker   *performance.Tracker
	now       func() time.Time
}

// New creates a bot
func New(races RaceSource, resolver RaceResolver, replier Replier, opts Options) *Bot {
	if opts.ListLimit <= 0 {
		opts.ListLimit = umasen.DefaultListLimit
	}
	if opts.Tracker == nil {
		opts.Tracker = performance.GetTracker()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bot{
		races:     races,
		resolver:  resolver,
		replier:   replier,
		listLimit: opts.ListLimit,
		tracker:   opts.Tracker,
		now:       opts.Now,
	}
}

// Handle routes ev and sends the reply
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	telemetry.CountWebhookEvent(string(ev.Kind))
	reply := b.Route(ctx, ev)
	return b.replier.Send(ctx, reply)
}

// Route computes the reply for ev without sending it. One event is one user
// action, so a listing that failed to load is not fetched again while routing it.
func (b *Bot) Route(ctx context.Context, ev Event) Reply {
	ctx = resolver.WithAttempts(ctx)
	reply := Reply{Handle: ev.Handle}
	if ev.Kind == EventPayload {
		reply.AckID = ev.CallbackID
	}

	start := time.Now()
	cmd, msgs, ok := b.dispatch(ctx, ev)
	b.tracker.RecordCommand(string(cmd), time.Since(start), ok)

	reply.Messages = msgs
	return reply
}

func (b *Bot) dispatch(ctx context.Context, ev Event) (command, []Message, bool) {
	switch ev.Kind {
	case EventPayload:
		key, value, _ := strings.Cut(ev.Payload, "=")
		value = strings.TrimSpace(value)
		switch {
		case key == payloadRace && value != "":
			return b.runMarks(ctx, value)
		case key == payloadText && value != "":
			return b.dispatchText(ctx, value)
		}
	case EventText:
		return b.dispatchText(ctx, ev.Text)
	}
	return commandHelp, []Message{helpMessage()}, true
}

func (b *Bot) dispatchText(ctx context.Context, text string) (command, []Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return commandHelp, []Message{helpMessage()}, true
	}

	switch textCommands[normalizeCommand(text)] {
	case commandRaces:
		return b.runRaces(ctx)
	case commandOdds:
		return b.runOdds(ctx)
	case commandHelp:
		return commandHelp, []Message{helpMessage()}, true
	}
	// anything else is taken as a race slug
	return b.runMarks(ctx, text)
}

// normalizeCommand drops the "@botname" suffix Telegram adds to commands in groups
func normalizeCommand(text string) string {
	if strings.HasPrefix(text, "/") {
		if cmd, _, ok := strings.Cut(text, "@"); ok {
			return cmd
		}
	}
	return text
}

func (b *Bot) runRaces(ctx context.Context) (command, []Message, bool) {
	races, ok := b.listRaces(ctx)
	if !ok {
		return commandRaces, []Message{textMessage(textFetchFailed)}, false
	}
	return commandRaces, []Message{racesCard(races), textMessage(racesFooter)}, true
}

func (b *Bot) runOdds(ctx context.Context) (command, []Message, bool) {
	races, ok := b.listRaces(ctx)
	if !ok {
		return commandOdds, []Message{textMessage(textFetchFailed)}, false
	}

	now := b.now()
	resolved := make([]*oddsLink, len(races))
	parserutil.RunEach(ctx, len(races), parserutil.DefaultParallelism, func(ctx context.Context, i int) {
		r := races[i]
		res, ok := b.resolver.Resolve(ctx, r, now)
		if !ok {
			return
		}
		link := oddsLink{name: r.DisplayName, url: res.URL}
		d := umasen.ExtractDescriptor(r.RawDescriptor)
		if d.Venue != nil && d.RaceNumber != nil {
			link.venue = *d.Venue
			link.raceNumber = *d.RaceNumber
		}
		resolved[i] = &link
	})

	var links []oddsLink
	for _, l := range resolved {
		if l != nil {
			links = append(links, *l)
		}
	}

	telemetry.LoggerWithCorr(ctx).Info("Odds links resolved",
		slog.Int("races", len(races)),
		slog.Int("links", len(links)))
	if len(links) == 0 {
		return commandOdds, []Message{textMessage(textNoLinks)}, false
	}
	return commandOdds, []Message{oddsCard(links), textMessage(oddsFooter)}, true
}

func (b *Bot) runMarks(ctx context.Context, slug string) (command, []Message, bool) {
	logger := telemetry.LoggerWithCorr(ctx)
	rows, err := b.races.Marks(ctx, slug)
	if err != nil {
		logger.Warn("Marks fetch failed", slog.String("slug", slug), slog.Any("error", err))
		return commandMarks, []Message{marksFailedMessage(slug)}, false
	}
	if len(rows) == 0 {
		logger.Info("No marks found", slog.String("slug", slug))
		return commandMarks, []Message{marksFailedMessage(slug)}, false
	}
	return commandMarks, []Message{marksMessage(slug, rows)}, true
}

// listRaces treats a fetch failure and an empty listing alike
func (b *Bot) listRaces(ctx context.Context) ([]models.RaceRef, bool) {
	races, err := b.races.ListToday(ctx, b.listLimit)
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("Race listing fetch failed", slog.Any("error", err))
		return nil, false
	}
	if len(races) == 0 {
		telemetry.LoggerWithCorr(ctx).Info("Race listing is empty")
		return nil, false
	}
	return races, true
}
