// Package welcome greets new members, logs their arrival and posts a daily
// list of everyone who joined.
package welcome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/db"
)

// joinLogLayout renders join times as dd/MM/yyyy, hh:mm:ss am.
const joinLogLayout = "02/01/2006, 03:04:05 pm"

const noJoiners = "No new members joined in the last 24 hours."

var questions = []string{
	"**What's your favorite branch of mathematics?**",
	"**Do you prefer algebra or geometry?**",
	"**What's the most interesting math problem you've ever solved?**",
	"**What inspired you to join MathMinds United?**",
	"**Would you rather dive into calculus or explore statistics?**",
	"**Who is your favorite mathematician or which mathematical concept fascinates you?**",
	"**Are you more into pure math, applied math, or a mix of both?**",
	"**Do you enjoy math competitions or collaborative problem-solving?**",
	"**What's a math myth or puzzle that always got you thinking?**",
	"**Which area of math do you find most challenging (yet rewarding)?**",
}

// Platform is what the greeter needs from the chat platform.
type Platform interface {
	SendMessage(ctx context.Context, msg *bot.OutgoingMessage) error
	SendDM(ctx context.Context, userID, content string) error
	ChannelByName(ctx context.Context, guildID, name string) (string, error)
	GuildIDs() []string
}

// Store persists joiners between summaries.
type Store interface {
	InsertJoiner(ctx context.Context, j *db.Joiner) error
	ListJoiners(ctx context.Context) ([]*db.Joiner, error)
	DeleteJoinersUpTo(ctx context.Context, maxID int64) error
}

// Options configures a Greeter.
type Options struct {
	JoinLogChannel string
	WelcomeChannel string
	Location       *time.Location
	DedupeWindow   time.Duration
	Now            func() time.Time
	Rand           func(n int) int
}

// Greeter handles member joins and the daily joiner summary.
type Greeter struct {
	platform Platform
	store    Store
	logger   *slog.Logger
	opts     Options

	mu     sync.Mutex
	recent map[string]time.Time
}

// New creates a Greeter.
func New(platform Platform, store Store, logger *slog.Logger, opts Options) *Greeter {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.IntN
	}
	return &Greeter{
		platform: platform,
		store:    store,
		logger:   logger,
		opts:     opts,
		recent:   make(map[string]time.Time),
	}
}

// WelcomeText is the direct message sent to a new member.
func WelcomeText(name, question string) string {
	return fmt.Sprintf(`Hello %s,

✨ **Welcome to MathMinds United!** ✨

A math puzzle to get you thinking:
> %s

We're excited to have you join our community of math enthusiasts!
Please introduce yourself in **🙋│introductions** and let the math conversation begin!

🔢 **Happy Problem-Solving!**
The MathMinds Team`, name, question)
}

// seen records the join and reports whether the same member joined the same
// guild within the dedupe window.
func (g *Greeter) seen(guildID, userID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, at := range g.recent {
		if now.Sub(at) >= g.opts.DedupeWindow {
			delete(g.recent, k)
		}
	}
	key := guildID + ":" + userID
	if _, ok := g.recent[key]; ok {
		return true
	}
	g.recent[key] = now
	return false
}

// HandleMemberJoin greets the member, logs the join and queues it for the
// daily summary. Each step is independent; a failure is logged and the rest
// still run.
func (g *Greeter) HandleMemberJoin(ctx context.Context, join *bot.MemberJoin) {
	now := g.opts.Now()
	if g.seen(join.GuildID, join.UserID, now) {
		g.logger.DebugContext(ctx, "ignoring duplicate join", "guild_id", join.GuildID, "user_id", join.UserID)
		return
	}

	name := join.DisplayName
	if name == "" {
		name = join.Username
	}
	question := questions[g.opts.Rand(len(questions))]
	if err := g.platform.SendDM(ctx, join.UserID, WelcomeText(name, question)); err != nil {
		g.logger.WarnContext(ctx, "could not dm new member", "error", err, "user_id", join.UserID)
	}

	joinedAt := join.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = now
	}
	g.logJoin(ctx, join.GuildID, join.UserID, joinedAt)

	err := g.store.InsertJoiner(ctx, &db.Joiner{
		GuildID:  join.GuildID,
		UserID:   join.UserID,
		Display:  name,
		JoinedAt: joinedAt,
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "recording joiner", "error", err, "guild_id", join.GuildID, "user_id", join.UserID)
	}
}

func (g *Greeter) logJoin(ctx context.Context, guildID, userID string, at time.Time) {
	channelID, err := g.platform.ChannelByName(ctx, guildID, g.opts.JoinLogChannel)
	if err != nil {
		g.logger.ErrorContext(ctx, "join log channel not found", "error", err, "guild_id", guildID, "channel", g.opts.JoinLogChannel)
		return
	}
	content := fmt.Sprintf("**<@%s>** joined on %s", userID, at.In(g.opts.Location).Format(joinLogLayout))
	if err := g.platform.SendMessage(ctx, &bot.OutgoingMessage{ChannelID: channelID, Content: content}); err != nil {
		g.logger.ErrorContext(ctx, "posting join log", "error", err, "guild_id", guildID)
	}
}

// PostSummary posts the joiners recorded since the last summary to each
// guild's welcome channel and then forgets them. Joiners are kept when any
// guild's post fails so the next run can retry.
func (g *Greeter) PostSummary(ctx context.Context) {
	joiners, err := g.store.ListJoiners(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "listing joiners", "error", err)
		return
	}

	byGuild := make(map[string][]string)
	var maxID int64
	for _, j := range joiners {
		byGuild[j.GuildID] = append(byGuild[j.GuildID], fmt.Sprintf("<@%s>", j.UserID))
		maxID = max(maxID, j.ID)
	}

	var errs []error
	for _, guildID := range g.platform.GuildIDs() {
		if err := g.postGuildSummary(ctx, guildID, byGuild[guildID]); err != nil {
			g.logger.ErrorContext(ctx, "posting joiner summary", "error", err, "guild_id", guildID)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 || maxID == 0 {
		return
	}
	if err := g.store.DeleteJoinersUpTo(ctx, maxID); err != nil {
		g.logger.ErrorContext(ctx, "clearing joiners", "error", err)
	}
}

func (g *Greeter) postGuildSummary(ctx context.Context, guildID string, mentions []string) error {
	channelID, err := g.platform.ChannelByName(ctx, guildID, g.opts.WelcomeChannel)
	if errors.Is(err, bot.ErrNotFound) && len(mentions) == 0 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding welcome channel: %w", err)
	}

	content := noJoiners
	if len(mentions) > 0 {
		content = "Welcome our new math enthusiasts:\n" + strings.Join(mentions, "\n")
	}
	return g.platform.SendMessage(ctx, &bot.OutgoingMessage{ChannelID: channelID, Content: content})
}
