// Package router turns inbound chat messages into at most one reply path:
// a mention prompt, a prefix command, or nothing.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/commands"
	"github.com/Tanishk-135/MathMinds-Bot/internal/completion"
	"github.com/Tanishk-135/MathMinds-Bot/internal/db"
)

const (
	genericFailure  = "There was an error trying to execute that command!"
	promptFailure   = "Sorry, I failed to get a response."
	emptyPrompt     = "Hi! Ask me a math question after the mention and I'll do my best to help."
	guildOnlyDenial = "This command can only be used in a server."
)

// Platform is the part of the chat platform the router talks to.
type Platform interface {
	SendMessage(ctx context.Context, msg *bot.OutgoingMessage) error
	BotUserID() string
}

// Formatter rewrites completion output before it is posted.
type Formatter func(string) string

// MessageLog records mention prompts and their replies.
type MessageLog interface {
	AppendMessageLog(ctx context.Context, e *db.LogEntry) error
}

// Router dispatches inbound messages.
type Router struct {
	platform  Platform
	catalog   *commands.Catalog
	completer completion.Completer
	format    Formatter
	logger    *slog.Logger
	queue     *ChannelQueue

	prefix    string
	grace     time.Duration
	startedAt time.Time
	gated     bool
	readyAt   atomic.Pointer[time.Time]
	now       func() time.Time
	history   MessageLog
}

// Option configures a Router.
type Option func(*Router)

// WithPrefix sets the command prefix. The default is "!".
func WithPrefix(prefix string) Option {
	return func(r *Router) { r.prefix = prefix }
}

// WithGraceWindow ignores messages that arrive within d of startedAt.
func WithGraceWindow(startedAt time.Time, d time.Duration) Option {
	return func(r *Router) {
		r.startedAt = startedAt
		r.grace = d
	}
}

// WithReadyGate ignores every message until MarkReady is called, then keeps
// ignoring them for d after that.
func WithReadyGate(d time.Duration) Option {
	return func(r *Router) {
		r.grace = d
		r.gated = true
	}
}

// WithMessageLog appends mention prompts and replies to l.
func WithMessageLog(l MessageLog) Option {
	return func(r *Router) { r.history = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a Router. A nil formatter leaves completion text unchanged.
func New(platform Platform, catalog *commands.Catalog, completer completion.Completer, format Formatter, logger *slog.Logger, opts ...Option) *Router {
	r := &Router{
		platform:  platform,
		catalog:   catalog,
		completer: completer,
		format:    format,
		logger:    logger,
		queue:     NewChannelQueue(),
		prefix:    "!",
		grace:     time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if !r.gated {
		if r.startedAt.IsZero() {
			r.startedAt = r.now()
		}
		r.MarkReady(r.startedAt)
	}
	if r.format == nil {
		r.format = func(s string) string { return s }
	}
	if r.completer == nil {
		r.completer = completion.Disabled{}
	}
	return r
}

// MarkReady starts the grace window at at. Messages that arrive before it
// are ignored when the router was built with WithReadyGate.
func (r *Router) MarkReady(at time.Time) {
	r.readyAt.Store(&at)
}

// accepting reports whether the router is ready and past its grace window.
func (r *Router) accepting() bool {
	at := r.readyAt.Load()
	return at != nil && r.now().Sub(*at) >= r.grace
}

// HandleMessage routes one inbound message. It never panics.
func (r *Router) HandleMessage(ctx context.Context, msg *bot.IncomingMessage) {
	if msg == nil || msg.AuthorIsBot || msg.AuthorID == r.platform.BotUserID() {
		return
	}
	if !r.accepting() {
		r.logger.DebugContext(ctx, "ignoring message before ready or inside grace window", "channel_id", msg.ChannelID, "message_id", msg.MessageID)
		return
	}

	hasPrefix := strings.HasPrefix(msg.Content, r.prefix)
	if !hasPrefix && r.mentionsBot(msg) {
		r.handlePrompt(ctx, msg)
		return
	}
	if name, args, ok := bot.ParseCommand(msg.Content, r.prefix); ok {
		r.dispatch(ctx, msg, name, args)
	}
}

func (r *Router) mentionsBot(msg *bot.IncomingMessage) bool {
	return msg.MentionsBot || bot.MentionsUser(msg.Content, r.platform.BotUserID())
}

func (r *Router) dispatch(ctx context.Context, msg *bot.IncomingMessage, name string, args []string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "command panicked", "command", name, "panic", fmt.Sprint(rec), "channel_id", msg.ChannelID)
			r.reply(ctx, msg, genericFailure)
		}
	}()

	action, ok := r.catalog.Lookup(name)
	if !ok {
		r.reply(ctx, msg, fmt.Sprintf("Unknown command. Type `%shelp` to see the list of commands.", r.prefix))
		return
	}
	if action.GuildOnly && msg.IsDM() {
		r.reply(ctx, msg, guildOnlyDenial)
		return
	}
	if !action.Auth.Check(commands.SubjectOf(msg)) {
		r.logger.DebugContext(ctx, "command denied", "command", action.Name, "author_id", msg.AuthorID, "guild_id", msg.GuildID)
		r.reply(ctx, msg, action.Auth.Denial())
		return
	}

	r.logger.InfoContext(ctx, "running command", "command", action.Name, "author_id", msg.AuthorID, "channel_id", msg.ChannelID)
	env := &commands.Env{Msg: msg, Name: action.Name, Args: args, Catalog: r.catalog}
	if err := action.Run(ctx, env); err != nil {
		r.logger.ErrorContext(ctx, "command failed", "command", action.Name, "error", err, "channel_id", msg.ChannelID)
		r.reply(ctx, msg, genericFailure)
	}
}

func (r *Router) handlePrompt(ctx context.Context, msg *bot.IncomingMessage) {
	prompt := bot.StripMention(msg.Content, r.platform.BotUserID())
	if prompt == "" {
		r.reply(ctx, msg, emptyPrompt)
		return
	}

	if err := r.queue.Acquire(ctx, msg.ChannelID); err != nil {
		return
	}
	defer r.queue.Release(msg.ChannelID)

	r.record(ctx, msg.ChannelID, msg.AuthorID, db.LogRoleUser, prompt)
	text, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.ErrorContext(ctx, "completion failed", "error", err, "channel_id", msg.ChannelID)
		r.reply(ctx, msg, promptFailure)
		return
	}

	text = r.format(text)
	r.reply(ctx, msg, text)
	r.record(ctx, msg.ChannelID, r.platform.BotUserID(), db.LogRoleAssistant, text)
}

func (r *Router) record(ctx context.Context, channelID, authorID string, role db.LogRole, content string) {
	if r.history == nil {
		return
	}
	err := r.history.AppendMessageLog(ctx, &db.LogEntry{
		ChannelID: channelID,
		AuthorID:  authorID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "appending message log", "error", err, "channel_id", channelID)
	}
}

// reply posts content as a reply to msg. Long content is split by the platform.
func (r *Router) reply(ctx context.Context, msg *bot.IncomingMessage, content string) {
	err := r.platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        msg.ChannelID,
		Content:          content,
		ReplyToMessageID: msg.MessageID,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "sending reply", "error", err, "channel_id", msg.ChannelID)
	}
}
