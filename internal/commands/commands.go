// Package commands holds the catalog of prefix commands the bot answers.
// Each action declares its authorization requirement; the router checks it
// before Run is called.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/authz"
	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/graph"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// Platform is the chat platform surface the actions drive.
type Platform interface {
	SendMessage(ctx context.Context, msg *bot.OutgoingMessage) error
	BotUserID() string
	RecentMessages(ctx context.Context, channelID, beforeID string, limit int) ([]bot.HistoryMessage, error)
	DeleteMessages(ctx context.Context, channelID string, ids []string) error
	RoleByName(ctx context.Context, guildID, name string) (string, error)
	MemberHasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	BotHasPermission(ctx context.Context, guildID string, perm types.Permission) (bool, error)
	CanModerate(ctx context.Context, guildID, targetID string) (bool, error)
	ResolveTextChannel(ctx context.Context, guildID, ref string) (string, error)
	GuildSummary(ctx context.Context, guildID string) (*bot.GuildInfo, error)
	MemberSummary(ctx context.Context, guildID, userID string) (*bot.MemberInfo, error)
}

// Delayer schedules one-shot delayed actions.
type Delayer interface {
	Schedule(ctx context.Context, a scheduler.Action) (*scheduler.Handle, error)
}

// Redeployer pulls new code and restarts the process.
type Redeployer interface {
	Redeploy(ctx context.Context) (string, error)
}

// Restarter ends the process so its supervisor relaunches it.
type Restarter interface {
	Restart(ctx context.Context, reason string)
}

// Settings are the configuration values actions read.
type Settings struct {
	Prefix       string
	OwnerID      string
	MuteRoleName string
	GraphMin     float64
	GraphMax     float64
	GraphSamples int
	Location     *time.Location
}

// Deps are the collaborators shared by every action.
type Deps struct {
	Platform   Platform
	Delayer    Delayer
	Renderer   graph.Renderer
	News       NewsSource
	Redeployer Redeployer
	Restarter  Restarter
	Logger     *slog.Logger
	Settings   Settings

	StartedAt time.Time
	Now       func() time.Time
	Rand      func(n int) int
}

// Action is one named command.
type Action struct {
	Name        string
	Usage       string
	Description string
	Auth        authz.Requirement
	// Privileged actions are hidden from help for callers that fail Auth.
	Privileged bool
	// GuildOnly actions are refused in direct messages.
	GuildOnly bool
	Run       func(ctx context.Context, env *Env) error
}

// Env is the per-invocation state handed to Run.
type Env struct {
	Msg     *bot.IncomingMessage
	Name    string
	Args    []string
	Catalog *Catalog
}

// Subject returns the sender as an authorization subject.
func (e *Env) Subject() authz.Subject {
	return SubjectOf(e.Msg)
}

// SubjectOf builds the authorization subject for msg's author.
func SubjectOf(msg *bot.IncomingMessage) authz.Subject {
	return authz.Subject{
		UserID:       msg.AuthorID,
		GuildID:      msg.GuildID,
		GuildOwnerID: msg.GuildOwnerID,
		Permissions:  msg.AuthorPermissions,
	}
}

// Catalog is an immutable name to action table.
type Catalog struct {
	byName  map[string]Action
	ordered []Action
}

// NewCatalog builds a catalog. Names are matched lower-cased and must be unique.
func NewCatalog(actions ...Action) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Action, len(actions))}
	for _, a := range actions {
		name := strings.ToLower(a.Name)
		if name == "" || a.Run == nil {
			return nil, fmt.Errorf("action %q: name and run are required", a.Name)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("action %q registered twice", name)
		}
		if a.Auth == nil {
			a.Auth = authz.None
		}
		a.Name = name
		c.byName[name] = a
		c.ordered = append(c.ordered, a)
	}
	return c, nil
}

// Lookup returns the action registered under name.
func (c *Catalog) Lookup(name string) (Action, bool) {
	a, ok := c.byName[strings.ToLower(name)]
	return a, ok
}

// List returns the actions in registration order.
func (c *Catalog) List() []Action {
	return slices.Clone(c.ordered)
}

// handlers binds the action bodies to their collaborators.
type handlers struct {
	Deps
}

func newHandlers(d Deps) *handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.IntN
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = d.Now()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Settings.Prefix == "" {
		d.Settings.Prefix = "!"
	}
	if d.Settings.Location == nil {
		d.Settings.Location = time.UTC
	}
	return &handlers{Deps: d}
}

// reply answers the invoking message.
func (h *handlers) reply(ctx context.Context, env *Env, content string) error {
	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        env.Msg.ChannelID,
		Content:          content,
		ReplyToMessageID: env.Msg.MessageID,
	})
}

// say posts to the invoking channel without a reply reference.
func (h *handlers) say(ctx context.Context, channelID, content string) error {
	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{ChannelID: channelID, Content: content})
}

// usage formats an action's usage line with the configured prefix.
func (h *handlers) usage(u string) string {
	return "`" + h.Settings.Prefix + u + "`"
}

// rest returns the command text after the prefix and its first n fields.
func (h *handlers) rest(env *Env, n int) string {
	return restAfter(strings.TrimPrefix(env.Msg.Content, h.Settings.Prefix), n)
}

// restAfter returns content with its first n whitespace-separated fields
// removed, keeping the remainder's original spacing and line breaks.
func restAfter(content string, n int) string {
	s := strings.TrimLeft(content, " \t\r\n")
	for range n {
		i := strings.IndexAny(s, " \t\r\n")
		if i < 0 {
			return ""
		}
		s = strings.TrimLeft(s[i:], " \t\r\n")
	}
	return strings.TrimSpace(s)
}

// withoutMentions drops user mention tokens from args.
func withoutMentions(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !bot.IsMentionToken(a) {
			out = append(out, a)
		}
	}
	return out
}

// mentionedName returns the username carried by msg's structured mentions
// for userID, or a mention token.
func mentionedName(msg *bot.IncomingMessage, userID string) string {
	for _, u := range msg.Mentions {
		if u.ID == userID && u.Username != "" {
			return u.Username
		}
	}
	return "<@" + userID + ">"
}
