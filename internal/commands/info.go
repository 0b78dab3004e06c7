package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
)

const embedColor = 0x5865F2

func (h *handlers) ping(ctx context.Context, env *Env) error {
	latency := h.Now().Sub(env.Msg.Timestamp)
	if env.Msg.Timestamp.IsZero() || latency < 0 {
		latency = 0
	}
	return h.reply(ctx, env, fmt.Sprintf("🏓 Pong! Latency is %dms.", latency.Milliseconds()))
}

func (h *handlers) uptime(ctx context.Context, env *Env) error {
	return h.reply(ctx, env, "⏱️ Uptime: "+FormatUptime(h.Now().Sub(h.StartedAt)))
}

// FormatUptime renders d as days, hours and minutes.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%s, %s, %s", plural(days, "day"), plural(hours, "hour"), plural(minutes, "minute"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func (h *handlers) help(ctx context.Context, env *Env) error {
	subject := env.Subject()
	var sb strings.Builder
	sb.WriteString("**MathMinds Bot commands**\n")
	for _, a := range env.Catalog.List() {
		if a.Privileged && !a.Auth.Check(subject) {
			continue
		}
		fmt.Fprintf(&sb, "%s - %s\n", h.usage(a.Usage), a.Description)
	}
	sb.WriteString("\nMention me with a question to ask me anything!")
	return h.reply(ctx, env, sb.String())
}

func (h *handlers) hello(ctx context.Context, env *Env) error {
	return h.reply(ctx, env, "Hey there! MathMinds Bot is online and ready to solve some math problems. 🚀")
}

func (h *handlers) mathfact(ctx context.Context, env *Env) error {
	return h.reply(ctx, env, "📐 "+mathFacts[h.Rand(len(mathFacts))])
}

func (h *handlers) quote(ctx context.Context, env *Env) error {
	return h.reply(ctx, env, "💬 "+mathQuotes[h.Rand(len(mathQuotes))])
}

func (h *handlers) mathpuzzle(ctx context.Context, env *Env) error {
	return h.reply(ctx, env, "🧩 "+mathPuzzles[h.Rand(len(mathPuzzles))])
}

func (h *handlers) serverinfo(ctx context.Context, env *Env) error {
	g, err := h.Platform.GuildSummary(ctx, env.Msg.GuildID)
	if err != nil {
		return fmt.Errorf("fetching guild summary: %w", err)
	}
	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        env.Msg.ChannelID,
		ReplyToMessageID: env.Msg.MessageID,
		Embed: &bot.Embed{
			Title:    g.Name,
			ImageURL: g.IconURL,
			Color:    embedColor,
			Fields: []bot.EmbedField{
				{Name: "Owner", Value: "<@" + g.OwnerID + ">", Inline: true},
				{Name: "Members", Value: fmt.Sprint(g.MemberCount), Inline: true},
				{Name: "Roles", Value: fmt.Sprint(g.RoleCount), Inline: true},
				{Name: "Channels", Value: fmt.Sprint(g.ChannelCount), Inline: true},
				{Name: "Created", Value: h.date(g.CreatedAt), Inline: true},
				{Name: "Server ID", Value: g.ID, Inline: true},
			},
		},
	})
}

func (h *handlers) userinfo(ctx context.Context, env *Env) error {
	target := env.Msg.AuthorID
	if id, err := bot.FirstMentionedUser(env.Msg, h.Platform.BotUserID()); err == nil {
		target = id
	}
	m, err := h.Platform.MemberSummary(ctx, env.Msg.GuildID, target)
	if err != nil {
		return fmt.Errorf("fetching member summary: %w", err)
	}

	roles := "None"
	if len(m.Roles) > 0 {
		roles = strings.Join(m.Roles, ", ")
	}
	nick := m.Nickname
	if nick == "" {
		nick = "None"
	}
	title := m.Username
	if m.Bot {
		title += " 🤖"
	}
	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        env.Msg.ChannelID,
		ReplyToMessageID: env.Msg.MessageID,
		Embed: &bot.Embed{
			Title:    title,
			ImageURL: m.AvatarURL,
			Color:    embedColor,
			Fields: []bot.EmbedField{
				{Name: "User", Value: "<@" + m.ID + ">", Inline: true},
				{Name: "Nickname", Value: nick, Inline: true},
				{Name: "Joined server", Value: h.date(m.JoinedAt), Inline: true},
				{Name: "Account created", Value: h.date(m.CreatedAt), Inline: true},
				{Name: "Roles", Value: roles},
			},
		},
	})
}

func (h *handlers) date(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.In(h.Settings.Location).Format("02 Jan 2006")
}
