package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// maxEchoRunes keeps echoed deploy output inside one message.
const maxEchoRunes = 1800

func (h *handlers) restart(ctx context.Context, env *Env) error {
	if h.Restarter == nil {
		return h.reply(ctx, env, "Restarting isn't available in this deployment.")
	}
	if err := h.reply(ctx, env, "Restarting bot now..."); err != nil {
		h.Logger.ErrorContext(ctx, "sending restart confirmation", "error", err)
	}
	h.Logger.InfoContext(ctx, "restart requested", "author_id", env.Msg.AuthorID)
	h.Restarter.Restart(ctx, "restart command from "+env.Msg.AuthorID)
	return nil
}

// hardreset runs the redeploy step and echoes its output to the owner.
func (h *handlers) hardreset(ctx context.Context, env *Env) error {
	if h.Redeployer == nil {
		return h.reply(ctx, env, "Redeploying isn't available in this deployment.")
	}
	if err := h.reply(ctx, env, "🔄 Pulling the latest code..."); err != nil {
		h.Logger.ErrorContext(ctx, "sending hardreset confirmation", "error", err)
	}

	out, err := h.Redeployer.Redeploy(ctx)
	if err != nil {
		h.Logger.ErrorContext(ctx, "redeploy failed", "error", err)
		return h.reply(ctx, env, "❌ Redeploy failed:\n"+codeBlock(out))
	}
	return h.reply(ctx, env, "✅ Update pulled, restarting now:\n"+codeBlock(out))
}

func codeBlock(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = "(no output)"
	}
	if utf8.RuneCountInString(s) > maxEchoRunes {
		s = string([]rune(s)[:maxEchoRunes]) + "\n..."
	}
	s = strings.ReplaceAll(s, "```", "'''")
	return "```\n" + s + "\n```"
}

// send posts a message to another channel now, or at the next occurrence of
// a wall-clock time: !send #channel [h:mm AM|PM TZ] body.
func (h *handlers) send(ctx context.Context, env *Env) error {
	usage := "Usage: " + h.usage("send #channel [h:mm AM|PM TZ] <message>")
	if len(env.Args) < 2 {
		return h.reply(ctx, env, usage)
	}

	channelID, err := h.Platform.ResolveTextChannel(ctx, env.Msg.GuildID, env.Args[0])
	if errors.Is(err, bot.ErrNotFound) {
		return h.reply(ctx, env, "I couldn't find that text channel.")
	}
	if err != nil {
		return fmt.Errorf("resolving channel: %w", err)
	}

	// Fields consumed before the body: the command token and the channel.
	consumed := 2
	var clock *scheduler.ClockTime
	if looksLikeClock(env.Args[1]) {
		if len(env.Args) < 4 {
			return h.reply(ctx, env, "Invalid time. Use h:mm AM|PM followed by a timezone, e.g. `3:30 PM IST`.")
		}
		ct, err := scheduler.ParseClock(env.Args[1], env.Args[2], env.Args[3])
		if err != nil {
			return h.reply(ctx, env, "Invalid time. Use h:mm AM|PM followed by a timezone, e.g. `3:30 PM IST`.")
		}
		clock = &ct
		consumed += 3
	}

	body := h.rest(env, consumed)
	if body == "" {
		return h.reply(ctx, env, usage)
	}

	if clock == nil {
		if err := h.say(ctx, channelID, body); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		return h.reply(ctx, env, fmt.Sprintf("✅ Message sent to <#%s>.", channelID))
	}

	fireAt := scheduler.NextOccurrence(h.Now(), *clock)
	_, err = h.Delayer.Schedule(ctx, scheduler.Action{
		Kind:      types.ActionSend,
		FireAt:    fireAt,
		GuildID:   env.Msg.GuildID,
		ChannelID: channelID,
		UserID:    env.Msg.AuthorID,
		Body:      body,
		Run: func(ctx context.Context) error {
			return h.say(ctx, channelID, body)
		},
	})
	if err != nil {
		return fmt.Errorf("scheduling message: %w", err)
	}
	return h.reply(ctx, env, fmt.Sprintf("⏰ Message for <#%s> scheduled for %s.", channelID, fireAt.Format("Mon 02 Jan 2006, 3:04 PM MST")))
}

func looksLikeClock(s string) bool {
	hh, mm, ok := strings.Cut(s, ":")
	return ok && hh != "" && mm != "" && strings.Trim(hh+mm, "0123456789") == ""
}
