package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

const (
	maxClear = 100
	// bulkDeleteWindow is how far back the platform allows message deletion.
	bulkDeleteWindow = 14 * 24 * time.Hour
	// maxMuteMinutes caps mute durations at one year.
	maxMuteMinutes = 365 * 24 * 60
)

// clear deletes the count messages before the command message. The command
// message itself is neither counted nor deleted.
func (h *handlers) clear(ctx context.Context, env *Env) error {
	count := 0
	if len(env.Args) > 0 {
		count, _ = strconv.Atoi(env.Args[0])
	}
	if count < 1 || count > maxClear {
		return h.reply(ctx, env, fmt.Sprintf("Please provide a number of messages to delete between 1 and %d. Usage: %s", maxClear, h.usage("clear <1-100>")))
	}

	ok, err := h.Platform.BotHasPermission(ctx, env.Msg.GuildID, types.PermManageMessages)
	if err != nil {
		return fmt.Errorf("checking bot permission: %w", err)
	}
	if !ok {
		return h.reply(ctx, env, "I don't have permission to manage messages here.")
	}

	history, err := h.Platform.RecentMessages(ctx, env.Msg.ChannelID, env.Msg.MessageID, count)
	if err != nil {
		return fmt.Errorf("listing messages to clear: %w", err)
	}

	cutoff := h.Now().Add(-bulkDeleteWindow)
	ids := make([]string, 0, len(history))
	skipped := 0
	for _, m := range history {
		if !m.Timestamp.IsZero() && !m.Timestamp.After(cutoff) {
			skipped++
			continue
		}
		ids = append(ids, m.ID)
	}

	if len(ids) > 0 {
		if err := h.Platform.DeleteMessages(ctx, env.Msg.ChannelID, ids); err != nil {
			return fmt.Errorf("deleting messages: %w", err)
		}
	}

	msg := fmt.Sprintf("🧹 Deleted %s.", plural(len(ids), "message"))
	if skipped > 0 {
		msg += fmt.Sprintf(" Skipped %d older than 14 days.", skipped)
	}
	return h.say(ctx, env.Msg.ChannelID, msg)
}

// muteKey identifies the unmute timer for a member and role.
func muteKey(guildID, userID, roleID string) string {
	return "mute:" + guildID + ":" + userID + ":" + roleID
}

func (h *handlers) mute(ctx context.Context, env *Env) error {
	target, err := bot.FirstMentionedUser(env.Msg, h.Platform.BotUserID())
	if err != nil {
		return h.reply(ctx, env, "Please mention the member you want to mute. Usage: "+h.usage("mute @user <minutes>"))
	}

	rest := withoutMentions(env.Args)
	minutes := 0
	if len(rest) > 0 {
		minutes, _ = strconv.Atoi(rest[0])
	}
	if minutes < 1 || minutes > maxMuteMinutes {
		return h.reply(ctx, env, "Please provide the mute duration in minutes as a positive whole number. Usage: "+h.usage("mute @user <minutes>"))
	}

	roleName := h.Settings.MuteRoleName
	roleID, err := h.Platform.RoleByName(ctx, env.Msg.GuildID, roleName)
	if errors.Is(err, bot.ErrNotFound) {
		return h.reply(ctx, env, fmt.Sprintf("There is no role named %q in this server. Please create it first.", roleName))
	}
	if err != nil {
		return fmt.Errorf("finding mute role: %w", err)
	}

	if err := h.Platform.AddRole(ctx, env.Msg.GuildID, target, roleID); err != nil {
		return fmt.Errorf("adding mute role: %w", err)
	}

	guildID, channelID := env.Msg.GuildID, env.Msg.ChannelID
	_, err = h.Delayer.Schedule(ctx, scheduler.Action{
		Kind:      types.ActionUnmute,
		Key:       muteKey(guildID, target, roleID),
		FireAt:    h.Now().Add(time.Duration(minutes) * time.Minute),
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    target,
		RoleID:    roleID,
		Run: func(ctx context.Context) error {
			return h.unmute(ctx, guildID, channelID, target, roleID)
		},
	})
	if err != nil {
		h.Logger.ErrorContext(ctx, "scheduling unmute", "error", err, "guild_id", guildID, "user_id", target)
		return h.reply(ctx, env, fmt.Sprintf("🔇 <@%s> has been muted, but I couldn't schedule the unmute. Please remove the %s role manually.", target, roleName))
	}

	return h.reply(ctx, env, fmt.Sprintf("🔇 <@%s> has been muted for %s.", target, plural(minutes, "minute")))
}

// unmute removes the mute role if the member still holds it and announces it.
func (h *handlers) unmute(ctx context.Context, guildID, channelID, userID, roleID string) error {
	has, err := h.Platform.MemberHasRole(ctx, guildID, userID, roleID)
	if err != nil {
		return fmt.Errorf("checking mute role: %w", err)
	}
	if !has {
		h.Logger.DebugContext(ctx, "mute role already removed", "guild_id", guildID, "user_id", userID)
		return nil
	}
	if err := h.Platform.RemoveRole(ctx, guildID, userID, roleID); err != nil {
		return fmt.Errorf("removing mute role: %w", err)
	}
	return h.say(ctx, channelID, fmt.Sprintf("🔊 <@%s> has been unmuted.", userID))
}

func (h *handlers) warn(ctx context.Context, env *Env) error {
	target, err := bot.FirstMentionedUser(env.Msg, h.Platform.BotUserID())
	if err != nil {
		return h.reply(ctx, env, "Please mention the member you want to warn. Usage: "+h.usage("warn @user <reason>"))
	}
	reason := strings.Join(withoutMentions(env.Args), " ")
	if reason == "" {
		return h.reply(ctx, env, "Please provide a reason for the warning. Usage: "+h.usage("warn @user <reason>"))
	}
	return h.say(ctx, env.Msg.ChannelID, fmt.Sprintf("⚠️ <@%s> has been warned by <@%s>. Reason: %s", target, env.Msg.AuthorID, reason))
}

// removal describes kick or ban for the shared member-removal flow.
type removal struct {
	verb   string
	past   string
	perm   types.Permission
	apply  func(ctx context.Context, guildID, userID, reason string) error
	syntax string
}

func (h *handlers) kick(ctx context.Context, env *Env) error {
	return h.removeMember(ctx, env, removal{
		verb: "kick", past: "kicked", perm: types.PermKickMembers,
		apply: h.Platform.Kick, syntax: "kick @user [reason]",
	})
}

func (h *handlers) ban(ctx context.Context, env *Env) error {
	return h.removeMember(ctx, env, removal{
		verb: "ban", past: "banned", perm: types.PermBanMembers,
		apply: h.Platform.Ban, syntax: "ban @user [reason]",
	})
}

func (h *handlers) removeMember(ctx context.Context, env *Env, r removal) error {
	target, err := bot.FirstMentionedUser(env.Msg, h.Platform.BotUserID())
	if err != nil {
		return h.reply(ctx, env, fmt.Sprintf("Please mention the member you want to %s. Usage: %s", r.verb, h.usage(r.syntax)))
	}
	if target == env.Msg.AuthorID {
		return h.reply(ctx, env, fmt.Sprintf("You can't %s yourself.", r.verb))
	}

	ok, err := h.Platform.BotHasPermission(ctx, env.Msg.GuildID, r.perm)
	if err != nil {
		return fmt.Errorf("checking bot permission: %w", err)
	}
	if !ok {
		return h.reply(ctx, env, fmt.Sprintf("I don't have permission to %s members.", r.verb))
	}

	ok, err = h.Platform.CanModerate(ctx, env.Msg.GuildID, target)
	if err != nil {
		return fmt.Errorf("checking role hierarchy: %w", err)
	}
	if !ok {
		return h.reply(ctx, env, fmt.Sprintf("I can't %s that member because their highest role is not below mine.", r.verb))
	}

	reason := strings.Join(withoutMentions(env.Args), " ")
	if reason == "" {
		reason = "No reason provided."
	}
	if err := r.apply(ctx, env.Msg.GuildID, target, reason); err != nil {
		h.Logger.ErrorContext(ctx, "removing member", "action", r.verb, "error", err, "guild_id", env.Msg.GuildID, "user_id", target)
		return h.reply(ctx, env, fmt.Sprintf("An error occurred while trying to %s that member.", r.verb))
	}
	return h.reply(ctx, env, fmt.Sprintf("Successfully %s %s. Reason: %s", r.past, mentionedName(env.Msg, target), reason))
}
