package discord

import (
	"context"
	"fmt"
	"slices"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// bulkDeleteMax is the most messages one bulk delete call accepts.
const bulkDeleteMax = 100

// RecentMessages returns up to limit messages posted before beforeID, newest first.
func (b *Bot) RecentMessages(_ context.Context, channelID, beforeID string, limit int) ([]bot.HistoryMessage, error) {
	msgs, err := b.session.ChannelMessages(channelID, limit, beforeID, "", "")
	if err != nil {
		return nil, fmt.Errorf("discord list messages: %w", err)
	}
	out := make([]bot.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || m.ID == "" {
			continue
		}
		h := bot.HistoryMessage{ID: m.ID, Timestamp: m.Timestamp}
		if m.Author != nil {
			h.AuthorID = m.Author.ID
		}
		out = append(out, h)
	}
	return out, nil
}

// DeleteMessages deletes ids from the channel, using the bulk endpoint for
// two or more messages.
func (b *Bot) DeleteMessages(_ context.Context, channelID string, ids []string) error {
	for chunk := range slices.Chunk(ids, bulkDeleteMax) {
		if len(chunk) == 1 {
			if err := b.session.ChannelMessageDelete(channelID, chunk[0]); err != nil {
				return fmt.Errorf("discord delete message: %w", err)
			}
			continue
		}
		if err := b.session.ChannelMessagesBulkDelete(channelID, chunk); err != nil {
			return fmt.Errorf("discord bulk delete: %w", err)
		}
	}
	return nil
}

// RoleByName returns the id of the guild role called name.
func (b *Bot) RoleByName(_ context.Context, guildID, name string) (string, error) {
	g, err := b.guilds.get(guildID, b.session)
	if err != nil {
		return "", err
	}
	for _, r := range g.Roles {
		if r != nil && r.Name == name {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("role %q: %w", name, bot.ErrNotFound)
}

// MemberHasRole reports whether the member currently holds roleID.
func (b *Bot) MemberHasRole(_ context.Context, guildID, userID, roleID string) (bool, error) {
	m, err := b.session.GuildMember(guildID, userID)
	if err != nil {
		return false, fmt.Errorf("discord get member: %w", err)
	}
	return slices.Contains(m.Roles, roleID), nil
}

// AddRole grants roleID to the member.
func (b *Bot) AddRole(_ context.Context, guildID, userID, roleID string) error {
	if err := b.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("discord add role: %w", err)
	}
	return nil
}

// RemoveRole takes roleID from the member. Removing a role the member does
// not hold succeeds.
func (b *Bot) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	if err := b.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("discord remove role: %w", err)
	}
	return nil
}

// Kick removes the member from the guild.
func (b *Bot) Kick(_ context.Context, guildID, userID, reason string) error {
	if err := b.session.GuildMemberDeleteWithReason(guildID, userID, reason); err != nil {
		return fmt.Errorf("discord kick: %w", err)
	}
	return nil
}

// Ban bans the member from the guild without deleting their messages.
func (b *Bot) Ban(_ context.Context, guildID, userID, reason string) error {
	if err := b.session.GuildBanCreateWithReason(guildID, userID, reason, 0); err != nil {
		return fmt.Errorf("discord ban: %w", err)
	}
	return nil
}

// BotHasPermission reports whether the bot's own member holds perm in the guild.
func (b *Bot) BotHasPermission(_ context.Context, guildID string, perm types.Permission) (bool, error) {
	g, err := b.guilds.get(guildID, b.session)
	if err != nil {
		return false, err
	}
	botID := b.BotUserID()
	m, err := b.session.GuildMember(guildID, botID)
	if err != nil {
		return false, fmt.Errorf("discord get bot member: %w", err)
	}
	return memberPermissions(g, botID, m.Roles).Has(perm), nil
}

// CanModerate reports whether the bot outranks targetID: the target's top
// role must sit strictly below the bot's, and the guild owner is never
// moderatable.
func (b *Bot) CanModerate(_ context.Context, guildID, targetID string) (bool, error) {
	g, err := b.guilds.get(guildID, b.session)
	if err != nil {
		return false, err
	}
	if targetID == g.OwnerID {
		return false, nil
	}

	botID := b.BotUserID()
	if botID == g.OwnerID {
		return true, nil
	}
	botMember, err := b.session.GuildMember(guildID, botID)
	if err != nil {
		return false, fmt.Errorf("discord get bot member: %w", err)
	}
	target, err := b.session.GuildMember(guildID, targetID)
	if err != nil {
		return false, fmt.Errorf("discord get member: %w", err)
	}
	return highestRolePosition(g, botMember.Roles) > highestRolePosition(g, target.Roles), nil
}
