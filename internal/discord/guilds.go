package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
)

// guildCache keeps guild metadata (owner, roles, member count) from gateway
// events so permission checks do not hit the REST API on every message.
type guildCache struct {
	mu     sync.RWMutex
	guilds map[string]*discordgo.Guild
	joined map[string]struct{}
}

func newGuildCache() *guildCache {
	return &guildCache{
		guilds: make(map[string]*discordgo.Guild),
		joined: make(map[string]struct{}),
	}
}

func (c *guildCache) join(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joined[guildID] = struct{}{}
}

func (c *guildCache) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.joined)
}

func (c *guildCache) ids() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.joined))
	for id := range c.joined {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *guildCache) put(g *discordgo.Guild) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.guilds[g.ID]; ok && g.MemberCount == 0 {
		g.MemberCount = old.MemberCount
	}
	c.guilds[g.ID] = g
	c.joined[g.ID] = struct{}{}
}

func (c *guildCache) remove(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, guildID)
	delete(c.joined, guildID)
}

// get returns the cached guild, fetching it on a miss.
func (c *guildCache) get(guildID string, session DiscordSession) (*discordgo.Guild, error) {
	c.mu.RLock()
	g, ok := c.guilds[guildID]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("discord get guild: %w", err)
	}
	c.mu.Lock()
	c.guilds[guildID] = g
	c.mu.Unlock()
	return g, nil
}

// updateRoles applies fn to a copy of the cached guild's roles.
func (c *guildCache) updateRoles(guildID string, fn func([]*discordgo.Role) []*discordgo.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.guilds[guildID]
	if !ok {
		return
	}
	cp := *g
	cp.Roles = fn(slices.Clone(g.Roles))
	c.guilds[guildID] = &cp
}

func (c *guildCache) adjustMemberCount(guildID string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.guilds[guildID]
	if !ok {
		return
	}
	cp := *g
	cp.MemberCount += delta
	c.guilds[guildID] = &cp
}

func (b *Bot) handleGuildCreate(_ *discordgo.Session, e *discordgo.GuildCreate) {
	if e.Guild == nil || e.Unavailable {
		return
	}
	b.guilds.put(e.Guild)
}

func (b *Bot) handleGuildUpdate(_ *discordgo.Session, e *discordgo.GuildUpdate) {
	if e.Guild == nil {
		return
	}
	b.guilds.put(e.Guild)
}

func (b *Bot) handleGuildDelete(_ *discordgo.Session, e *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal.
	if e.Guild == nil || e.Unavailable {
		return
	}
	b.guilds.remove(e.ID)
	b.logger.Info("removed from guild", "guild_id", e.ID)
}

func (b *Bot) handleRoleCreate(_ *discordgo.Session, e *discordgo.GuildRoleCreate) {
	if e.GuildRole == nil || e.Role == nil {
		return
	}
	b.guilds.updateRoles(e.GuildID, func(roles []*discordgo.Role) []*discordgo.Role {
		return append(roles, e.Role)
	})
}

func (b *Bot) handleRoleUpdate(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) {
	if e.GuildRole == nil || e.Role == nil {
		return
	}
	b.guilds.updateRoles(e.GuildID, func(roles []*discordgo.Role) []*discordgo.Role {
		for i, r := range roles {
			if r.ID == e.Role.ID {
				roles[i] = e.Role
				return roles
			}
		}
		return append(roles, e.Role)
	})
}

func (b *Bot) handleRoleDelete(_ *discordgo.Session, e *discordgo.GuildRoleDelete) {
	b.guilds.updateRoles(e.GuildID, func(roles []*discordgo.Role) []*discordgo.Role {
		return slices.DeleteFunc(roles, func(r *discordgo.Role) bool { return r.ID == e.RoleID })
	})
}

// GuildCount returns the number of guilds the bot is in.
func (b *Bot) GuildCount() int {
	return b.guilds.count()
}

// GuildIDs returns the ids of the guilds the bot is in, sorted.
func (b *Bot) GuildIDs() []string {
	return b.guilds.ids()
}

// ResolveTextChannel finds a text channel by <#id> mention, raw id or name.
func (b *Bot) ResolveTextChannel(_ context.Context, guildID, ref string) (string, error) {
	channels, err := b.session.GuildChannels(guildID)
	if err != nil {
		return "", fmt.Errorf("discord list channels: %w", err)
	}
	want := normalizeChannelRef(ref)
	for _, ch := range channels {
		if ch == nil || !isTextChannel(ch) {
			continue
		}
		if ch.ID == want || strings.EqualFold(ch.Name, want) {
			return ch.ID, nil
		}
	}
	return "", fmt.Errorf("channel %q: %w", ref, bot.ErrNotFound)
}

// ChannelByName finds a text channel by its exact name.
func (b *Bot) ChannelByName(ctx context.Context, guildID, name string) (string, error) {
	return b.ResolveTextChannel(ctx, guildID, name)
}

// GuildSummary describes a guild for the serverinfo action.
func (b *Bot) GuildSummary(_ context.Context, guildID string) (*bot.GuildInfo, error) {
	g, err := b.guilds.get(guildID, b.session)
	if err != nil {
		return nil, err
	}
	channels, err := b.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("discord list channels: %w", err)
	}

	info := &bot.GuildInfo{
		ID:           g.ID,
		Name:         g.Name,
		OwnerID:      g.OwnerID,
		MemberCount:  g.MemberCount,
		RoleCount:    len(g.Roles),
		ChannelCount: len(channels),
		IconURL:      g.IconURL("256"),
	}
	if info.MemberCount == 0 {
		info.MemberCount = g.ApproximateMemberCount
	}
	if created, err := discordgo.SnowflakeTimestamp(g.ID); err == nil {
		info.CreatedAt = created
	}
	return info, nil
}

// MemberSummary describes a guild member for the userinfo action. Role names
// are listed highest first, without @everyone.
func (b *Bot) MemberSummary(_ context.Context, guildID, userID string) (*bot.MemberInfo, error) {
	m, err := b.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("discord get member: %w", err)
	}
	if m.User == nil {
		return nil, fmt.Errorf("member %s: %w", userID, bot.ErrNotFound)
	}
	g, err := b.guilds.get(guildID, b.session)
	if err != nil {
		return nil, err
	}

	var roles []*discordgo.Role
	for _, r := range g.Roles {
		if r != nil && r.ID != g.ID && slices.Contains(m.Roles, r.ID) {
			roles = append(roles, r)
		}
	}
	slices.SortFunc(roles, func(a, b *discordgo.Role) int { return b.Position - a.Position })

	info := &bot.MemberInfo{
		ID:        m.User.ID,
		Username:  m.User.Username,
		Nickname:  m.Nick,
		Bot:       m.User.Bot,
		AvatarURL: m.User.AvatarURL("256"),
		JoinedAt:  m.JoinedAt,
	}
	for _, r := range roles {
		info.Roles = append(info.Roles, r.Name)
	}
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		info.CreatedAt = created
	}
	return info, nil
}
