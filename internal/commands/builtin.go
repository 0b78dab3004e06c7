package commands

import (
	"github.com/Tanishk-135/MathMinds-Bot/internal/authz"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// Builtin returns every action the bot ships with, bound to d.
func Builtin(d Deps) []Action {
	h := newHandlers(d)
	owner := authz.BotOwner(h.Settings.OwnerID)

	return []Action{
		{Name: "ping", Usage: "ping", Description: "Check the bot's latency", Run: h.ping},
		{Name: "uptime", Usage: "uptime", Description: "How long the bot has been running", Run: h.uptime},
		{Name: "help", Usage: "help", Description: "List the available commands", Run: h.help},
		{Name: "hello", Usage: "hello", Description: "Say hi to the bot", Run: h.hello},
		{Name: "mathfact", Usage: "mathfact", Description: "A random math fact", Run: h.mathfact},
		{Name: "quote", Usage: "quote", Description: "A quote from a mathematician", Run: h.quote},
		{Name: "mathpuzzle", Usage: "mathpuzzle", Description: "A puzzle to think about", Run: h.mathpuzzle},
		{Name: "serverinfo", Usage: "serverinfo", Description: "Information about this server", GuildOnly: true, Run: h.serverinfo},
		{Name: "userinfo", Usage: "userinfo [@user]", Description: "Information about a member", GuildOnly: true, Run: h.userinfo},
		{Name: "graph", Usage: "graph <expression in x>", Description: "Plot y = f(x), e.g. sin(x) or x^2", Run: h.graph},
		{Name: "news", Usage: "news", Description: "Today's top science headline", Run: h.news},
		{
			Name: "clear", Usage: "clear <1-100>", Description: "Delete recent messages in this channel",
			Auth:       authz.Permission(types.PermManageMessages, "manage messages"),
			Privileged: true, GuildOnly: true, Run: h.clear,
		},
		{
			Name: "mute", Usage: "mute @user <minutes>", Description: "Mute a member for a while",
			Auth:       authz.Permission(types.PermManageRoles, "manage roles"),
			Privileged: true, GuildOnly: true, Run: h.mute,
		},
		{
			Name: "warn", Usage: "warn @user <reason>", Description: "Publicly warn a member",
			Auth:       authz.Permission(types.PermManageMessages, "warn members"),
			Privileged: true, GuildOnly: true, Run: h.warn,
		},
		{
			Name: "kick", Usage: "kick @user [reason]", Description: "Kick a member",
			Auth:       authz.Permission(types.PermKickMembers, "kick members"),
			Privileged: true, GuildOnly: true, Run: h.kick,
		},
		{
			Name: "ban", Usage: "ban @user [reason]", Description: "Ban a member",
			Auth:       authz.Permission(types.PermBanMembers, "ban members"),
			Privileged: true, GuildOnly: true, Run: h.ban,
		},
		{
			Name: "restart", Usage: "restart", Description: "Restart the bot",
			Auth:       authz.AnyOfWithDenial("🚫 Only the bot owner can restart me!", authz.GuildOwner(), owner),
			Privileged: true, Run: h.restart,
		},
		{
			Name: "hardreset", Usage: "hardreset", Description: "Pull the latest code and restart",
			Auth: owner, Privileged: true, Run: h.hardreset,
		},
		{
			Name: "send", Usage: "send #channel [h:mm AM|PM TZ] <message>", Description: "Post a message now or at a time of day",
			Auth: owner, Privileged: true, GuildOnly: true, Run: h.send,
		},
	}
}

// NewDefaultCatalog builds the catalog of built-in actions.
func NewDefaultCatalog(d Deps) (*Catalog, error) {
	return NewCatalog(Builtin(d)...)
}
