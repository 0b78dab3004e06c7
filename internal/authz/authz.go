// Package authz gates privileged actions on the sender's identity and
// guild permissions. Checks are pure and run before any side effect.
package authz

import (
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// Subject is the sender being authorized.
type Subject struct {
	UserID       string
	GuildID      string
	GuildOwnerID string
	Permissions  types.Permission
}

// InGuild reports whether the subject is acting inside a guild.
func (s Subject) InGuild() bool {
	return s.GuildID != ""
}

// Requirement is a single authorization predicate with its user-facing
// denial text.
type Requirement interface {
	Check(Subject) bool
	Denial() string
}

// None admits everyone.
var None Requirement = none{}

type none struct{}

func (none) Check(Subject) bool { return true }
func (none) Denial() string     { return "" }

type permission struct {
	flag  types.Permission
	label string
}

// Permission requires the sender to hold flag in the guild. label names the
// capability in the denial, e.g. "kick members".
func Permission(flag types.Permission, label string) Requirement {
	return permission{flag: flag, label: label}
}

func (p permission) Check(s Subject) bool {
	return s.InGuild() && s.Permissions.Has(p.flag)
}

func (p permission) Denial() string {
	return "You don't have permission to " + p.label + "."
}

type guildOwner struct{}

// GuildOwner requires the sender to own the guild.
func GuildOwner() Requirement {
	return guildOwner{}
}

func (guildOwner) Check(s Subject) bool {
	return s.InGuild() && s.GuildOwnerID != "" && s.UserID == s.GuildOwnerID
}

func (guildOwner) Denial() string {
	return "🚫 Only the server owner can do that!"
}

type botOwner struct {
	id string
}

// BotOwner requires the sender to be the configured bot owner. An empty id
// denies everyone.
func BotOwner(id string) Requirement {
	return botOwner{id: id}
}

func (b botOwner) Check(s Subject) bool {
	return b.id != "" && s.UserID == b.id
}

func (botOwner) Denial() string {
	return "🚫 Only the bot owner can do that!"
}

type anyOf struct {
	reqs   []Requirement
	denial string
}

// AnyOf passes when at least one of reqs passes. The denial is taken from
// the first requirement.
func AnyOf(reqs ...Requirement) Requirement {
	a := anyOf{reqs: reqs}
	if len(reqs) > 0 {
		a.denial = reqs[0].Denial()
	}
	return a
}

// AnyOfWithDenial is AnyOf with an explicit denial text.
func AnyOfWithDenial(denial string, reqs ...Requirement) Requirement {
	return anyOf{reqs: reqs, denial: denial}
}

func (a anyOf) Check(s Subject) bool {
	for _, r := range a.reqs {
		if r.Check(s) {
			return true
		}
	}
	return false
}

func (a anyOf) Denial() string {
	return a.denial
}

// IsNone reports whether r admits everyone.
func IsNone(r Requirement) bool {
	_, ok := r.(none)
	return r == nil || ok
}
