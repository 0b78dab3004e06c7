package types

// Permission is a platform capability bit, mirroring Discord's permission flags.
type Permission int64

const (
	PermKickMembers    Permission = 1 << 1
	PermBanMembers     Permission = 1 << 2
	PermAdministrator  Permission = 1 << 3
	PermManageMessages Permission = 1 << 13
	PermManageRoles    Permission = 1 << 28
)

// PermAll is granted to guild owners.
const PermAll Permission = -1

// Has reports whether set grants p. Administrator implies every permission.
func (set Permission) Has(p Permission) bool {
	if set&PermAdministrator != 0 {
		return true
	}
	return set&p == p
}

// ActionKind identifies a delayed side effect.
type ActionKind string

const (
	ActionUnmute ActionKind = "unmute"
	ActionSend   ActionKind = "send"
)

// ActionStatus is the lifecycle state of a delayed action record.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionDone      ActionStatus = "done"
	ActionCancelled ActionStatus = "cancelled"
	ActionFailed    ActionStatus = "failed"
	ActionLost      ActionStatus = "lost"
)
