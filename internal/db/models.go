package db

import (
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// PendingAction is the durable record of a delayed side effect (an unmute or
// a scheduled send). The timer itself lives in memory; the record only lets a
// restart detect that the timer was lost.
type PendingAction struct {
	ID        int64              `json:"id"`
	HandleID  string             `json:"handle_id"`
	Kind      types.ActionKind   `json:"kind"`
	Key       string             `json:"key"`
	GuildID   string             `json:"guild_id"`
	ChannelID string             `json:"channel_id"`
	UserID    string             `json:"user_id"`
	RoleID    string             `json:"role_id"`
	Body      string             `json:"body"`
	FireAt    time.Time          `json:"fire_at"`
	Status    types.ActionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Joiner is a member join waiting for the next daily summary.
type Joiner struct {
	ID       int64     `json:"id"`
	GuildID  string    `json:"guild_id"`
	UserID   string    `json:"user_id"`
	Display  string    `json:"display"`
	JoinedAt time.Time `json:"joined_at"`
}

// LogRole tells who authored a conversation log entry.
type LogRole string

const (
	LogRoleUser      LogRole = "user"
	LogRoleAssistant LogRole = "assistant"
)

// LogEntry is one line of mention-prompt conversation history.
type LogEntry struct {
	ID        int64     `json:"id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Role      LogRole   `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
