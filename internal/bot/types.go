package bot

import (
	"context"
	"time"

	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// MentionedUser is a user referenced in a message, as resolved by the platform.
type MentionedUser struct {
	ID       string
	Username string
	Bot      bool
}

// IncomingMessage from the chat platform.
type IncomingMessage struct {
	ChannelID         string
	GuildID           string
	GuildOwnerID      string
	MessageID         string
	AuthorID          string
	AuthorName        string
	AuthorIsBot       bool
	AuthorPermissions types.Permission
	AuthorRoles       []string
	Content           string
	Mentions          []MentionedUser
	MentionsBot       bool
	Timestamp         time.Time
}

// IsDM reports whether the message was sent outside a guild.
func (m *IncomingMessage) IsDM() bool {
	return m.GuildID == ""
}

// EmbedField is a name/value pair rendered inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message attachment.
type Embed struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	Color       int
	Fields      []EmbedField
}

// OutgoingMessage to the chat platform.
type OutgoingMessage struct {
	ChannelID        string
	Content          string
	ReplyToMessageID string
	Embed            *Embed
}

// MemberJoin is emitted when a user joins a guild.
type MemberJoin struct {
	GuildID     string
	UserID      string
	Username    string
	DisplayName string
	JoinedAt    time.Time
}

// MessageHandler is a callback for incoming messages.
type MessageHandler = func(ctx context.Context, msg *IncomingMessage)

// MemberJoinHandler is a callback for guild member joins.
type MemberJoinHandler = func(ctx context.Context, join *MemberJoin)

// HistoryMessage is a message already posted in a channel.
type HistoryMessage struct {
	ID        string
	AuthorID  string
	Timestamp time.Time
}

// GuildInfo summarises a guild for display.
type GuildInfo struct {
	ID           string
	Name         string
	OwnerID      string
	MemberCount  int
	RoleCount    int
	ChannelCount int
	IconURL      string
	CreatedAt    time.Time
}

// MemberInfo summarises a guild member for display.
type MemberInfo struct {
	ID        string
	Username  string
	Nickname  string
	Bot       bool
	Roles     []string
	AvatarURL string
	JoinedAt  time.Time
	CreatedAt time.Time
}
