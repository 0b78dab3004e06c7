package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// MockPlatform implements the chat platform interfaces used by the command,
// router and welcome packages.
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) SendMessage(ctx context.Context, msg *bot.OutgoingMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockPlatform) SendDM(ctx context.Context, userID, content string) error {
	return m.Called(ctx, userID, content).Error(0)
}

func (m *MockPlatform) BotUserID() string {
	return m.Called().String(0)
}

func (m *MockPlatform) GuildCount() int {
	return m.Called().Int(0)
}

func (m *MockPlatform) GuildIDs() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockPlatform) RecentMessages(ctx context.Context, channelID, beforeID string, limit int) ([]bot.HistoryMessage, error) {
	args := m.Called(ctx, channelID, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bot.HistoryMessage), args.Error(1)
}

func (m *MockPlatform) DeleteMessages(ctx context.Context, channelID string, ids []string) error {
	return m.Called(ctx, channelID, ids).Error(0)
}

func (m *MockPlatform) RoleByName(ctx context.Context, guildID, name string) (string, error) {
	args := m.Called(ctx, guildID, name)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) MemberHasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	args := m.Called(ctx, guildID, userID, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

func (m *MockPlatform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

func (m *MockPlatform) Kick(ctx context.Context, guildID, userID, reason string) error {
	return m.Called(ctx, guildID, userID, reason).Error(0)
}

func (m *MockPlatform) Ban(ctx context.Context, guildID, userID, reason string) error {
	return m.Called(ctx, guildID, userID, reason).Error(0)
}

func (m *MockPlatform) BotHasPermission(ctx context.Context, guildID string, perm types.Permission) (bool, error) {
	args := m.Called(ctx, guildID, perm)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatform) CanModerate(ctx context.Context, guildID, targetID string) (bool, error) {
	args := m.Called(ctx, guildID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlatform) ResolveTextChannel(ctx context.Context, guildID, ref string) (string, error) {
	args := m.Called(ctx, guildID, ref)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) ChannelByName(ctx context.Context, guildID, name string) (string, error) {
	args := m.Called(ctx, guildID, name)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) GuildSummary(ctx context.Context, guildID string) (*bot.GuildInfo, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bot.GuildInfo), args.Error(1)
}

func (m *MockPlatform) MemberSummary(ctx context.Context, guildID, userID string) (*bot.MemberInfo, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bot.MemberInfo), args.Error(1)
}

// MockDelayer records scheduled actions without arming timers.
type MockDelayer struct {
	mock.Mock
}

func (m *MockDelayer) Schedule(ctx context.Context, a scheduler.Action) (*scheduler.Handle, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Handle), args.Error(1)
}

// SentContents returns the Content of every SendMessage call in order.
func SentContents(m *mock.Mock) []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method != "SendMessage" {
			continue
		}
		if msg, ok := c.Arguments.Get(1).(*bot.OutgoingMessage); ok {
			out = append(out, msg.Content)
		}
	}
	return out
}
