package commands

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

func (s *ActionsSuite) withMention(content, userID, username string) *bot.IncomingMessage {
	msg := s.message(content)
	msg.Mentions = []bot.MentionedUser{{ID: userID, Username: username}}
	return msg
}

// --- clear ---

func (s *ActionsSuite) TestClearRejectsOutOfRange() {
	for _, content := range []string{"!clear", "!clear 0", "!clear 101", "!clear -3", "!clear ten"} {
		s.Run(content, func() {
			require.NoError(s.T(), s.run(content))
			require.Contains(s.T(), s.lastReply(), "between 1 and 100")
		})
	}
	s.platform.AssertNotCalled(s.T(), "RecentMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.platform.AssertNotCalled(s.T(), "DeleteMessages", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestClearDeletesExactlyCount() {
	history := make([]bot.HistoryMessage, 5)
	ids := make([]string, 5)
	for i := range history {
		ids[i] = "m-" + string(rune('a'+i))
		history[i] = bot.HistoryMessage{ID: ids[i], Timestamp: s.now.Add(-time.Duration(i+1) * time.Minute)}
	}
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermManageMessages).Return(true, nil)
	s.platform.On("RecentMessages", s.ctx, testChannel, "m-100", 5).Return(history, nil)
	s.platform.On("DeleteMessages", s.ctx, testChannel, ids).Return(nil)

	require.NoError(s.T(), s.run("!clear 5"))
	require.Equal(s.T(), "🧹 Deleted 5 messages.", s.lastReply())
	s.platform.AssertExpectations(s.T())
}

func (s *ActionsSuite) TestClearSkipsOldMessages() {
	history := []bot.HistoryMessage{
		{ID: "new", Timestamp: s.now.Add(-time.Hour)},
		{ID: "old", Timestamp: s.now.Add(-15 * 24 * time.Hour)},
	}
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermManageMessages).Return(true, nil)
	s.platform.On("RecentMessages", s.ctx, testChannel, "m-100", 2).Return(history, nil)
	s.platform.On("DeleteMessages", s.ctx, testChannel, []string{"new"}).Return(nil)

	require.NoError(s.T(), s.run("!clear 2"))
	require.Equal(s.T(), "🧹 Deleted 1 message. Skipped 1 older than 14 days.", s.lastReply())
}

func (s *ActionsSuite) TestClearNothingDeletable() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermManageMessages).Return(true, nil)
	s.platform.On("RecentMessages", s.ctx, testChannel, "m-100", 3).Return([]bot.HistoryMessage{}, nil)

	require.NoError(s.T(), s.run("!clear 3"))
	require.Equal(s.T(), "🧹 Deleted 0 messages.", s.lastReply())
	s.platform.AssertNotCalled(s.T(), "DeleteMessages", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestClearBotLacksPermission() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermManageMessages).Return(false, nil)
	require.NoError(s.T(), s.run("!clear 5"))
	require.Equal(s.T(), "I don't have permission to manage messages here.", s.lastReply())
	s.platform.AssertNotCalled(s.T(), "DeleteMessages", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestClearDeleteError() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermManageMessages).Return(true, nil)
	s.platform.On("RecentMessages", s.ctx, testChannel, "m-100", 1).Return([]bot.HistoryMessage{{ID: "x", Timestamp: s.now}}, nil)
	s.platform.On("DeleteMessages", s.ctx, testChannel, []string{"x"}).Return(errors.New("forbidden"))
	require.ErrorContains(s.T(), s.run("!clear 1"), "deleting messages")
}

// --- mute ---

func (s *ActionsSuite) captureSchedule() *scheduler.Action {
	var captured scheduler.Action
	s.delayer.On("Schedule", s.ctx, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(scheduler.Action)
	}).Return(&scheduler.Handle{ID: "h-1"}, nil).Once()
	return &captured
}

func (s *ActionsSuite) TestMuteSchedulesOneUnmute() {
	s.platform.On("RoleByName", s.ctx, testGuildID, "Muted").Return("r-muted", nil)
	s.platform.On("AddRole", s.ctx, testGuildID, "222", "r-muted").Return(nil)
	action := s.captureSchedule()

	require.NoError(s.T(), s.invoke(s.withMention("!mute <@222> 1", "222", "euler")))
	require.Equal(s.T(), "🔇 <@222> has been muted for 1 minute.", s.lastReply())

	s.delayer.AssertNumberOfCalls(s.T(), "Schedule", 1)
	require.Equal(s.T(), types.ActionUnmute, action.Kind)
	require.Equal(s.T(), s.now.Add(60*time.Second), action.FireAt)
	require.Equal(s.T(), muteKey(testGuildID, "222", "r-muted"), action.Key)
	require.Equal(s.T(), "r-muted", action.RoleID)
	require.Equal(s.T(), testChannel, action.ChannelID)
	s.platform.AssertNotCalled(s.T(), "RemoveRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Firing removes the role and announces it in the original channel.
	fireCtx := context.Background()
	s.platform.On("MemberHasRole", fireCtx, testGuildID, "222", "r-muted").Return(true, nil)
	s.platform.On("RemoveRole", fireCtx, testGuildID, "222", "r-muted").Return(nil)
	require.NoError(s.T(), action.Run(fireCtx))
	require.Equal(s.T(), "🔊 <@222> has been unmuted.", s.lastReply())
	require.Empty(s.T(), s.lastSent().ReplyToMessageID)
}

func (s *ActionsSuite) TestUnmuteIsNoOpWhenRoleAlreadyRemoved() {
	s.platform.On("RoleByName", s.ctx, testGuildID, "Muted").Return("r-muted", nil)
	s.platform.On("AddRole", s.ctx, testGuildID, "222", "r-muted").Return(nil)
	action := s.captureSchedule()
	require.NoError(s.T(), s.invoke(s.withMention("!mute <@222> 5", "222", "euler")))
	sent := len(s.replies())

	s.platform.On("MemberHasRole", mock.Anything, testGuildID, "222", "r-muted").Return(false, nil)
	require.NoError(s.T(), action.Run(context.Background()))
	s.platform.AssertNotCalled(s.T(), "RemoveRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(s.T(), s.replies(), sent)
}

func (s *ActionsSuite) TestMuteValidation() {
	tests := []struct {
		name string
		msg  *bot.IncomingMessage
		want string
	}{
		{"no mention", s.message("!mute 5"), "Please mention the member you want to mute"},
		{"no minutes", s.withMention("!mute <@222>", "222", "euler"), "positive whole number"},
		{"zero minutes", s.withMention("!mute <@222> 0", "222", "euler"), "positive whole number"},
		{"not a number", s.withMention("!mute <@222> soon", "222", "euler"), "positive whole number"},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			require.NoError(s.T(), s.invoke(tc.msg))
			require.Contains(s.T(), s.lastReply(), tc.want)
		})
	}
	s.platform.AssertNotCalled(s.T(), "AddRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.delayer.AssertNotCalled(s.T(), "Schedule", mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestMuteMissingRole() {
	s.platform.On("RoleByName", s.ctx, testGuildID, "Muted").Return("", bot.ErrNotFound)
	require.NoError(s.T(), s.invoke(s.withMention("!mute <@222> 5", "222", "euler")))
	require.Equal(s.T(), `There is no role named "Muted" in this server. Please create it first.`, s.lastReply())
	s.platform.AssertNotCalled(s.T(), "AddRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestMuteScheduleFailure() {
	s.platform.On("RoleByName", s.ctx, testGuildID, "Muted").Return("r-muted", nil)
	s.platform.On("AddRole", s.ctx, testGuildID, "222", "r-muted").Return(nil)
	s.delayer.On("Schedule", s.ctx, mock.Anything).Return(nil, errors.New("delayer stopped"))

	require.NoError(s.T(), s.invoke(s.withMention("!mute <@222> 5", "222", "euler")))
	require.Contains(s.T(), s.lastReply(), "couldn't schedule the unmute")
}

// --- warn ---

func (s *ActionsSuite) TestWarn() {
	require.NoError(s.T(), s.invoke(s.withMention("!warn <@222> spamming the channel", "222", "euler")))
	require.Equal(s.T(), "⚠️ <@222> has been warned by <@111>. Reason: spamming the channel", s.lastReply())

	require.NoError(s.T(), s.invoke(s.withMention("!warn <@222>", "222", "euler")))
	require.Contains(s.T(), s.lastReply(), "Please provide a reason")
}

// --- kick / ban ---

func (s *ActionsSuite) TestKick() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermKickMembers).Return(true, nil)
	s.platform.On("CanModerate", s.ctx, testGuildID, "222").Return(true, nil)
	s.platform.On("Kick", s.ctx, testGuildID, "222", "spam links").Return(nil)

	require.NoError(s.T(), s.invoke(s.withMention("!kick <@222> spam links", "222", "euler")))
	require.Equal(s.T(), "Successfully kicked euler. Reason: spam links", s.lastReply())
}

func (s *ActionsSuite) TestBanDefaultReason() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermBanMembers).Return(true, nil)
	s.platform.On("CanModerate", s.ctx, testGuildID, "222").Return(true, nil)
	s.platform.On("Ban", s.ctx, testGuildID, "222", "No reason provided.").Return(nil)

	require.NoError(s.T(), s.invoke(s.withMention("!ban <@222>", "222", "euler")))
	require.Equal(s.T(), "Successfully banned euler. Reason: No reason provided.", s.lastReply())
}

func (s *ActionsSuite) TestKickRefusals() {
	tests := []struct {
		name  string
		msg   *bot.IncomingMessage
		setup func()
		want  string
	}{
		{
			name: "no mention",
			msg:  s.message("!kick"),
			want: "Please mention the member you want to kick. Usage: `!kick @user [reason]`",
		},
		{
			name: "self",
			msg:  s.withMention("!kick <@111>", "111", "mod"),
			want: "You can't kick yourself.",
		},
		{
			name: "bot lacks permission",
			msg:  s.withMention("!kick <@222>", "222", "euler"),
			setup: func() {
				s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermKickMembers).Return(false, nil).Once()
			},
			want: "I don't have permission to kick members.",
		},
		{
			name: "hierarchy",
			msg:  s.withMention("!kick <@222>", "222", "euler"),
			setup: func() {
				s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermKickMembers).Return(true, nil).Once()
				s.platform.On("CanModerate", s.ctx, testGuildID, "222").Return(false, nil).Once()
			},
			want: "I can't kick that member because their highest role is not below mine.",
		},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			if tc.setup != nil {
				tc.setup()
			}
			require.NoError(s.T(), s.invoke(tc.msg))
			require.Equal(s.T(), tc.want, s.lastReply())
		})
	}
	s.platform.AssertNotCalled(s.T(), "Kick", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestKickPlatformFailureIsReported() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermKickMembers).Return(true, nil)
	s.platform.On("CanModerate", s.ctx, testGuildID, "222").Return(true, nil)
	s.platform.On("Kick", s.ctx, testGuildID, "222", "No reason provided.").Return(errors.New("50013 missing permissions"))

	require.NoError(s.T(), s.invoke(s.withMention("!kick <@222>", "222", "euler")))
	require.Equal(s.T(), "An error occurred while trying to kick that member.", s.lastReply())
}

func (s *ActionsSuite) TestKickUsesRawMentionFallback() {
	s.platform.On("BotHasPermission", s.ctx, testGuildID, types.PermKickMembers).Return(true, nil)
	s.platform.On("CanModerate", s.ctx, testGuildID, "12345").Return(true, nil)
	s.platform.On("Kick", s.ctx, testGuildID, "12345", "bye").Return(nil)

	require.NoError(s.T(), s.run("!kick <@!12345> bye"))
	require.Equal(s.T(), "Successfully kicked <@12345>. Reason: bye", s.lastReply())
}
