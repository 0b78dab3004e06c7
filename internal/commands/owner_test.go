package commands

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

func (s *ActionsSuite) ownerMessage(content string) *bot.IncomingMessage {
	msg := s.message(content)
	msg.AuthorID = testOwnerID
	return msg
}

func (s *ActionsSuite) TestRestart() {
	s.restarter.On("Restart", s.ctx, "restart command from owner-1").Return()
	require.NoError(s.T(), s.invoke(s.ownerMessage("!restart")))
	require.Equal(s.T(), "Restarting bot now...", s.lastReply())
	s.restarter.AssertExpectations(s.T())
}

func (s *ActionsSuite) TestRestartAuthorization() {
	restart, _ := s.catalog.Lookup("restart")

	guildOwner := s.message("!restart")
	guildOwner.AuthorID = "guild-owner"
	require.True(s.T(), restart.Auth.Check(SubjectOf(guildOwner)))
	require.True(s.T(), restart.Auth.Check(SubjectOf(s.ownerMessage("!restart"))))
	require.False(s.T(), restart.Auth.Check(SubjectOf(s.message("!restart"))))
	require.Equal(s.T(), "🚫 Only the bot owner can restart me!", restart.Auth.Denial())
}

func (s *ActionsSuite) TestHardReset() {
	s.redeploy.On("Redeploy", s.ctx).Return("Updating 1a2b..3c4d\nFast-forward\n", nil)
	require.NoError(s.T(), s.invoke(s.ownerMessage("!hardreset")))
	require.Equal(s.T(), []string{
		"🔄 Pulling the latest code...",
		"✅ Update pulled, restarting now:\n```\nUpdating 1a2b..3c4d\nFast-forward\n```",
	}, s.replies())
}

func (s *ActionsSuite) TestHardResetFailureEchoesOutput() {
	s.redeploy.On("Redeploy", s.ctx).Return("fatal: not a git repository", errors.New("exit status 128"))
	require.NoError(s.T(), s.invoke(s.ownerMessage("!hardreset")))
	require.Equal(s.T(), "❌ Redeploy failed:\n```\nfatal: not a git repository\n```", s.lastReply())
}

func (s *ActionsSuite) TestCodeBlock() {
	require.Equal(s.T(), "```\n(no output)\n```", codeBlock("  "))
	long := codeBlock(strings.Repeat("é", maxEchoRunes+10))
	require.True(s.T(), strings.HasSuffix(long, "\n...\n```"))
	require.Equal(s.T(), "```\n'''x'''\n```", codeBlock("```x```"))
}

func (s *ActionsSuite) TestSendNow() {
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "#announcements").Return("ch-ann", nil)

	require.NoError(s.T(), s.invoke(s.ownerMessage("!send #announcements Contest starts now!\nGood luck.")))
	require.Equal(s.T(), []string{
		"Contest starts now!\nGood luck.",
		"✅ Message sent to <#ch-ann>.",
	}, s.replies())
	s.delayer.AssertNotCalled(s.T(), "Schedule", mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestSendScheduled() {
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "<#ch-ann>").Return("ch-ann", nil)
	action := s.captureSchedule()

	require.NoError(s.T(), s.invoke(s.ownerMessage("!send <#ch-ann> 3:30 PM IST Contest starts now!")))

	// 08:00 UTC is 13:30 IST, so 3:30 PM IST is later the same day.
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.True(s.T(), want.Equal(action.FireAt), "fire at %s", action.FireAt)
	require.Equal(s.T(), types.ActionSend, action.Kind)
	require.Equal(s.T(), "Contest starts now!", action.Body)
	require.Equal(s.T(), "ch-ann", action.ChannelID)
	require.Equal(s.T(), "⏰ Message for <#ch-ann> scheduled for Sun 01 Mar 2026, 3:30 PM IST.", s.lastReply())

	require.NoError(s.T(), action.Run(s.ctx))
	sent := s.lastSent()
	require.Equal(s.T(), "ch-ann", sent.ChannelID)
	require.Equal(s.T(), "Contest starts now!", sent.Content)
}

func (s *ActionsSuite) TestSendScheduledPastTimeRollsOver() {
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "general").Return("ch-gen", nil)
	action := s.captureSchedule()

	require.NoError(s.T(), s.invoke(s.ownerMessage("!send general 7:00 AM UTC hi")))
	require.True(s.T(), time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC).Equal(action.FireAt))
}

func (s *ActionsSuite) TestSendValidation() {
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "#missing").Return("", bot.ErrNotFound)
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "#general").Return("ch-gen", nil)

	tests := []struct {
		content string
		want    string
	}{
		{"!send", "Usage: `!send #channel [h:mm AM|PM TZ] <message>`"},
		{"!send #general", "Usage: `!send #channel [h:mm AM|PM TZ] <message>`"},
		{"!send #missing hello", "I couldn't find that text channel."},
		{"!send #general 13:00 PM IST hi", "Invalid time."},
		{"!send #general 3:00 XM IST hi", "Invalid time."},
		{"!send #general 3:00 PM Mars/Base hi", "Invalid time."},
		{"!send #general 3:00 PM", "Invalid time."},
		{"!send #general 3:00 PM IST", "Usage:"},
	}
	for _, tc := range tests {
		s.Run(tc.content, func() {
			require.NoError(s.T(), s.invoke(s.ownerMessage(tc.content)))
			require.Contains(s.T(), s.lastReply(), tc.want)
		})
	}
	s.delayer.AssertNotCalled(s.T(), "Schedule", mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestSendScheduleError() {
	s.platform.On("ResolveTextChannel", s.ctx, testGuildID, "#general").Return("ch-gen", nil)
	s.delayer.On("Schedule", s.ctx, mock.Anything).Return(nil, errors.New("recording pending action: disk full"))
	require.ErrorContains(s.T(), s.invoke(s.ownerMessage("!send #general 3:00 PM IST hi")), "scheduling message")
}

func (s *ActionsSuite) TestLooksLikeClock() {
	require.True(s.T(), looksLikeClock("3:30"))
	require.True(s.T(), looksLikeClock("12:00"))
	require.False(s.T(), looksLikeClock("hello"))
	require.False(s.T(), looksLikeClock("ratio:2"))
	require.False(s.T(), looksLikeClock(":30"))
}

func (s *ActionsSuite) TestNewsAPI() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.T(), "/v2/top-headlines", r.URL.Path)
		require.Equal(s.T(), "science", r.URL.Query().Get("category"))
		require.Equal(s.T(), "key-1", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[{"title":"New prime found","url":"https://example.org/p","source":{"name":"Nature"}}]}`))
	}))
	defer srv.Close()

	hl, err := NewNewsAPI(srv.URL, "key-1").TopHeadline(s.ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), &Headline{Title: "New prime found", URL: "https://example.org/p", Source: "Nature"}, hl)
}

func (s *ActionsSuite) TestNewsAPIErrors() {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"empty", http.StatusOK, `{"status":"ok","articles":[]}`, ErrNoHeadlines, ""},
		{"bad key", http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`, nil, "apiKeyInvalid"},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewNewsAPI(srv.URL, "k").TopHeadline(s.ctx)
			if tc.wantErr != nil {
				require.ErrorIs(s.T(), err, tc.wantErr)
			} else {
				require.ErrorContains(s.T(), err, tc.wantMsg)
			}
		})
	}
}
