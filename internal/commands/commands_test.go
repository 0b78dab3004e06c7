package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Tanishk-135/MathMinds-Bot/internal/authz"
	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/graph"
	"github.com/Tanishk-135/MathMinds-Bot/internal/testutil"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, chart graph.Chart) (string, error) {
	args := m.Called(ctx, chart)
	return args.String(0), args.Error(1)
}

type mockNews struct {
	mock.Mock
}

func (m *mockNews) TopHeadline(ctx context.Context) (*Headline, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Headline), args.Error(1)
}

type mockRedeployer struct {
	mock.Mock
}

func (m *mockRedeployer) Redeploy(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockRestarter struct {
	mock.Mock
}

func (m *mockRestarter) Restart(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

var _ Platform = (*testutil.MockPlatform)(nil)

const (
	testBotID   = "bot-1"
	testOwnerID = "owner-1"
	testGuildID = "g-1"
	testChannel = "ch-1"
)

type ActionsSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	platform  *testutil.MockPlatform
	delayer   *testutil.MockDelayer
	renderer  *mockRenderer
	news      *mockNews
	redeploy  *mockRedeployer
	restarter *mockRestarter
	catalog   *Catalog
}

func TestActionsSuite(t *testing.T) {
	suite.Run(t, new(ActionsSuite))
}

func (s *ActionsSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.platform = new(testutil.MockPlatform)
	s.delayer = new(testutil.MockDelayer)
	s.renderer = new(mockRenderer)
	s.news = new(mockNews)
	s.redeploy = new(mockRedeployer)
	s.restarter = new(mockRestarter)

	s.platform.On("BotUserID").Return(testBotID).Maybe()
	s.platform.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Maybe()

	cat, err := NewDefaultCatalog(Deps{
		Platform:   s.platform,
		Delayer:    s.delayer,
		Renderer:   s.renderer,
		News:       s.news,
		Redeployer: s.redeploy,
		Restarter:  s.restarter,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Settings: Settings{
			Prefix:       "!",
			OwnerID:      testOwnerID,
			MuteRoleName: "Muted",
			GraphMin:     -10,
			GraphMax:     10,
			GraphSamples: 5,
			Location:     time.UTC,
		},
		StartedAt: s.now.Add(-(26*time.Hour + 5*time.Minute)),
		Now:       func() time.Time { return s.now },
		Rand:      func(int) int { return 0 },
	})
	require.NoError(s.T(), err)
	s.catalog = cat
}

// message builds a guild message from a moderator holding every permission.
func (s *ActionsSuite) message(content string) *bot.IncomingMessage {
	return &bot.IncomingMessage{
		ChannelID:         testChannel,
		GuildID:           testGuildID,
		GuildOwnerID:      "guild-owner",
		MessageID:         "m-100",
		AuthorID:          "111",
		AuthorName:        "mod",
		AuthorPermissions: types.PermAll,
		Content:           content,
		Timestamp:         s.now.Add(-42 * time.Millisecond),
	}
}

func (s *ActionsSuite) invoke(msg *bot.IncomingMessage) error {
	name, args, ok := bot.ParseCommand(msg.Content, "!")
	require.True(s.T(), ok)
	a, ok := s.catalog.Lookup(name)
	require.True(s.T(), ok, "no action %q", name)
	return a.Run(s.ctx, &Env{Msg: msg, Name: name, Args: args, Catalog: s.catalog})
}

func (s *ActionsSuite) run(content string) error {
	return s.invoke(s.message(content))
}

func (s *ActionsSuite) replies() []string {
	return testutil.SentContents(&s.platform.Mock)
}

func (s *ActionsSuite) lastReply() string {
	r := s.replies()
	require.NotEmpty(s.T(), r)
	return r[len(r)-1]
}

func (s *ActionsSuite) lastSent() *bot.OutgoingMessage {
	var last *bot.OutgoingMessage
	for _, c := range s.platform.Calls {
		if c.Method == "SendMessage" {
			last = c.Arguments.Get(1).(*bot.OutgoingMessage)
		}
	}
	require.NotNil(s.T(), last)
	return last
}

// --- Catalog ---

func (s *ActionsSuite) TestBuiltinNames() {
	var names []string
	for _, a := range s.catalog.List() {
		names = append(names, a.Name)
	}
	require.ElementsMatch(s.T(), []string{
		"ping", "uptime", "help", "hello", "mathfact", "quote", "mathpuzzle",
		"serverinfo", "userinfo", "clear", "mute", "warn", "kick", "ban",
		"restart", "hardreset", "send", "graph", "news",
	}, names)
}

func (s *ActionsSuite) TestNewCatalog() {
	noop := func(context.Context, *Env) error { return nil }

	c, err := NewCatalog(Action{Name: "Ping", Run: noop}, Action{Name: "pong", Run: noop})
	require.NoError(s.T(), err)
	a, ok := c.Lookup("PING")
	require.True(s.T(), ok)
	require.Equal(s.T(), "ping", a.Name)
	require.True(s.T(), authz.IsNone(a.Auth))

	list := c.List()
	require.Len(s.T(), list, 2)
	list[0].Name = "changed"
	a, _ = c.Lookup("ping")
	require.Equal(s.T(), "ping", a.Name)
	require.Equal(s.T(), "ping", c.List()[0].Name)

	_, ok = c.Lookup("notacommand")
	require.False(s.T(), ok)

	_, err = NewCatalog(Action{Name: "a", Run: noop}, Action{Name: "A", Run: noop})
	require.ErrorContains(s.T(), err, "registered twice")

	_, err = NewCatalog(Action{Name: "a"})
	require.ErrorContains(s.T(), err, "required")
}

func (s *ActionsSuite) TestRestAfter() {
	require.Equal(s.T(), "b  c\nd", restAfter("!cmd a b  c\nd", 2))
	require.Equal(s.T(), "", restAfter("!cmd a", 2))
	require.Equal(s.T(), "x^2 + 1", restAfter("graph   x^2 + 1 ", 1))
}

// --- Informational actions ---

func (s *ActionsSuite) TestPing() {
	require.NoError(s.T(), s.run("!ping"))
	require.Equal(s.T(), "🏓 Pong! Latency is 42ms.", s.lastReply())
	require.Equal(s.T(), "m-100", s.lastSent().ReplyToMessageID)
}

func (s *ActionsSuite) TestUptime() {
	require.NoError(s.T(), s.run("!uptime"))
	require.Equal(s.T(), "⏱️ Uptime: 1 day, 2 hours, 5 minutes", s.lastReply())
}

func (s *ActionsSuite) TestFormatUptime() {
	require.Equal(s.T(), "0 days, 0 hours, 0 minutes", FormatUptime(-time.Second))
	require.Equal(s.T(), "0 days, 1 hour, 1 minute", FormatUptime(61*time.Minute))
	require.Equal(s.T(), "3 days, 0 hours, 59 minutes", FormatUptime(72*time.Hour+59*time.Minute+59*time.Second))
}

func (s *ActionsSuite) TestHelpHidesPrivilegedActions() {
	msg := s.message("!help")
	msg.AuthorPermissions = 0
	require.NoError(s.T(), s.invoke(msg))

	text := s.lastReply()
	require.Contains(s.T(), text, "`!ping` - Check the bot's latency")
	require.Contains(s.T(), text, "`!graph <expression in x>`")
	require.NotContains(s.T(), text, "!kick")
	require.NotContains(s.T(), text, "!send")
	require.NotContains(s.T(), text, "!restart")
}

func (s *ActionsSuite) TestHelpForOwner() {
	msg := s.message("!help")
	msg.AuthorID = testOwnerID
	msg.AuthorPermissions = types.PermKickMembers
	require.NoError(s.T(), s.invoke(msg))

	text := s.lastReply()
	require.Contains(s.T(), text, "`!kick @user [reason]`")
	require.Contains(s.T(), text, "`!send #channel [h:mm AM|PM TZ] <message>`")
	require.Contains(s.T(), text, "`!restart`")
	require.NotContains(s.T(), text, "!ban")
}

func (s *ActionsSuite) TestStaticActions() {
	require.NoError(s.T(), s.run("!hello"))
	require.Equal(s.T(), "Hey there! MathMinds Bot is online and ready to solve some math problems. 🚀", s.lastReply())

	require.NoError(s.T(), s.run("!mathfact"))
	require.Equal(s.T(), "📐 "+mathFacts[0], s.lastReply())

	require.NoError(s.T(), s.run("!quote"))
	require.Equal(s.T(), "💬 "+mathQuotes[0], s.lastReply())

	require.NoError(s.T(), s.run("!mathpuzzle"))
	require.Equal(s.T(), "🧩 "+mathPuzzles[0], s.lastReply())
}

func (s *ActionsSuite) TestServerInfo() {
	s.platform.On("GuildSummary", s.ctx, testGuildID).Return(&bot.GuildInfo{
		ID: testGuildID, Name: "Math Club", OwnerID: "guild-owner", MemberCount: 42,
		RoleCount: 5, ChannelCount: 9, CreatedAt: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}, nil)

	require.NoError(s.T(), s.run("!serverinfo"))
	e := s.lastSent().Embed
	require.NotNil(s.T(), e)
	require.Equal(s.T(), "Math Club", e.Title)
	require.Contains(s.T(), e.Fields, bot.EmbedField{Name: "Members", Value: "42", Inline: true})
	require.Contains(s.T(), e.Fields, bot.EmbedField{Name: "Created", Value: "02 Jan 2020", Inline: true})
}

func (s *ActionsSuite) TestServerInfoError() {
	s.platform.On("GuildSummary", s.ctx, testGuildID).Return(nil, errors.New("rate limited"))
	require.ErrorContains(s.T(), s.run("!serverinfo"), "fetching guild summary")
}

func (s *ActionsSuite) TestUserInfo() {
	s.platform.On("MemberSummary", s.ctx, testGuildID, "222").Return(&bot.MemberInfo{
		ID: "222", Username: "noether", Roles: []string{"Admin", "Muted"},
	}, nil)

	msg := s.message("!userinfo <@222>")
	msg.Mentions = []bot.MentionedUser{{ID: "222", Username: "noether"}}
	require.NoError(s.T(), s.invoke(msg))

	e := s.lastSent().Embed
	require.Equal(s.T(), "noether", e.Title)
	require.Contains(s.T(), e.Fields, bot.EmbedField{Name: "Roles", Value: "Admin, Muted"})
	require.Contains(s.T(), e.Fields, bot.EmbedField{Name: "Nickname", Value: "None", Inline: true})
	require.Contains(s.T(), e.Fields, bot.EmbedField{Name: "Joined server", Value: "Unknown", Inline: true})
}

func (s *ActionsSuite) TestUserInfoDefaultsToAuthor() {
	s.platform.On("MemberSummary", s.ctx, testGuildID, "111").Return(&bot.MemberInfo{ID: "111", Username: "mod", Bot: true}, nil)
	require.NoError(s.T(), s.run("!userinfo"))
	require.Equal(s.T(), "mod 🤖", s.lastSent().Embed.Title)
}

// --- graph ---

func (s *ActionsSuite) TestGraph() {
	s.renderer.On("Render", s.ctx, mock.MatchedBy(func(c graph.Chart) bool {
		return c.Label == "y = x" &&
			len(c.Series.Y) == 5 &&
			c.Series.Y[0] == -10 && c.Series.Y[4] == 10 &&
			c.YMin == -12 && c.YMax == 12
	})).Return("https://quickchart.io/chart/render/zm-1", nil)

	require.NoError(s.T(), s.run("!graph x"))
	out := s.lastSent()
	require.Equal(s.T(), "y = x", out.Embed.Title)
	require.Equal(s.T(), "https://quickchart.io/chart/render/zm-1", out.Embed.ImageURL)
	require.Contains(s.T(), out.Embed.Fields, bot.EmbedField{Name: "x range", Value: "[-10, 10]", Inline: true})
	s.renderer.AssertExpectations(s.T())
}

func (s *ActionsSuite) TestGraphRejections() {
	tests := []struct {
		content string
		want    string
	}{
		{"!graph", "Please give me an expression"},
		{"!graph x; exit()", "characters I can't plot"},
		{"!graph x +* 2", "I couldn't parse `x +* 2`"},
		{"!graph sqrt(x - 100)", "isn't defined anywhere on [-10, 10]"},
	}
	for _, tc := range tests {
		s.Run(tc.content, func() {
			require.NoError(s.T(), s.run(tc.content))
			require.Contains(s.T(), s.lastReply(), tc.want)
		})
	}
	s.renderer.AssertNotCalled(s.T(), "Render", mock.Anything, mock.Anything)
}

func (s *ActionsSuite) TestGraphRenderFailure() {
	s.renderer.On("Render", s.ctx, mock.Anything).Return("", errors.New("quickchart down"))
	require.NoError(s.T(), s.run("!graph x^2"))
	require.Equal(s.T(), "Sorry, I couldn't render the graph right now.", s.lastReply())
}

// --- news ---

func (s *ActionsSuite) TestNews() {
	s.news.On("TopHeadline", s.ctx).Return(&Headline{Title: "New prime found", URL: "https://example.org/p", Source: "Nature"}, nil)
	require.NoError(s.T(), s.run("!news"))
	out := s.lastSent()
	require.Equal(s.T(), "New prime found", out.Embed.Title)
	require.Equal(s.T(), []bot.EmbedField{{Name: "Source", Value: "Nature", Inline: true}}, out.Embed.Fields)
}

func (s *ActionsSuite) TestNewsFailures() {
	s.news.On("TopHeadline", s.ctx).Return(nil, errors.New("timeout")).Once()
	require.NoError(s.T(), s.run("!news"))
	require.Equal(s.T(), "Sorry, I couldn't fetch the news right now.", s.lastReply())

	s.news.On("TopHeadline", s.ctx).Return(nil, ErrNoHeadlines).Once()
	require.NoError(s.T(), s.run("!news"))
	require.Equal(s.T(), "There are no science headlines right now.", s.lastReply())
}
