package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// Intents requested from the gateway: guild metadata, member joins, message
// content in guilds and DMs.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// DiscordSession abstracts the discordgo.Session methods used by the bot,
// enabling test mocking.
type DiscordSession interface {
	Open() error
	Close() error
	AddHandler(handler any) func()
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
}

// NewSession creates a discordgo session authenticated as a bot.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = Intents
	return s, nil
}

// Bot adapts a discordgo session to the platform operations the command
// layer needs.
type Bot struct {
	session DiscordSession
	logger  *slog.Logger

	mu                 sync.RWMutex
	botUserID          string
	messageHandlers    []bot.MessageHandler
	memberJoinHandlers []bot.MemberJoinHandler
	removeHandlers     []func()

	guilds *guildCache
}

// NewBot creates a new Bot with the given session and logger.
func NewBot(session DiscordSession, logger *slog.Logger) *Bot {
	return &Bot{
		session: session,
		logger:  logger,
		guilds:  newGuildCache(),
	}
}

// Start registers gateway handlers, opens the session and resolves the bot user ID.
func (b *Bot) Start(ctx context.Context) error {
	handlers := []any{
		b.handleReady,
		b.handleMessage,
		b.handleMemberAdd,
		b.handleGuildCreate,
		b.handleGuildUpdate,
		b.handleGuildDelete,
		b.handleRoleCreate,
		b.handleRoleUpdate,
		b.handleRoleDelete,
	}
	for _, h := range handlers {
		bot.RegisterHandler(&b.mu, &b.removeHandlers, b.session.AddHandler(h))
	}

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord session open: %w", err)
	}

	user, err := b.session.User("@me")
	if err != nil {
		return fmt.Errorf("discord get bot user: %w", err)
	}
	b.mu.Lock()
	b.botUserID = user.ID
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "discord bot started", "bot_user_id", user.ID, "username", user.Username)
	return nil
}

// Stop closes the Discord session and removes event handlers.
func (b *Bot) Stop() error {
	b.mu.Lock()
	handlers := b.removeHandlers
	b.removeHandlers = nil
	b.mu.Unlock()

	for _, remove := range handlers {
		remove()
	}
	return b.session.Close()
}

// OnMessage registers a handler to be called for incoming messages.
func (b *Bot) OnMessage(handler bot.MessageHandler) {
	bot.RegisterHandler(&b.mu, &b.messageHandlers, handler)
}

// OnMemberJoin registers a handler to be called when a member joins a guild.
func (b *Bot) OnMemberJoin(handler bot.MemberJoinHandler) {
	bot.RegisterHandler(&b.mu, &b.memberJoinHandlers, handler)
}

// BotUserID returns the bot's Discord user ID.
func (b *Bot) BotUserID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.botUserID
}

// SendMessage sends a message, splitting text at the 2000 character limit.
// Only the first chunk is sent as a reply. A message with an embed is sent
// as a single message.
func (b *Bot) SendMessage(_ context.Context, msg *bot.OutgoingMessage) error {
	var ref *discordgo.MessageReference
	if msg.ReplyToMessageID != "" {
		ref = &discordgo.MessageReference{MessageID: msg.ReplyToMessageID, ChannelID: msg.ChannelID}
	}

	if msg.Embed != nil {
		_, err := b.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
			Content:   msg.Content,
			Embeds:    []*discordgo.MessageEmbed{toDiscordEmbed(msg.Embed)},
			Reference: ref,
		})
		if err != nil {
			return fmt.Errorf("discord send embed: %w", err)
		}
		return nil
	}

	for i, chunk := range bot.SplitMessage(msg.Content, bot.MaxMessageLen) {
		if ref != nil && i == 0 {
			if _, err := b.session.ChannelMessageSendReply(msg.ChannelID, chunk, ref); err != nil {
				return fmt.Errorf("discord send reply: %w", err)
			}
			continue
		}
		if _, err := b.session.ChannelMessageSend(msg.ChannelID, chunk); err != nil {
			return fmt.Errorf("discord send message: %w", err)
		}
	}
	return nil
}

// SendDM opens a direct message channel with userID and sends content to it.
func (b *Bot) SendDM(ctx context.Context, userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("discord open dm: %w", err)
	}
	return b.SendMessage(ctx, &bot.OutgoingMessage{ChannelID: ch.ID, Content: content})
}

func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.guilds.join(g.ID)
	}
	b.logger.Info("discord gateway ready", "guilds", len(r.Guilds))
}

func (b *Bot) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == b.BotUserID() {
		return
	}

	ctx := context.Background()
	msg := b.parseIncomingMessage(ctx, m)

	for _, h := range bot.CopyHandlers(&b.mu, b.messageHandlers) {
		h(ctx, msg)
	}
}

func (b *Bot) handleMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.User == nil {
		return
	}
	b.guilds.adjustMemberCount(e.GuildID, 1)

	join := &bot.MemberJoin{
		GuildID:     e.GuildID,
		UserID:      e.User.ID,
		Username:    e.User.Username,
		DisplayName: displayName(e.Member),
		JoinedAt:    e.JoinedAt,
	}

	ctx := context.Background()
	for _, h := range bot.CopyHandlers(&b.mu, b.memberJoinHandlers) {
		h(ctx, join)
	}
}

// parseIncomingMessage converts a discordgo MessageCreate into an IncomingMessage,
// resolving the author's effective guild permissions.
func (b *Bot) parseIncomingMessage(ctx context.Context, m *discordgo.MessageCreate) *bot.IncomingMessage {
	botID := b.BotUserID()
	msg := &bot.IncomingMessage{
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		MessageID:   m.ID,
		AuthorID:    m.Author.ID,
		AuthorName:  m.Author.Username,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
	}

	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		msg.Mentions = append(msg.Mentions, bot.MentionedUser{ID: u.ID, Username: u.Username, Bot: u.Bot})
		if u.ID == botID {
			msg.MentionsBot = true
		}
	}
	if !msg.MentionsBot && botID != "" && bot.MentionsUser(m.Content, botID) {
		msg.MentionsBot = true
	}

	if m.GuildID == "" {
		return msg
	}
	if m.Member != nil {
		msg.AuthorRoles = m.Member.Roles
	}

	g, err := b.guilds.get(m.GuildID, b.session)
	if err != nil {
		b.logger.ErrorContext(ctx, "resolving guild for permissions", "error", err, "guild_id", m.GuildID)
		return msg
	}
	msg.GuildOwnerID = g.OwnerID
	msg.AuthorPermissions = memberPermissions(g, msg.AuthorID, msg.AuthorRoles)
	return msg
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func toDiscordEmbed(e *bot.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

// memberPermissions folds the @everyone role and the member's roles into one
// permission set. The guild owner and administrators hold every permission.
func memberPermissions(g *discordgo.Guild, userID string, roleIDs []string) types.Permission {
	if g.OwnerID != "" && userID == g.OwnerID {
		return types.PermAll
	}

	held := make(map[string]bool, len(roleIDs)+1)
	held[g.ID] = true
	for _, id := range roleIDs {
		held[id] = true
	}

	var perms int64
	for _, role := range g.Roles {
		if role != nil && held[role.ID] {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return types.PermAll
	}
	return types.Permission(perms)
}

// highestRolePosition returns the position of the member's top role, or the
// @everyone position when the member holds no other role.
func highestRolePosition(g *discordgo.Guild, roleIDs []string) int {
	byID := make(map[string]*discordgo.Role, len(g.Roles))
	for _, role := range g.Roles {
		if role != nil {
			byID[role.ID] = role
		}
	}

	pos := -1
	if role, ok := byID[g.ID]; ok {
		pos = role.Position
	}
	for _, id := range roleIDs {
		if role, ok := byID[id]; ok && role.Position > pos {
			pos = role.Position
		}
	}
	return pos
}

func isTextChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

func normalizeChannelRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "<#") && strings.HasSuffix(ref, ">") {
		return ref[2 : len(ref)-1]
	}
	return strings.TrimPrefix(ref, "#")
}
