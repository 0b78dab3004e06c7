package bot

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLen is the platform's per-message character limit.
const MaxMessageLen = 2000

var (
	// ErrNoMention is returned when a command needs a user mention and none is present.
	ErrNoMention = errors.New("no user mentioned")
	// ErrNotFound is returned by platform lookups (roles, channels, members) that find nothing.
	ErrNotFound = errors.New("not found")
)

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// ParseCommand splits content into a lower-cased command name and its
// whitespace-separated arguments. ok is false when content does not start
// with prefix or no command name follows it.
func ParseCommand(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// StripMention removes both <@botUserID> and <@!botUserID> forms from content
// and trims surrounding whitespace.
func StripMention(content, botUserID string) string {
	mention := "<@" + botUserID + ">"
	mentionNick := "<@!" + botUserID + ">"
	content = strings.ReplaceAll(content, mention, "")
	content = strings.ReplaceAll(content, mentionNick, "")
	return strings.TrimSpace(content)
}

// MentionsUser reports whether content carries a raw mention token for userID.
func MentionsUser(content, userID string) bool {
	return strings.Contains(content, "<@"+userID+">") || strings.Contains(content, "<@!"+userID+">")
}

// FirstMentionedUser returns the first user mentioned in msg other than
// excludeID. Structured mentions win; raw <@id> tokens are the fallback.
func FirstMentionedUser(msg *IncomingMessage, excludeID string) (string, error) {
	for _, u := range msg.Mentions {
		if u.ID != excludeID {
			return u.ID, nil
		}
	}
	for _, m := range mentionPattern.FindAllStringSubmatch(msg.Content, -1) {
		if m[1] != excludeID {
			return m[1], nil
		}
	}
	return "", ErrNoMention
}

// IsMentionToken reports whether arg is a user mention token such as <@123>.
func IsMentionToken(arg string) bool {
	loc := mentionPattern.FindStringIndex(arg)
	return loc != nil && loc[0] == 0 && loc[1] == len(arg)
}

// SplitMessage splits a message into chunks of at most maxLen runes,
// breaking on newlines when possible and never inside a code point.
func SplitMessage(content string, maxLen int) []string {
	if utf8.RuneCountInString(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	for len(content) > 0 {
		if utf8.RuneCountInString(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}

		cutPoint := FindCutPoint(content, maxLen)
		chunks = append(chunks, content[:cutPoint])
		content = content[cutPoint:]
	}
	return chunks
}

// FindCutPoint returns the byte offset to split content at so the head holds
// at most maxLen runes. It prefers a newline, then a space, then a hard cut
// on a rune boundary.
func FindCutPoint(content string, maxLen int) int {
	limit := runeOffset(content, maxLen)
	if lastNewline := strings.LastIndex(content[:limit], "\n"); lastNewline > 0 {
		return lastNewline + 1
	}
	if lastSpace := strings.LastIndex(content[:limit], " "); lastSpace > 0 {
		return lastSpace + 1
	}
	return limit
}

// runeOffset returns the byte offset of the n-th rune, or len(s) if s is shorter.
func runeOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}
