package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
)

// ErrNoHeadlines is returned when the news source has nothing to show.
var ErrNoHeadlines = errors.New("no headlines")

// Headline is a single news article.
type Headline struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	Source      string
}

// NewsSource fetches the current top headline.
type NewsSource interface {
	TopHeadline(ctx context.Context) (*Headline, error)
}

// NewsAPI reads science headlines from newsapi.org.
type NewsAPI struct {
	client   *resty.Client
	category string
}

// NewNewsAPI creates a NewsAPI client. baseURL is normally https://newsapi.org.
func NewNewsAPI(baseURL, apiKey string) *NewsAPI {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("X-Api-Key", apiKey)
	return &NewsAPI{client: client, category: "science"}
}

type newsResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// TopHeadline returns the first top headline in the configured category.
func (n *NewsAPI) TopHeadline(ctx context.Context) (*Headline, error) {
	var out newsResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"category": n.category,
			"language": "en",
			"pageSize": "1",
		}).
		SetResult(&out).
		SetError(&out).
		Get("/v2/top-headlines")
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	if resp.IsError() || out.Status != "ok" {
		return nil, fmt.Errorf("newsapi: status %s: %s %s", resp.Status(), out.Code, out.Message)
	}
	if len(out.Articles) == 0 {
		return nil, ErrNoHeadlines
	}
	a := out.Articles[0]
	return &Headline{
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
		Source:      a.Source.Name,
	}, nil
}

func (h *handlers) news(ctx context.Context, env *Env) error {
	if h.News == nil {
		return h.reply(ctx, env, "News isn't configured for this bot.")
	}
	hl, err := h.News.TopHeadline(ctx)
	if errors.Is(err, ErrNoHeadlines) {
		return h.reply(ctx, env, "There are no science headlines right now.")
	}
	if err != nil {
		h.Logger.ErrorContext(ctx, "fetching news", "error", err)
		return h.reply(ctx, env, "Sorry, I couldn't fetch the news right now.")
	}

	embed := &bot.Embed{
		Title:       hl.Title,
		Description: hl.Description,
		URL:         hl.URL,
		ImageURL:    hl.ImageURL,
		Color:       embedColor,
	}
	if hl.Source != "" {
		embed.Fields = []bot.EmbedField{{Name: "Source", Value: hl.Source, Inline: true}}
	}
	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        env.Msg.ChannelID,
		Content:          "🔬 Today's top science headline",
		ReplyToMessageID: env.Msg.MessageID,
		Embed:            embed,
	})
}
