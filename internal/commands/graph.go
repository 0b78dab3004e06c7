package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/graph"
)

func (h *handlers) graph(ctx context.Context, env *Env) error {
	expression := h.rest(env, 1)
	lo, hi, n := h.Settings.GraphMin, h.Settings.GraphMax, h.Settings.GraphSamples

	series, err := graph.Sample(expression, lo, hi, n)
	var perr *graph.ParseError
	switch {
	case errors.Is(err, graph.ErrEmptyExpression):
		return h.reply(ctx, env, "Please give me an expression in x to plot. Usage: "+h.usage("graph x^2 - 3*x"))
	case errors.Is(err, graph.ErrUnsafeExpression):
		return h.reply(ctx, env, "That expression contains characters I can't plot. Use numbers, x, + - * / ^, parentheses and functions like sin, cos, sqrt, log.")
	case errors.As(err, &perr):
		return h.reply(ctx, env, fmt.Sprintf("I couldn't parse `%s`. Check the syntax and try again.", perr.Expression))
	case err != nil:
		return fmt.Errorf("sampling expression: %w", err)
	}

	finite := series.Finite()
	if len(finite) == 0 {
		return h.reply(ctx, env, fmt.Sprintf("`%s` isn't defined anywhere on [%g, %g].", series.Expression, lo, hi))
	}
	yMin, yMax := graph.YRange(finite)

	if h.Renderer == nil {
		return h.reply(ctx, env, "Graphing isn't available right now.")
	}
	url, err := h.Renderer.Render(ctx, graph.Chart{
		Label:  "y = " + series.Expression,
		Series: series,
		YMin:   yMin,
		YMax:   yMax,
	})
	if err != nil {
		h.Logger.ErrorContext(ctx, "rendering chart", "error", err, "expression", series.Expression)
		return h.reply(ctx, env, "Sorry, I couldn't render the graph right now.")
	}

	return h.Platform.SendMessage(ctx, &bot.OutgoingMessage{
		ChannelID:        env.Msg.ChannelID,
		ReplyToMessageID: env.Msg.MessageID,
		Embed: &bot.Embed{
			Title:    "y = " + series.Expression,
			URL:      url,
			ImageURL: url,
			Color:    embedColor,
			Fields: []bot.EmbedField{
				{Name: "x range", Value: fmt.Sprintf("[%g, %g]", lo, hi), Inline: true},
				{Name: "y range", Value: fmt.Sprintf("[%.3g, %.3g]", yMin, yMax), Inline: true},
			},
		},
	})
}
