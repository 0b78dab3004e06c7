package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/Tanishk-135/MathMinds-Bot/internal/api"
	"github.com/Tanishk-135/MathMinds-Bot/internal/bot"
	"github.com/Tanishk-135/MathMinds-Bot/internal/commands"
	"github.com/Tanishk-135/MathMinds-Bot/internal/completion"
	"github.com/Tanishk-135/MathMinds-Bot/internal/config"
	"github.com/Tanishk-135/MathMinds-Bot/internal/db"
	"github.com/Tanishk-135/MathMinds-Bot/internal/deploy"
	"github.com/Tanishk-135/MathMinds-Bot/internal/discord"
	"github.com/Tanishk-135/MathMinds-Bot/internal/graph"
	"github.com/Tanishk-135/MathMinds-Bot/internal/logging"
	"github.com/Tanishk-135/MathMinds-Bot/internal/mathfmt"
	"github.com/Tanishk-135/MathMinds-Bot/internal/router"
	"github.com/Tanishk-135/MathMinds-Bot/internal/scheduler"
	"github.com/Tanishk-135/MathMinds-Bot/internal/welcome"
)

const newsAPIURL = "https://newsapi.org"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// chatPlatform is everything serve needs from the chat platform.
type chatPlatform interface {
	commands.Platform
	welcome.Platform
	api.GuildCounter
	Start(ctx context.Context) error
	Stop() error
	OnMessage(handler bot.MessageHandler)
	OnMemberJoin(handler bot.MemberJoinHandler)
}

// apiServer decouples serve from api.Server for testing.
type apiServer interface {
	Start(addr string) error
	Stop(ctx context.Context) error
}

var (
	configLoad     = config.Load
	newLogger      = logging.NewLogger
	newSQLiteStore = func(path string) (db.Store, error) {
		return db.NewSQLiteStore(path)
	}
	newPlatform = func(token string, logger *slog.Logger) (chatPlatform, error) {
		discordgo.Logger = logging.DiscordgoLogger(logger)
		session, err := discord.NewSession(token)
		if err != nil {
			return nil, err
		}
		return discord.NewBot(session, logger), nil
	}
	newAPIServer = func(guilds api.GuildCounter, redeployer api.Redeployer, secret string, startedAt time.Time, logger *slog.Logger) apiServer {
		return api.NewServer(guilds, redeployer, secret, startedAt, logger)
	}
	newSystem     = func() deploy.System { return deploy.RealSystem{} }
	notifyContext = signal.NotifyContext
	timeNow       = time.Now
)

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := configLoad()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	startedAt := timeNow()
	logger.Info("starting mathminds", "version", version, "db_path", cfg.DBPath)

	store, err := newSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	platform, err := newPlatform(cfg.DiscordToken, logger)
	if err != nil {
		return fmt.Errorf("creating discord bot: %w", err)
	}

	ctx, cancel := notifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	delayer := scheduler.NewDelayer(store, logger)
	defer delayer.Stop()
	if lost, err := delayer.RecoverLost(ctx); err != nil {
		logger.Error("recovering delayed actions", "error", err)
	} else if len(lost) > 0 {
		logger.Warn("delayed actions from the previous run were lost", "count", len(lost))
	}

	var completer completion.Completer = completion.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		completer = completion.NewOpenAI(completion.Options{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			RPS:     cfg.CompletionRPS,
		})
	} else {
		logger.Warn("no completion api key configured, mention prompts will fail")
	}

	var news commands.NewsSource
	if cfg.NewsAPIKey != "" {
		news = commands.NewNewsAPI(newsAPIURL, cfg.NewsAPIKey)
	}

	sys := newSystem()
	restarter := deploy.NewProcessRestarter(sys, cfg.RestartDelay, logger, func() {
		delayer.Stop()
		if err := platform.Stop(); err != nil {
			logger.Error("stopping discord bot", "error", err)
		}
		_ = store.Close()
	})
	var redeployer deploy.Redeployer
	if g, err := deploy.NewGitRedeployer(sys, cfg.DeployCommand, "", restarter, logger); err != nil {
		logger.Warn("redeploy disabled", "error", err)
	} else {
		redeployer = g
	}

	catalog, err := commands.NewDefaultCatalog(commands.Deps{
		Platform:   platform,
		Delayer:    delayer,
		Renderer:   graph.NewQuickChartRenderer(cfg.ChartURL),
		News:       news,
		Redeployer: redeployer,
		Restarter:  restarter,
		Logger:     logger,
		Settings: commands.Settings{
			Prefix:       cfg.CommandPrefix,
			OwnerID:      cfg.OwnerID,
			MuteRoleName: cfg.MuteRoleName,
			GraphMin:     cfg.GraphMin,
			GraphMax:     cfg.GraphMax,
			GraphSamples: cfg.GraphSamples,
			Location:     cfg.Location(),
		},
		StartedAt: startedAt,
	})
	if err != nil {
		return fmt.Errorf("building command catalog: %w", err)
	}

	rt := router.New(platform, catalog, completer, mathfmt.Format, logger,
		router.WithPrefix(cfg.CommandPrefix),
		router.WithReadyGate(cfg.GraceWindow),
		router.WithMessageLog(store),
	)
	platform.OnMessage(rt.HandleMessage)

	greeter := welcome.New(platform, store, logger, welcome.Options{
		JoinLogChannel: cfg.JoinLogChannel,
		WelcomeChannel: cfg.WelcomeChannel,
		Location:       cfg.Location(),
	})
	platform.OnMemberJoin(greeter.HandleMemberJoin)

	jobs := scheduler.NewCronRunner(cfg.Location(), logger)
	if err := jobs.Add(ctx, "joiner-summary", cfg.SummarySchedule, greeter.PostSummary); err != nil {
		return err
	}

	apiSrv := newAPIServer(platform, redeployer, cfg.WebhookSecret, startedAt, logger)
	if err := apiSrv.Start(cfg.APIAddr); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	if err := platform.Start(ctx); err != nil {
		_ = apiSrv.Stop(context.Background())
		return fmt.Errorf("starting discord bot: %w", err)
	}
	// The gateway has delivered Ready; replayed backlog follows it.
	rt.MarkReady(timeNow())
	jobs.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	jobs.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Stop(shutdownCtx); err != nil {
		logger.Error("api server stop error", "error", err)
	}
	if err := platform.Stop(); err != nil {
		logger.Error("discord bot stop error", "error", err)
	}
	return nil
}
