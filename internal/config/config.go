package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

// Config holds all application configuration. Values come from, in order of
// increasing precedence: built-in defaults, ~/.mathminds/config.json, the
// process environment (a .env file in the working directory is loaded first).
type Config struct {
	DiscordToken  string `env:"DISCORD_BOT_TOKEN"`
	OwnerID       string `env:"BOT_OWNER_ID"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	APIAddr       string `env:"API_ADDR"`
	Port          string `env:"PORT"`

	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL"`
	OpenAIModel   string  `env:"OPENAI_MODEL"`
	CompletionRPS float64 `env:"COMPLETION_RPS"`
	NewsAPIKey    string  `env:"NEWS_API_KEY"`

	CommandPrefix string        `env:"COMMAND_PREFIX"`
	GraceWindow   time.Duration `env:"GRACE_WINDOW"`
	MuteRoleName  string        `env:"MUTE_ROLE_NAME"`
	RestartDelay  time.Duration `env:"RESTART_DELAY"`
	DeployCommand string        `env:"DEPLOY_COMMAND"`

	ChartURL     string  `env:"CHART_URL"`
	GraphMin     float64 `env:"GRAPH_MIN"`
	GraphMax     float64 `env:"GRAPH_MAX"`
	GraphSamples int     `env:"GRAPH_SAMPLES"`

	JoinLogChannel  string `env:"JOIN_LOG_CHANNEL"`
	WelcomeChannel  string `env:"WELCOME_CHANNEL"`
	SummarySchedule string `env:"SUMMARY_SCHEDULE"`
	Timezone        string `env:"BOT_TIMEZONE"`

	DBPath    string `env:"DB_PATH"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	Dir string
}

// jsonConfig is an intermediate struct for JSON unmarshalling.
// Pointer types for numerics distinguish "missing" (nil) from "zero".
type jsonConfig struct {
	DiscordToken    string   `json:"discord_token"`
	OwnerID         string   `json:"owner_id"`
	WebhookSecret   string   `json:"webhook_secret"`
	APIAddr         string   `json:"api_addr"`
	OpenAIAPIKey    string   `json:"openai_api_key"`
	OpenAIBaseURL   string   `json:"openai_base_url"`
	OpenAIModel     string   `json:"openai_model"`
	CompletionRPS   *float64 `json:"completion_rps"`
	NewsAPIKey      string   `json:"news_api_key"`
	CommandPrefix   string   `json:"command_prefix"`
	GraceWindowMS   *int     `json:"grace_window_ms"`
	MuteRoleName    string   `json:"mute_role_name"`
	RestartDelayMS  *int     `json:"restart_delay_ms"`
	DeployCommand   string   `json:"deploy_command"`
	ChartURL        string   `json:"chart_url"`
	GraphMin        *float64 `json:"graph_min"`
	GraphMax        *float64 `json:"graph_max"`
	GraphSamples    *int     `json:"graph_samples"`
	JoinLogChannel  string   `json:"join_log_channel"`
	WelcomeChannel  string   `json:"welcome_channel"`
	SummarySchedule string   `json:"summary_schedule"`
	Timezone        string   `json:"timezone"`
	DBPath          string   `json:"db_path"`
	LogLevel        string   `json:"log_level"`
	LogFormat       string   `json:"log_format"`
}

// userHomeDir is a package-level variable to allow overriding in tests.
var userHomeDir = os.UserHomeDir

// readFile is a package-level variable to allow overriding in tests.
var readFile = os.ReadFile

// environ is a package-level variable to allow overriding in tests.
var environ = os.Environ

// loadDotenv is a package-level variable to allow overriding in tests.
var loadDotenv = func() error { return godotenv.Load() }

// Dir returns the directory holding the config file and the default database.
func Dir() (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mathminds"), nil
}

// Load builds the Config from defaults, the optional config file and the environment.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg := defaults(dir)

	data, err := readFile(filepath.Join(dir, "config.json"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := applyFile(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := loadDotenv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: toMap(environ())}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Port != "" {
		cfg.APIAddr = ":" + strings.TrimPrefix(cfg.Port, ":")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults(dir string) *Config {
	return &Config{
		APIAddr:         ":3000",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		OpenAIModel:     "gpt-4o-mini",
		CompletionRPS:   1,
		CommandPrefix:   "!",
		GraceWindow:     time.Second,
		MuteRoleName:    "Muted",
		RestartDelay:    2 * time.Second,
		DeployCommand:   "git pull",
		ChartURL:        "https://quickchart.io",
		GraphMin:        -10,
		GraphMax:        10,
		GraphSamples:    100,
		JoinLogChannel:  "🔒│join-log",
		WelcomeChannel:  "welcome",
		SummarySchedule: "0 0 * * *",
		Timezone:        "Asia/Kolkata",
		DBPath:          filepath.Join(dir, "mathminds.db"),
		LogLevel:        "info",
		LogFormat:       "text",
		Dir:             dir,
	}
}

func applyFile(cfg *Config, data []byte) error {
	standardJSON, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(standardJSON, &jc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	setString(&cfg.DiscordToken, jc.DiscordToken)
	setString(&cfg.OwnerID, jc.OwnerID)
	setString(&cfg.WebhookSecret, jc.WebhookSecret)
	setString(&cfg.APIAddr, jc.APIAddr)
	setString(&cfg.OpenAIAPIKey, jc.OpenAIAPIKey)
	setString(&cfg.OpenAIBaseURL, jc.OpenAIBaseURL)
	setString(&cfg.OpenAIModel, jc.OpenAIModel)
	setString(&cfg.NewsAPIKey, jc.NewsAPIKey)
	setString(&cfg.CommandPrefix, jc.CommandPrefix)
	setString(&cfg.MuteRoleName, jc.MuteRoleName)
	setString(&cfg.DeployCommand, jc.DeployCommand)
	setString(&cfg.ChartURL, jc.ChartURL)
	setString(&cfg.JoinLogChannel, jc.JoinLogChannel)
	setString(&cfg.WelcomeChannel, jc.WelcomeChannel)
	setString(&cfg.SummarySchedule, jc.SummarySchedule)
	setString(&cfg.Timezone, jc.Timezone)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.CompletionRPS != nil {
		cfg.CompletionRPS = *jc.CompletionRPS
	}
	if jc.GraceWindowMS != nil {
		cfg.GraceWindow = time.Duration(*jc.GraceWindowMS) * time.Millisecond
	}
	if jc.RestartDelayMS != nil {
		cfg.RestartDelay = time.Duration(*jc.RestartDelayMS) * time.Millisecond
	}
	if jc.GraphMin != nil {
		cfg.GraphMin = *jc.GraphMin
	}
	if jc.GraphMax != nil {
		cfg.GraphMax = *jc.GraphMax
	}
	if jc.GraphSamples != nil {
		cfg.GraphSamples = *jc.GraphSamples
	}
	return nil
}

func (c *Config) validate() error {
	var problems []string
	if c.DiscordToken == "" {
		problems = append(problems, "discord_token (DISCORD_BOT_TOKEN) is required")
	}
	if c.CommandPrefix == "" {
		problems = append(problems, "command_prefix must not be empty")
	}
	if c.GraphMin >= c.GraphMax {
		problems = append(problems, "graph_min must be below graph_max")
	}
	if c.GraphSamples < 2 {
		problems = append(problems, "graph_samples must be at least 2")
	}
	if c.CompletionRPS <= 0 {
		problems = append(problems, "completion_rps must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the bot's configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func toMap(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			m[k] = v
		}
	}
	return m
}
