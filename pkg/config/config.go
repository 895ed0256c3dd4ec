package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	API      APIConfig      `envPrefix:"API_"`
	Tokens   TokensConfig
	Log      LogConfig      `envPrefix:"LOG_"`
	Channels ChannelsConfig
}

type APIConfig struct {
	Base               string        `env:"BASE"`
	Timeout            time.Duration `env:"TIMEOUT" envDefault:"15s"`
	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheMaxEntries    int           `env:"CACHE_MAX_ENTRIES" envDefault:"512"`
	CacheFlushSchedule string        `env:"CACHE_FLUSH_SCHEDULE" envDefault:"@daily"`
}

// CacheEnabled reports whether GET responses should be cached.
func (c APIConfig) CacheEnabled() bool {
	return c.CacheTTL > 0
}

type TokensConfig struct {
	// StorePath is the JSON file tokens persist to. Empty keeps them in
	// memory only.
	StorePath string `env:"TOKEN_STORE_PATH"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Discord  DiscordConfig  `envPrefix:"DISCORD_"`
	Slack    SlackConfig    `envPrefix:"SLACK_"`
	Console  ConsoleConfig  `envPrefix:"CONSOLE_"`
}

type TelegramConfig struct {
	Enabled   bool     `env:"ENABLED" envDefault:"true"`
	Token     string   `env:"BOT_TOKEN"`
	BotName   string   `env:"BOT_NAME"`
	Proxy     string   `env:"PROXY"`
	AllowFrom []string `env:"ALLOW_FROM" envSeparator:","`
}

type DiscordConfig struct {
	Enabled   bool     `env:"ENABLED" envDefault:"false"`
	Token     string   `env:"TOKEN"`
	AllowFrom []string `env:"ALLOW_FROM" envSeparator:","`
}

type SlackConfig struct {
	Enabled   bool     `env:"ENABLED" envDefault:"false"`
	BotToken  string   `env:"BOT_TOKEN"`
	AppToken  string   `env:"APP_TOKEN"`
	AllowFrom []string `env:"ALLOW_FROM" envSeparator:","`
}

type ConsoleConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"false"`
}

// Load reads the optional dotenv files, then the process environment.
// Variables already set in the environment win over dotenv values.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return parse(env.Options{})
}

// LoadFromMap parses cfg from vars instead of the process environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Channels.Telegram.AllowFrom = trimList(cfg.Channels.Telegram.AllowFrom)
	cfg.Channels.Discord.AllowFrom = trimList(cfg.Channels.Discord.AllowFrom)
	cfg.Channels.Slack.AllowFrom = trimList(cfg.Channels.Slack.AllowFrom)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func trimList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.API.Base == "" {
		return errors.New("API_BASE is required")
	}
	u, err := url.Parse(c.API.Base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE must be an http(s) URL, got %q", c.API.Base)
	}
	if c.API.Timeout <= 0 {
		return errors.New("API_TIMEOUT must be positive")
	}
	if c.API.CacheTTL < 0 {
		return errors.New("API_CACHE_TTL must not be negative")
	}
	if c.API.CacheEnabled() {
		if c.API.CacheMaxEntries <= 0 {
			return errors.New("API_CACHE_MAX_ENTRIES must be positive")
		}
		if !gronx.New().IsValid(c.API.CacheFlushSchedule) {
			return fmt.Errorf("API_CACHE_FLUSH_SCHEDULE is not a valid cron expression: %q", c.API.CacheFlushSchedule)
		}
	}

	ch := c.Channels
	if !ch.Telegram.Enabled && !ch.Discord.Enabled && !ch.Slack.Enabled && !ch.Console.Enabled {
		return errors.New("no channel is enabled")
	}
	if ch.Telegram.Enabled && ch.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required when Telegram is enabled")
	}
	if ch.Discord.Enabled && ch.Discord.Token == "" {
		return errors.New("DISCORD_TOKEN is required when Discord is enabled")
	}
	if ch.Slack.Enabled && (ch.Slack.BotToken == "" || ch.Slack.AppToken == "") {
		return errors.New("SLACK_BOT_TOKEN and SLACK_APP_TOKEN are required when Slack is enabled")
	}
	return nil
}
