package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultPath = "config.yaml"
	EnvPrefix   = "POKERHAND_"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Redis    RedisConfig    `koanf:"redis"`
	Queue    QueueConfig    `koanf:"queue"`
	Joke     JokeConfig     `koanf:"joke"`
	Notifier NotifierConfig `koanf:"notifier"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port      string `koanf:"port"`
	StaticDir string `koanf:"static_dir"`
	// Console enables the stdin "stop" command.
	Console bool `koanf:"console"`
}

type StorageConfig struct {
	DSN string `koanf:"dsn"`
}

type RedisConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

// QueueConfig is optional: with no brokers, submissions are classified inline.
type QueueConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"group_id"`
}

func (q QueueConfig) Enabled() bool {
	return len(q.Brokers) > 0
}

type JokeConfig struct {
	APIURL  string        `koanf:"api_url"`
	FeedURL string        `koanf:"feed_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type NotifierConfig struct {
	TelegramToken   string   `koanf:"telegram_token"`
	TelegramChatIDs []string `koanf:"telegram_chat_ids"`
	MinHandType     string   `koanf:"min_hand_type"`
}

func (n NotifierConfig) Enabled() bool {
	return n.TelegramToken != "" && len(n.TelegramChatIDs) > 0
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    ":5000",
			Console: true,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "pokerhand",
		},
		Queue: QueueConfig{
			Topic:   "hand-submissions",
			GroupID: "pokerhand-classifier",
		},
		Joke: JokeConfig{
			APIURL:  "https://official-joke-api.appspot.com/random_joke",
			Timeout: 5 * time.Second,
		},
		Notifier: NotifierConfig{
			MinHandType: "Four of a Kind",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads defaults, then the YAML file at path, then POKERHAND_* environment
// variables. A missing file is only an error when path is not the default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !(errors.Is(err, fs.ErrNotExist) && path == DefaultPath) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps POKERHAND_QUEUE__GROUP_ID to queue.group_id.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: server.port is required")
	}
	if c.Storage.DSN == "" {
		return errors.New("config: storage.dsn is required")
	}
	if c.Queue.Enabled() && c.Queue.Topic == "" {
		return errors.New("config: queue.topic is required when queue.brokers is set")
	}
	if c.Joke.Timeout <= 0 {
		return fmt.Errorf("config: joke.timeout must be positive, got %s", c.Joke.Timeout)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Getenv is a convenience for commands that accept a config path override.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
