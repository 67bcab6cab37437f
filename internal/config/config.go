package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// Settings sources the widget can reconcile against.
const (
	SourceFile   = "file"
	SourceNATS   = "nats"
	SourceSocket = "socket"
)

// ErrUnknownSource is returned for a source other than file, nats or socket.
var ErrUnknownSource = errors.New("unknown settings source")

// Config holds process-level options. Timer settings live in the settings
// file or come from the device server.
type Config struct {
	Source             string
	SettingsFile       string
	NATSURL            string
	NATSInitialSubject string
	NATSUpdateSubject  string
	SocketURL          string
	Tick               time.Duration
	FetchTimeout       time.Duration
	LogLevel           string
	LogPretty          bool
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Source:             SourceFile,
		NATSURL:            "nats://localhost:4222",
		NATSInitialSubject: "pomodoro.settings.initial",
		NATSUpdateSubject:  "pomodoro.settings.update",
		SocketURL:          "ws://localhost:8891",
		Tick:               time.Second,
		FetchTimeout:       5 * time.Second,
		LogLevel:           "info",
	}
}

// Load reads .env, then POMODORO_* variables, then command-line flags. Later
// layers win.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := fromEnv(Default())
	if err != nil {
		return Config{}, err
	}

	flags := pflag.NewFlagSet("pomodoro", pflag.ContinueOnError)
	flags.StringVar(&cfg.Source, "source", cfg.Source, "Settings source: 'file', 'nats' or 'socket'")
	flags.StringVar(&cfg.SettingsFile, "settings", cfg.SettingsFile, "Settings file (default is the per-user config dir)")
	flags.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL (for 'nats' source)")
	flags.StringVar(&cfg.NATSInitialSubject, "nats-initial-subject", cfg.NATSInitialSubject, "Request subject for the initial settings")
	flags.StringVar(&cfg.NATSUpdateSubject, "nats-update-subject", cfg.NATSUpdateSubject, "Subject carrying settings updates")
	flags.StringVar(&cfg.SocketURL, "socket-url", cfg.SocketURL, "Device server websocket URL (for 'socket' source)")
	flags.DurationVar(&cfg.Tick, "tick", cfg.Tick, "Countdown tick interval")
	flags.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout for the initial settings fetch")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human-readable console logs")

	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the source and durations.
func (cfg Config) Validate() error {
	switch cfg.Source {
	case SourceFile, SourceNATS, SourceSocket:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
	if cfg.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", cfg.Tick)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", cfg.FetchTimeout)
	}
	return nil
}

func fromEnv(cfg Config) (Config, error) {
	cfg.Source = getEnv("POMODORO_SOURCE", cfg.Source)
	cfg.SettingsFile = getEnv("POMODORO_SETTINGS_FILE", cfg.SettingsFile)
	cfg.NATSURL = getEnv("POMODORO_NATS_URL", cfg.NATSURL)
	cfg.NATSInitialSubject = getEnv("POMODORO_NATS_INITIAL_SUBJECT", cfg.NATSInitialSubject)
	cfg.NATSUpdateSubject = getEnv("POMODORO_NATS_UPDATE_SUBJECT", cfg.NATSUpdateSubject)
	cfg.SocketURL = getEnv("POMODORO_SOCKET_URL", cfg.SocketURL)
	cfg.LogLevel = getEnv("POMODORO_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.Tick, err = durationEnv("POMODORO_TICK", cfg.Tick); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = durationEnv("POMODORO_FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return Config{}, err
	}
	if value := os.Getenv("POMODORO_LOG_PRETTY"); value != "" {
		pretty, err := cast.ToBoolE(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse POMODORO_LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = pretty
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := cast.ToDurationE(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
