package pomomo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const AppName = "pomomo"

// Config keys. Each maps to env var POMOMO_<KEY> and to <key> in config.yaml.
const (
	DatabasePathKey      = "db_path"
	LogPathKey           = "log_path"
	LogLevelKey          = "log_level"
	BotNameKey           = "bot_name"
	DiscordWebhookURLKey = "discord_webhook_url"
	MetricsAddrKey       = "metrics_addr"
	WorkMinutesKey       = "work_minutes"
	BreakMinutesKey      = "break_minutes"
	SessionsPerCycleKey  = "sessions_per_cycle"
)

type Config struct {
	DatabasePath      string
	LogPath           string
	LogLevel          string
	BotName           string
	DiscordWebhookURL string
	MetricsAddr       string
	Timer             TimerConfig
}

// LoadConfig reads .env files, env vars and an optional config.yaml from the
// user config dir, in increasing order of precedence: file < env. Flags bound
// to v by the caller win over both.
func LoadConfig(v *viper.Viper, isProd bool) (Config, error) {
	LoadEnv(isProd)

	v.SetEnvPrefix(AppName)
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, AppName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	dataDir, err := defaultDir(os.UserConfigDir)
	if err != nil {
		return Config{}, err
	}
	cacheDir, err := defaultDir(os.UserCacheDir)
	if err != nil {
		return Config{}, err
	}
	v.SetDefault(DatabasePathKey, filepath.Join(dataDir, "pomomo.db"))
	v.SetDefault(LogPathKey, filepath.Join(cacheDir, "pomomo.log"))
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(BotNameKey, "Pomomo")
	v.SetDefault(WorkMinutesKey, DefaultWorkMinutes)
	v.SetDefault(BreakMinutesKey, DefaultBreakMinutes)
	v.SetDefault(SessionsPerCycleKey, DefaultSessionsPerCycle)

	config := Config{
		DatabasePath:      v.GetString(DatabasePathKey),
		LogPath:           v.GetString(LogPathKey),
		LogLevel:          v.GetString(LogLevelKey),
		BotName:           v.GetString(BotNameKey),
		DiscordWebhookURL: v.GetString(DiscordWebhookURLKey),
		MetricsAddr:       v.GetString(MetricsAddrKey),
		Timer: TimerConfig{
			WorkMinutes:      v.GetInt(WorkMinutesKey),
			BreakMinutes:     v.GetInt(BreakMinutesKey),
			SessionsPerCycle: v.GetInt(SessionsPerCycleKey),
		},
	}

	if config.DatabasePath == "" {
		return Config{}, fmt.Errorf("required config: %s", DatabasePathKey)
	}
	if err := config.Timer.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid timer config: %w", err)
	}

	return config, nil
}

func defaultDir(base func() (string, error)) (string, error) {
	dir, err := base()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user dir: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}
