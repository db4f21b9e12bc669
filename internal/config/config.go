// Package config loads process configuration: everything that is fixed at
// startup, as opposed to the runtime settings kept in the snapshot.
//
// Values come from config.yaml and from ARGUS_* environment variables, the
// environment winning.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/argusmon/argus/internal/argerr"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	SelfCheck SelfCheckConfig `mapstructure:"self_check"`
}

type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	DataFile      string `mapstructure:"data_file"`
	HistoryLength int    `mapstructure:"history_length"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SMTPConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	From       string        `mapstructure:"from"`
	SkipVerify bool          `mapstructure:"skip_verify"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether the email channel is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type SMSConfig struct {
	GatewayURL string        `mapstructure:"gateway_url"`
	Token      string        `mapstructure:"token"`
	Sender     string        `mapstructure:"sender"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether the SMS channel is configured at all.
func (c SMSConfig) Enabled() bool {
	return c.GatewayURL != ""
}

type SpeechConfig struct {
	Command []string      `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a speaker command is configured.
func (c SpeechConfig) Enabled() bool {
	return len(c.Command) > 0 && c.Command[0] != ""
}

type SelfCheckConfig struct {
	Targets []string `mapstructure:"targets"`
}

// Load reads configuration from the given file, or from the default search
// path when path is empty. A missing default file is fine; a missing
// explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		v.AddConfigPath("/etc/argus")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, argerr.New(argerr.ErrConfiguration, err, "failed to read config file")
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, argerr.New(argerr.ErrConfiguration, err, "failed to parse config")
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")

	v.SetDefault("storage.data_file", "data/state.json")
	v.SetDefault("storage.history_length", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.timeout", "10s")
	v.SetDefault("sms.timeout", "10s")
	v.SetDefault("speech.timeout", "10s")

	v.SetDefault("self_check.targets", []string{"1.1.1.1:443", "8.8.8.8:53"})
}

func (c *Config) validate() error {
	if c.Server.Listen == "" {
		return argerr.New(argerr.ErrConfiguration, nil, "server.listen is required")
	}
	if c.Storage.DataFile == "" {
		return argerr.New(argerr.ErrConfiguration, nil, "storage.data_file is required")
	}
	if c.Storage.HistoryLength < 1 {
		return argerr.New(argerr.ErrConfiguration, nil, "storage.history_length must be at least 1")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return argerr.New(argerr.ErrConfiguration, nil, "log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	if c.SMTP.Enabled() && c.SMTP.From == "" && c.SMTP.Username == "" {
		return argerr.New(argerr.ErrConfiguration, nil, "smtp.from or smtp.username is required when smtp is configured")
	}

	if len(c.SelfCheck.Targets) == 0 {
		return argerr.New(argerr.ErrConfiguration, nil, "self_check.targets must not be empty")
	}
	for _, target := range c.SelfCheck.Targets {
		if !strings.Contains(target, ":") {
			return argerr.New(argerr.ErrConfiguration, nil, "self_check target %q must be host:port", target)
		}
	}

	return nil
}
