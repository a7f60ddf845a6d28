package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level  string `mapstructure:"level"`
	RunLog string `mapstructure:"run_log"`
}

type ValidationCfg struct {
	Codec          string `mapstructure:"codec"`
	PublicKeyPath  string `mapstructure:"public_key_path"`
	MaxHashList    int    `mapstructure:"max_hash_list"`
	MaxPendingGops int    `mapstructure:"max_pending_gops"`
}

type SigningCfg struct {
	PrivateKeyPath    string `mapstructure:"private_key_path"`
	AuthenticityLevel string `mapstructure:"authenticity_level"`
	Recurrence        int    `mapstructure:"recurrence"`
	RecurrenceOffset  int    `mapstructure:"recurrence_offset"`
}

type Config struct {
	Version    string        `mapstructure:"version"`
	Validation ValidationCfg `mapstructure:"validation"`
	Signing    SigningCfg    `mapstructure:"signing"`
	Logging    LoggingCfg    `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("version", "0.1")
	v.SetDefault("validation.codec", "h264")
	v.SetDefault("validation.max_hash_list", 60)
	v.SetDefault("validation.max_pending_gops", 120)
	v.SetDefault("signing.authenticity_level", "gop")
	v.SetDefault("signing.recurrence", 1)
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
