// Package config loads qfc-ledger's node configuration from file and
// environment, mirroring the teacher's versioned viper-backed loader.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"qfc-ledger/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a qfc-ledger node.
type Config struct {
	Ledger struct {
		ShardCount        int `mapstructure:"shard_count" json:"shard_count"`
		InitialDifficulty int `mapstructure:"initial_difficulty" json:"initial_difficulty"`
	} `mapstructure:"ledger" json:"ledger"`

	Consensus struct {
		TargetBlockTimeSeconds int `mapstructure:"target_block_time_seconds" json:"target_block_time_seconds"`
		AdjustmentInterval     int `mapstructure:"adjustment_interval" json:"adjustment_interval"`
		HalvingInterval        int `mapstructure:"halving_interval" json:"halving_interval"`
		BaseReward             int `mapstructure:"base_reward" json:"base_reward"`
	} `mapstructure:"consensus" json:"consensus"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Default returns a Config populated with the constants this ledger ships
// with, for callers that don't need a config file at all (the CLI's
// default path).
func Default() Config {
	var c Config
	c.Ledger.ShardCount = 4
	c.Ledger.InitialDifficulty = 4
	c.Consensus.TargetBlockTimeSeconds = 60
	c.Consensus.AdjustmentInterval = 10
	c.Consensus.HalvingInterval = 210000
	c.Consensus.BaseReward = 50
	c.Logging.Level = "info"
	return c
}

// Load reads configuration files and merges any environment-specific
// overrides, storing the result in AppConfig. If env is empty, only the
// default configuration is loaded. Missing config files are not an error:
// the compiled-in defaults from Default() are used as the viper baseline.
func Load(env string) (*Config, error) {
	def := Default()
	viper.SetDefault("ledger.shard_count", def.Ledger.ShardCount)
	viper.SetDefault("ledger.initial_difficulty", def.Ledger.InitialDifficulty)
	viper.SetDefault("consensus.target_block_time_seconds", def.Consensus.TargetBlockTimeSeconds)
	viper.SetDefault("consensus.adjustment_interval", def.Consensus.AdjustmentInterval)
	viper.SetDefault("consensus.halving_interval", def.Consensus.HalvingInterval)
	viper.SetDefault("consensus.base_reward", def.Consensus.BaseReward)
	viper.SetDefault("logging.level", def.Logging.Level)

	viper.SetConfigName("qfcd")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName("qfcd." + env)
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
			}
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the QFCD_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("QFCD_ENV", ""))
}
