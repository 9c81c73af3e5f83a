package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/tokenhub/tokenhub"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Tokenizers TokenizersConfig `mapstructure:"tokenizers"`
}

// TokenizersConfig stores tokenizer resolution and download settings.
type TokenizersConfig struct {
	CacheDir            string `mapstructure:"cacheDir"`
	HFTokenizerTemplate string `mapstructure:"hfTokenizerTemplate"`
	HTTPTimeoutSeconds  int    `mapstructure:"httpTimeoutSeconds"`
	FetchAttempts       int    `mapstructure:"fetchAttempts"`
	FetchRetryDelayMs   int    `mapstructure:"fetchRetryDelayMs"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("tokenizers.cacheDir", internal.DefaultCacheDir)
	viper.SetDefault("tokenizers.hfTokenizerTemplate", internal.DefaultHFTokenizerTemplate)
	viper.SetDefault("tokenizers.httpTimeoutSeconds", internal.DefaultHTTPTimeoutSeconds)
	viper.SetDefault("tokenizers.fetchAttempts", internal.DefaultFetchAttempts)
	viper.SetDefault("tokenizers.fetchRetryDelayMs", internal.DefaultFetchRetryDelayMs)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. tokenizers.cacheDir becomes TOKENIZERS_CACHEDIR

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
