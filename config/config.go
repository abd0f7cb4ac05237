package config

import (
	"fmt"
	"os"
	"time"

	"github.com/korjavin/pikttrainer/validator"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken        string        `mapstructure:"bot_token" validate:"required"`
	QuestionsSource string        `mapstructure:"questions_source" validate:"required"`
	DatabasePath    string        `mapstructure:"db_path"` // empty → in-memory storage
	Env             string        `mapstructure:"env" validate:"oneof=development production"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout" validate:"min=1"`
}

// Load reads configs/<CONFIG_NAME> if present, then environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)

	v.SetDefault("questions_source", "assets/questions.json")
	v.SetDefault("db_path", "./data/pikt.db")
	v.SetDefault("env", EnvProduction)
	v.SetDefault("load_timeout", 10*time.Second)

	configName := os.Getenv("CONFIG_NAME")
	if configName == "" {
		configName = "default"
	}
	v.AddConfigPath("configs")
	v.SetConfigName(configName)

	bindings := map[string]string{
		"bot_token":        "BOT_TOKEN",
		"questions_source": "QUESTIONS_SOURCE",
		"db_path":          "DB_PATH",
		"env":              "ENV",
		"load_timeout":     "LOAD_TIMEOUT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
