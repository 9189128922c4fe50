package main

import (
	"fmt"
	"strings"
	"time"

	"steprivals/internal/repository"
	"steprivals/internal/stepsource"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database   repository.Config `yaml:"database"`
	Server     ServerConfig      `yaml:"server"`
	Auth       AuthConfig        `yaml:"auth"`
	StepSource stepsource.Config `yaml:"stepSource"`
	Sync       SyncConfig        `yaml:"sync"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	TokenSecret   string        `yaml:"tokenSecret"`
	TokenLifetime time.Duration `yaml:"tokenLifetime"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.SetDefault("sync.interval", 30*time.Second)
	viper.SetDefault("auth.tokenLifetime", 30*24*time.Hour)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
