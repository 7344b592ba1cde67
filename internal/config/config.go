// Package config содержит логику чтения конфигурации маркетплейса.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultRunAddress задаёт адрес HTTP-сервера по умолчанию.
const DefaultRunAddress = "localhost:8080"

// Config содержит параметры конфигурации маркетплейса.
// Пустой DatabaseURI означает хранение данных в памяти процесса.
type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseURI       string `env:"DATABASE_URI"`
	DataSourceAddress string `env:"DATA_SOURCE_ADDRESS"`
	SeedFile          string `env:"SEED_FILE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory storage when empty")
	flag.StringVar(&cfg.DataSourceAddress, "r", "", "initial data source address")
	flag.StringVar(&cfg.SeedFile, "s", "", "YAML file with initial data")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.DataSourceAddress, fromEnv.DataSourceAddress)
	override(&cfg.SeedFile, fromEnv.SeedFile)

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}
