package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	BaseURL                   string        `koanf:"base_url"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	FineRatePerDay            float64       `koanf:"fine_rate_per_day"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	LoanPeriodDays            int           `koanf:"loan_period_days"`
	OverdueSweepInterval      time.Duration `koanf:"overdue_sweep_interval"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
}

const configFileENV = "CONFIG_FILE"

var knownKeys = map[string]bool{
	"base_url":                     true,
	"database_busy_timeout":        true,
	"database_connect_retry_count": true,
	"database_connect_retry_delay": true,
	"database_debug":               true,
	"database_file_path":           true,
	"database_max_retries":         true,
	"fine_rate_per_day":            true,
	"jwt_secret":                   true,
	"loan_period_days":             true,
	"overdue_sweep_interval":       true,
	"server_host":                  true,
	"server_port":                  true,
}

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		BaseURL:                   "http://localhost:3690",
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		FineRatePerDay:            10,
		Hostname:                  hostname,
		LoanPeriodDays:            14,
		OverdueSweepInterval:      time.Hour,
		ServerHost:                "0.0.0.0",
		ServerPort:                3690,
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = "./config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	// Env vars override file values, e.g. DATABASE_FILE_PATH ->
	// database_file_path. Unknown and empty vars are skipped so stray
	// environment noise can't clobber file values.
	err = k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if !knownKeys[key] || value == "" {
			return "", nil
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.DatabaseFilePath == "" {
		return nil, errors.New(missingRequired("DATABASE_FILE_PATH", "database_file_path"))
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New(missingRequired("JWT_SECRET", "jwt_secret"))
	}

	return cfg, nil
}

func missingRequired(envName, fileName string) string {
	return fmt.Sprintf("missing required config: %s (%s)", envName, fileName)
}
