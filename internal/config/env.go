package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type EnvVars struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"dev"`
	Port         int           `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`

	DefinitionsDir string `envconfig:"DEFINITIONS_DIR" default:"definitions"`

	// empty keeps sessions in process
	RedisURL   string        `envconfig:"REDIS_URL"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepEvery time.Duration `envconfig:"SESSION_SWEEP" default:"1m"`

	APIKey     string        `envconfig:"API_KEY"`
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"60"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"1m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stderr"`
	LogColor  bool   `envconfig:"LOG_COLOR"`
}

func LoadEnv() (*EnvVars, error) {
	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
