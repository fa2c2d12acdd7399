package internal

import (
	"fmt"
	"relay-chat/infrastructure/relay"
	"relay-chat/moderation"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	TransportRedis  = "redis"
	TransportMemory = "memory"
)

type Config struct {
	LogLevel        string `env:"LOG_LEVEL,default=info"`
	LogFile         string `env:"LOG_FILE,default=data/relay-chat.log"`
	CredentialsPath string `env:"CREDENTIALS_PATH,default=data/config.json"`

	Transport         string        `env:"RELAY_TRANSPORT,default=redis"`
	RelayAddr         string        `env:"RELAY_ADDR,default=localhost:6379"`
	RelayDB           int           `env:"RELAY_DB,default=0"`
	HealthInterval    time.Duration `env:"RELAY_HEALTH_INTERVAL,default=2s"`
	ReconnectAttempts int           `env:"RELAY_RECONNECT_ATTEMPTS,default=5"`
	ReconnectBackoff  time.Duration `env:"RELAY_RECONNECT_BACKOFF,default=500ms"`
	DialTimeout       time.Duration `env:"RELAY_DIAL_TIMEOUT,default=5s"`

	MutedWords      string `env:"MUTED_WORDS"`
	CensorCharacter string `env:"CENSOR_CHARACTER,default=*"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportRedis, TransportMemory:
	default:
		return fmt.Errorf("RELAY_TRANSPORT must be %q or %q, got %q", TransportRedis, TransportMemory, c.Transport)
	}
	if _, err := CharacterRune(c.CensorCharacter); err != nil {
		return err
	}
	return nil
}

func (c Config) Redis() relay.RedisConfig {
	return relay.RedisConfig{
		Addr:              c.RelayAddr,
		DB:                c.RelayDB,
		HealthInterval:    c.HealthInterval,
		ReconnectAttempts: c.ReconnectAttempts,
		ReconnectBackoff:  c.ReconnectBackoff,
		DialTimeout:       c.DialTimeout,
	}
}

// MutedWordList returns the parsed MUTED_WORDS, empty when unset.
func (c Config) MutedWordList() []string {
	return moderation.ParseWords(c.MutedWords)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CENSOR_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
