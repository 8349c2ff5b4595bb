package config

import (
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Socket   SocketConfig   `envPrefix:"SOCKET_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	LLM      LLMConfig      `envPrefix:"LLM_"`
	Sync     SyncConfig     `envPrefix:"SYNC_"`
}

type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:".*"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type DatabaseConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"slackline"`
}

type KafkaConfig struct {
	Brokers       []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic         string   `env:"TOPIC" envDefault:"chat-message-events"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"slackline"`
	Workers       int      `env:"WORKERS" envDefault:"10"`
}

type SocketConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8081"`
	Token   string `env:"TOKEN"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
}

type LLMConfig struct {
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GoogleAIAPIKey  string `env:"GOOGLE_AI_API_KEY"`
}

// SyncConfig tunes the per-session channel view windows.
type SyncConfig struct {
	MinSendInterval time.Duration `env:"MIN_SEND_INTERVAL" envDefault:"500ms"`
	PendingTTL      time.Duration `env:"PENDING_TTL" envDefault:"5s"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
