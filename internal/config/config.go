// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrMissingJWTSecret возвращается, если ключ подписи токенов не задан.
var ErrMissingJWTSecret = errors.New("jwt secret key is not set")

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	DeveloperEmail          string `yaml:"developer_email" env:"DEVELOPER_EMAIL"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Rates                   `yaml:"rates"`
	Billing                 `yaml:"billing"`
	AI                      `yaml:"ai"`
	AMQP                    `yaml:"amqp"`
	GRPCHealth              `yaml:"grpc_health"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// Rates настройки получения курсов валют
type Rates struct {
	UpstreamURL  string        `yaml:"upstream_url" env-default:"https://open.er-api.com/v6/latest/KZT"`
	RatesTTL     time.Duration `yaml:"ttl" env-default:"1h"`
	RatesTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Billing настройки обработки webhook платежного провайдера
type Billing struct {
	WebhookSecret    string        `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	WebhookTolerance time.Duration `yaml:"webhook_tolerance" env-default:"5m"`
}

// AI настройки клиента языковой модели
type AI struct {
	AIURL     string        `yaml:"url" env-default:"https://api.openai.com/v1/chat/completions"`
	AIKey     string        `yaml:"key" env:"AI_API_KEY"`
	AIModel   string        `yaml:"model" env-default:"gpt-4o-mini"`
	AITimeout time.Duration `yaml:"timeout" env-default:"60s"`
}

// AMQP настройки публикации событий биллинга. Пустой URL отключает публикацию.
type AMQP struct {
	AMQPURL      string `yaml:"url" env:"AMQP_URL"`
	AMQPExchange string `yaml:"exchange" env-default:"billing"`
}

// GRPCHealth адрес gRPC health-сервера. Пустой адрес отключает сервер.
type GRPCHealth struct {
	AddressGRPC   string        `yaml:"address"`
	ProbeInterval time.Duration `yaml:"probe_interval" env-default:"10s"`
}

// Load читает конфиг из файла и проверяет обязательные поля.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingJWTSecret)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига. Процесс не стартует без ключа подписи токенов.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфигурацию без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Rates:\n"+
			"  Upstream: %s\n"+
			"  TTL: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.UpstreamURL,
		c.RatesTTL,
	)
}
