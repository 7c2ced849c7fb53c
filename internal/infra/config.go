package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Режимы подключения к сервису заказов
const (
	VerifierModeHTTP  = "http"
	VerifierModeGRPC  = "grpc"
	VerifierModeLocal = "local" // Подтверждение заказа собственным расчетом сервиса, без внешнего вызова
)

// Config - корневая структура конфигурации сервиса заказов и консоли.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Console  ConsoleConfig  `mapstructure:"console"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Verifier VerifierConfig `mapstructure:"verifier"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Cart     CartConfig     `mapstructure:"cart"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"` // 0 - gRPC API выключен
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ConsoleConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig - Pub/Sub политик, сет пауз и хранилище корзин.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и настройки JWT консоли.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	PublicKey      []byte
	PrivateKey     []byte
}

// VerifierConfig - внешний сервис заказов и обвязка надежности вокруг него.
type VerifierConfig struct {
	Mode        string        `mapstructure:"mode"` // http, grpc, local
	URL         string        `mapstructure:"url"`  // Базовый URL для http
	Addr        string        `mapstructure:"addr"` // host:port для grpc
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
	Attempts  uint    `mapstructure:"attempts"`

	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBMaxFailures uint32        `mapstructure:"cb_max_failures"`
}

// JournalConfig - буфер и пакетная запись журнала сделок.
type JournalConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type CartConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig объединяет значения из файла и ENV. Вне production сначала подхватывается .env.
func LoadConfig() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// SERVER_PORT=9000 перекрывает server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("env", "APP_ENV")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Без файла работаем на ENV и дефолтах
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// PEM-ключ может прийти прямо в ENV (Docker/K8s), иначе читаем файл
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность секций, которые viper не может проверить сам.
func (c *Config) Validate() error {
	switch c.Verifier.Mode {
	case VerifierModeLocal:
	case VerifierModeHTTP:
		if c.Verifier.URL == "" {
			return errors.New("config: verifier.url is required for http mode")
		}
	case VerifierModeGRPC:
		if c.Verifier.Addr == "" {
			return errors.New("config: verifier.addr is required for grpc mode")
		}
	default:
		return fmt.Errorf("config: unknown verifier mode %q", c.Verifier.Mode)
	}
	if c.Cart.TTL <= 0 {
		return errors.New("config: cart.ttl must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("console.port", 8081)

	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("verifier.mode", VerifierModeLocal)
	v.SetDefault("verifier.call_timeout", 10*time.Second)
	v.SetDefault("verifier.rate_limit", 100)
	v.SetDefault("verifier.burst", 20)
	v.SetDefault("verifier.attempts", 3)
	v.SetDefault("verifier.cb_max_requests", 3)
	v.SetDefault("verifier.cb_interval", 5*time.Second)
	v.SetDefault("verifier.cb_timeout", 30*time.Second)
	v.SetDefault("verifier.cb_max_failures", 5)

	v.SetDefault("journal.buffer_size", 10000)
	v.SetDefault("journal.batch_size", 100)
	v.SetDefault("journal.flush_interval", 500*time.Millisecond)

	v.SetDefault("cart.ttl", 24*time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
