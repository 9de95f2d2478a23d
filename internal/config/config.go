package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

type Storage struct {
	// Backend selects the durable key-value slot implementation:
	// "file", "redis" or "memory".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`
	Path    string `yaml:"path" env:"STORAGE_PATH" env-default:"./data"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER" env-default:""`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type Archive struct {
	// Optional append-only Postgres mirror of the order history.
	Enabled  bool   `yaml:"enabled" env:"ARCHIVE_ENABLED" env-default:"false"`
	Host     string `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"PG_USER" env:"PG_USER" env-default:""`
	Password string `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-default:""`
	Name     string `yaml:"PG_DBNAME" env:"PG_DBNAME" env-default:""`
	SSLMode  string `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
}

type Catalog struct {
	BaseURL string        `yaml:"base_url" env:"CATALOG_BASE_URL" env-default:"https://v2.api.noroff.dev/online-shop"`
	Timeout time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"10s"`
}

type Stock struct {
	// Persist snapshots the ledger to the key-value store after every
	// mutation; off by default, so stock reseeds on each start.
	Persist      bool `yaml:"persist" env:"STOCK_PERSIST" env-default:"false"`
	DefaultLevel int  `yaml:"default_level" env:"STOCK_DEFAULT_LEVEL" env-default:"25"`
}

type Checkout struct {
	// Processor selects the confirmation step: "simulated" or "stripe".
	Processor       string        `yaml:"processor" env:"CHECKOUT_PROCESSOR" env-default:"simulated"`
	ProcessingDelay time.Duration `yaml:"processing_delay" env:"CHECKOUT_PROCESSING_DELAY" env-default:"2s"`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15s"`
}

type Stripe struct {
	APIKey   string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	Currency string `yaml:"STRIPE_CURRENCY" env:"STRIPE_CURRENCY" env-default:"usd"`
}

type SendGrid struct {
	APIKey    string `yaml:"SENDGRID_API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"SENDGRID_FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:""`
	FromName  string `yaml:"SENDGRID_FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Rainy Days"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"storefront.events"`
}

type Tracing struct {
	Enabled  bool   `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `yaml:"endpoint" env:"OTLP_ENDPOINT" env-default:"localhost:4318"`
}

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"development"`
	HTTPServer `yaml:"http_server"`
	Storage    Storage      `yaml:"storage"`
	Redis      RedisConnect `yaml:"redis"`
	Archive    Archive      `yaml:"archive"`
	Catalog    Catalog      `yaml:"catalog"`
	Stock      Stock        `yaml:"stock"`
	Checkout   Checkout     `yaml:"checkout"`
	Security   Security     `yaml:"security"`
	RateConfig RateConfig   `yaml:"rateConfig"`
	Stripe     Stripe       `yaml:"stripe"`
	SendGrid   SendGrid     `yaml:"sendgrid"`
	Kafka      Kafka        `yaml:"kafka"`
	Tracing    Tracing      `yaml:"tracing"`
}

func MustLoad() *Config {

	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {

		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {

			log.Fatal("Config path is not set")

		}

	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg

}

func LoadConfigFromPath(configPath string) (*Config, error) {

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}

	return &cfg, nil
}

func (a *Archive) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		a.User, a.Password, a.Host, a.Port, a.Name, a.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		r.Username, r.Password, r.Host, r.Port, r.DB)
}
