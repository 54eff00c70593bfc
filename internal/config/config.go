package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Переменные окружения с секретами, перекрывают значения из config.toml
const (
	EnvRedsysSecretKey = "REDSYS_SECRET_KEY"
	EnvDBPassword      = "DB_PASSWORD"
	EnvAdminToken      = "ADMIN_TOKEN"
	EnvRabbitURL       = "RABBIT_URL"
)

// Транспорты отправки писем
const (
	TransportHTTP = "http"
	TransportAMQP = "amqp"
	TransportLog  = "log"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Redsys   RedsysConfig   `toml:"redsys"`
	Notifier NotifierConfig `toml:"notifier"`
	Admin    AdminConfig    `toml:"admin"`
}

// ServerConfig таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedsysConfig секрет мерчанта в base64, как его выдаёт шлюз
type RedsysConfig struct {
	SecretKey string `toml:"secret_key"`
}

type NotifierConfig struct {
	Transport string `toml:"transport"` // http | amqp | log
	BaseURL   string `toml:"base_url"`
	Timeout   int    `toml:"timeout"` // секунды
	Exchange  string `toml:"exchange"`
	RabbitURL string `toml:"rabbit_url"`
	// MaxInFlight предел одновременных фоновых отправок
	MaxInFlight int `toml:"max_in_flight"`
}

// AdminConfig пустой токен выключает административный API
type AdminConfig struct {
	Token string `toml:"token"`
}

// Load читает config.toml, затем накладывает секреты из окружения
// envFile - необязательный .env, отсутствие файла не ошибка
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvRedsysSecretKey); ok {
		c.Redsys.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvDBPassword); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv(EnvAdminToken); ok {
		c.Admin.Token = v
	}
	if v, ok := os.LookupEnv(EnvRabbitURL); ok {
		c.Notifier.RabbitURL = v
	}
}

func (c *Config) setDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "smc-paymentservice"
	}

	c.Notifier.Transport = strings.ToLower(strings.TrimSpace(c.Notifier.Transport))
	if c.Notifier.Transport == "" {
		c.Notifier.Transport = TransportLog
	}
	if c.Notifier.Timeout == 0 {
		c.Notifier.Timeout = 10
	}
	if c.Notifier.Exchange == "" {
		c.Notifier.Exchange = "notifications"
	}
	if c.Notifier.MaxInFlight == 0 {
		c.Notifier.MaxInFlight = 32
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var missing []string

	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.dbname")
	}
	if c.Redsys.SecretKey == "" {
		missing = append(missing, "redsys.secret_key ("+EnvRedsysSecretKey+")")
	}

	switch c.Notifier.Transport {
	case TransportHTTP:
		if c.Notifier.BaseURL == "" {
			missing = append(missing, "notifier.base_url")
		}
	case TransportAMQP:
		if c.Notifier.RabbitURL == "" {
			missing = append(missing, "notifier.rabbit_url ("+EnvRabbitURL+")")
		}
	case TransportLog:
	default:
		return fmt.Errorf("config: unknown notifier.transport %q", c.Notifier.Transport)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}
