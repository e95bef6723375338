package conf

import (
	"errors"
	"fmt"
	"time"
)

type Bootstrap struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Events   Events   `yaml:"events"`
	Payment  Payment  `yaml:"payment"`
	Auth     Auth     `yaml:"auth"`
	Orders   Orders   `yaml:"orders"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Log struct {
	Level string `yaml:"level"`
}

const (
	DriverMySQL = "mysql"
	DriverMongo = "mongo"
)

type Database struct {
	Driver string `yaml:"driver"`
	MySQL  MySQL  `yaml:"mysql"`
	Mongo  Mongo  `yaml:"mongo"`
}

type MySQL struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Database        string        `yaml:"database"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN is the go-sql-driver connection string.
func (m MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

type Mongo struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type Redis struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

const (
	BrokerNone     = "none"
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)

type Events struct {
	Broker   string   `yaml:"broker"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	Kafka    Kafka    `yaml:"kafka"`
}

type RabbitMQ struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Payment struct {
	Provider  string        `yaml:"provider"`
	BaseURL   string        `yaml:"base_url"`
	KeyID     string        `yaml:"key_id"`
	KeySecret string        `yaml:"key_secret"`
	Currency  string        `yaml:"currency"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Orders struct {
	LockTTL  time.Duration `yaml:"lock_ttl"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Validate rejects configurations the server cannot start with.
func (c *Bootstrap) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverMongo:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Events.Broker {
	case BrokerNone, BrokerRabbitMQ, BrokerKafka:
	default:
		return fmt.Errorf("unknown events broker %q", c.Events.Broker)
	}
	if c.Payment.KeySecret == "" {
		return errors.New("payment.key_secret is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Payment.Currency) != 3 {
		return fmt.Errorf("payment.currency must be an ISO 4217 code, got %q", c.Payment.Currency)
	}
	return nil
}
