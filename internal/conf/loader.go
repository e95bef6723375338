package conf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the configuration used for keys absent from the file.
func Default() Bootstrap {
	return Bootstrap{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: Log{Level: "info"},
		Database: Database{
			Driver: DriverMySQL,
			MySQL: MySQL{
				Host:            "127.0.0.1",
				Port:            "3306",
				Database:        "zippty",
				MaxOpenConns:    100,
				MaxIdleConns:    20,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Mongo: Mongo{
				URI:            "mongodb://127.0.0.1:27017",
				Database:       "zippty",
				ConnectTimeout: 30 * time.Second,
			},
		},
		Redis: Redis{
			Addr:         "127.0.0.1:6379",
			PoolSize:     50,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Events: Events{
			Broker:   BrokerNone,
			RabbitMQ: RabbitMQ{Exchange: "order.exchange"},
			Kafka:    Kafka{Topic: "orders"},
		},
		Payment: Payment{
			Provider: "razorpay",
			BaseURL:  "https://api.razorpay.com",
			Currency: "INR",
			Timeout:  5 * time.Second,
		},
		Orders: Orders{
			LockTTL:  10 * time.Second,
			CacheTTL: 30 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
func Load(path string) (*Bootstrap, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	applyEnv(&c, os.LookupEnv)
	return &c, nil
}

func applyEnv(c *Bootstrap, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	set("DATABASE_DRIVER", &c.Database.Driver)
	set("MYSQL_USER", &c.Database.MySQL.User)
	set("MYSQL_PASSWORD", &c.Database.MySQL.Password)
	set("MYSQL_HOST", &c.Database.MySQL.Host)
	set("MYSQL_PORT", &c.Database.MySQL.Port)
	set("MYSQL_DATABASE", &c.Database.MySQL.Database)
	set("MONGO_URI", &c.Database.Mongo.URI)
	set("MONGO_DATABASE", &c.Database.Mongo.Database)
	if v, ok := lookup("REDIS_HOST"); ok && v != "" {
		c.Redis.Addr = v + ":6379"
		c.Redis.Enabled = true
	}
	set("REDIS_PASSWORD", &c.Redis.Password)
	set("EVENTS_BROKER", &c.Events.Broker)
	set("RABBITMQ_URL", &c.Events.RabbitMQ.URL)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Events.Kafka.Brokers = strings.Split(v, ",")
	}
	set("RAZORPAY_KEY_ID", &c.Payment.KeyID)
	set("RAZORPAY_KEY_SECRET", &c.Payment.KeySecret)
	set("JWT_SECRET", &c.Auth.JWTSecret)
}
