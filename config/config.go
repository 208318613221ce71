package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Log           LogConfig           `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	Database      DatabaseConfig      `yaml:"database"`
	Mongo         MongoConfig         `yaml:"mongo"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	RabbitMQ      RabbitMQConfig      `yaml:"rabbitmq"`
	Inventory     InventoryConfig     `yaml:"inventory"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Twilio        TwilioConfig        `yaml:"twilio"`
	Seed          SeedConfig          `yaml:"seed"`
}

type HTTPConfig struct {
	Address          string `yaml:"address"`
	InventoryAddress string `yaml:"inventory_address"`
	WorkerAddress    string `yaml:"worker_address"`
	SwaggerDir       string `yaml:"swagger_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL               string `yaml:"url"`
	Queue             string `yaml:"queue"`
	DialTimeoutMillis int    `yaml:"dial_timeout_ms"`
}

func (r RabbitMQConfig) DialTimeout() time.Duration {
	return time.Duration(r.DialTimeoutMillis) * time.Millisecond
}

// InventoryConfig is shared by the ledger service (store, cache, idempotency)
// and by the booking API's seat reservation client (base_url, timeout).
type InventoryConfig struct {
	Store                 string `yaml:"store"`
	BaseURL               string `yaml:"base_url"`
	TimeoutMillis         int    `yaml:"timeout_ms"`
	IdempotencyTTLSeconds int    `yaml:"idempotency_ttl_seconds"`
	FlightsCacheTTL       int    `yaml:"flights_cache_ttl_seconds"`
}

func (i InventoryConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutMillis) * time.Millisecond
}

func (i InventoryConfig) IdempotencyTTL() time.Duration {
	return time.Duration(i.IdempotencyTTLSeconds) * time.Second
}

func (i InventoryConfig) CacheTTL() time.Duration {
	return time.Duration(i.FlightsCacheTTL) * time.Second
}

const (
	TransportRabbitMQ = "rabbitmq"
	TransportKafka    = "kafka"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type NotificationsConfig struct {
	Transport        string `yaml:"transport"`
	DestinationPhone string `yaml:"destination_phone"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`
	Enabled    bool   `yaml:"enabled"`
}

// SeedConfig controls the demo data written into empty stores at startup.
type SeedConfig struct {
	DemoData bool `yaml:"demo_data"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Secrets may come from the environment instead of the file.
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"JWT_SECRET":                 &c.Auth.JWTSecret,
		"TWILIO_ACCOUNTSID":          &c.Twilio.AccountSID,
		"TWILIO_AUTHTOKEN":           &c.Twilio.AuthToken,
		"TWILIO_PHONE_NUMBER":        &c.Twilio.From,
		"MESSAGING_DESTINATIONPHONE": &c.Notifications.DestinationPhone,
		"RABBITMQ_URL":               &c.RabbitMQ.URL,
		"MONGODB_URI":                &c.Mongo.URI,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.InventoryAddress == "" {
		c.HTTP.InventoryAddress = ":8081"
	}
	if c.HTTP.WorkerAddress == "" {
		c.HTTP.WorkerAddress = ":8082"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "flights"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "flights"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "whatsapp-messages"
	}
	if c.RabbitMQ.DialTimeoutMillis == 0 {
		c.RabbitMQ.DialTimeoutMillis = 2000
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "whatsapp-messages"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "messaging-service"
	}
	if c.Inventory.Store == "" {
		c.Inventory.Store = StoreMongo
	}
	if c.Inventory.TimeoutMillis == 0 {
		c.Inventory.TimeoutMillis = 5000
	}
	if c.Inventory.IdempotencyTTLSeconds == 0 {
		c.Inventory.IdempotencyTTLSeconds = 24 * 60 * 60
	}
	if c.Inventory.FlightsCacheTTL == 0 {
		c.Inventory.FlightsCacheTTL = 30
	}
	if c.Notifications.Transport == "" {
		c.Notifications.Transport = TransportRabbitMQ
	}
}
