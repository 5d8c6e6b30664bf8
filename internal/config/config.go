package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	TopicMessageSent string   `mapstructure:"topic_message_sent"`
}

type NATSConfig struct {
	URL                string `mapstructure:"url"`
	ChatUpdatedSubject string `mapstructure:"chat_updated_subject"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
}

type PresenceConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type SyncConfig struct {
	LedgerCapacity        int `mapstructure:"ledger_capacity"`
	TypingDebounceSeconds int `mapstructure:"typing_debounce_seconds"`
}

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	NATS     NATSConfig     `mapstructure:"nats"`
	WS       WSConfig       `mapstructure:"ws"`
	Presence PresenceConfig `mapstructure:"presence"`
	Sync     SyncConfig     `mapstructure:"sync"`

	// derived
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	PresenceTTL    time.Duration
	TypingDebounce time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.App.Port == 0 {
		c.App.Port = 8083
	}
	if c.WS.PingIntervalSeconds == 0 {
		c.WS.PingIntervalSeconds = 25
	}
	if c.WS.WriteDeadlineSeconds == 0 {
		c.WS.WriteDeadlineSeconds = 10
	}
	if c.WS.MaxMessageSizeBytes == 0 {
		c.WS.MaxMessageSizeBytes = 65536
	}
	if c.Presence.TTLSeconds == 0 {
		c.Presence.TTLSeconds = 300
	}
	if c.Sync.LedgerCapacity == 0 {
		c.Sync.LedgerCapacity = 100
	}
	if c.Sync.TypingDebounceSeconds == 0 {
		c.Sync.TypingDebounceSeconds = 3
	}
	if c.NATS.ChatUpdatedSubject == "" {
		c.NATS.ChatUpdatedSubject = "chat.updated"
	}
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.PresenceTTL = time.Duration(c.Presence.TTLSeconds) * time.Second
	c.TypingDebounce = time.Duration(c.Sync.TypingDebounceSeconds) * time.Second
	return &c, nil
}
