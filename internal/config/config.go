package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goslovakia/go-loxone/pkg/loxone"
)

const (
	EnvEndpoint       = "LOXONE_ENDPOINT"
	EnvSerial         = "LOXONE_SERIAL"
	EnvUsername       = "LOXONE_USERNAME"
	EnvPassword       = "LOXONE_PASSWORD"
	EnvTimeoutSec     = "LOXONE_TIMEOUT_SEC"
	EnvInsecure       = "LOXONE_INSECURE"
	EnvCacheFile      = "LOXONE_CACHE_FILE"
	EnvMQTTBroker     = "LOXONE_MQTT_BROKER"
	EnvMQTTClientID   = "LOXONE_MQTT_CLIENT_ID"
	EnvMQTTTopicRoot  = "LOXONE_MQTT_TOPIC_ROOT"
	DefaultTimeoutSec = 10
	DefaultMQTTClient = "loxone_client"
	DefaultMQTTRoot   = "loxone"
)

// MQTTConfig holds the broker settings of the publish command.
type MQTTConfig struct {
	Broker    string
	ClientID  string
	TopicRoot string
}

// Config holds CLI runtime configuration loaded from environment variables.
type Config struct {
	Endpoint   string
	Serial     string
	Username   string
	Password   string
	TimeoutSec int
	Insecure   bool
	CacheFile  string
	MQTT       MQTTConfig
}

// LoadFromEnv loads and validates configuration from environment variables.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Endpoint:   envOrDefault(EnvEndpoint, loxone.DefaultResolverEndpoint),
		Serial:     strings.TrimSpace(os.Getenv(EnvSerial)),
		Username:   strings.TrimSpace(os.Getenv(EnvUsername)),
		Password:   os.Getenv(EnvPassword),
		TimeoutSec: intEnvOrDefault(EnvTimeoutSec, DefaultTimeoutSec),
		Insecure:   boolEnvOrDefault(EnvInsecure, true),
		CacheFile:  strings.TrimSpace(os.Getenv(EnvCacheFile)),
		MQTT: MQTTConfig{
			Broker:    strings.TrimSpace(os.Getenv(EnvMQTTBroker)),
			ClientID:  envOrDefault(EnvMQTTClientID, DefaultMQTTClient),
			TopicRoot: envOrDefault(EnvMQTTTopicRoot, DefaultMQTTRoot),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent. Credentials are not
// required here, since discovery works without them.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("invalid %s: must not be empty", EnvEndpoint)
	}
	if c.TimeoutSec <= 0 {
		return fmt.Errorf("invalid %s: must be > 0", EnvTimeoutSec)
	}
	if c.MQTT.TopicRoot == "" || strings.HasPrefix(c.MQTT.TopicRoot, "/") {
		return fmt.Errorf("invalid %s: must be a non-empty relative topic", EnvMQTTTopicRoot)
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Options maps the configuration to client options. Logging is left to the
// caller.
func (c Config) Options() []loxone.ClientOption {
	opts := []loxone.ClientOption{
		loxone.WithResolverEndpoint(c.Endpoint),
		loxone.WithTimeout(c.Timeout()),
		loxone.WithInsecureSkipVerify(c.Insecure),
	}
	if c.CacheFile != "" {
		opts = append(opts, loxone.WithCache(loxone.NewFileCache(c.CacheFile)))
	}
	return opts
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnvOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnvOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
