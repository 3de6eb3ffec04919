package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goslovakia/go-loxone/pkg/loxone"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		EnvEndpoint, EnvSerial, EnvUsername, EnvPassword, EnvTimeoutSec, EnvInsecure,
		EnvCacheFile, EnvMQTTBroker, EnvMQTTClientID, EnvMQTTTopicRoot,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, loxone.DefaultResolverEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultTimeoutSec, cfg.TimeoutSec)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.True(t, cfg.Insecure)
	assert.Empty(t, cfg.CacheFile)
	assert.Equal(t, DefaultMQTTClient, cfg.MQTT.ClientID)
	assert.Equal(t, DefaultMQTTRoot, cfg.MQTT.TopicRoot)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvEndpoint, "http://resolver.local")
	t.Setenv(EnvSerial, " 504F94A00000 ")
	t.Setenv(EnvUsername, "admin")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvTimeoutSec, "3")
	t.Setenv(EnvInsecure, "false")
	t.Setenv(EnvCacheFile, "/tmp/loxone.json")
	t.Setenv(EnvMQTTBroker, "tcp://broker:1883")
	t.Setenv(EnvMQTTTopicRoot, "home/loxone")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://resolver.local", cfg.Endpoint)
	assert.Equal(t, "504F94A00000", cfg.Serial)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.False(t, cfg.Insecure)
	assert.Equal(t, "/tmp/loxone.json", cfg.CacheFile)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "home/loxone", cfg.MQTT.TopicRoot)

	assert.Len(t, cfg.Options(), 4)
}

func TestLoadFromEnv_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTimeoutSec, "ten")
	t.Setenv(EnvInsecure, "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSec, cfg.TimeoutSec)
	assert.True(t, cfg.Insecure)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTimeoutSec, "0")

	_, err := LoadFromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeoutSec)
}

func TestValidate(t *testing.T) {
	cfg := Config{Endpoint: "http://x", TimeoutSec: 1, MQTT: MQTTConfig{TopicRoot: "loxone"}}
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.Endpoint = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MQTT.TopicRoot = "/abs"
	assert.Error(t, bad.Validate())
}

func TestOptions_WithoutCacheFile(t *testing.T) {
	cfg := Config{Endpoint: "http://x", TimeoutSec: 1}
	assert.Len(t, cfg.Options(), 3)
}
