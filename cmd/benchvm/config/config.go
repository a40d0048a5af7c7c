package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dennishilgert/benchvm/pkg/configuration"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	NodeBinaryPath string `validate:"required"`
	HostVmArgs     string
	ContainerImage string `validate:"required"`

	ContainerPull             bool
	ContainerRegistryUsername string
	ContainerRegistryPassword string `validate:"required_with=ContainerRegistryUsername"`

	ResultsFile string

	RedisAddress     string `validate:"omitempty,hostname_port"`
	RedisUsername    string
	RedisPassword    string
	RedisDatabase    int   `validate:"min=0"`
	RedisHistorySize int64 `validate:"min=0"`
	RedisExpiration  time.Duration

	KafkaBootstrapServers string
	KafkaTopic            string `validate:"required_with=KafkaBootstrapServers"`
	KafkaCreateTopic      bool
	KafkaPartitions       int `validate:"min=1"`

	ObjectStoreEndpoint        string
	ObjectStoreAccessKeyId     string `validate:"required_with=ObjectStoreEndpoint"`
	ObjectStoreSecretAccessKey string `validate:"required_with=ObjectStoreEndpoint"`
	ObjectStoreUseSsl          bool
	ObjectStoreBucket          string `validate:"required_with=ObjectStoreEndpoint"`
	ObjectStorePrefix          string

	DatabaseHost     string
	DatabasePort     int    `validate:"min=1,max=65535"`
	DatabaseUsername string `validate:"required_with=DatabaseHost"`
	DatabasePassword string
	DatabaseName     string `validate:"required_with=DatabaseHost"`
	DatabaseSslMode  bool
	DatabaseTimezone string
}

// HostVmArgList returns the configured host vm args split at whitespace.
func (c *Config) HostVmArgList() []string {
	return strings.Fields(strings.ReplaceAll(c.HostVmArgs, "\"", ""))
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads the configuration from the environment into v.
func LoadWith(v *viper.Viper) (*Config, error) {
	var config Config

	// Automatically load environment variables that match.
	v.AutomaticEnv()
	v.SetEnvPrefix("BENCHVM")

	errs := []error{
		// Guest and host vm settings.
		configuration.LoadOrDefaultWith(v, "NodeBinaryPath", "BENCHVM_NODE_BINARY_PATH", "node"),
		configuration.LoadOrDefaultWith(v, "HostVmArgs", "BENCHVM_HOST_VM_ARGS", ""),
		configuration.LoadOrDefaultWith(v, "ContainerImage", "BENCHVM_CONTAINER_IMAGE", "ghcr.io/graalvm/nodejs-community:latest"),
		configuration.LoadOrDefaultWith(v, "ContainerPull", "BENCHVM_CONTAINER_PULL", false),
		configuration.LoadOrDefaultWith(v, "ContainerRegistryUsername", "BENCHVM_CONTAINER_REGISTRY_USERNAME", ""),
		configuration.LoadOrDefaultWith(v, "ContainerRegistryPassword", "BENCHVM_CONTAINER_REGISTRY_PASSWORD", ""),

		// Result sinks. A sink without an address is disabled.
		configuration.LoadOrDefaultWith(v, "ResultsFile", "BENCHVM_RESULTS_FILE", ""),

		configuration.LoadOrDefaultWith(v, "RedisAddress", "BENCHVM_REDIS_ADDRESS", ""),
		configuration.LoadOrDefaultWith(v, "RedisUsername", "BENCHVM_REDIS_USERNAME", ""),
		configuration.LoadOrDefaultWith(v, "RedisPassword", "BENCHVM_REDIS_PASSWORD", ""),
		configuration.LoadOrDefaultWith(v, "RedisDatabase", "BENCHVM_REDIS_DATABASE", 0),
		configuration.LoadOrDefaultWith(v, "RedisHistorySize", "BENCHVM_REDIS_HISTORY_SIZE", 100),
		configuration.LoadOrDefaultWith(v, "RedisExpiration", "BENCHVM_REDIS_EXPIRATION", "0s"),

		configuration.LoadOrDefaultWith(v, "KafkaBootstrapServers", "BENCHVM_KAFKA_BOOTSTRAP_SERVERS", ""),
		configuration.LoadOrDefaultWith(v, "KafkaTopic", "BENCHVM_KAFKA_TOPIC", "benchvm-results"),
		configuration.LoadOrDefaultWith(v, "KafkaCreateTopic", "BENCHVM_KAFKA_CREATE_TOPIC", true),
		configuration.LoadOrDefaultWith(v, "KafkaPartitions", "BENCHVM_KAFKA_PARTITIONS", 1),

		configuration.LoadOrDefaultWith(v, "ObjectStoreEndpoint", "BENCHVM_OBJECT_STORE_ENDPOINT", ""),
		configuration.LoadOrDefaultWith(v, "ObjectStoreAccessKeyId", "BENCHVM_OBJECT_STORE_ACCESS_KEY_ID", ""),
		configuration.LoadOrDefaultWith(v, "ObjectStoreSecretAccessKey", "BENCHVM_OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		configuration.LoadOrDefaultWith(v, "ObjectStoreUseSsl", "BENCHVM_OBJECT_STORE_USE_SSL", false),
		configuration.LoadOrDefaultWith(v, "ObjectStoreBucket", "BENCHVM_OBJECT_STORE_BUCKET", "benchvm-results"),
		configuration.LoadOrDefaultWith(v, "ObjectStorePrefix", "BENCHVM_OBJECT_STORE_PREFIX", ""),

		configuration.LoadOrDefaultWith(v, "DatabaseHost", "BENCHVM_DATABASE_HOST", ""),
		configuration.LoadOrDefaultWith(v, "DatabasePort", "BENCHVM_DATABASE_PORT", 5432),
		configuration.LoadOrDefaultWith(v, "DatabaseUsername", "BENCHVM_DATABASE_USERNAME", ""),
		configuration.LoadOrDefaultWith(v, "DatabasePassword", "BENCHVM_DATABASE_PASSWORD", ""),
		configuration.LoadOrDefaultWith(v, "DatabaseName", "BENCHVM_DATABASE_NAME", "benchvm"),
		configuration.LoadOrDefaultWith(v, "DatabaseSslMode", "BENCHVM_DATABASE_SSL_MODE", false),
		configuration.LoadOrDefaultWith(v, "DatabaseTimezone", "BENCHVM_DATABASE_TIMEZONE", "UTC"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Unmarshalling the Config struct.
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
