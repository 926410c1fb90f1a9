package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/toolsascode/wildebeest/internal/backends"
)

const instancePrefix = "WB_INSTANCE_"

// QueueConfig holds the job queue configuration
type QueueConfig struct {
	Enabled            bool     // Whether to use the queue (false = synchronous execution)
	Type               string   // "kafka" or "pulsar"
	KafkaBrokers       []string // Kafka broker addresses
	KafkaTopic         string   // Kafka topic name
	KafkaGroupID       string   // Kafka consumer group ID
	PulsarURL          string   // Pulsar service URL
	PulsarTopic        string   // Pulsar topic name
	PulsarSubscription string   // Pulsar subscription name
}

// Config holds the application configuration
type Config struct {
	Server struct {
		HTTPPort    string
		GRPCPort    string
		APIToken    string
		ExecTimeout time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	// ResourceDir is the base directory for relative resource and instance paths
	ResourceDir string
	Queue       QueueConfig
	// Instances are named instances configured through WB_INSTANCE_<NAME>_* variables
	Instances map[string]*backends.ConnectionConfig
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Instances: make(map[string]*backends.ConnectionConfig),
	}

	// Server configuration
	config.Server.HTTPPort = getEnvOrDefault("WB_HTTP_PORT", "7070")
	config.Server.GRPCPort = getEnvOrDefault("WB_GRPC_PORT", "9090")
	config.Server.APIToken = os.Getenv("WB_API_TOKEN")
	timeout, err := time.ParseDuration(getEnvOrDefault("WB_EXEC_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WB_EXEC_TIMEOUT: %w", err)
	}
	config.Server.ExecTimeout = timeout

	config.Log.Level = getEnvOrDefault("WB_LOG_LEVEL", "info")
	config.Log.Format = getEnvOrDefault("WB_LOG_FORMAT", "text")
	config.ResourceDir = getEnvOrDefault("WB_RESOURCE_DIR", ".")

	// Queue configuration
	config.Queue.Enabled = getEnvOrDefault("WB_QUEUE_ENABLED", "false") == "true"
	config.Queue.Type = getEnvOrDefault("WB_QUEUE_TYPE", "kafka")

	if kafkaBrokers := os.Getenv("WB_QUEUE_KAFKA_BROKERS"); kafkaBrokers != "" {
		config.Queue.KafkaBrokers = strings.Split(kafkaBrokers, ",")
	} else {
		kafkaHost := getEnvOrDefault("WB_QUEUE_KAFKA_HOST", "localhost")
		kafkaPort := getEnvOrDefault("WB_QUEUE_KAFKA_PORT", "9092")
		config.Queue.KafkaBrokers = []string{fmt.Sprintf("%s:%s", kafkaHost, kafkaPort)}
	}
	config.Queue.KafkaTopic = getEnvOrDefault("WB_QUEUE_KAFKA_TOPIC", "wildebeest-jobs")
	config.Queue.KafkaGroupID = getEnvOrDefault("WB_QUEUE_KAFKA_GROUP_ID", "wildebeest-workers")

	config.Queue.PulsarURL = getEnvOrDefault("WB_QUEUE_PULSAR_URL", "pulsar://localhost:6650")
	config.Queue.PulsarTopic = getEnvOrDefault("WB_QUEUE_PULSAR_TOPIC", "wildebeest-jobs")
	config.Queue.PulsarSubscription = getEnvOrDefault("WB_QUEUE_PULSAR_SUBSCRIPTION", "wildebeest-workers")

	if err := loadInstances(config, os.Environ()); err != nil {
		return nil, err
	}

	return config, nil
}

// RequireAPIToken fails when no API token is configured
func (c *Config) RequireAPIToken() error {
	if c.Server.APIToken == "" {
		return fmt.Errorf("WB_API_TOKEN environment variable is required")
	}
	return nil
}

// Instance returns the named instance configuration
func (c *Config) Instance(name string) (*backends.ConnectionConfig, error) {
	conn, ok := c.Instances[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("instance %q is not configured (set %s%s_TYPE)", name, instancePrefix, strings.ToUpper(name))
	}
	return conn, nil
}

// InstanceNames returns the configured instance names in sorted order
func (c *Config) InstanceNames() []string {
	names := make([]string, 0, len(c.Instances))
	for name := range c.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadInstances collects WB_INSTANCE_<NAME>_TYPE declarations and the
// settings that share their prefix.
func loadInstances(config *Config, environ []string) error {
	env := make(map[string]string, len(environ))
	for _, envVar := range environ {
		parts := strings.SplitN(envVar, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}

	for key, value := range env {
		if !strings.HasPrefix(key, instancePrefix) || !strings.HasSuffix(key, "_TYPE") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, instancePrefix), "_TYPE")
		if name == "" {
			return fmt.Errorf("%s has no instance name", key)
		}
		config.Instances[strings.ToLower(name)] = &backends.ConnectionConfig{
			Name:  strings.ToLower(name),
			Type:  strings.ToLower(value),
			Extra: make(map[string]string),
		}
	}

	for name, conn := range config.Instances {
		prefix := instancePrefix + strings.ToUpper(name) + "_"
		for key, value := range env {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			switch setting := strings.TrimPrefix(key, prefix); setting {
			case "TYPE":
			case "HOST":
				conn.Host = value
			case "PORT":
				conn.Port = value
			case "USERNAME":
				conn.Username = value
			case "PASSWORD":
				conn.Password = value
			case "DATABASE":
				conn.Database = value
			case "SCHEMA":
				conn.Schema = value
			default:
				conn.Extra[setting] = value
			}
		}
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
