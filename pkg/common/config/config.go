package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Terminology store
	DBDriver         string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MySQLDSN         string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers      []string
	SyncEventsTopic   string
	KafkaWriteTimeout time.Duration

	// Correspondence table
	CorrespondenceStore    string
	CorrespondencePath     string
	CorrespondenceRedisKey string

	// Import behaviour
	CreatorID           int
	StrictMapTypes      bool
	PreferForeignIDs    bool
	RecordRuns          bool
	SourceDirectoryPath string

	// Terminology registry (OCL)
	RegistryEnv     string
	RegistryToken   string
	RegistryTimeout time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8090"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 10*time.Minute),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 256*1024*1024)),

		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "openmrs"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "openmrs"),
		PostgresDB:       getEnv("POSTGRES_DB", "openmrs"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MySQLDSN:         getEnv("MYSQL_DSN", "openmrs:openmrs@tcp(localhost:3306)/openmrs?charset=utf8&parseTime=True&loc=Local"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", nil),
		SyncEventsTopic:   getEnv("SYNC_EVENTS_TOPIC", "conceptsync-events"),
		KafkaWriteTimeout: getDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),

		CorrespondenceStore:    strings.ToLower(getEnv("CORRESPONDENCE_STORE", "file")),
		CorrespondencePath:     getEnv("CORRESPONDENCE_PATH", "keys.json"),
		CorrespondenceRedisKey: getEnv("CORRESPONDENCE_REDIS_KEY", "conceptsync:correspondence"),

		CreatorID:           getIntEnv("SYNC_CREATOR_ID", 1),
		StrictMapTypes:      getBoolEnv("SYNC_STRICT_MAP_TYPES", false),
		PreferForeignIDs:    getBoolEnv("SYNC_PREFER_FOREIGN_IDS", false),
		RecordRuns:          getBoolEnv("SYNC_RECORD_RUNS", false),
		SourceDirectoryPath: getEnv("SOURCE_DIRECTORY_PATH", ""),

		RegistryEnv:     strings.ToLower(getEnv("OCL_API_ENV", "production")),
		RegistryToken:   getEnv("OCL_API_TOKEN", ""),
		RegistryTimeout: getDuration("REGISTRY_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
