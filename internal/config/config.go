package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	AI            AIConfig            `yaml:"ai"`
	Storage       StorageConfig       `yaml:"storage"`
	Redis         RedisConfig         `yaml:"redis"`
	Recalculation RecalculationConfig `yaml:"recalculation"`
	Offers        OffersConfig        `yaml:"offers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On Cloud Run / ECS, listen on all interfaces
	if os.Getenv("K_SERVICE") != "" || os.Getenv("ECS_CONTAINER_METADATA_URI") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. It defaults to true.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// AIConfig holds the text-generation providers. Providers are tried in the
// order listed; an empty list means every call takes the deterministic path.
type AIConfig struct {
	Providers      []string      `yaml:"providers"` // "gemini", "bedrock", "openai"
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxRetries     int           `yaml:"max_retries"`
	Gemini         GeminiConfig  `yaml:"gemini"`
	Bedrock        BedrockConfig `yaml:"bedrock"`
	OpenAI         OpenAIConfig  `yaml:"openai"`
}

// Timeout returns the configured per-call timeout as a duration
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GeminiConfig selects a Gemini model. With Project set the Vertex AI backend
// is used; otherwise APIKey targets the Gemini API.
type GeminiConfig struct {
	Model    string `yaml:"model"`
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	APIKey   string `yaml:"api_key"`
}

// BedrockConfig holds AWS Bedrock settings.
type BedrockConfig struct {
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StorageConfig selects the customer repository backend.
type StorageConfig struct {
	Type          string `yaml:"type"` // "memory", "postgres", "dynamodb"
	DatabaseURL   string `yaml:"database_url"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"`
	AWSAccessKey  string `yaml:"aws_access_key"`
	AWSSecretKey  string `yaml:"aws_secret_key"`
	Endpoint      string `yaml:"endpoint"` // DynamoDB Local / LocalStack
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RedisConfig holds the optional Redis connection used for the result cache
// and the recalculation lock.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the loyalty result cache TTL.
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RecalculationConfig controls the background batch recomputation.
type RecalculationConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
	Concurrency     int  `yaml:"concurrency"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
}

// Interval returns the recalculation interval as a duration
func (c RecalculationConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// LockTTL returns the distributed lock TTL as a duration
func (c RecalculationConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// OffersConfig selects which deterministic offer strategy covers unparsable
// AI responses.
type OffersConfig struct {
	ParseFallback string `yaml:"parse_fallback"` // "rich", "basic" or "salvage"
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 2
	}
	if cfg.AI.Gemini.Model == "" {
		cfg.AI.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.AI.Gemini.Location == "" {
		cfg.AI.Gemini.Location = "us-central1"
	}
	if cfg.AI.Bedrock.ModelID == "" {
		cfg.AI.Bedrock.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if cfg.AI.Bedrock.Region == "" {
		cfg.AI.Bedrock.Region = "us-east-1"
	}
	if cfg.AI.OpenAI.Model == "" {
		cfg.AI.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "memory"
	}
	if cfg.Storage.DynamoDBTable == "" {
		cfg.Storage.DynamoDBTable = "loyalty-customers"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}
	if cfg.Redis.CacheTTLSeconds == 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	if cfg.Recalculation.IntervalMinutes == 0 {
		cfg.Recalculation.IntervalMinutes = 60
	}
	if cfg.Recalculation.Concurrency == 0 {
		cfg.Recalculation.Concurrency = 4
	}
	if cfg.Recalculation.LockTTLSeconds == 0 {
		cfg.Recalculation.LockTTLSeconds = 600
	}
	if cfg.Offers.ParseFallback == "" {
		cfg.Offers.ParseFallback = "rich"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// A missing config file is not an error here: defaults plus env are enough
// to run against the in-memory store.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		applyDefaults(cfg)
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if providers := os.Getenv("AI_PROVIDERS"); providers != "" {
		cfg.AI.Providers = splitList(providers)
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.AI.Gemini.APIKey = apiKey
	}
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		cfg.AI.Gemini.Project = project
	}
	if location := os.Getenv("GOOGLE_CLOUD_LOCATION"); location != "" {
		cfg.AI.Gemini.Location = location
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.AI.OpenAI.APIKey = apiKey
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.AI.Bedrock.Region = region
		cfg.Storage.AWSRegion = region
	}
	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
		if os.Getenv("STORAGE_TYPE") == "" {
			cfg.Storage.Type = "postgres"
		}
	}
	if table := os.Getenv("DYNAMODB_TABLE"); table != "" {
		cfg.Storage.DynamoDBTable = table
	}
	if accessKey := os.Getenv("AWS_ACCESS_KEY_ID"); accessKey != "" {
		cfg.Storage.AWSAccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY"); secretKey != "" {
		cfg.Storage.AWSSecretKey = secretKey
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
