package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable when ENV is development.
const DefaultJWTSecret = "change-me"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Gemini   GeminiConfig
	Qdrant   QdrantConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Session  SessionConfig
	Report   ReportConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type StorageConfig struct {
	Backend         string
	UploadPath      string
	PublicBaseURL   string
	GCSBucket       string
	GCSCredentials  string
	MaxFileSize     int64
	MaxCandidateCVs int
}

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	TokenTTL          time.Duration
	BcryptCost        int
	AdminEmail        string
	AdminPasswordHash string
	AdminName         string
}

type SessionConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type ReportConfig struct {
	BrandName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cv_screener"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("LLM_MODEL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", "120s"),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "jd_cv_reports"),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			UploadPath:      getEnv("UPLOAD_PATH", "./uploads"),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", ""),
			GCSBucket:       getEnv("GCS_BUCKET", ""),
			GCSCredentials:  getEnv("GCS_CREDENTIALS_FILE", ""),
			MaxFileSize:     getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			MaxCandidateCVs: getEnvAsInt("MAX_CANDIDATE_CVS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
			JWTIssuer:         getEnv("JWT_ISSUER", "cv-screener"),
			TokenTTL:          getEnvAsDuration("JWT_TTL", "12h"),
			BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			AdminName:         getEnv("ADMIN_NAME", "Administrator"),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTL:           getEnvAsDuration("SESSION_TTL", "12h"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
		},
		Report: ReportConfig{
			BrandName: getEnv("BRAND_NAME", "SSO Consultants AI"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Validate rejects settings that must not reach a deployed server.
func (c *Config) Validate() error {
	if c.Server.Env != "development" && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value when ENV is %q", c.Server.Env)
	}
	return nil
}

// SearchEnabled reports whether the optional report index can be wired.
func (c *Config) SearchEnabled() bool {
	return c.Qdrant.URL != "" && c.Gemini.APIKey != ""
}

// LLMModel resolves the chat model for the configured provider.
func (c *Config) LLMModel() string {
	if c.LLM.Model != "" {
		return c.LLM.Model
	}
	if c.LLM.Provider == "gemini" {
		return c.Gemini.Model
	}
	return "gpt-4o-mini"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
