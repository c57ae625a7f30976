package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq key/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Enabled reports whether a database was configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.DBName != ""
}

// LLMConfig selects the provider behind the field classifier.
type LLMConfig struct {
	Provider  string // "openai" or "gemini"
	Model     string
	APIKey    string
	MaxTokens int64
}

type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
}

// EngineConfig holds the timing knobs of a fill session.
type EngineConfig struct {
	SettleDelay       time.Duration
	TypingDelay       time.Duration
	MaxSuggestionWait time.Duration
	SectionEntries    int
}

// DefaultEngineConfig returns the timings used when nothing is configured.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SettleDelay:       1500 * time.Millisecond,
		TypingDelay:       50 * time.Millisecond,
		MaxSuggestionWait: 1000 * time.Millisecond,
		SectionEntries:    1,
	}
}

type AppConfig struct {
	Port          string
	Database      DatabaseConfig
	JWTSecret     string
	Environment   string
	LLM           LLMConfig
	S3            S3Config
	Engine        EngineConfig
	ClassifierURL string
	ProfileDir    string
	CORSOrigins   string
}

func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func GetLLMConfig() LLMConfig {
	provider := getEnv("LLM_PROVIDER", "openai")
	cfg := LLMConfig{
		Provider:  provider,
		MaxTokens: int64(getEnvInt("LLM_MAX_TOKENS", 4000)),
	}
	switch provider {
	case "gemini":
		cfg.APIKey = getEnv("GEMINI_API_KEY", "")
		cfg.Model = getEnv("LLM_MODEL", "gemini-1.5-flash")
	default:
		cfg.APIKey = getEnv("OPENAI_API_KEY", "")
		cfg.Model = getEnv("LLM_MODEL", "gpt-4o-mini")
	}
	return cfg
}

func GetS3Config() S3Config {
	return S3Config{
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Region:    getEnv("AWS_REGION", ""),
		Bucket:    getEnv("AWS_S3_BUCKET", ""),
	}
}

func GetEngineConfig() EngineConfig {
	def := DefaultEngineConfig()
	return EngineConfig{
		SettleDelay:       getEnvMillis("AUTOFILL_SETTLE_DELAY_MS", def.SettleDelay),
		TypingDelay:       getEnvMillis("AUTOFILL_TYPING_DELAY_MS", def.TypingDelay),
		MaxSuggestionWait: getEnvMillis("AUTOFILL_MAX_SUGGESTION_WAIT_MS", def.MaxSuggestionWait),
		SectionEntries:    getEnvInt("AUTOFILL_SECTION_ENTRIES", def.SectionEntries),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:          getEnv("PORT", "8081"),
		Database:      GetDatabaseConfig(),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LLM:           GetLLMConfig(),
		S3:            GetS3Config(),
		Engine:        GetEngineConfig(),
		ClassifierURL: getEnv("CLASSIFIER_URL", "http://localhost:8081"),
		ProfileDir:    getEnv("PROFILE_DIR", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
	}
}

// Validate checks the settings the classifier server cannot run without.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.Database.Enabled() && c.ProfileDir == "" {
		return fmt.Errorf("either DB_NAME or PROFILE_DIR must be set")
	}
	if c.Engine.SettleDelay < 0 || c.Engine.TypingDelay < 0 || c.Engine.MaxSuggestionWait < 0 {
		return fmt.Errorf("engine delays must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return time.Duration(n) * time.Millisecond
}
