package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	ListenAddr  string
	PostgresURI string
	RedisURI    string
	FrontendURL string

	SecretKey   string
	CookieName  string
	AdminAPIKey string

	InstagramUserID     string
	InstagramToken      string
	InstagramAPIVersion string

	PublicBaseURL   string
	FreeimageAPIKey string
	FreeimageURL    string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	MediaDir string
	R2       R2

	SchedulerEnabled  bool
	SchedulerInterval int // seconds
	ProcessingWait    int // seconds
	HTTPTimeout       int // seconds
}

func LoadConfig() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":3000"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		SecretKey:   getEnv("SECRET_KEY", ""),
		CookieName:  getEnv("COOKIE_NAME", "vq_session"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		InstagramUserID:     getEnv("INSTAGRAM_USER_ID", ""),
		InstagramToken:      getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		InstagramAPIVersion: getEnv("INSTAGRAM_API_VERSION", "v21.0"),

		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", ""),
		FreeimageAPIKey: getEnv("FREEIMAGE_HOST_API_KEY", "6d207e02198a847aa98d0a27a"),
		FreeimageURL:    getEnv("FREEIMAGE_HOST_URL", "https://freeimage.host/api/1/upload"),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL_CAPTION", "openai/gpt-4o-mini"),

		MediaDir: getEnv("MEDIA_DIR", "generated_images"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},

		SchedulerEnabled:  getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerInterval: getEnvInt("SCHEDULER_INTERVAL_SECONDS", 30),
		ProcessingWait:    getEnvInt("PROCESSING_WAIT_SECONDS", 60),
		HTTPTimeout:       getEnvInt("HTTP_TIMEOUT_SECONDS", 30),
	}
}

func (c *Config) ProcessingWaitDuration() time.Duration {
	return time.Duration(c.ProcessingWait) * time.Second
}

func (c *Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
