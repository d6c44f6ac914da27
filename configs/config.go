package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Scheduler struct {
	SweepInterval      time.Duration
	SweepBatchSize     int
	PublishTimeout     time.Duration
	PublishConcurrency int
	SimulatePublishing bool
	TokenRefreshWindow time.Duration
	// StaleClaimAfter of zero lets the scheduler derive it from PublishTimeout.
	StaleClaimAfter    time.Duration
}

type Config struct {
	Environment        string
	Port               string
	LogLevel           string
	TiktokClientKey    string
	TiktokClientSecret string
	TiktokRedirectURI  string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	YoutubeRedirectURI string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	R2                 R2
	Scheduler          Scheduler
	SecretKey          string
	CookieName         string
	RateLimitMax       int
	MaxUploadBytes     int
}

func LoadConfig() *Config {
	return &Config{
		Environment:        getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3000"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		TiktokClientKey:    getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		TiktokRedirectURI:  getEnv("TIKTOK_REDIRECT_URI", "http://localhost:3000/auth/tiktok/callback"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		YoutubeRedirectURI: getEnv("YOUTUBE_REDIRECT_URI", "http://localhost:3000/auth/youtube/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Scheduler: Scheduler{
			SweepInterval:      getDuration("SWEEP_INTERVAL", time.Minute),
			SweepBatchSize:     getInt("SWEEP_BATCH_SIZE", 50),
			PublishTimeout:     getDuration("PUBLISH_TIMEOUT", 30*time.Second),
			PublishConcurrency: getInt("PUBLISH_CONCURRENCY", 10),
			SimulatePublishing: getBool("SIMULATE_PUBLISHING", true),
			TokenRefreshWindow: getDuration("TOKEN_REFRESH_WINDOW", 30*time.Minute),
			StaleClaimAfter:    getDuration("STALE_CLAIM_AFTER", 0),
		},
		SecretKey:      getEnv("SECRET_KEY", ""),
		CookieName:     getEnv("COOKIE_NAME", "creatoraide_session"),
		RateLimitMax:   getInt("RATE_LIMIT_MAX", 120),
		MaxUploadBytes: getInt("MAX_UPLOAD_BYTES", 100*1024*1024),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// R2Enabled reports whether media uploads can be stored.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKey != "" && c.R2.SecretKey != "" && c.R2.BucketName != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := cast.ToIntE(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getDuration accepts Go duration strings ("90s") or plain seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if n, err := cast.ToIntE(value); err == nil {
		if n <= 0 {
			return defaultValue
		}
		return time.Duration(n) * time.Second
	}
	d, err := cast.ToDurationE(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
