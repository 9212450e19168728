package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Threads struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	APIBaseURL  string
}

type Gemini struct {
	APIKey string
	Model  string
}

type Config struct {
	Threads             Threads
	Gemini              Gemini
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	PostgresURI         string
	RedisURI            string
	FrontendURL         string
	R2                  R2
	SecretKey           string
	CookieName          string
	ServiceKey          string
	DispatchSchedule    string
	DispatchConcurrency int
	Port                string
}

func LoadConfig() *Config {
	return &Config{
		Threads: Threads{
			AppID:       getEnv("THREADS_APP_ID", ""),
			AppSecret:   getEnv("THREADS_APP_SECRET", ""),
			RedirectURI: getEnv("THREADS_REDIRECT_URI", ""),
			APIBaseURL:  getEnv("THREADS_API_BASE_URL", "https://graph.threads.net/v1.0"),
		},
		Gemini: Gemini{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:           getEnv("SECRET_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", "threadflow_session"),
		ServiceKey:          getEnv("SERVICE_KEY", ""),
		DispatchSchedule:    getEnv("DISPATCH_SCHEDULE", "@every 00h01m00s"),
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 1),
		Port:                getEnv("PORT", "3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
