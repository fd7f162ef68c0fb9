package kisclient

import (
	"os"
	"time"
)

// Config holds the KIS open API client settings.
type Config struct {
	AppKey    string        // application key issued by the broker
	AppSecret string        // application secret issued by the broker
	BaseURL   string        // API base URL (e.g. "https://openapi.koreainvestment.com:9443")
	Timeout   time.Duration // HTTP request timeout
}

// LoadConfig reads the KIS settings from environment variables.
func LoadConfig() Config {
	return Config{
		AppKey:    os.Getenv("KIS_APP_KEY"),
		AppSecret: os.Getenv("KIS_APP_SECRET"),
		BaseURL:   os.Getenv("KIS_BASE_URL"),
		Timeout:   10 * time.Second,
	}
}
