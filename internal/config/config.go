package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string

	APIBaseURL string
	APITimeout time.Duration

	PusherKey          string
	PusherCluster      string
	PusherEndpoint     string
	PushChannel        string
	PushEvent          string
	PushReconnectDelay time.Duration

	SessionFile    string
	AlertSound     string
	AllowedOrigins []string
	LogLevel       logrus.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to read .env")
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	return &Config{
		Port:               getEnv("PORT", "8081"),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8000/api/"),
		APITimeout:         getDuration("API_TIMEOUT", 15*time.Second),
		PusherKey:          getEnv("PUSHER_KEY", ""),
		PusherCluster:      getEnv("PUSHER_CLUSTER", "ap1"),
		PusherEndpoint:     getEnv("PUSHER_ENDPOINT", ""),
		PushChannel:        getEnv("PUSH_CHANNEL", "orders"),
		PushEvent:          getEnv("PUSH_EVENT", `App\Events\NewOrder`),
		PushReconnectDelay: getDuration("PUSH_RECONNECT_DELAY", 5*time.Second),
		SessionFile:        getEnv("SESSION_FILE", ".tableside/session"),
		AlertSound:         getEnv("ALERT_SOUND", "/sounds/new-order.mp3"),
		AllowedOrigins:     getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:           level,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.WithField("key", key).Warnf("invalid duration %q, using %s", v, fallback)
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
