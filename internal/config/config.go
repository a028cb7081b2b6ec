// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSessionSecret = "development-secret-change-in-production"

// Config holds all configuration for the application.
type Config struct {
	Env string

	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	RequestTimeout     time.Duration
	AllowedOrigins     []string
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders  bool

	// Storage
	DBPath string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	// LLM settings
	LLMProvider     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	LLMModel        string
	LLMMaxRetries   int
	LLMBackoffBase  time.Duration

	// Redis backs the rate-limit counters when set.
	RedisURL string

	// NATS settings; events are not published when NATSURL is empty.
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Rate limiting
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	RegisterRateLimit  int
	RegisterRateWindow time.Duration
	MaxLoginAttempts   int
	LockoutTime        time.Duration
	PasswordMinLength  int

	// Google sign-in; disabled unless client id and secret are set.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "production"),

		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", 90*time.Second),
		AllowedOrigins:     getListEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TrustProxyHeaders:  getBoolEnv("TRUST_PROXY_HEADERS", false),

		// Storage
		DBPath: getEnv("DB_PATH", "data/sales_coach.db"),

		// Sessions
		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionTTL:    getDurationEnv("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:  getBoolEnv("COOKIE_SECURE", true),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMMaxRetries:   getIntEnv("LLM_MAX_RETRIES", 3),
		LLMBackoffBase:  getDurationEnv("LLM_BACKOFF_BASE", time.Second),

		RedisURL: getEnv("REDIS_URL", ""),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Rate limiting
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		LoginRateLimit:     getIntEnv("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow:    getDurationEnv("LOGIN_RATE_WINDOW", 5*time.Minute),
		RegisterRateLimit:  getIntEnv("REGISTER_RATE_LIMIT", 10),
		RegisterRateWindow: getDurationEnv("REGISTER_RATE_WINDOW", time.Hour),
		MaxLoginAttempts:   getIntEnv("MAX_LOGIN_ATTEMPTS", 5),
		LockoutTime:        getDurationEnv("LOCKOUT_TIME", 5*time.Minute),
		PasswordMinLength:  getIntEnv("PASSWORD_MIN_LENGTH", 8),

		// Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate reports every setting that would stop the server from working.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET cannot be empty"))
	} else if c.SessionSecret == defaultSessionSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("SESSION_SECRET must be set outside development"))
	}

	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for provider anthropic"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for provider openai"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for provider gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of anthropic, openai, gemini", c.LLMProvider))
	}

	if c.LLMMaxRetries < 1 {
		errs = append(errs, errors.New("LLM_MAX_RETRIES must be >= 1"))
	}
	for name, v := range map[string]int{
		"RATE_LIMIT_REQUESTS": c.RateLimitRequests,
		"LOGIN_RATE_LIMIT":    c.LoginRateLimit,
		"REGISTER_RATE_LIMIT": c.RegisterRateLimit,
		"MAX_LOGIN_ATTEMPTS":  c.MaxLoginAttempts,
		"PASSWORD_MIN_LENGTH": c.PasswordMinLength,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", name))
		}
	}
	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LLMAPIKey returns the key for the configured provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.AnthropicAPIKey
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Durations accept Go syntax ("5m") or a bare number of seconds ("300").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
