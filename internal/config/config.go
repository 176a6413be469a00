package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"supply-agent/internal/core"
)

// Store backends.
const (
	StoreJSON     = "json"
	StorePostgres = "postgres"
)

// Config is the process configuration, read once at startup.
type Config struct {
	StoreBackend string
	StorePath    string
	DatabaseURL  string

	OpenAIAPIKey    string
	ReasoningModel  string
	DelegateTimeout time.Duration
	PlanStrategy    core.PlanStrategy
	Policy          core.Policy

	ServerPort     string
	AllowedOrigins []string
	JWTSecret      string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := envReader{get: getenv}
	def := core.DefaultPolicy()

	cfg := &Config{
		StoreBackend:    strings.ToLower(r.str("STORE_BACKEND", StoreJSON)),
		StorePath:       r.str("STORE_PATH", "data/database.json"),
		DatabaseURL:     r.str("DATABASE_URL", ""),
		OpenAIAPIKey:    r.str("OPENAI_API_KEY", ""),
		ReasoningModel:  r.str("REASONING_MODEL", "gpt-4o"),
		DelegateTimeout: r.duration("DELEGATE_TIMEOUT", 30*time.Second),
		ServerPort:      r.str("SERVER_PORT", "8080"),
		AllowedOrigins:  splitList(r.str("ALLOWED_ORIGINS", "")),
		JWTSecret:       r.str("JWT_SECRET", ""),
		LogLevel:        r.str("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(r.str("LOG_FORMAT", "json")),
		Policy: core.Policy{
			ReorderMultiplier:          r.float("REORDER_MULTIPLIER", def.ReorderMultiplier),
			InvestigateConsumptionRate: r.float("INVESTIGATE_CONSUMPTION_RATE", def.InvestigateConsumptionRate),
			InvestigateCeilingRatio:    r.float("INVESTIGATE_CEILING_RATIO", def.InvestigateCeilingRatio),
			HighConsumptionRate:        r.float("HIGH_CONSUMPTION_RATE", def.HighConsumptionRate),
			HighConsumptionCeiling:     r.float("HIGH_CONSUMPTION_CEILING", def.HighConsumptionCeiling),
			DefaultCeiling:             r.float("DEFAULT_CEILING", def.DefaultCeiling),
			AlertConsumptionRate:       r.float("ALERT_CONSUMPTION_RATE", def.AlertConsumptionRate),
			MaxCriticalItems:           r.int("PLAN_MAX_ITEMS", def.MaxCriticalItems),
		},
	}

	strategy, err := core.ParsePlanStrategy(strings.ToLower(r.str("PLAN_STRATEGY", "")))
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("PLAN_STRATEGY: %v", err))
	}
	cfg.PlanStrategy = strategy

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreJSON:
		if c.StorePath == "" {
			return fmt.Errorf("invalid configuration: STORE_PATH is required for the json store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("invalid configuration: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid configuration: STORE_BACKEND %q (want json or postgres)", c.StoreBackend)
	}
	if c.DelegateTimeout <= 0 {
		return fmt.Errorf("invalid configuration: DELEGATE_TIMEOUT must be positive")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string { return ":" + c.ServerPort }

type envReader struct {
	get  func(string) string
	errs []string
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.get(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *envReader) int(key string, def int) int {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
