package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// App holds application settings read from the environment.
type App struct {
	Port          string
	PublicBaseURL string
	AutoMigrate   bool
	CORSOrigins   []string

	// candidate endpoints rate limit, per client IP
	RateLimitRPS   float64
	RateLimitBurst int

	SessionBackend string // memory|redis|mongo
	SessionTTL     time.Duration

	RatingQueue       string // inprocess|redis
	RatingWorkers     int
	RatingMaxAttempts int
	RatingBackoff     time.Duration

	TurnMaxAttempts int
	TurnRetryDelay  time.Duration
	StageLimits     []int

	LLMProvider  string // vertex|gemini
	LLMModel     string
	GCPProject   string
	GCPLocation  string
	GeminiAPIKey string
	// optional service account file for Google clients
	GoogleCredentialsFile string

	LinkSecret string
	LinkTTL    time.Duration

	SpeechEnabled bool
	AudioBucket   string
}

var DefaultStageLimits = []int{1, 3, 2, 1, 1}

func appDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("public_base_url", "http://localhost:3000")
	v.SetDefault("auto_migrate", false)
	v.SetDefault("rate_limit_rps", 2.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("session_backend", "memory")
	v.SetDefault("session_ttl", 72*time.Hour)
	v.SetDefault("rating_queue", "inprocess")
	v.SetDefault("rating_workers", 2)
	v.SetDefault("rating_max_attempts", 3)
	v.SetDefault("rating_backoff", time.Minute)
	v.SetDefault("turn_max_attempts", 2)
	v.SetDefault("turn_retry_delay", 1500*time.Millisecond)
	v.SetDefault("llm_provider", "vertex")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("link_ttl", 14*24*time.Hour)
	v.SetDefault("speech_enabled", false)
}

// LoadApp reads App from the environment.
func LoadApp() (*App, error) {
	const op = "config.LoadApp"

	v := viper.New()
	v.AutomaticEnv()
	appDefaults(v)
	r := &envReader{v: v}

	cfg := &App{
		Port:          v.GetString("port"),
		PublicBaseURL: strings.TrimRight(v.GetString("public_base_url"), "/"),
		AutoMigrate:   r.bool("auto_migrate"),
		CORSOrigins:   r.list("cors_origins", []string{"http://localhost:3000"}),

		RateLimitRPS:   r.float("rate_limit_rps"),
		RateLimitBurst: r.int("rate_limit_burst"),

		SessionBackend: strings.ToLower(v.GetString("session_backend")),
		SessionTTL:     r.duration("session_ttl"),

		RatingQueue:       strings.ToLower(v.GetString("rating_queue")),
		RatingWorkers:     r.int("rating_workers"),
		RatingMaxAttempts: r.int("rating_max_attempts"),
		RatingBackoff:     r.duration("rating_backoff"),

		TurnMaxAttempts: r.int("turn_max_attempts"),
		TurnRetryDelay:  r.duration("turn_retry_delay"),
		StageLimits:     r.intList("stage_limits", DefaultStageLimits),

		LLMProvider:           strings.ToLower(v.GetString("llm_provider")),
		LLMModel:              v.GetString("llm_model"),
		GCPProject:            v.GetString("gcp_project"),
		GCPLocation:           v.GetString("gcp_location"),
		GeminiAPIKey:          v.GetString("gemini_api_key"),
		GoogleCredentialsFile: v.GetString("google_credentials_file"),

		LinkSecret: v.GetString("link_secret"),
		LinkTTL:    r.duration("link_ttl"),

		SpeechEnabled: r.bool("speech_enabled"),
		AudioBucket:   v.GetString("audio_bucket"),
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s: %w", op, r.err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.SessionBackend {
	case "memory", "redis", "mongo":
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory, redis or mongo, got %q", c.SessionBackend)
	}
	switch c.RatingQueue {
	case "inprocess", "redis":
	default:
		return fmt.Errorf("RATING_QUEUE must be inprocess or redis, got %q", c.RatingQueue)
	}
	switch c.LLMProvider {
	case "vertex":
		if c.GCPProject == "" {
			return errors.New("GCP_PROJECT is required for LLM_PROVIDER=vertex")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be vertex or gemini, got %q", c.LLMProvider)
	}
	if c.LinkSecret != "" && len(c.LinkSecret) < 32 {
		return errors.New("LINK_SECRET must be at least 32 characters")
	}
	if c.TurnMaxAttempts < 1 {
		return fmt.Errorf("TURN_MAX_ATTEMPTS must be >= 1, got %d", c.TurnMaxAttempts)
	}
	if c.RatingMaxAttempts < 1 {
		return fmt.Errorf("RATING_MAX_ATTEMPTS must be >= 1, got %d", c.RatingMaxAttempts)
	}
	if c.RatingWorkers < 1 {
		return fmt.Errorf("RATING_WORKERS must be >= 1, got %d", c.RatingWorkers)
	}
	for i, l := range c.StageLimits {
		if l < 0 {
			return fmt.Errorf("STAGE_LIMITS[%d] must be >= 0, got %d", i, l)
		}
	}
	return nil
}

// envReader converts viper values with cast and keeps the first failure, so
// LoadApp reports the offending variable instead of silently zeroing it.
type envReader struct {
	v   *viper.Viper
	err error
}

func (r *envReader) fail(key, kind string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: invalid %s %q", strings.ToUpper(key), kind, r.v.GetString(key))
	}
}

func (r *envReader) int(key string) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.fail(key, "integer")
	}
	return n
}

func (r *envReader) float(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	if err != nil {
		r.fail(key, "number")
	}
	return f
}

func (r *envReader) bool(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.fail(key, "boolean")
	}
	return b
}

func (r *envReader) duration(key string) time.Duration {
	d, err := cast.ToDurationE(r.v.Get(key))
	if err != nil {
		r.fail(key, "duration")
	}
	return d
}

// list splits a comma separated value, falling back when nothing is left.
func (r *envReader) list(key string, fallback []string) []string {
	var out []string
	for _, p := range strings.Split(r.v.GetString(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func (r *envReader) intList(key string, fallback []int) []int {
	parts := r.list(key, nil)
	if len(parts) == 0 {
		return append([]int(nil), fallback...)
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := cast.ToIntE(p)
		if err != nil {
			if r.err == nil {
				r.err = fmt.Errorf("%s: invalid integer %q", strings.ToUpper(key), p)
			}
			return nil
		}
		out = append(out, n)
	}
	return out
}
