package container

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/link-shortener/internal/messaging"
	"github.com/serroba/link-shortener/internal/shortener"
)

// Backend names accepted by --store, --ratelimit-store and --analytics.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendLog      = "log"
)

// Options is populated by humacli from flags and SERVICE_* environment variables.
type Options struct {
	Port        int    `default:"8888"           help:"Port to listen on"                                      short:"p"`
	BaseURL     string `help:"Public base URL of short links (default http://localhost:<port>)"`
	CodeLength  int    `default:"6"              help:"Length of generated short codes (6-8)"                  short:"c"`
	MaxAttempts int    `default:"5"              help:"Candidate codes tried before a shorten request fails"`
	Store       string `default:"memory"         help:"URL and account storage: memory, redis or postgres"     short:"s"`
	RedisAddr   string `default:"localhost:6379" help:"Redis server address"                                   short:"r"`
	DatabaseURL string `help:"PostgreSQL connection string, required for --store=postgres"`

	CacheTTLSeconds       int `default:"0"   help:"Redis read-through cache TTL for the postgres store, 0 disables"`
	ExpiredRetentionHours int `default:"0"   help:"Hours an expired link is kept before it is purged, 0 keeps it forever"`
	SweepIntervalSeconds  int `default:"300" help:"Interval between purges of expired links"`

	JWTSecret     string `help:"HMAC secret for session tokens; random per process when empty"`
	TokenTTLHours int    `default:"24"    help:"Session token lifetime in hours"`
	RequireAuth   bool   `default:"false" help:"Require a bearer token to shorten URLs"`

	CORSOrigins           string `default:"http://localhost:3000" help:"Comma separated origins allowed to call the API"`
	RequestTimeoutSeconds int    `default:"5"                     help:"Deadline for storage calls made by a request"`

	RateLimit      int    `default:"100"    help:"Requests per minute per client, 0 disables rate limiting"`
	RateLimitStore string `default:"memory" help:"Rate limit counters: memory or redis"`
	LoginAttempts  int    `default:"10"     help:"Login attempts per user id per 15 minutes, 0 disables"`

	Events    string `default:"memory"  help:"Analytics transport: memory (in-process) or redis (streams)"`
	Analytics string `default:"log"     help:"Analytics sink: log or redis counters"`
	LogFormat string `default:"console" help:"Log format: console or json"`
}

// Validate rejects option combinations the container cannot wire.
func (o *Options) Validate() error {
	var errs []error

	if o.CodeLength < shortener.MinCodeLength || o.CodeLength > shortener.MaxCodeLength {
		errs = append(errs, fmt.Errorf("code length must be between %d and %d, got %d",
			shortener.MinCodeLength, shortener.MaxCodeLength, o.CodeLength))
	}

	if o.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", o.MaxAttempts))
	}

	if o.SweepsExpired() && o.SweepIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive when expired links are purged, got %d",
			o.SweepIntervalSeconds))
	}

	errs = append(errs,
		oneOf("store", o.Store, BackendMemory, BackendRedis, BackendPostgres),
		oneOf("ratelimit-store", o.RateLimitStore, BackendMemory, BackendRedis),
		oneOf("events", o.Events, string(messaging.BackendMemory), string(messaging.BackendRedis)),
		oneOf("analytics", o.Analytics, BackendLog, BackendRedis),
		oneOf("log-format", o.LogFormat, "console", "json"),
	)

	if o.Store == BackendPostgres && o.DatabaseURL == "" {
		errs = append(errs, errors.New("database-url is required for the postgres store"))
	}

	return errors.Join(errs...)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
}

// PublicBaseURL is the prefix of every short_url.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// AllowedOrigins splits CORSOrigins.
func (o *Options) AllowedOrigins() []string {
	var origins []string

	for _, origin := range strings.Split(o.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}

// Retention is how long expired links are kept. Zero keeps them forever.
func (o *Options) Retention() time.Duration {
	return time.Duration(o.ExpiredRetentionHours) * time.Hour
}

// SweepsExpired reports whether a background sweeper should run. Redis expires
// its own keys, so it never needs one.
func (o *Options) SweepsExpired() bool {
	return o.Retention() > 0 && o.Store != BackendRedis
}

// RunsConsumers reports whether analytics consumers must run inside the server.
// In-process events are only visible to this process.
func (o *Options) RunsConsumers() bool {
	return o.Events == string(messaging.BackendMemory)
}

func (o *Options) requestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

func (o *Options) usesRedis() bool {
	return o.Store == BackendRedis || o.RateLimitStore == BackendRedis ||
		o.Events == string(messaging.BackendRedis) || o.Analytics == BackendRedis ||
		(o.Store == BackendPostgres && o.CacheTTLSeconds > 0)
}
