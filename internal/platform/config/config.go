package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lprior-repo/sitekit/internal/seo"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultContactDelay = time.Second
	defaultContactRate  = 10
	defaultLogLevel     = "info"
	defaultAssetMaxAge  = time.Hour

	// SenderSimulated delivers contact forms to an in-process simulated endpoint.
	SenderSimulated = "simulated"
	// SenderPubSub publishes contact forms to a Pub/Sub topic.
	SenderPubSub    = "pubsub"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server        ServerConfig
	Site          SiteConfig
	Contact       ContactConfig
	PubSub        PubSubConfig
	Features      FeatureFlags
	Observability ObservabilityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// SiteConfig holds site-wide presentation defaults.
type SiteConfig struct {
	Name            string
	BaseURL         string
	DefaultKeywords string
	DefaultOGImage  string
	// DevMode reparses templates on every request.
	DevMode bool
	// AssetMaxAge is the Cache-Control max-age for /assets.
	AssetMaxAge time.Duration
}

// SEOBuilder returns the seo.Builder for these defaults.
func (s SiteConfig) SEOBuilder() seo.Builder {
	return seo.Builder{
		SiteName: s.Name,
		Keywords: s.DefaultKeywords,
		OGImage:  s.DefaultOGImage,
		BaseURL:  s.BaseURL,
	}
}

// ContactConfig controls the contact form pipeline.
type ContactConfig struct {
	Sender        string
	Delay         time.Duration
	RatePerMinute int
}

// PubSubConfig addresses the topic used by the pubsub sender.
type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsFile string
	EmulatorHost    string
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	Assertions bool
}

// ObservabilityConfig configures logging and trace correlation.
type ObservabilityConfig struct {
	LogLevel  string
	ProjectID string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process
// environment and an explicit map, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}

	var invalid []string
	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "SITE_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "SITE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SITE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SITE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Site: SiteConfig{
			Name:            stringWithDefault(lookup, "SITE_NAME", seo.DefaultSiteName),
			BaseURL:         strings.TrimRight(stringWithDefault(lookup, "SITE_BASE_URL", ""), "/"),
			DefaultKeywords: stringWithDefault(lookup, "SITE_DEFAULT_KEYWORDS", seo.DefaultKeywords),
			DefaultOGImage:  stringWithDefault(lookup, "SITE_DEFAULT_OG_IMAGE", seo.DefaultOGImage),
			DevMode:         boolWithDefault(lookup, "SITE_DEV", false),
			AssetMaxAge:     durationWithDefault(lookup, "SITE_ASSET_MAX_AGE", defaultAssetMaxAge),
		},
		Contact: ContactConfig{
			Sender:        strings.ToLower(stringWithDefault(lookup, "SITE_CONTACT_SENDER", SenderSimulated)),
			Delay:         durationWithDefault(lookup, "SITE_CONTACT_DELAY", defaultContactDelay),
			RatePerMinute: intWithDefault(lookup, "SITE_CONTACT_RATE_PER_MIN", defaultContactRate),
		},
		PubSub: PubSubConfig{
			ProjectID:       stringWithDefault(lookup, "SITE_PUBSUB_PROJECT_ID", ""),
			Topic:           stringWithDefault(lookup, "SITE_PUBSUB_TOPIC", ""),
			CredentialsFile: stringWithDefault(lookup, "SITE_PUBSUB_CREDENTIALS_FILE", ""),
			EmulatorHost:    stringWithDefault(lookup, "PUBSUB_EMULATOR_HOST", ""),
		},
		Features: FeatureFlags{
			Assertions: boolWithDefault(lookup, "SITE_ASSERTIONS", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:  strings.ToLower(stringWithDefault(lookup, "SITE_LOG_LEVEL", defaultLogLevel)),
			ProjectID: stringWithDefault(lookup, "SITE_TRACE_PROJECT_ID", ""),
		},
	}

	if raw, ok := lookup("SITE_CONTACT_DELAY"); ok && raw != "" {
		if _, err := time.ParseDuration(raw); err != nil {
			invalid = append(invalid, "Contact.Delay")
		}
	}

	if cfg.Observability.ProjectID == "" {
		cfg.Observability.ProjectID = cfg.PubSub.ProjectID
	}

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	missing := append([]string(nil), invalid...)

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	} else if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if strings.TrimSpace(cfg.Site.Name) == "" {
		missing = append(missing, "Site.Name")
	}
	if cfg.Site.BaseURL != "" && !strings.HasPrefix(cfg.Site.BaseURL, "http://") && !strings.HasPrefix(cfg.Site.BaseURL, "https://") {
		missing = append(missing, "Site.BaseURL")
	}
	if cfg.Contact.Delay < 0 {
		missing = append(missing, "Contact.Delay")
	}
	if cfg.Contact.RatePerMinute < 0 {
		missing = append(missing, "Contact.RatePerMinute")
	}

	switch cfg.Contact.Sender {
	case SenderSimulated:
	case SenderPubSub:
		if cfg.PubSub.ProjectID == "" {
			missing = append(missing, "PubSub.ProjectID")
		}
		if cfg.PubSub.Topic == "" {
			missing = append(missing, "PubSub.Topic")
		}
	default:
		missing = append(missing, "Contact.Sender")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
