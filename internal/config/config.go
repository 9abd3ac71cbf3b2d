// Package config loads the API server settings once at startup.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file named by PREPHUB_CONFIG, then environment variables. The resulting
// Config is treated as immutable for the life of the process.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest JWT signing secret accepted.
const MinSecretLength = 32

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret            []byte
	TokenTTL             time.Duration
	BcryptCost           int
	HashConcurrency      int
	IssueTokenOnRegister bool

	AllowedOrigins     []string
	LoginRatePerMinute int
	LoginBurst         int
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the peer
	// address. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	LogFormat string
	Version   string
}

// fileConfig mirrors Config for the YAML overlay. Pointers distinguish
// "not set" from zero values.
type fileConfig struct {
	Port                 *string  `yaml:"port"`
	DatabaseURL          *string  `yaml:"database_url"`
	JWTSecret            *string  `yaml:"jwt_secret"`
	TokenTTL             *string  `yaml:"token_ttl"`
	BcryptCost           *int     `yaml:"bcrypt_cost"`
	HashConcurrency      *int     `yaml:"hash_concurrency"`
	IssueTokenOnRegister *bool    `yaml:"issue_token_on_register"`
	AllowedOrigins       []string `yaml:"allowed_origins"`
	LoginRatePerMinute   *int     `yaml:"login_rate_per_minute"`
	LoginBurst           *int     `yaml:"login_burst"`
	TrustProxyHeaders    *bool    `yaml:"trust_proxy_headers"`
	LogFormat            *string  `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Port:               "5000",
		TokenTTL:           24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
		HashConcurrency:    runtime.GOMAXPROCS(0),
		AllowedOrigins:     []string{"http://localhost:5173"},
		LoginRatePerMinute: 10,
		LoginBurst:         5,
		LogFormat:          "json",
		Version:            "dev",
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, in that order. lookup is usually os.LookupEnv.
func Load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if path, ok := lookup("PREPHUB_CONFIG"); ok && path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	return c.applyYAML(raw)
}

func (c *Config) applyYAML(raw []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.JWTSecret != nil {
		c.JWTSecret = []byte(*fc.JWTSecret)
	}
	if fc.TokenTTL != nil {
		d, err := time.ParseDuration(*fc.TokenTTL)
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "token_ttl").Wrap(err)
		}
		c.TokenTTL = d
	}
	setInt(&c.BcryptCost, fc.BcryptCost)
	setInt(&c.HashConcurrency, fc.HashConcurrency)
	setInt(&c.LoginRatePerMinute, fc.LoginRatePerMinute)
	setInt(&c.LoginBurst, fc.LoginBurst)
	if fc.IssueTokenOnRegister != nil {
		c.IssueTokenOnRegister = *fc.IssueTokenOnRegister
	}
	if fc.TrustProxyHeaders != nil {
		c.TrustProxyHeaders = *fc.TrustProxyHeaders
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_FORMAT", &c.LogFormat)
	str("APP_VERSION", &c.Version)

	// SECRET_KEY is the legacy name; JWT_SECRET wins when both are set.
	if v, ok := lookup("SECRET_KEY"); ok && v != "" {
		c.JWTSecret = []byte(v)
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		c.JWTSecret = []byte(v)
	}

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "TOKEN_TTL").Wrap(err)
		}
		c.TokenTTL = d
	}

	for key, dst := range map[string]*int{
		"BCRYPT_COST":           &c.BcryptCost,
		"HASH_CONCURRENCY":      &c.HashConcurrency,
		"LOGIN_RATE_PER_MINUTE": &c.LoginRatePerMinute,
		"LOGIN_BURST":           &c.LoginBurst,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	for key, dst := range map[string]*bool{
		"ISSUE_TOKEN_ON_REGISTER": &c.IssueTokenOnRegister,
		"TRUST_PROXY_HEADERS":     &c.TrustProxyHeaders,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
		*dst = b
	}

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if err := validateCost(c.BcryptCost); err != nil {
		return err
	}
	switch {
	case len(c.JWTSecret) == 0:
		return oops.Code("CONFIG_INVALID").With("key", "JWT_SECRET").Errorf("JWT secret is required")
	case len(c.JWTSecret) < MinSecretLength:
		return oops.Code("CONFIG_INVALID").With("key", "JWT_SECRET").
			Errorf("JWT secret must be at least %d bytes", MinSecretLength)
	case c.TokenTTL <= 0:
		return oops.Code("CONFIG_INVALID").With("key", "TOKEN_TTL").Errorf("token TTL must be positive")
	case c.HashConcurrency < 1:
		return oops.Code("CONFIG_INVALID").With("key", "HASH_CONCURRENCY").Errorf("hash concurrency must be at least 1")
	case c.LoginRatePerMinute < 1 || c.LoginBurst < 1:
		return oops.Code("CONFIG_INVALID").With("key", "LOGIN_RATE_PER_MINUTE").Errorf("login rate and burst must be at least 1")
	case c.LogFormat != "json" && c.LogFormat != "text":
		return oops.Code("CONFIG_INVALID").With("key", "LOG_FORMAT").Errorf("log format must be json or text")
	}
	return nil
}

// LoadBcryptCost reads BCRYPT_COST alone, for tools that hash passwords
// without running the server. Unset means bcrypt.DefaultCost.
func LoadBcryptCost(lookup func(string) (string, bool)) (int, error) {
	v, ok := lookup("BCRYPT_COST")
	if !ok || v == "" {
		return bcrypt.DefaultCost, nil
	}
	cost, err := strconv.Atoi(v)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("key", "BCRYPT_COST").Wrap(err)
	}
	if err := validateCost(cost); err != nil {
		return 0, err
	}
	return cost, nil
}

func validateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return oops.Code("CONFIG_INVALID").With("key", "BCRYPT_COST").
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
