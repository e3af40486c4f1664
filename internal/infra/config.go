package infra

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	StoreDriver string
	DatabaseURL string
	DBMaxConns  int
	RunMigrate  bool
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	CORSOrigins []string
	RedisURL    string
	GeoIPDBPath string

	// OIDCIssuer and OIDCClientID enable ID-token login when both are set.
	OIDCIssuer    string
	OIDCClientID  string
	DefaultLocale string

	FreeContactLimit       int
	FreeDonationLimit      int
	ContactRetryBudget     int
	CodeAllocationAttempts int

	StorageDriver  string
	StoragePath    string
	StorageBaseURL string
	MaxUploadBytes int64
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string

	ExchangeRateAPIKey  string
	ExchangeRateBaseURL string
	RatesRefreshEvery   time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	TrustedProxies   []netip.Prefix
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := readEnv()
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.FreeContactLimit < 0 {
		return nil, fmt.Errorf("FREE_CONTACT_LIMIT must not be negative")
	}
	if cfg.CodeAllocationAttempts <= 0 {
		cfg.CodeAllocationAttempts = 1
	}
	if (cfg.OIDCIssuer == "") != (cfg.OIDCClientID == "") {
		return nil, fmt.Errorf("OIDC_ISSUER and OIDC_CLIENT_ID must be set together")
	}
	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}
	proxies, err := parseProxies(getEnvList("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}
	cfg.TrustedProxies = proxies
	return cfg, nil
}

// LoadWorkerConfig loads the subset the background rates worker needs. The
// worker has nothing to do without a shared cache, so REDIS_URL is required.
func LoadWorkerConfig() (*Config, error) {
	cfg := readEnv()
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.RatesRefreshEvery <= 0 {
		return nil, fmt.Errorf("RATES_REFRESH_HOURS must be positive")
	}
	return cfg, nil
}

func readEnv() *Config {
	port := getEnv("PORT", "8080")
	return &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        port,
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),
		RunMigrate:  getEnvBool("RUN_MIGRATIONS", true),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    time.Hour * time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24*7)),
		AdminEmails: lowerAll(getEnvList("ADMIN_EMAILS")),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RedisURL:    os.Getenv("REDIS_URL"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		OIDCIssuer:    os.Getenv("OIDC_ISSUER"),
		OIDCClientID:  os.Getenv("OIDC_CLIENT_ID"),
		DefaultLocale: strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),

		FreeContactLimit:       getEnvInt("FREE_CONTACT_LIMIT", 3),
		FreeDonationLimit:      getEnvInt("FREE_DONATION_LIMIT", 3),
		ContactRetryBudget:     getEnvInt("CONTACT_RETRY_BUDGET", 3),
		CodeAllocationAttempts: getEnvInt("CODE_ALLOCATION_ATTEMPTS", 32),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "filesystem")),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		ExchangeRateAPIKey:  os.Getenv("EXCHANGERATE_API_KEY"),
		ExchangeRateBaseURL: getEnv("EXCHANGERATE_BASE_URL", "https://v6.exchangerate-api.com/v6"),
		RatesRefreshEvery:   time.Hour * time.Duration(getEnvInt("RATES_REFRESH_HOURS", 24)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}
}

func (cfg *Config) validateStore() error {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	return nil
}

// parseProxies reads TRUSTED_PROXIES entries, each a CIDR or a bare address.
func parseProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, raw := range entries {
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}
