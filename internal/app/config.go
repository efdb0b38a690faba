package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr   string `default:"127.0.0.1:6379" usage:"Redis address for the session store" flag:"redis-addr"`
	Debug       bool   `default:"false" usage:"Diagnostic mode: propagate selection failures instead of redirecting"`

	SessionTTL         time.Duration `default:"24h" usage:"Session basket TTL" flag:"session-ttl"`
	EligibilityTimeout time.Duration `default:"2s"  usage:"Per-provider eligibility call timeout" flag:"eligibility-timeout"`

	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// GatewayConfig holds per-payment-method gateway settings.
type GatewayConfig struct {
	CardURL            string `default:"https://bank.example.com/pay" usage:"Card gateway payment page URL" flag:"card-url"`
	CardSecret         string `usage:"Card browser-channel handshake secret (CHECKOUT_GATEWAY_CARD_SECRET)" flag:"card-secret"`
	CardCallbackSecret string `usage:"Card callback-channel handshake secret" flag:"card-callback-secret"`

	BankwireConfirmationURL string `default:"/payment/confirmation" usage:"Bank transfer confirmation page URL" flag:"bankwire-confirmation-url"`
	BankwireSecret          string `usage:"Bank transfer handshake secret" flag:"bankwire-secret"`
	BankwireMaxTotal        string `default:"0" usage:"Maximum basket total accepted by bank transfer (0 = no cap)" flag:"bankwire-max-total"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Gateway.CardSecret == "" || cfg.Gateway.CardCallbackSecret == "" {
		return nil, errors.New("card gateway secrets are required")
	}
	if cfg.Gateway.BankwireSecret == "" {
		return nil, errors.New("bank transfer secret is required")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
