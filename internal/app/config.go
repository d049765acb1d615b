package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (VITEA_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (VITEA_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis connection URL for cart storage (VITEA_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	Shopify     ShopifyConfig
	Rates       RatesConfig
	Turnstile   TurnstileConfig
	Webhook     WebhookConfig
	Cart        CartConfig
	Catalog     CatalogConfig
	RateLimit   RateLimitConfig
	Newsletter  NewsletterLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// ShopifyConfig points at the commerce platform's Storefront API.
type ShopifyConfig struct {
	Domain          string        `usage:"Storefront API domain (e.g. vitea-labs.myshopify.com)"`
	CheckoutHost    string        `usage:"Canonical checkout host; defaults to Domain" flag:"checkout-host"`
	StorefrontToken string        `usage:"Storefront API access token" flag:"storefront-token"`
	APIVersion      string        `default:"2024-07" usage:"Storefront API version" flag:"api-version"`
	Timeout         time.Duration `default:"15s" usage:"Storefront API request timeout"`
}

// RatesConfig controls the exchange-rate refresh.
type RatesConfig struct {
	URL    string        `default:"https://open.er-api.com/v6/latest/USD" usage:"Exchange rate provider URL"`
	MaxAge time.Duration `default:"1h" usage:"Rate cache freshness window" flag:"max-age"`
}

// TurnstileConfig holds the bot-challenge verification secret.
type TurnstileConfig struct {
	Secret string `usage:"Turnstile secret key (VITEA_TURNSTILE_SECRET)"`
}

// WebhookConfig controls fulfillment webhook verification.
type WebhookConfig struct {
	Secret       string        `usage:"Shared HMAC secret for fulfillment webhooks"`
	ReplayWindow time.Duration `default:"5m" usage:"Allowed webhook timestamp skew" flag:"replay-window"`
}

// CartConfig controls cart persistence.
type CartConfig struct {
	TTL time.Duration `default:"720h" usage:"Idle cart expiry"`
}

// CatalogConfig controls product listing defaults.
type CatalogConfig struct {
	PageSize int `default:"20" usage:"Default product page size" flag:"page-size"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// NewsletterLimitConfig is the stricter limit on the subscribe endpoint.
type NewsletterLimitConfig struct {
	Max    int           `default:"5"  usage:"Max subscribe attempts per window"`
	Window time.Duration `default:"1m" usage:"Subscribe rate limit window"`
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
		EnvPrefix: "VITEA",
		Files:     []string{"config.yaml", "/etc/vitea/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set VITEA_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Shopify.Domain == "" {
		return nil, errors.New("storefront domain is required: set VITEA_SHOPIFY_DOMAIN")
	}
	if cfg.Shopify.CheckoutHost == "" {
		cfg.Shopify.CheckoutHost = cfg.Shopify.Domain
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's VITEA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
