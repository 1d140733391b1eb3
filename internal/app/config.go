package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CartTTL   time.Duration `envconfig:"CART_TTL" default:"720h"`

	InventoryAPIURL string        `envconfig:"INVENTORY_API_URL" default:"http://127.0.0.1:9100"`
	AccountsAPIURL  string        `envconfig:"ACCOUNTS_API_URL" default:"http://127.0.0.1:9100"`
	OrdersAPIURL    string        `envconfig:"ORDERS_API_URL" default:"http://127.0.0.1:9100"`
	GatewayToken    string        `envconfig:"GATEWAY_TOKEN" required:"true"`
	GatewayTimeout  time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`

	Currency          string `envconfig:"CURRENCY" default:"BHD"`
	DeliveryFee       string `envconfig:"DELIVERY_FEE" default:"2"`
	DeliveryThreshold string `envconfig:"DELIVERY_FREE_THRESHOLD" default:"50"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.GatewayToken == "" {
		return nil, errors.New("gateway token must be provided")
	}
	if _, err := decimal.NewFromString(cfg.DeliveryFee); err != nil {
		return nil, errors.New("delivery fee must be a decimal amount")
	}
	if _, err := decimal.NewFromString(cfg.DeliveryThreshold); err != nil {
		return nil, errors.New("delivery threshold must be a decimal amount")
	}
	return &cfg, nil
}

// DeliveryFeeAmount returns the flat delivery fee as a decimal.
func (c *Config) DeliveryFeeAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.DeliveryFee)
	return d
}

// DeliveryThresholdAmount returns the free-delivery subtotal threshold as a decimal.
func (c *Config) DeliveryThresholdAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.DeliveryThreshold)
	return d
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
