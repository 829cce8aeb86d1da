package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int      `env:"PORT" envDefault:"4001"`
	DatabaseURL string   `env:"DATABASE_URL,required"`
	JWTSecret   string   `env:"JWT_SECRET,required"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000,https://clipdigest.app" envSeparator:","`

	// Stripe redirect checkout.
	StripeSecretKey  string `env:"STRIPE_SECRET_KEY"`
	StripeSuccessURL string `env:"STRIPE_SUCCESS_URL" envDefault:"https://clipdigest.app/pay/result?gateway=stripe&order_no={ORDER_NO}&session_id={CHECKOUT_SESSION_ID}"`
	StripeCancelURL  string `env:"STRIPE_CANCEL_URL" envDefault:"https://clipdigest.app/pricing"`

	// PayPal redirect + smart-button checkout.
	PayPalClientID  string `env:"PAYPAL_CLIENT_ID"`
	PayPalSecret    string `env:"PAYPAL_SECRET"`
	PayPalLive      bool   `env:"PAYPAL_LIVE" envDefault:"false"`
	PayPalReturnURL string `env:"PAYPAL_RETURN_URL" envDefault:"https://clipdigest.app/pay/result?gateway=paypal"`
	PayPalCancelURL string `env:"PAYPAL_CANCEL_URL" envDefault:"https://clipdigest.app/pricing"`

	// OAuth identity provider; empty endpoint means Google's production one.
	OAuthTokenInfoURL string `env:"OAUTH_TOKENINFO_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
