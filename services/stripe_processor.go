package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// PaymentProcessor is the external gateway that collects card payments.
type PaymentProcessor interface {
	// CreatePaymentIntent returns the client secret for a new intent of amount minor
	// units in currency.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// StripeProcessor creates payment intents through the Stripe SDK. Each processor
// owns its client, so the package-level stripe.Key is never touched.
type StripeProcessor struct {
	api        *client.API
	configured bool
	log        *logrus.Entry
}

// NewStripeProcessor creates a Stripe client against baseURL, e.g.
// https://api.stripe.com. A trailing /v1 is accepted and dropped by the SDK.
func NewStripeProcessor(baseURL, secretKey string, logger *logrus.Logger) *StripeProcessor {
	log := newLogger(logger, "stripe")
	if secretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is missing, payment intents will fail")
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(baseURL),
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		LeveledLogger:     log,
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	})
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &StripeProcessor{api: api, configured: secretKey != "", log: log}
}

func (p *StripeProcessor) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if !p.configured {
		return "", fmt.Errorf("missing Stripe credentials, set STRIPE_SECRET_KEY")
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			p.log.WithFields(logrus.Fields{
				"status": stripeErr.HTTPStatusCode,
				"type":   stripeErr.Type,
				"code":   stripeErr.Code,
			}).Warn("stripe API error")
			return "", fmt.Errorf("stripe API error (status %d): %s: %s", stripeErr.HTTPStatusCode, stripeErr.Type, stripeErr.Msg)
		}
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	if intent.ClientSecret == "" {
		return "", fmt.Errorf("payment intent %s has no client secret", intent.ID)
	}
	p.log.WithFields(logrus.Fields{"intentId": intent.ID, "amount": amount, "currency": currency}).Info("payment intent created")
	return intent.ClientSecret, nil
}
