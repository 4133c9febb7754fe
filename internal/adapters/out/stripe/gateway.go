// Package stripe talks to the Stripe API: hosted checkout sessions going out, signed
// webhook deliveries coming in.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/metrics"

	"github.com/sony/gobreaker"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	// Name is stored as the payment method of orders paid through Stripe.
	Name = "stripe"

	DefaultTolerance = 5 * time.Minute

	// orderIDsKey is the metadata key carrying the comma separated order ids.
	orderIDsKey = "order_ids"
)

// Config configures the gateway. Zero values get the defaults; an empty BaseURL means
// the public Stripe API.
type Config struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
	// Tolerance bounds the age of a webhook timestamp.
	Tolerance time.Duration
	Timeout   time.Duration
}

// Gateway implements ports.PaymentGateway. Outbound calls go through a circuit breaker
// that opens after repeated server-side failures.
type Gateway struct {
	cfg      Config
	sessions session.Client
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	g := &Gateway{
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "stripe_gateway"),
	}

	// Retries stay off: the breaker has to see every failed call.
	backendCfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     leveledLogger{logger: g.logger},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripego.String(cfg.BaseURL)
	}
	g.sessions = session.Client{
		B:   stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg),
		Key: cfg.APIKey,
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.metrics.SetGatewayOpen(to == gobreaker.StateOpen)
			g.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// Client errors say nothing about Stripe's health.
		IsSuccessful: func(err error) bool {
			var apiErr *stripego.Error
			if errors.As(err, &apiErr) {
				return apiErr.HTTPStatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return g
}

func (g *Gateway) Name() string { return Name }

// CreateCheckout opens a hosted checkout session with a single line item for the whole
// amount. The order ids travel as metadata on both the session and its payment intent.
func (g *Gateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	ids := make([]string, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		ids = append(ids, id.String())
	}
	joined := strings.Join(ids, ",")

	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			Quantity: stripego.Int64(1),
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripego.String(strings.ToLower(req.Currency)),
				UnitAmount: stripego.Int64(req.AmountMinor),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String(req.Description),
				},
			},
		}},
		PaymentIntentData: &stripego.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{orderIDsKey: joined},
		},
	}
	params.Context = ctx
	params.AddMetadata(orderIDsKey, joined)

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return payment.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}

	created, _ := result.(*stripego.CheckoutSession)
	if created == nil {
		return payment.CheckoutSession{}, errors.New("create checkout session: empty response")
	}
	return payment.CheckoutSession{SessionID: created.ID, URL: created.URL}, nil
}

// leveledLogger routes the Stripe client's own logging into slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
