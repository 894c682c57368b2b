package services

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) AuthorizeOrder(ctx context.Context, amount float64, currency, description string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(toCents(amount)),
		Currency:           stripe.String(currency),
		Description:        stripe.String(description),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create intent: %w", err)
	}
	return intent.ID, nil
}

func (p *StripeProvider) CaptureOrder(ctx context.Context, orderID string) error {
	params := &stripe.PaymentIntentCaptureParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := p.api.PaymentIntents.Capture(orderID, params); err != nil {
		return fmt.Errorf("stripe capture intent: %w", err)
	}
	return nil
}

func (p *StripeProvider) VoidOrder(ctx context.Context, orderID string) error {
	params := &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := p.api.PaymentIntents.Cancel(orderID, params); err != nil {
		return fmt.Errorf("stripe cancel intent: %w", err)
	}
	return nil
}

func (p *StripeProvider) SendPayout(ctx context.Context, account string, amount float64, currency string) (string, error) {
	params := &stripe.TransferParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(toCents(amount)),
		Currency:    stripe.String(currency),
		Destination: stripe.String(account),
	}

	transfer, err := p.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create transfer: %w", err)
	}
	return transfer.ID, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
