package services

import (
	"context"
	"fmt"

	"github.com/plutov/paypal/v4"
)

type PayPalProvider struct {
	client *paypal.Client
}

func NewPayPalProvider(clientID, secret string, live bool) (*PayPalProvider, error) {
	apiBase := paypal.APIBaseSandBox
	if live {
		apiBase = paypal.APIBaseLive
	}

	client, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	return &PayPalProvider{client: client}, nil
}

func (p *PayPalProvider) AuthorizeOrder(ctx context.Context, amount float64, currency, description string) (string, error) {
	order, err := p.client.CreateOrder(
		ctx,
		paypal.OrderIntentAuthorize,
		[]paypal.PurchaseUnitRequest{{
			Amount: &paypal.PurchaseUnitAmount{
				Currency: currency,
				Value:    formatAmount(amount),
			},
			Description: description,
		}},
		nil,
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("paypal create order: %w", err)
	}
	return order.ID, nil
}

func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string) error {
	if _, err := p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{}); err != nil {
		return fmt.Errorf("paypal capture order: %w", err)
	}
	return nil
}

func (p *PayPalProvider) VoidOrder(ctx context.Context, orderID string) error {
	if _, err := p.client.VoidAuthorization(ctx, orderID); err != nil {
		return fmt.Errorf("paypal void authorization: %w", err)
	}
	return nil
}

func (p *PayPalProvider) SendPayout(ctx context.Context, account string, amount float64, currency string) (string, error) {
	payout := paypal.Payout{
		SenderBatchHeader: &paypal.SenderBatchHeader{
			EmailSubject: "Your tutoring payout",
		},
		Items: []paypal.PayoutItem{{
			RecipientType: "EMAIL",
			Receiver:      account,
			Amount: &paypal.AmountPayout{
				Value:    formatAmount(amount),
				Currency: currency,
			},
			Note: "Tutoring service payout",
		}},
	}

	response, err := p.client.CreatePayout(ctx, payout)
	if err != nil {
		return "", fmt.Errorf("paypal create payout: %w", err)
	}
	return response.BatchHeader.PayoutBatchID, nil
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
