package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

// Provider is the narrow payment-provider surface the lifecycle services
// need: authorize on approval, capture on completion, void on cancel, and
// pay tutors out.
type Provider interface {
	AuthorizeOrder(ctx context.Context, amount float64, currency, description string) (orderID string, err error)
	CaptureOrder(ctx context.Context, orderID string) error
	VoidOrder(ctx context.Context, orderID string) error
	SendPayout(ctx context.Context, account string, amount float64, currency string) (batchID string, err error)
}

// ProviderSet picks the adapter for a payment method. Methods without a
// configured adapter fall back to the offline provider.
type ProviderSet struct {
	paypal  Provider
	stripe  Provider
	offline Provider
}

func NewProviderSet(paypalProvider, stripeProvider Provider) *ProviderSet {
	return &ProviderSet{
		paypal:  paypalProvider,
		stripe:  stripeProvider,
		offline: NewOfflineProvider(),
	}
}

func (s *ProviderSet) ForMethod(method string) Provider {
	switch method {
	case models.MethodPayPal:
		if s.paypal != nil {
			return s.paypal
		}
	case models.MethodStripe:
		if s.stripe != nil {
			return s.stripe
		}
	}
	return s.offline
}

// OfflineProvider records provider-shaped identifiers without talking to
// anyone. Backs method "none" (cash and in-person lessons) and tests.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) AuthorizeOrder(_ context.Context, _ float64, _, _ string) (string, error) {
	return "offline-" + uuid.NewString(), nil
}

func (p *OfflineProvider) CaptureOrder(_ context.Context, _ string) error {
	return nil
}

func (p *OfflineProvider) VoidOrder(_ context.Context, _ string) error {
	return nil
}

func (p *OfflineProvider) SendPayout(_ context.Context, _ string, _ float64, _ string) (string, error) {
	return "offline-" + uuid.NewString(), nil
}
