package billing

import (
	"encoding/json"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeAPI implements API against Stripe.
type StripeAPI struct {
	webhookSecret string
}

// NewStripeAPI configures the global Stripe client and returns the API.
func NewStripeAPI(secretKey, webhookSecret string) *StripeAPI {
	stripe.Key = secretKey
	return &StripeAPI{webhookSecret: webhookSecret}
}

func (a *StripeAPI) NewCheckoutSession(customerEmail, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(customerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (a *StripeAPI) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, a.webhookSecret)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type: string(event.Type),
		Data: json.RawMessage(event.Data.Raw),
	}, nil
}

func (a *StripeAPI) SubscriptionPriceID(subscriptionID string) (string, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return "", err
	}
	if len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return "", nil
	}
	return sub.Items.Data[0].Price.ID, nil
}
