// Package billing handles subscription checkout and payment-provider
// webhooks.
package billing

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mondaiapp/mondai/internal/model"
)

// Event is a verified webhook event.
type Event struct {
	Type string
	Data json.RawMessage
}

// API abstracts the payment provider. The production implementation talks to
// Stripe; tests substitute a fake.
type API interface {
	// NewCheckoutSession creates a hosted checkout session for a subscription
	// and returns its redirect URL.
	NewCheckoutSession(customerEmail, priceID, successURL, cancelURL string) (string, error)
	// ConstructEvent verifies a webhook payload against its signature header.
	ConstructEvent(payload []byte, sigHeader string) (Event, error)
	// SubscriptionPriceID returns the price ID on a provider subscription.
	SubscriptionPriceID(subscriptionID string) (string, error)
}

// Store is the persistence surface billing needs.
type Store interface {
	GetUserByEmail(email string) (*model.User, error)
	GetUserByCustomerID(customerID string) (*model.User, error)
	UpsertSubscription(userID int64, plan model.Plan, customerID, subscriptionID string) error
	DeactivateSubscription(userID int64) error
	SetPremium(userID int64, premium bool, customerID string) error
}

// Service wires plans, the provider API, and the store together.
type Service struct {
	api    API
	store  Store
	prices map[model.Plan]string
}

// New creates a billing service with the given plan-to-price mapping.
func New(api API, store Store, prices map[model.Plan]string) *Service {
	return &Service{api: api, store: store, prices: prices}
}

// CheckoutURL creates a checkout session for the given plan and returns the
// URL to redirect the user to. An unknown plan fails before any provider
// call.
func (s *Service) CheckoutURL(u *model.User, plan model.Plan, successURL, cancelURL string) (string, error) {
	priceID, ok := s.prices[plan]
	if !ok {
		return "", fmt.Errorf("%w: %s", model.ErrUnknownPlan, plan)
	}
	url, err := s.api.NewCheckoutSession(u.Email, priceID, successURL, cancelURL)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	slog.Info("checkout session created", "user_id", u.ID, "plan", plan)
	return url, nil
}

// planForPrice reverses the plan-to-price mapping. Unknown price IDs fall
// back to the basic plan.
func (s *Service) planForPrice(priceID string) model.Plan {
	for plan, id := range s.prices {
		if id == priceID {
			return plan
		}
	}
	return model.PlanBasic
}

// HandleWebhook verifies the payload signature and dispatches the event.
// Unknown event types are acknowledged and ignored.
func (s *Service) HandleWebhook(payload []byte, sigHeader string) error {
	event, err := s.api.ConstructEvent(payload, sigHeader)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}
	slog.Info("received webhook event", "type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(event.Data)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event.Data)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaid(event.Data)
	default:
		return nil
	}
}

type checkoutSessionData struct {
	CustomerEmail string `json:"customer_email"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
}

// handleCheckoutCompleted resolves the user by the checkout email, reads the
// subscribed plan off the provider subscription, and activates premium.
func (s *Service) handleCheckoutCompleted(data json.RawMessage) error {
	var session checkoutSessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	if session.CustomerEmail == "" {
		slog.Error("checkout session without customer email")
		return nil
	}
	u, err := s.store.GetUserByEmail(session.CustomerEmail)
	if err != nil {
		return err
	}
	if u == nil {
		slog.Error("checkout for unknown user", "email", session.CustomerEmail)
		return nil
	}
	if session.Subscription == "" {
		slog.Error("checkout session without subscription", "user_id", u.ID)
		return nil
	}

	priceID, err := s.api.SubscriptionPriceID(session.Subscription)
	if err != nil {
		return fmt.Errorf("resolve subscription plan: %w", err)
	}
	plan := s.planForPrice(priceID)

	if err := s.store.UpsertSubscription(u.ID, plan, session.Customer, session.Subscription); err != nil {
		return err
	}
	return s.store.SetPremium(u.ID, true, session.Customer)
}

type customerData struct {
	Customer string `json:"customer"`
}

func (s *Service) handleSubscriptionDeleted(data json.RawMessage) error {
	var sub customerData
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	u, err := s.store.GetUserByCustomerID(sub.Customer)
	if err != nil {
		return err
	}
	if u == nil {
		slog.Error("subscription deletion for unknown customer", "customer_id", sub.Customer)
		return nil
	}
	if err := s.store.DeactivateSubscription(u.ID); err != nil {
		return err
	}
	return s.store.SetPremium(u.ID, false, "")
}

func (s *Service) handleInvoicePaid(data json.RawMessage) error {
	var invoice customerData
	if err := json.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if invoice.Customer == "" {
		slog.Error("invoice without customer ID")
		return nil
	}
	u, err := s.store.GetUserByCustomerID(invoice.Customer)
	if err != nil {
		return err
	}
	if u == nil {
		slog.Error("invoice for unknown customer", "customer_id", invoice.Customer)
		return nil
	}
	return s.store.SetPremium(u.ID, true, invoice.Customer)
}
