package billing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mondaiapp/mondai/internal/model"
)

type fakeAPI struct {
	checkoutURL   string
	checkoutCalls int
	event         Event
	eventErr      error
	priceID       string
}

func (f *fakeAPI) NewCheckoutSession(email, priceID, successURL, cancelURL string) (string, error) {
	f.checkoutCalls++
	return f.checkoutURL, nil
}

func (f *fakeAPI) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	if f.eventErr != nil {
		return Event{}, f.eventErr
	}
	return f.event, nil
}

func (f *fakeAPI) SubscriptionPriceID(subscriptionID string) (string, error) {
	return f.priceID, nil
}

type fakeStore struct {
	users        map[string]*model.User
	byCustomer   map[string]*model.User
	upserts      []model.Subscription
	deactivated  []int64
	premiumCalls []struct {
		userID  int64
		premium bool
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[string]*model.User{},
		byCustomer: map[string]*model.User{},
	}
}

func (f *fakeStore) GetUserByEmail(email string) (*model.User, error) {
	return f.users[email], nil
}

func (f *fakeStore) GetUserByCustomerID(customerID string) (*model.User, error) {
	return f.byCustomer[customerID], nil
}

func (f *fakeStore) UpsertSubscription(userID int64, plan model.Plan, customerID, subscriptionID string) error {
	f.upserts = append(f.upserts, model.Subscription{
		UserID: userID, Plan: plan,
		StripeCustomerID: customerID, StripeSubscriptionID: subscriptionID,
	})
	return nil
}

func (f *fakeStore) DeactivateSubscription(userID int64) error {
	f.deactivated = append(f.deactivated, userID)
	return nil
}

func (f *fakeStore) SetPremium(userID int64, premium bool, customerID string) error {
	f.premiumCalls = append(f.premiumCalls, struct {
		userID  int64
		premium bool
	}{userID, premium})
	return nil
}

var testPrices = map[model.Plan]string{
	model.PlanBasic:   "price_basic",
	model.PlanPremium: "price_premium",
}

func TestCheckoutURL(t *testing.T) {
	api := &fakeAPI{checkoutURL: "https://pay.example.com/cs_123"}
	svc := New(api, newFakeStore(), testPrices)
	u := &model.User{ID: 1, Email: "taro@example.com"}

	url, err := svc.CheckoutURL(u, model.PlanPremium, "https://app/success", "https://app/cancel")
	if err != nil {
		t.Fatalf("CheckoutURL: %v", err)
	}
	if url != "https://pay.example.com/cs_123" {
		t.Errorf("url = %q", url)
	}
}

func TestCheckoutURLUnknownPlan(t *testing.T) {
	api := &fakeAPI{}
	svc := New(api, newFakeStore(), testPrices)

	_, err := svc.CheckoutURL(&model.User{ID: 1}, model.Plan("gold"), "s", "c")
	if !errors.Is(err, model.ErrUnknownPlan) {
		t.Fatalf("error = %v, want ErrUnknownPlan", err)
	}
	if api.checkoutCalls != 0 {
		t.Error("unknown plan must not reach the provider")
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	api := &fakeAPI{eventErr: errors.New("signature mismatch")}
	svc := New(api, newFakeStore(), testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "bad"); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestHandleCheckoutCompleted(t *testing.T) {
	store := newFakeStore()
	store.users["taro@example.com"] = &model.User{ID: 7, Email: "taro@example.com"}
	api := &fakeAPI{
		priceID: "price_premium",
		event: Event{
			Type: "checkout.session.completed",
			Data: json.RawMessage(`{"customer_email":"taro@example.com","customer":"cus_1","subscription":"sub_1"}`),
		},
	}
	svc := New(api, store, testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(store.upserts))
	}
	sub := store.upserts[0]
	if sub.UserID != 7 || sub.Plan != model.PlanPremium || sub.StripeSubscriptionID != "sub_1" {
		t.Errorf("subscription = %+v", sub)
	}
	if len(store.premiumCalls) != 1 || !store.premiumCalls[0].premium {
		t.Errorf("premium calls = %+v", store.premiumCalls)
	}
}

func TestHandleCheckoutCompletedUnknownPriceFallsBack(t *testing.T) {
	store := newFakeStore()
	store.users["taro@example.com"] = &model.User{ID: 7, Email: "taro@example.com"}
	api := &fakeAPI{
		priceID: "price_mystery",
		event: Event{
			Type: "checkout.session.completed",
			Data: json.RawMessage(`{"customer_email":"taro@example.com","customer":"cus_1","subscription":"sub_1"}`),
		},
	}
	svc := New(api, store, testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if store.upserts[0].Plan != model.PlanBasic {
		t.Errorf("plan = %q, want fallback to basic", store.upserts[0].Plan)
	}
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	store := newFakeStore()
	store.byCustomer["cus_1"] = &model.User{ID: 7}
	api := &fakeAPI{event: Event{
		Type: "customer.subscription.deleted",
		Data: json.RawMessage(`{"customer":"cus_1"}`),
	}}
	svc := New(api, store, testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != 7 {
		t.Errorf("deactivated = %v", store.deactivated)
	}
	if len(store.premiumCalls) != 1 || store.premiumCalls[0].premium {
		t.Errorf("premium calls = %+v", store.premiumCalls)
	}
}

func TestHandleInvoicePaid(t *testing.T) {
	store := newFakeStore()
	store.byCustomer["cus_1"] = &model.User{ID: 7}
	api := &fakeAPI{event: Event{
		Type: "invoice.payment_succeeded",
		Data: json.RawMessage(`{"customer":"cus_1"}`),
	}}
	svc := New(api, store, testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(store.premiumCalls) != 1 || !store.premiumCalls[0].premium {
		t.Errorf("premium calls = %+v", store.premiumCalls)
	}
}

func TestHandleWebhookIgnoresUnknownEvents(t *testing.T) {
	store := newFakeStore()
	api := &fakeAPI{event: Event{Type: "charge.refunded", Data: json.RawMessage(`{}`)}}
	svc := New(api, store, testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("unknown events must be acknowledged, got %v", err)
	}
	if len(store.premiumCalls) != 0 && len(store.upserts) != 0 {
		t.Error("unknown events must not mutate state")
	}
}

func TestWebhookUnknownUserIsAcknowledged(t *testing.T) {
	api := &fakeAPI{event: Event{
		Type: "invoice.payment_succeeded",
		Data: json.RawMessage(`{"customer":"cus_missing"}`),
	}}
	svc := New(api, newFakeStore(), testPrices)

	if err := svc.HandleWebhook([]byte("{}"), "sig"); err != nil {
		t.Fatalf("unknown user must not error the webhook, got %v", err)
	}
}
