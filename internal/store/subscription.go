package store

import (
	"database/sql"
	"time"

	"github.com/mondaiapp/mondai/internal/model"
)

// UpsertSubscription creates or updates the subscription record for a user,
// marking it active and refreshing the payment-provider references.
func (s *Store) UpsertSubscription(userID int64, plan model.Plan, customerID, subscriptionID string) error {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (user_id, plan, active, stripe_customer_id, stripe_subscription_id, created_at)
		 VALUES (?, ?, 1, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   plan = ?, active = 1, stripe_customer_id = ?, stripe_subscription_id = ?`,
		userID, plan, customerID, subscriptionID, time.Now(),
		plan, customerID, subscriptionID,
	)
	return err
}

// GetSubscription returns a user's subscription, or nil when absent.
func (s *Store) GetSubscription(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(
		`SELECT id, user_id, plan, active, stripe_customer_id, stripe_subscription_id, created_at
		 FROM subscriptions WHERE user_id = ?`, userID,
	).Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Active,
		&sub.StripeCustomerID, &sub.StripeSubscriptionID, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeactivateSubscription marks a user's subscription inactive.
func (s *Store) DeactivateSubscription(userID int64) error {
	_, err := s.db.Exec(`UPDATE subscriptions SET active = 0 WHERE user_id = ?`, userID)
	return err
}
