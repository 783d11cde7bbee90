package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/mondaiapp/mondai/internal/model"
)

const userColumns = `id, email, password_hash, is_premium, stripe_customer_id,
	correct_count, generate_count, accuracy, not_answered_count,
	last_generated_date, daily_generated_count, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsPremium, &u.StripeCustomerID,
		&u.CorrectCount, &u.GenerateCount, &u.Accuracy, &u.NotAnsweredCount,
		&u.LastGeneratedDate, &u.DailyGeneratedCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Email, u.PasswordHash, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "email", u.Email)
	return id, nil
}

// GetUserByEmail returns a user by email, or nil when absent.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
}

// GetUserByID returns a user by ID, or nil when absent.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
}

// GetUserByCustomerID resolves a user through the payment-provider customer
// reference stored on their subscription.
func (s *Store) GetUserByCustomerID(customerID string) (*model.User, error) {
	return scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users
		 WHERE id = (SELECT user_id FROM subscriptions WHERE stripe_customer_id = ?)`,
		customerID,
	))
}

// EmailExists reports whether an account with the given email exists.
func (s *Store) EmailExists(email string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	return count > 0, err
}

// SaveQuota persists the daily quota fields. The limiter calls this on a
// date rollover before the limit comparison and again after usage.
func (s *Store) SaveQuota(userID int64, lastGeneratedDate string, dailyCount int) error {
	_, err := s.db.Exec(
		`UPDATE users SET last_generated_date = ?, daily_generated_count = ? WHERE id = ?`,
		lastGeneratedDate, dailyCount, userID,
	)
	return err
}

// AddGenerateCount adds n to the user's lifetime generated-question count.
func (s *Store) AddGenerateCount(userID int64, n int) error {
	_, err := s.db.Exec(
		`UPDATE users SET generate_count = generate_count + ? WHERE id = ?`, n, userID,
	)
	return err
}

// SaveStatistics persists the answer statistics fields.
func (s *Store) SaveStatistics(userID int64, correctCount int, accuracy float64, notAnswered int) error {
	_, err := s.db.Exec(
		`UPDATE users SET correct_count = ?, accuracy = ?, not_answered_count = ? WHERE id = ?`,
		correctCount, accuracy, notAnswered, userID,
	)
	return err
}

// SetPremium flips the premium flag, optionally refreshing the stored
// customer reference.
func (s *Store) SetPremium(userID int64, premium bool, customerID string) error {
	var err error
	if customerID != "" {
		_, err = s.db.Exec(
			`UPDATE users SET is_premium = ?, stripe_customer_id = ? WHERE id = ?`,
			premium, customerID, userID,
		)
	} else {
		_, err = s.db.Exec(`UPDATE users SET is_premium = ? WHERE id = ?`, premium, userID)
	}
	if err != nil {
		return err
	}
	slog.Info("updated premium flag", "user_id", userID, "premium", premium)
	return nil
}
