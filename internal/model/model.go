package model

import (
	"context"
	"time"
)

// Plan is a subscription plan identifier.
type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Difficulty is the difficulty tier requested for topic-based generation.
type Difficulty string

const (
	DifficultyBasic         Difficulty = "basic"
	DifficultyIntermediate  Difficulty = "intermediate"
	DifficultyAdvanced      Difficulty = "advanced"
	DifficultySuperAdvanced Difficulty = "super_advanced"
	DifficultyMaster        Difficulty = "master"
)

// DateLayout is the storage format for the daily quota date.
const DateLayout = "2006-01-02"

// User represents an account with its statistics and daily quota state.
type User struct {
	ID               int64
	Email            string
	PasswordHash     string
	IsPremium        bool
	StripeCustomerID string

	CorrectCount     int
	GenerateCount    int
	Accuracy         float64
	NotAnsweredCount int

	// LastGeneratedDate is a UTC date in DateLayout format, empty when the
	// user has never generated.
	LastGeneratedDate   string
	DailyGeneratedCount int

	CreatedAt time.Time
}

// Question is one generated multiple-choice question. The stem and options
// are stored as a single opaque text blob and parsed only for display.
//
// IsCorrectFirst is set exactly once, on the first grading call, and never
// written again. IsCorrect is rewritten on every subsequent grading call.
type Question struct {
	ID             int64
	UserID         int64
	Topic          string
	Text           string
	Number         int
	Difficulty     Difficulty
	CorrectOption  string
	Explanation    string
	IsCorrectFirst *bool
	IsCorrect      *bool
	CreatedAt      time.Time
}

// QuestionRef is a lightweight reference to a question held in the browsing
// session for the lifetime of one generated batch.
type QuestionRef struct {
	ID     int64
	Text   string
	Topic  string
	Number int
}

// QuestionBatch is the ordered set of up to ten questions produced by one
// generation call. It is replaced wholesale on every new generation.
type QuestionBatch []QuestionRef

// CleanedQuestion is a question prepared for listing views: the stored text
// reduced to its normalized stem, plus the answer-state flags.
type CleanedQuestion struct {
	ID             int64  `json:"question_id"`
	Number         int    `json:"question_number"`
	Text           string `json:"text"`
	OriginalText   string `json:"original_text"`
	IsCorrectFirst *bool  `json:"is_correct_first"`
	IsCorrect      *bool  `json:"is_correct"`
}

// Subscription tracks a user's payment-provider subscription.
type Subscription struct {
	ID                   int64
	UserID               int64
	Plan                 Plan
	Active               bool
	StripeCustomerID     string
	StripeSubscriptionID string
	CreatedAt            time.Time
}

// QuestionSet groups questions under a user-chosen name.
type QuestionSet struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	Author      string
	Publisher   string
	CreatedAt   time.Time
}

// TopicCount is one topic with the number of questions stored under it.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// Statistics is the profile summary for a user.
type Statistics struct {
	CorrectCount     int     `json:"correct_count"`
	GenerateCount    int     `json:"generate_count"`
	Accuracy         float64 `json:"accuracy"`
	NotAnsweredCount int     `json:"not_answered_count"`
}

// Config holds runtime parameters set via CLI flags and environment.
type Config struct {
	Addr          string
	SuccessURL    string
	CancelURL     string
	SecureCookies bool
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
