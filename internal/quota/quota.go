// Package quota enforces the daily question-generation limit.
package quota

import (
	"log/slog"
	"time"

	"github.com/mondaiapp/mondai/internal/model"
)

// DailyLimit is the number of questions a basic user may generate per UTC day.
const DailyLimit = 10

// UserSaver persists the quota fields of a user.
type UserSaver interface {
	SaveQuota(userID int64, lastGeneratedDate string, dailyCount int) error
}

// Limiter decides whether a user may run another generation today.
type Limiter struct {
	store UserSaver
	now   func() time.Time
}

// NewLimiter creates a limiter backed by the given store.
func NewLimiter(store UserSaver) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// CanGenerate checks the user's daily quota. Premium users pass without
// touching quota state. On a UTC date rollover the counter is reset and
// persisted before the limit comparison, so the reset survives even when
// the limit is hit. Returns model.ErrQuotaExceeded when the limit is reached.
func (l *Limiter) CanGenerate(u *model.User) error {
	if u.IsPremium {
		return nil
	}
	today := l.now().UTC().Format(model.DateLayout)
	if u.LastGeneratedDate != today {
		u.LastGeneratedDate = today
		u.DailyGeneratedCount = 0
		if err := l.store.SaveQuota(u.ID, today, 0); err != nil {
			return err
		}
	}
	if u.DailyGeneratedCount >= DailyLimit {
		slog.Info("daily quota exceeded", "user_id", u.ID, "count", u.DailyGeneratedCount)
		return model.ErrQuotaExceeded
	}
	return nil
}

// RecordUsage adds n generated questions to today's counter and persists it.
// Premium usage is not tracked.
func (l *Limiter) RecordUsage(u *model.User, n int) error {
	if u.IsPremium {
		return nil
	}
	u.DailyGeneratedCount += n
	return l.store.SaveQuota(u.ID, u.LastGeneratedDate, u.DailyGeneratedCount)
}
