package quota

import (
	"errors"
	"testing"
	"time"

	"github.com/mondaiapp/mondai/internal/model"
)

type fakeSaver struct {
	saves []struct {
		date  string
		count int
	}
}

func (f *fakeSaver) SaveQuota(userID int64, date string, count int) error {
	f.saves = append(f.saves, struct {
		date  string
		count int
	}{date, count})
	return nil
}

func newTestLimiter(saver *fakeSaver, today string) *Limiter {
	l := NewLimiter(saver)
	l.now = func() time.Time {
		t, _ := time.Parse(model.DateLayout, today)
		return t
	}
	return l
}

func TestCanGenerate(t *testing.T) {
	tests := []struct {
		name      string
		user      model.User
		today     string
		wantErr   error
		wantReset bool
	}{
		{
			name:    "under limit same day",
			user:    model.User{LastGeneratedDate: "2026-08-30", DailyGeneratedCount: 9},
			today:   "2026-08-30",
			wantErr: nil,
		},
		{
			name:    "at limit same day",
			user:    model.User{LastGeneratedDate: "2026-08-30", DailyGeneratedCount: 10},
			today:   "2026-08-30",
			wantErr: model.ErrQuotaExceeded,
		},
		{
			name:      "at limit but new day resets",
			user:      model.User{LastGeneratedDate: "2026-08-29", DailyGeneratedCount: 10},
			today:     "2026-08-30",
			wantErr:   nil,
			wantReset: true,
		},
		{
			name:    "premium at limit",
			user:    model.User{IsPremium: true, LastGeneratedDate: "2026-08-30", DailyGeneratedCount: 99},
			today:   "2026-08-30",
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{}
			l := newTestLimiter(saver, tt.today)
			u := tt.user
			err := l.CanGenerate(&u)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CanGenerate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantReset {
				if u.DailyGeneratedCount != 0 || u.LastGeneratedDate != tt.today {
					t.Errorf("quota not reset: (%q, %d)", u.LastGeneratedDate, u.DailyGeneratedCount)
				}
				if len(saver.saves) != 1 || saver.saves[0].count != 0 {
					t.Errorf("reset not persisted: %+v", saver.saves)
				}
			}
		})
	}
}

func TestResetPersistedEvenWhenLimitHit(t *testing.T) {
	// A rollover followed by an immediate limit hit can only happen when the
	// limit is zero for the user, but the persist-before-compare order matters
	// for crash consistency, so pin it down.
	saver := &fakeSaver{}
	l := newTestLimiter(saver, "2026-08-30")
	u := model.User{LastGeneratedDate: "2026-08-29", DailyGeneratedCount: 10}
	if err := l.CanGenerate(&u); err != nil {
		t.Fatalf("CanGenerate() = %v", err)
	}
	if len(saver.saves) == 0 {
		t.Fatal("rollover was not persisted")
	}
}

func TestRecordUsage(t *testing.T) {
	saver := &fakeSaver{}
	l := newTestLimiter(saver, "2026-08-30")
	u := model.User{LastGeneratedDate: "2026-08-30", DailyGeneratedCount: 3}
	if err := l.RecordUsage(&u, 5); err != nil {
		t.Fatalf("RecordUsage() = %v", err)
	}
	if u.DailyGeneratedCount != 8 {
		t.Errorf("count = %d, want 8", u.DailyGeneratedCount)
	}
	if len(saver.saves) != 1 || saver.saves[0].count != 8 {
		t.Errorf("usage not persisted: %+v", saver.saves)
	}
}

func TestFullBatchExhaustsDailyQuota(t *testing.T) {
	// One ten-question batch takes a basic user from zero straight to the
	// limit. The next check must refuse.
	saver := &fakeSaver{}
	l := newTestLimiter(saver, "2026-08-30")
	u := model.User{LastGeneratedDate: "2026-08-30"}
	if err := l.CanGenerate(&u); err != nil {
		t.Fatalf("CanGenerate() = %v", err)
	}
	if err := l.RecordUsage(&u, 10); err != nil {
		t.Fatalf("RecordUsage() = %v", err)
	}
	if u.DailyGeneratedCount != 10 {
		t.Fatalf("count = %d, want 10", u.DailyGeneratedCount)
	}
	if err := l.CanGenerate(&u); !errors.Is(err, model.ErrQuotaExceeded) {
		t.Fatalf("CanGenerate() after full batch = %v, want ErrQuotaExceeded", err)
	}
}

func TestPremiumSkipsQuotaState(t *testing.T) {
	// Premium users neither read nor write quota state, so a lapsed
	// subscription starts from whatever was last persisted, not inflated
	// premium usage.
	saver := &fakeSaver{}
	l := newTestLimiter(saver, "2026-08-30")
	u := model.User{IsPremium: true, LastGeneratedDate: "2026-08-29", DailyGeneratedCount: 3}

	if err := l.CanGenerate(&u); err != nil {
		t.Fatalf("CanGenerate() = %v", err)
	}
	if err := l.RecordUsage(&u, 10); err != nil {
		t.Fatalf("RecordUsage() = %v", err)
	}
	if u.DailyGeneratedCount != 3 || u.LastGeneratedDate != "2026-08-29" {
		t.Errorf("quota state changed for premium: (%q, %d)", u.LastGeneratedDate, u.DailyGeneratedCount)
	}
	if len(saver.saves) != 0 {
		t.Errorf("premium usage persisted: %+v", saver.saves)
	}
}
