package view

import (
	"testing"

	"github.com/mondaiapp/mondai/internal/model"
)

func TestNewQuestionViewNavigation(t *testing.T) {
	tests := []struct {
		name        string
		number      int
		total       int
		wantNext    bool
		wantPrev    bool
	}{
		{"first of ten", 1, 10, true, false},
		{"middle", 5, 10, true, true},
		{"last", 10, 10, false, true},
		{"single question", 1, 1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := model.QuestionRef{ID: 1, Text: "Q?", Topic: "Go", Number: tt.number}
			v := NewQuestionView(ref, tt.total, false)
			if v.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", v.HasNext, tt.wantNext)
			}
			if v.HasPrevious != tt.wantPrev {
				t.Errorf("HasPrevious = %v, want %v", v.HasPrevious, tt.wantPrev)
			}
			if v.NextNumber != tt.number+1 {
				t.Errorf("NextNumber = %d", v.NextNumber)
			}
		})
	}
}

func TestNewQuestionViewParsesOptions(t *testing.T) {
	ref := model.QuestionRef{ID: 1, Topic: "Go", Number: 1,
		Text: "問題1: Goとは何ですか？\n(A) 言語\n(B) 鳥\n(C) 星\n(D) 川"}
	v := NewQuestionView(ref, 10, false)
	if v.Stem != "問題1: Goとは何ですか？" {
		t.Errorf("Stem = %q", v.Stem)
	}
	if len(v.Options) != 4 || v.Options[0].Letter != "A" || v.Options[0].Text != "言語" {
		t.Errorf("Options = %+v", v.Options)
	}
}

func TestNewAnswerViewRetryFlags(t *testing.T) {
	v := NewAnswerView(1, "Q?", "Go", 3, 10, true, "説明", "A", false, "A")
	if !v.ShowBackLink || !v.ShowNextButton {
		t.Error("normal mode must show back link and next button")
	}
	if !v.ShowUserAnswer || !v.ShowImages {
		t.Error("user answer and images always show")
	}
	if !v.HasNext || v.NextNumber != 4 {
		t.Errorf("navigation = (%v, %d)", v.HasNext, v.NextNumber)
	}

	retry := NewAnswerView(1, "Q?", "Go", 3, 10, false, "説明", "A", true, "B")
	if retry.ShowBackLink || retry.ShowNextButton {
		t.Error("retry mode must hide back link and next button")
	}
	if !retry.ShowUserAnswer || !retry.ShowImages {
		t.Error("retry mode still shows user answer and images")
	}
}

func TestNewExplanationView(t *testing.T) {
	yes, no := true, false

	t.Run("prefers first attempt", func(t *testing.T) {
		q := &model.Question{ID: 1, Text: "Q?", Explanation: "解説", CorrectOption: "A",
			IsCorrectFirst: &yes, IsCorrect: &no}
		v := NewExplanationView(q, "Go", 2, false)
		if !v.IsCorrect {
			t.Error("first-attempt outcome must win")
		}
	})

	t.Run("falls back to retry", func(t *testing.T) {
		q := &model.Question{ID: 1, Text: "Q?", IsCorrect: &yes}
		v := NewExplanationView(q, "Go", 2, false)
		if !v.IsCorrect {
			t.Error("retry outcome must be used when no first attempt exists")
		}
	})

	t.Run("standalone page flags", func(t *testing.T) {
		q := &model.Question{ID: 1, Text: "Q?"}
		v := NewExplanationView(q, "Go", 2, false)
		if v.TotalQuestions != 1 || v.HasNext {
			t.Errorf("page shape = (%d, %v)", v.TotalQuestions, v.HasNext)
		}
		if v.ShowBackLink || v.ShowUserAnswer || v.ShowImages || v.ShowNextButton {
			t.Error("display extras must all be off")
		}
	})
}
