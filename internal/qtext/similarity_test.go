package qtext

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abcd", "abcd", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "abc", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"partial", "abcd", "bcde", 0.75},
		{"identical japanese", "Pythonとは何ですか", "Pythonとは何ですか", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio([]rune(tt.a), []rune(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsSimilar(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		prior     []string
		want      bool
	}{
		{"near-identical exceeds threshold", "Pythonとは何ですか", []string{"Pythonとは何ですか"}, true},
		{"unrelated sentence", "A completely different sentence", []string{"Pythonとは何ですか"}, false},
		{"empty prior", "Pythonとは何ですか", nil, false},
		{"match among several", "Goの並行処理とは何ですか", []string{"まったく別の話", "Goの並行処理とは何ですか"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSimilar(tt.candidate, tt.prior, DefaultSimilarityThreshold)
			if got != tt.want {
				t.Errorf("IsSimilar(%q, %v) = %v, want %v", tt.candidate, tt.prior, got, tt.want)
			}
		})
	}
}

func TestIsSimilarStrictThreshold(t *testing.T) {
	// Ratio of exactly the threshold must not count as similar.
	// "ab" vs "ax": one matched rune, ratio = 2*1/4 = 0.5.
	if IsSimilar("ab", []string{"ax"}, 0.5) {
		t.Error("ratio equal to threshold should not be similar")
	}
	if !IsSimilar("ab", []string{"ax"}, 0.49) {
		t.Error("ratio above threshold should be similar")
	}
}
