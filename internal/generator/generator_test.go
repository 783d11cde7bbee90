package generator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/mondaiapp/mondai/internal/model"
)

type fakeCompleter struct {
	responses []string
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if f.calls >= len(f.responses) {
		return "", errors.New("no more responses")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeStore struct {
	prior    []string
	inserted []model.Question
	added    int
	nextID   int64
}

func (f *fakeStore) InsertQuestion(q model.Question) (int64, error) {
	f.nextID++
	f.inserted = append(f.inserted, q)
	return f.nextID, nil
}

func (f *fakeStore) RecentTopicTexts(userID int64, topic string, limit int) ([]string, error) {
	return f.prior, nil
}

func (f *fakeStore) AddGenerateCount(userID int64, n int) error {
	f.added += n
	return nil
}

type fakeLimiter struct {
	deny     bool
	recorded int
}

func (f *fakeLimiter) CanGenerate(u *model.User) error {
	if f.deny {
		return model.ErrQuotaExceeded
	}
	return nil
}

func (f *fakeLimiter) RecordUsage(u *model.User, n int) error {
	f.recorded += n
	return nil
}

// block builds a well-formed question block with the given stem.
func block(stem string) string {
	return stem + "\n(A) 一つ目\n(B) 二つ目\n(C) 三つ目\n(D) 四つ目"
}

// nBlocks returns a response containing n valid blocks with distinct stems.
func nBlocks(n int) string {
	stems := []string{
		"問題1: Goのgoroutineとは何ですか？",
		"問題2: チャネルの用途は何ですか？",
		"問題3: deferの実行順序はどうなりますか？",
		"問題4: インターフェースの満たし方は？",
		"問題5: スライスと配列の違いは何ですか？",
		"問題6: mapの反復順序はどうなりますか？",
		"問題7: contextの役割は何ですか？",
		"問題8: エラー処理の慣習は何ですか？",
		"問題9: パッケージの初期化順序は？",
		"問題10: syncパッケージの用途は何ですか？",
		"問題11: ポインタレシーバの使い所は？",
		"問題12: ジェネリクスの制約とは何ですか？",
	}
	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = block(stems[i])
	}
	return strings.Join(blocks, "\n\n")
}

func TestFromTopicSuccess(t *testing.T) {
	llm := &fakeCompleter{responses: []string{nBlocks(12)}}
	store := &fakeStore{}
	limiter := &fakeLimiter{}
	o := New(llm, store, limiter)
	u := &model.User{ID: 1}

	batch, err := o.FromTopic(context.Background(), u, "Go", model.DifficultyAdvanced)
	if err != nil {
		t.Fatalf("FromTopic: %v", err)
	}
	if llm.calls != 1 {
		t.Errorf("calls = %d, want 1", llm.calls)
	}
	if len(batch) != 10 {
		t.Fatalf("batch size = %d, want 10", len(batch))
	}
	for i, ref := range batch {
		if ref.Number != i+1 {
			t.Errorf("batch[%d].Number = %d, want %d", i, ref.Number, i+1)
		}
		if ref.Topic != "Go" {
			t.Errorf("batch[%d].Topic = %q", i, ref.Topic)
		}
	}
	if len(store.inserted) != 10 {
		t.Errorf("inserted = %d, want 10", len(store.inserted))
	}
	if store.inserted[0].Difficulty != model.DifficultyAdvanced {
		t.Errorf("difficulty not persisted: %q", store.inserted[0].Difficulty)
	}
	if store.added != 10 || u.GenerateCount != 10 {
		t.Errorf("generate count = (%d, %d), want 10", store.added, u.GenerateCount)
	}
	if limiter.recorded != 10 {
		t.Errorf("usage recorded for %d questions, want 10", limiter.recorded)
	}
}

func TestFromTopicQuotaDeniedMakesNoLLMCall(t *testing.T) {
	llm := &fakeCompleter{responses: []string{nBlocks(12)}}
	limiter := &fakeLimiter{deny: true}
	o := New(llm, &fakeStore{}, limiter)

	_, err := o.FromTopic(context.Background(), &model.User{ID: 1}, "Go", model.DifficultyBasic)
	if !errors.Is(err, model.ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if llm.calls != 0 {
		t.Errorf("quota failure must not reach the LLM, calls = %d", llm.calls)
	}
}

func TestFromTopicInsufficientAfterAllAttempts(t *testing.T) {
	// Every attempt yields only three valid blocks.
	resp := nBlocks(3)
	llm := &fakeCompleter{responses: []string{resp, resp, resp, resp, resp}}
	store := &fakeStore{}
	limiter := &fakeLimiter{}
	o := New(llm, store, limiter)

	_, err := o.FromTopic(context.Background(), &model.User{ID: 1}, "Go", model.DifficultyBasic)
	if !errors.Is(err, model.ErrInsufficientQuestions) {
		t.Fatalf("error = %v, want ErrInsufficientQuestions", err)
	}
	if llm.calls != 5 {
		t.Errorf("calls = %d, want 5 attempts", llm.calls)
	}
	if len(store.inserted) != 0 {
		t.Errorf("nothing should be persisted on failure, inserted = %d", len(store.inserted))
	}
	if limiter.recorded != 0 {
		t.Errorf("usage must not be recorded on failure")
	}
}

func TestFromTopicAccumulatesAcrossAttempts(t *testing.T) {
	// 6 valid blocks per attempt; duplicates across attempts are fine because
	// the filter compares against stored prior texts, not within the run.
	llm := &fakeCompleter{responses: []string{nBlocks(6), nBlocks(6)}}
	store := &fakeStore{}
	o := New(llm, store, &fakeLimiter{})

	batch, err := o.FromTopic(context.Background(), &model.User{ID: 1}, "Go", model.DifficultyBasic)
	if err != nil {
		t.Fatalf("FromTopic: %v", err)
	}
	if llm.calls != 2 {
		t.Errorf("calls = %d, want 2", llm.calls)
	}
	if len(batch) != 10 {
		t.Errorf("batch size = %d, want 10", len(batch))
	}
}

func TestFromTopicSimilarityFilter(t *testing.T) {
	resp := nBlocks(11)
	// Make the first stem a near-duplicate of a stored question.
	store := &fakeStore{prior: []string{"問題1: Goのgoroutineとは何ですか？\n(A) a\n(B) b\n(C) c\n(D) d"}}
	llm := &fakeCompleter{responses: []string{resp}}
	o := New(llm, store, &fakeLimiter{})

	batch, err := o.FromTopic(context.Background(), &model.User{ID: 1}, "Go", model.DifficultyBasic)
	if err != nil {
		t.Fatalf("FromTopic: %v", err)
	}
	for _, ref := range batch {
		if strings.HasPrefix(ref.Text, "問題1: Goのgoroutineとは何ですか？") {
			t.Error("similar question was not filtered out")
		}
	}
}

func TestValidBlock(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  bool
	}{
		{"well formed", block("問題1: Goとは何の言語ですか？"), true},
		{"four lines only", "問題1: Goとは何の言語ですか？\n(A) a\n(B) b\n(C) c", false},
		{"short stem", block("短い？"), false},
		{"blank lines ignored", "問題1: Goとは何の言語ですか？\n\n(A) a\n(B) b\n(C) c\n(D) d", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validBlock(tt.block); got != tt.want {
				t.Errorf("validBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromDocumentSkipsQuotaAndFilter(t *testing.T) {
	llm := &fakeCompleter{responses: []string{nBlocks(10)}}
	store := &fakeStore{}
	limiter := &fakeLimiter{deny: true}
	o := New(llm, store, limiter)
	u := &model.User{ID: 1}

	batch, err := o.FromDocument(context.Background(), u, "画像のサイズは640x480です。")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if len(batch) != 10 {
		t.Fatalf("batch size = %d, want 10", len(batch))
	}
	if batch[0].Topic != "画像のサイズは640x48" {
		t.Errorf("topic = %q, want first ten runes of the text", batch[0].Topic)
	}
	if store.inserted[0].Difficulty != "" {
		t.Errorf("document questions carry no difficulty, got %q", store.inserted[0].Difficulty)
	}
}

func TestExtractText(t *testing.T) {
	t.Run("image reports dimensions", func(t *testing.T) {
		var buf bytes.Buffer
		img := image.NewRGBA(image.Rect(0, 0, 640, 480))
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encode png: %v", err)
		}
		text, err := ExtractText("image/png", buf.Bytes())
		if err != nil {
			t.Fatalf("ExtractText: %v", err)
		}
		if text != "画像のサイズは640x480です。" {
			t.Errorf("text = %q", text)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := ExtractText("text/plain", []byte("hello"))
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
		if verr.MsgID != "UnsupportedFileType" {
			t.Errorf("MsgID = %q", verr.MsgID)
		}
	})

	t.Run("corrupt image", func(t *testing.T) {
		if _, err := ExtractText("image/png", []byte("not an image")); err == nil {
			t.Fatal("expected error for corrupt image")
		}
	})
}
