// Package generator runs the LLM question-generation loop and persists the
// accepted questions.
package generator

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mondaiapp/mondai/internal/llm/prompts"
	"github.com/mondaiapp/mondai/internal/model"
	"github.com/mondaiapp/mondai/internal/qtext"
)

const (
	maxAttempts     = 5
	targetQuestions = 10
	minStemRunes    = 10
	priorLimit      = 20
)

// Completer produces a chat completion for a system instruction and prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// QuestionStore persists generated questions and supplies prior texts for
// the similarity filter.
type QuestionStore interface {
	InsertQuestion(q model.Question) (int64, error)
	RecentTopicTexts(userID int64, topic string, limit int) ([]string, error)
	AddGenerateCount(userID int64, n int) error
}

// Limiter gates generation on the user's daily quota.
type Limiter interface {
	CanGenerate(u *model.User) error
	RecordUsage(u *model.User, n int) error
}

// Orchestrator coordinates quota checking, prompt building, the generation
// loop, and persistence.
type Orchestrator struct {
	llm     Completer
	store   QuestionStore
	limiter Limiter
}

// New creates an orchestrator.
func New(llm Completer, store QuestionStore, limiter Limiter) *Orchestrator {
	return &Orchestrator{llm: llm, store: store, limiter: limiter}
}

// FromTopic generates a batch of questions about a topic. The quota gate runs
// before any LLM call; a quota failure makes zero external requests. Prior
// questions on the same topic feed the similarity filter.
func (o *Orchestrator) FromTopic(ctx context.Context, u *model.User, topic string, difficulty model.Difficulty) (model.QuestionBatch, error) {
	if err := o.limiter.CanGenerate(u); err != nil {
		return nil, err
	}

	prior, err := o.store.RecentTopicTexts(u.ID, topic, priorLimit)
	if err != nil {
		return nil, err
	}

	prompt, system := prompts.BuildTopicPrompt(topic, difficulty)
	valid, err := o.generateAndValidate(ctx, system, prompt, prior)
	if err != nil {
		return nil, err
	}

	batch, err := o.persist(u, topic, difficulty, valid)
	if err != nil {
		return nil, err
	}
	if err := o.limiter.RecordUsage(u, len(batch)); err != nil {
		return nil, err
	}
	return batch, nil
}

// FromDocument generates a batch of questions from text extracted out of an
// uploaded file. No similarity filter applies and the topic is derived from
// the text itself.
func (o *Orchestrator) FromDocument(ctx context.Context, u *model.User, extractedText string) (model.QuestionBatch, error) {
	prompt, system, topic := prompts.BuildDocumentPrompt(extractedText)
	valid, err := o.generateAndValidate(ctx, system, prompt, nil)
	if err != nil {
		return nil, err
	}
	return o.persist(u, topic, "", valid)
}

// generateAndValidate runs up to maxAttempts completions, splitting each
// response into blank-line-delimited blocks and accepting blocks that pass
// validation until targetQuestions are accumulated. Fewer than the target
// after all attempts is model.ErrInsufficientQuestions.
func (o *Orchestrator) generateAndValidate(ctx context.Context, system, prompt string, prior []string) ([]string, error) {
	var valid []string
	for attempt := 1; attempt <= maxAttempts && len(valid) < targetQuestions; attempt++ {
		raw, err := o.llm.Complete(ctx, system, prompt)
		if err != nil {
			return nil, err
		}
		blocks := strings.Split(strings.TrimSpace(raw), "\n\n")
		for _, block := range blocks {
			if !validBlock(block) {
				continue
			}
			stem := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
			if prior != nil && qtext.IsSimilar(stem, prior, qtext.DefaultSimilarityThreshold) {
				continue
			}
			valid = append(valid, block)
			if len(valid) >= targetQuestions {
				break
			}
		}
		slog.Debug("generation attempt finished", "attempt", attempt, "valid", len(valid))
	}
	if len(valid) < targetQuestions {
		slog.Info("generation fell short", "valid", len(valid), "target", targetQuestions)
		return nil, model.ErrInsufficientQuestions
	}
	return valid, nil
}

// validBlock rejects blocks that cannot be a question with four options: at
// least five non-blank lines, with a stem of at least ten runes.
func validBlock(block string) bool {
	nonEmpty := 0
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 5 {
		return false
	}
	stem := strings.TrimSpace(strings.SplitN(block, "\n", 2)[0])
	return stem != "" && utf8.RuneCountInString(stem) >= minStemRunes
}

// persist stores the first targetQuestions accepted blocks numbered 1..n and
// bumps the user's lifetime counter. The returned batch mirrors what was
// stored, ready for the browsing session.
func (o *Orchestrator) persist(u *model.User, topic string, difficulty model.Difficulty, valid []string) (model.QuestionBatch, error) {
	if len(valid) > targetQuestions {
		valid = valid[:targetQuestions]
	}
	batch := make(model.QuestionBatch, 0, len(valid))
	for i, text := range valid {
		id, err := o.store.InsertQuestion(model.Question{
			UserID:     u.ID,
			Topic:      topic,
			Text:       text,
			Number:     i + 1,
			Difficulty: difficulty,
		})
		if err != nil {
			return nil, err
		}
		batch = append(batch, model.QuestionRef{
			ID:     id,
			Text:   text,
			Topic:  topic,
			Number: i + 1,
		})
	}
	if err := o.store.AddGenerateCount(u.ID, len(valid)); err != nil {
		return nil, err
	}
	u.GenerateCount += len(valid)
	slog.Info("stored generated questions", "user_id", u.ID, "topic", topic, "count", len(valid))
	return batch, nil
}
