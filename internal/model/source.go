package model

// QuestionSource abstracts where the current batch of questions comes from:
// the browsing session (fresh generation) or durable storage (resuming via a
// retry link). Call sites index it uniformly instead of probing the type.
type QuestionSource interface {
	// Total returns the number of questions in the source.
	Total() int
	// At returns the question with the given 1-based number.
	At(number int) (QuestionRef, error)
	// ByID returns the question with the given ID, if present.
	ByID(id int64) (QuestionRef, bool)
}

type sessionBatch struct {
	refs QuestionBatch
}

// SessionBatch wraps the session-held batch as a QuestionSource.
func SessionBatch(batch QuestionBatch) QuestionSource {
	return sessionBatch{refs: batch}
}

func (s sessionBatch) Total() int { return len(s.refs) }

func (s sessionBatch) At(number int) (QuestionRef, error) {
	if number < 1 || number > len(s.refs) {
		return QuestionRef{}, ErrNotFound
	}
	return s.refs[number-1], nil
}

func (s sessionBatch) ByID(id int64) (QuestionRef, bool) {
	for _, r := range s.refs {
		if r.ID == id {
			return r, true
		}
	}
	return QuestionRef{}, false
}

type storedBatch struct {
	refs []QuestionRef
}

// StoredBatch wraps questions loaded from storage as a QuestionSource.
// Position within the batch follows slice order, not Question.Number, since
// a stored topic may span several generation batches.
func StoredBatch(questions []Question) QuestionSource {
	refs := make([]QuestionRef, len(questions))
	for i, q := range questions {
		refs[i] = QuestionRef{ID: q.ID, Text: q.Text, Topic: q.Topic, Number: i + 1}
	}
	return storedBatch{refs: refs}
}

func (s storedBatch) Total() int { return len(s.refs) }

func (s storedBatch) At(number int) (QuestionRef, error) {
	if number < 1 || number > len(s.refs) {
		return QuestionRef{}, ErrNotFound
	}
	return s.refs[number-1], nil
}

func (s storedBatch) ByID(id int64) (QuestionRef, bool) {
	for _, r := range s.refs {
		if r.ID == id {
			return r, true
		}
	}
	return QuestionRef{}, false
}
