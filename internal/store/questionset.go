package store

import (
	"time"

	"github.com/mondaiapp/mondai/internal/model"
)

// CreateQuestionSet inserts a question set and returns its ID.
func (s *Store) CreateQuestionSet(qs model.QuestionSet) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO question_sets (user_id, name, description, author, publisher, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		qs.UserID, qs.Name, qs.Description, qs.Author, qs.Publisher, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuestionSet returns a question set by ID, scoped to its owner.
func (s *Store) GetQuestionSet(id, userID int64) (*model.QuestionSet, error) {
	var qs model.QuestionSet
	err := s.db.QueryRow(
		`SELECT id, user_id, name, description, author, publisher, created_at
		 FROM question_sets WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&qs.ID, &qs.UserID, &qs.Name, &qs.Description, &qs.Author, &qs.Publisher, &qs.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

// ListQuestionSets returns a user's question sets, newest first.
func (s *Store) ListQuestionSets(userID int64) ([]model.QuestionSet, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, description, author, publisher, created_at
		 FROM question_sets WHERE user_id = ? ORDER BY id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sets []model.QuestionSet
	for rows.Next() {
		var qs model.QuestionSet
		if err := rows.Scan(&qs.ID, &qs.UserID, &qs.Name, &qs.Description, &qs.Author, &qs.Publisher, &qs.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, qs)
	}
	return sets, rows.Err()
}

// AddQuestionToSet links a question to a set. Duplicate links are ignored.
func (s *Store) AddQuestionToSet(setID, questionID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO question_set_items (set_id, question_id) VALUES (?, ?)`,
		setID, questionID,
	)
	return err
}

// ListSetQuestions returns the questions linked to a set in link order.
func (s *Store) ListSetQuestions(setID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT `+questionColumns+` FROM questions
		 WHERE id IN (SELECT question_id FROM question_set_items WHERE set_id = ?)
		 ORDER BY id`, setID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}
