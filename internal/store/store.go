package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mondaiapp/mondai/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_premium INTEGER NOT NULL DEFAULT 0,
		stripe_customer_id TEXT NOT NULL DEFAULT '',
		correct_count INTEGER NOT NULL DEFAULT 0,
		generate_count INTEGER NOT NULL DEFAULT 0,
		accuracy REAL NOT NULL DEFAULT 0,
		not_answered_count INTEGER NOT NULL DEFAULT 0,
		last_generated_date TEXT NOT NULL DEFAULT '',
		daily_generated_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		topic TEXT NOT NULL,
		text TEXT NOT NULL,
		number INTEGER NOT NULL DEFAULT 1,
		difficulty TEXT NOT NULL DEFAULT '',
		correct_option TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		is_correct_first INTEGER,
		is_correct INTEGER,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		plan TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 0,
		stripe_customer_id TEXT NOT NULL DEFAULT '',
		stripe_subscription_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS question_sets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		publisher TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS question_set_items (
		set_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		PRIMARY KEY (set_id, question_id),
		FOREIGN KEY (set_id) REFERENCES question_sets(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_questions_user_topic ON questions(user_id, topic);
	`
	_, err := s.db.Exec(schema)
	return err
}

const questionColumns = `id, user_id, topic, text, number, difficulty, correct_option, explanation, is_correct_first, is_correct, created_at`

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var first, correct sql.NullBool
	err := row.Scan(&q.ID, &q.UserID, &q.Topic, &q.Text, &q.Number, &q.Difficulty,
		&q.CorrectOption, &q.Explanation, &first, &correct, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	if first.Valid {
		q.IsCorrectFirst = &first.Bool
	}
	if correct.Valid {
		q.IsCorrect = &correct.Bool
	}
	return q, nil
}

// InsertQuestion stores a generated question and returns its ID.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO questions (user_id, topic, text, number, difficulty, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.UserID, q.Topic, q.Text, q.Number, q.Difficulty, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuestion returns a question by ID, scoped to its owner.
func (s *Store) GetQuestion(id, userID int64) (model.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(
		`SELECT `+questionColumns+` FROM questions WHERE id = ? AND user_id = ?`, id, userID,
	))
	if err == sql.ErrNoRows {
		return q, model.ErrNotFound
	}
	return q, err
}

// ListQuestionsByTopic returns a user's questions for a topic in insertion order.
func (s *Store) ListQuestionsByTopic(userID int64, topic string) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT `+questionColumns+` FROM questions WHERE user_id = ? AND topic = ? ORDER BY id`,
		userID, topic,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// RecentTopicTexts returns up to limit question texts stored for a topic,
// newest first. Used as the prior pool for similarity deduplication.
func (s *Store) RecentTopicTexts(userID int64, topic string, limit int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT text FROM questions WHERE user_id = ? AND topic = ? ORDER BY id DESC LIMIT ?`,
		userID, topic, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// SetFirstResult records the outcome of the first grading call for a
// question. is_correct_first is written here and nowhere else.
func (s *Store) SetFirstResult(id int64, correct bool, option, explanation string) error {
	_, err := s.db.Exec(
		`UPDATE questions SET is_correct_first = ?, correct_option = ?, explanation = ? WHERE id = ?`,
		correct, option, explanation, id,
	)
	return err
}

// SetRetryResult records the outcome of a repeat grading call, leaving
// is_correct_first untouched.
func (s *Store) SetRetryResult(id int64, correct bool, option, explanation string) error {
	_, err := s.db.Exec(
		`UPDATE questions SET is_correct = ?, correct_option = ?, explanation = ? WHERE id = ?`,
		correct, option, explanation, id,
	)
	return err
}

// FindQuestionsForRetry resolves the batch for a shareable retry link, which
// bypasses the session. With an ID it verifies ownership and returns the
// whole topic. With text it tries an exact match first, then a prefix
// partial match on the first 50 runes. Otherwise the topic alone decides.
func (s *Store) FindQuestionsForRetry(userID int64, topic, text string, id int64) ([]model.Question, error) {
	if id != 0 {
		// Existence check only; a stale ID falls back to the topic lookup.
		if _, err := s.GetQuestion(id, userID); err != nil && err != model.ErrNotFound {
			return nil, err
		}
		return s.ListQuestionsByTopic(userID, topic)
	}

	if text != "" {
		rows, err := s.db.Query(
			`SELECT `+questionColumns+` FROM questions WHERE user_id = ? AND topic = ? AND text = ? ORDER BY id`,
			userID, topic, text,
		)
		if err != nil {
			return nil, err
		}
		qs, err := collectQuestions(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 {
			return qs, nil
		}

		prefix := text
		if r := []rune(text); len(r) > 50 {
			prefix = string(r[:50])
		}
		rows, err = s.db.Query(
			`SELECT `+questionColumns+` FROM questions WHERE user_id = ? AND topic = ? AND text LIKE ? ESCAPE '\' ORDER BY id`,
			userID, topic, "%"+escapeLike(prefix)+"%",
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectQuestions(rows)
	}

	return s.ListQuestionsByTopic(userID, topic)
}

// FindQuestionsByText returns questions whose text contains the given
// fragment, with the ellipsis character stripped before matching.
func (s *Store) FindQuestionsByText(userID int64, text string) ([]model.Question, error) {
	cleaned := strings.ReplaceAll(text, "…", "")
	rows, err := s.db.Query(
		`SELECT `+questionColumns+` FROM questions WHERE user_id = ? AND text LIKE ? ESCAPE '\' ORDER BY id`,
		userID, "%"+escapeLike(cleaned)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListTopics aggregates a user's topics with per-topic question counts.
// search narrows by substring; sort is "count" (descending) or name order.
func (s *Store) ListTopics(userID int64, search, sort string) ([]model.TopicCount, error) {
	query := `SELECT topic, COUNT(*) AS cnt FROM questions WHERE user_id = ?`
	args := []any{userID}
	if search != "" {
		query += ` AND topic LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += ` GROUP BY topic`
	if sort == "count" {
		query += ` ORDER BY cnt DESC`
	} else {
		query += ` ORDER BY topic`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []model.TopicCount
	for rows.Next() {
		var tc model.TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		topics = append(topics, tc)
	}
	return topics, rows.Err()
}

// FavoriteTopic returns the topic with the most stored questions, or empty
// when the user has none.
func (s *Store) FavoriteTopic(userID int64) (string, error) {
	var topic string
	err := s.db.QueryRow(
		`SELECT topic FROM questions WHERE user_id = ? GROUP BY topic ORDER BY COUNT(*) DESC, topic LIMIT 1`,
		userID,
	).Scan(&topic)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return topic, err
}

// CountNotAnswered counts questions whose retry flag has never been set.
func (s *Store) CountNotAnswered(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM questions WHERE user_id = ? AND is_correct IS NULL`, userID,
	).Scan(&count)
	return count, err
}

func collectQuestions(rows *sql.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
