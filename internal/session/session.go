// Package session holds the current question batch in a cookie session
// between generation and browsing.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/mondaiapp/mondai/internal/model"
)

const (
	sessionName = "mondai"
	batchKey    = "all_questions"
)

func init() {
	gob.Register(model.QuestionBatch{})
}

// Store wraps a cookie session store.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a cookie-backed session store. Secure restricts cookies
// to HTTPS.
func NewStore(secret []byte, secure bool) *Store {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// SaveBatch replaces the stored batch wholesale. A new generation run always
// overwrites whatever batch the session held before.
func (s *Store) SaveBatch(w http.ResponseWriter, r *http.Request, batch model.QuestionBatch) error {
	sess, _ := s.cookies.Get(r, sessionName)
	sess.Values[batchKey] = batch
	return sess.Save(r, w)
}

// LoadBatch returns the batch held in the session, or nil when absent.
func (s *Store) LoadBatch(r *http.Request) model.QuestionBatch {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil {
		return nil
	}
	batch, ok := sess.Values[batchKey].(model.QuestionBatch)
	if !ok {
		return nil
	}
	return batch
}

// ClearBatch drops the stored batch.
func (s *Store) ClearBatch(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, sessionName)
	delete(sess.Values, batchKey)
	return sess.Save(r, w)
}
