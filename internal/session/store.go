// Package session holds the in-memory registry of chat sessions and the
// single process-wide active-session cursor. State lives for the lifetime of
// the process only; nothing is persisted across restarts.
package session

import (
	cryptorand "crypto/rand"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/calegann/chatpanel/internal/models"
)

var ulidEntropy = ulid.Monotonic(cryptorand.Reader, 0)

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// Store is an append-only registry of chat sessions in creation order, plus
// the active-session cursor. All methods take the store lock, so every
// operation observed by callers is a single atomic step; streaming writers
// and command handlers may interleave freely between calls.
//
// Sessions are never deleted. The cursor, once set, always refers to an
// existing session.
type Store struct {
	mu       sync.RWMutex
	sessions []*models.ChatSession
	byID     map[string]*models.ChatSession
	activeID string
}

// NewStore returns an empty registry with no active session.
func NewStore() *Store {
	return &Store{byID: make(map[string]*models.ChatSession)}
}

// CreateSession allocates a session with a fresh ULID id and a title derived
// from the creation count ("Chat 1", "Chat 2", ...), appends it to the
// registry, makes it active, and returns a copy.
func (s *Store) CreateSession() models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &models.ChatSession{
		ID:        newSessionID(),
		Title:     fmt.Sprintf("Chat %d", len(s.sessions)+1),
		CreatedAt: time.Now(),
	}
	s.sessions = append(s.sessions, sess)
	s.byID[sess.ID] = sess
	s.activeID = sess.ID

	metricSessionsCreated.Inc()
	return cloneSession(sess)
}

// Session returns a copy of the session with the given id. The second return
// value is false when the id is unknown.
func (s *Store) Session(id string) (models.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return models.ChatSession{}, false
	}
	return cloneSession(sess), true
}

// Messages returns a copy of the message list for the given session, or nil
// when the session is unknown.
func (s *Store) Messages(id string) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byID[id]
	if !ok {
		return nil
	}
	return slices.Clone(sess.Messages)
}

// AppendMessage appends msg to the session's history. Unknown session ids are
// ignored so a stale command cannot corrupt the registry.
func (s *Store) AppendMessage(id string, msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return
	}
	sess.Messages = append(sess.Messages, msg)
	metricMessagesAppended.WithLabelValues(string(msg.Role)).Inc()
}

// UpdateMessage mutates the content and loading flag of the message with
// messageID inside the given session, in place. It is a no-op when either the
// session or the message is unknown; streaming updates address messages by
// explicit ids and must never create new entries.
func (s *Store) UpdateMessage(id, messageID, content string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return
	}
	for i := range sess.Messages {
		if sess.Messages[i].ID == messageID {
			sess.Messages[i].Content = content
			sess.Messages[i].Loading = loading
			return
		}
	}
}

// Summaries lists every session in creation order with the active flag
// computed against the cursor. The order is an observable contract: the UI
// renders the list exactly as returned.
func (s *Store) Summaries() []models.ChatSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.ChatSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, models.ChatSummary{
			ID:     sess.ID,
			Title:  sess.Title,
			Active: sess.ID == s.activeID,
		})
	}
	return summaries
}

// SetActive moves the cursor to the given session. It refuses unknown ids and
// reports whether the cursor moved, preserving the invariant that a non-empty
// cursor always names an existing session.
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	s.activeID = id
	return true
}

// ActiveID returns the current cursor, or an empty string when no session has
// been created yet.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Rename sets the session's title and reports whether the session exists.
func (s *Store) Rename(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return false
	}
	sess.Title = title
	return true
}

// Count returns the number of sessions created so far.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneSession(sess *models.ChatSession) models.ChatSession {
	out := *sess
	out.Messages = slices.Clone(sess.Messages)
	return out
}
