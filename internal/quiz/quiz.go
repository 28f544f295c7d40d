// Package quiz keeps the in-progress quiz of each user. Sessions live in
// memory only and are lost on restart.
package quiz

import (
	"errors"
	"strings"
	"sync"

	"github.com/example/studybot/pkg/models"
)

// ErrNoSession is returned when a user answers without an active quiz
var ErrNoSession = errors.New("no active quiz")

// Session is one user's running quiz
type Session struct {
	UserID     int64
	TopicID    int64
	CourseName string
	TopicTitle string
	Questions  []models.QuizQuestion
	Index      int
	Score      int
}

// Current returns the question waiting for an answer
func (s *Session) Current() (models.QuizQuestion, bool) {
	if s.Index >= len(s.Questions) {
		return models.QuizQuestion{}, false
	}
	return s.Questions[s.Index], true
}

// Total is the number of questions in the session
func (s *Session) Total() int {
	return len(s.Questions)
}

// Result describes the outcome of one answer
type Result struct {
	Correct     bool
	Answer      string
	Explanation string
	Finished    bool
	Session     Session
}

// Store holds sessions keyed by telegram id
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start replaces any running quiz of telegramID with s
func (st *Store) Start(telegramID int64, s Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.Index, s.Score = 0, 0
	st.sessions[telegramID] = &s
}

// Get returns a copy of the running session
func (st *Store) Get(telegramID int64) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[telegramID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Cancel drops the running session, if any
func (st *Store) Cancel(telegramID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, telegramID)
}

// Answer scores letter against the current question and advances. The
// session is removed once the last question has been answered.
func (st *Store) Answer(telegramID int64, letter string) (Result, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[telegramID]
	if !ok {
		return Result{}, ErrNoSession
	}

	q, ok := s.Current()
	if !ok {
		delete(st.sessions, telegramID)
		return Result{}, ErrNoSession
	}

	res := Result{
		Correct:     strings.EqualFold(strings.TrimSpace(letter), q.Correct),
		Answer:      q.Correct,
		Explanation: q.Explanation,
	}
	if res.Correct {
		s.Score++
	}
	s.Index++

	if s.Index >= len(s.Questions) {
		res.Finished = true
		delete(st.sessions, telegramID)
	}
	res.Session = *s
	return res, nil
}

// OptionLetter returns the answer letter an option starts with ("B) ..." → "B")
func OptionLetter(option string) string {
	option = strings.TrimSpace(option)
	if option == "" {
		return ""
	}
	return strings.ToUpper(string([]rune(option)[:1]))
}

// Percent is score as a whole percentage of total, 0 when total is 0
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return score * 100 / total
}

// Grade returns the emoji and verdict shown for a percentage
func Grade(pct int) (emoji, verdict string) {
	switch {
	case pct >= 80:
		return "🏆", "Mükemmel!"
	case pct >= 60:
		return "👍", "İyi iş!"
	default:
		return "📚", "Daha fazla çalış!"
	}
}
