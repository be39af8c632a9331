package app

import (
	"context"
	"time"

	"admission-quiz-service/internal/domain"
)

// Ledger is the durable, append-only collection of completed attempts. It is
// the sole source of truth for the one-attempt-per-identity check. Append
// publishes a change notification; dashboards observe it through Subscribe
// instead of polling.
type Ledger interface {
	// HasAttempted reports whether a record exists for the student ID,
	// compared trimmed and case-insensitively. It has no side effects.
	HasAttempted(ctx context.Context, studentID string) (bool, error)
	// Append adds a record. Existing records are never overwritten or
	// removed. A failed append must be reported, never dropped.
	Append(ctx context.Context, record domain.AttemptRecord) error
	// ListAll returns every stored record. Ordering is the reader's concern.
	ListAll(ctx context.Context) ([]domain.AttemptRecord, error)
	// Subscribe returns a channel receiving each appended record. The cancel
	// function releases the subscription and is safe to call more than once.
	Subscribe() (<-chan domain.AttemptRecord, func())
}

// QuestionRepository loads question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, name string) (domain.QuestionSet, error)
}

// SessionConfig carries the tunables of one quiz run. Zero fields fall back
// to the reference behavior: a 30 minute quiz and a 5 second results redirect.
type SessionConfig struct {
	QuizName      string
	QuestionSet   string
	Duration      time.Duration
	RedirectWait  time.Duration
	AppendTimeout time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.QuizName == "" {
		c.QuizName = domain.DefaultQuizName
	}
	if c.QuestionSet == "" {
		c.QuestionSet = domain.DefaultQuestionSetName
	}
	if c.Duration <= 0 {
		c.Duration = 30 * time.Minute
	}
	if c.RedirectWait <= 0 {
		c.RedirectWait = 5 * time.Second
	}
	if c.AppendTimeout <= 0 {
		c.AppendTimeout = 5 * time.Second
	}
	return c
}

// Service creates quiz sessions bound to a question set and a ledger.
type Service struct {
	questions QuestionRepository
	ledger    Ledger
	cfg       SessionConfig
}

func NewService(questions QuestionRepository, ledger Ledger, cfg SessionConfig) *Service {
	return &Service{questions: questions, ledger: ledger, cfg: cfg.withDefaults()}
}

// NewSession loads the configured question set and returns a fresh session at
// the authentication gate.
func (s *Service) NewSession(ctx context.Context) (*Session, error) {
	set, err := s.questions.GetQuestionSet(ctx, s.cfg.QuestionSet)
	if err != nil {
		return nil, err
	}
	return NewSession(set, s.ledger, s.cfg), nil
}

// Ledger exposes the ledger for read-side consumers (dashboard feed, CLI).
func (s *Service) Ledger() Ledger {
	return s.ledger
}
