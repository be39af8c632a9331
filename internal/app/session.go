package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"admission-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// State identifies where a session is in its lifecycle.
type State string

const (
	// StateAuthenticating is the identity gate. Invalid input re-prompts here.
	StateAuthenticating State = "authenticating"
	// StateInstructions shows the rules and waits for an acknowledgement.
	StateInstructions State = "instructions"
	// StateInProgress is the timed question flow.
	StateInProgress State = "in_progress"
	// StateResults shows the per-question review and the redirect countdown.
	StateResults State = "results"
	// StateAlreadyAttempted is the informational terminal for a repeat identity.
	StateAlreadyAttempted State = "already_attempted"
	// StateError is the terminal for a failed persist or an internal fault.
	// It offers exactly one way forward: exit.
	StateError State = "error"
	// StateExited means control has returned to the caller.
	StateExited State = "exited"
)

// Event is one input to the session transition function. Timer-driven and
// user-driven transitions share the same entry point.
type Event interface{ isEvent() }

// Authenticate submits the identity entered at the gate.
type Authenticate struct {
	StudentID   string
	StudentName string
}

// Acknowledge confirms the instructions and starts the timed flow.
type Acknowledge struct{}

// Answer selects an option for a question. Earlier selections for other
// questions are retained for the whole session.
type Answer struct {
	QuestionID int
	Option     string
}

// Navigate moves to a question by index (forward, backward, or jump). It
// never touches the timer and never discards answers.
type Navigate struct{ Index int }

// Submit requests grading. A duplicate submit, or a submit racing timer
// expiry, is a no-op.
type Submit struct{}

// Tick advances the active countdown by one second. Outside InProgress and
// Results it does nothing.
type Tick struct{}

// ExitNow short-circuits the redirect countdown, or leaves an informational
// or error terminal.
type ExitNow struct{}

func (Authenticate) isEvent() {}
func (Acknowledge) isEvent()  {}
func (Answer) isEvent()       {}
func (Navigate) isEvent()     {}
func (Submit) isEvent()       {}
func (Tick) isEvent()         {}
func (ExitNow) isEvent()      {}

// QuestionView is the student-facing projection of a question. It never
// carries the correct option or the explanation.
type QuestionView struct {
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	ID       int             `json:"id"`
	Category domain.Category `json:"category"`
	Prompt   string          `json:"prompt"`
	Options  []string        `json:"options"`
	Selected string          `json:"selected,omitempty"`
}

// ReviewRow is one line of the post-submission review.
type ReviewRow struct {
	ID            int             `json:"id"`
	Category      domain.Category `json:"category"`
	Prompt        string          `json:"prompt"`
	Options       []string        `json:"options"`
	Selected      string          `json:"selected,omitempty"`
	Answered      bool            `json:"answered"`
	Correct       bool            `json:"correct"`
	CorrectOption string          `json:"correctOption"`
	Explanation   string          `json:"explanation"`
}

// Snapshot is the externally visible session state after a transition.
type Snapshot struct {
	State            State                 `json:"state"`
	Error            string                `json:"error,omitempty"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	RedirectSeconds  int                   `json:"redirectSeconds"`
	AnsweredCount    int                   `json:"answeredCount"`
	Question         *QuestionView         `json:"question,omitempty"`
	Record           *domain.AttemptRecord `json:"record,omitempty"`
	Review           []ReviewRow           `json:"review,omitempty"`
}

// Session drives one student from the authentication gate through the timed
// question flow, grading, persistence, and exit. All transitions go through
// Apply; the session owns no timers of its own (see Run).
type Session struct {
	mu        sync.Mutex
	cfg       SessionConfig
	questions domain.QuestionSet
	ledger    Ledger
	clock     func() time.Time
	newID     func() string

	state        State
	identity     domain.Identity
	answers      map[int]string
	current      int
	remaining    int
	redirectLeft int
	graded       bool
	record       *domain.AttemptRecord
	failure      string
}

// NewSession returns a session at the authentication gate.
func NewSession(questions domain.QuestionSet, ledger Ledger, cfg SessionConfig) *Session {
	return NewSessionWithClock(questions, ledger, cfg, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(questions domain.QuestionSet, ledger Ledger, cfg SessionConfig, now func() time.Time) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:       cfg,
		questions: questions,
		ledger:    ledger,
		clock:     now,
		newID:     uuid.NewString,
		state:     StateAuthenticating,
		answers:   make(map[int]string),
		remaining: int(cfg.Duration / time.Second),
	}
}

// Terminal reports whether the session accepts no further timer input.
// AlreadyAttempted and Error still accept ExitNow from the user.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return terminal(s.state)
}

func terminal(st State) bool {
	return st == StateExited || st == StateAlreadyAttempted || st == StateError
}

// Snapshot returns the current externally visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Apply feeds one event through the transition function and returns the
// resulting snapshot. Recoverable problems (rejected identity, unknown
// question or option) are returned as errors with the state unchanged; a
// failed persist moves the session to StateError and returns the wrapped
// cause.
func (s *Session) Apply(ctx context.Context, ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch e := ev.(type) {
	case Authenticate:
		err = s.authenticate(ctx, e)
	case Acknowledge:
		if s.state == StateInstructions {
			s.state = StateInProgress
		}
	case Answer:
		err = s.answer(e)
	case Navigate:
		s.navigate(e.Index)
	case Submit:
		if s.state == StateInProgress {
			err = s.finish(ctx)
		}
	case Tick:
		err = s.tick(ctx)
	case ExitNow:
		if s.state == StateResults || terminal(s.state) {
			s.state = StateExited
		}
	}
	return s.snapshotLocked(), err
}

func (s *Session) authenticate(ctx context.Context, e Authenticate) error {
	if s.state != StateAuthenticating {
		return nil
	}
	identity := domain.Identity{StudentID: e.StudentID, StudentName: e.StudentName}.Normalized()
	if err := identity.Validate(); err != nil {
		return err
	}

	attempted, err := s.ledger.HasAttempted(ctx, identity.StudentID)
	if err != nil {
		// Fail open: losing the repeat-attempt guard is preferable to
		// blocking every student behind an unreadable store.
		log.Printf("ledger read failed, proceeding as first attempt: %v", err)
		attempted = false
	}
	s.identity = identity
	if attempted {
		s.state = StateAlreadyAttempted
		return nil
	}
	s.state = StateInstructions
	return nil
}

func (s *Session) answer(e Answer) error {
	if s.state != StateInProgress {
		return nil
	}
	q, ok := s.questions.Question(e.QuestionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	valid := false
	for _, o := range q.Options {
		if o == e.Option {
			valid = true
			break
		}
	}
	if !valid {
		return domain.ErrOptionNotFound
	}
	s.answers[e.QuestionID] = e.Option
	return nil
}

func (s *Session) navigate(index int) {
	if s.state != StateInProgress {
		return
	}
	if index < 0 {
		index = 0
	}
	if max := len(s.questions.Questions) - 1; index > max {
		index = max
	}
	s.current = index
}

func (s *Session) tick(ctx context.Context) error {
	switch s.state {
	case StateInProgress:
		s.remaining--
		if s.remaining <= 0 {
			s.remaining = 0
			return s.finish(ctx)
		}
	case StateResults:
		s.redirectLeft--
		if s.redirectLeft <= 0 {
			s.redirectLeft = 0
			s.state = StateExited
		}
	}
	return nil
}

// finish grades the attempt and appends it to the ledger, exactly once. The
// graded guard makes a duplicate submit, or a timer expiry racing one, a
// no-op.
func (s *Session) finish(ctx context.Context) error {
	if s.graded {
		return nil
	}
	s.graded = true

	correct, percent := gradeAnswers(s.questions, s.answers)
	now := s.clock().UTC()
	record := domain.AttemptRecord{
		RecordID:           s.newID(),
		SchemaVersion:      domain.AttemptSchemaVersion,
		StudentID:          s.identity.StudentID,
		StudentName:        s.identity.StudentName,
		QuizName:           s.cfg.QuizName,
		TotalQuestions:     len(s.questions.Questions),
		CorrectCount:       correct,
		PercentScore:       percent,
		TimeTakenSeconds:   int(s.cfg.Duration/time.Second) - s.remaining,
		CompletedAtUTC:     now,
		CompletedAtDisplay: now.Format("02 Jan 2006, 03:04 PM"),
		Answers:            copyAnswers(s.answers),
		Status:             domain.AttemptStatusCompleted,
	}

	appendCtx, cancel := context.WithTimeout(ctx, s.cfg.AppendTimeout)
	defer cancel()
	if err := s.ledger.Append(appendCtx, record); err != nil {
		// The computed score is discarded: a result that was not durably
		// recorded must never be shown as completed.
		s.state = StateError
		s.failure = "your attempt could not be saved; please contact the admissions office"
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.record = &record
	s.state = StateResults
	s.redirectLeft = int(s.cfg.RedirectWait / time.Second)
	return nil
}

// Fail moves the session to the error terminal with a generic message. The
// transport uses it to convert recovered faults into a state that still
// offers an exit.
func (s *Session) Fail(reason string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateExited {
		s.state = StateError
		if reason == "" {
			reason = "something went wrong; please exit and try again later"
		}
		s.failure = reason
	}
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:            s.state,
		Error:            s.failure,
		RemainingSeconds: s.remaining,
		RedirectSeconds:  s.redirectLeft,
		AnsweredCount:    len(s.answers),
	}
	switch s.state {
	case StateInProgress:
		if len(s.questions.Questions) > 0 {
			q := s.questions.Questions[s.current]
			snap.Question = &QuestionView{
				Index:    s.current,
				Total:    len(s.questions.Questions),
				ID:       q.ID,
				Category: q.Category,
				Prompt:   q.Prompt,
				Options:  q.Options,
				Selected: s.answers[q.ID],
			}
		}
	case StateResults:
		snap.Record = s.record
		snap.Review = s.reviewLocked()
	}
	return snap
}

func (s *Session) reviewLocked() []ReviewRow {
	rows := make([]ReviewRow, 0, len(s.questions.Questions))
	for _, q := range s.questions.Questions {
		selected, answered := s.answers[q.ID]
		rows = append(rows, ReviewRow{
			ID:            q.ID,
			Category:      q.Category,
			Prompt:        q.Prompt,
			Options:       q.Options,
			Selected:      selected,
			Answered:      answered,
			Correct:       answered && selected == q.CorrectOption,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}
	return rows
}

func copyAnswers(answers map[int]string) map[int]string {
	out := make(map[int]string, len(answers))
	for id, option := range answers {
		out[id] = option
	}
	return out
}

// Run drives the session's wall clock, feeding a Tick every interval until
// the session reaches a terminal state or ctx is cancelled. The ticker is
// released on every exit path; after Run returns no further callbacks fire.
func (s *Session) Run(ctx context.Context, interval time.Duration, onTick func(Snapshot)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, _ := s.Apply(ctx, Tick{})
			if onTick != nil {
				onTick(snap)
			}
			if terminal(snap.State) {
				return
			}
		}
	}
}
