package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/domain"
	"admission-quiz-service/internal/infra/memory"
)

func TestFullSessionFlow(t *testing.T) {
	ctx := context.Background()
	set := domain.DefaultQuestionSet()
	ledger := memory.NewLedger()
	session := app.NewSession(set, ledger, app.SessionConfig{Duration: 30 * time.Minute})

	snap, err := session.Apply(ctx, app.Authenticate{StudentID: "STU001", StudentName: "Asha Rao"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if snap.State != app.StateInstructions {
		t.Fatalf("expected instructions, got %s", snap.State)
	}

	snap, _ = session.Apply(ctx, app.Acknowledge{})
	if snap.State != app.StateInProgress {
		t.Fatalf("expected in progress, got %s", snap.State)
	}
	if snap.Question == nil || snap.Question.ID != 1 {
		t.Fatalf("expected first question, got %+v", snap.Question)
	}

	// Answer questions 1, 3, and 5 correctly, leave the rest unanswered.
	for _, id := range []int{1, 3, 5} {
		q, ok := set.Question(id)
		if !ok {
			t.Fatalf("question %d missing from set", id)
		}
		if _, err := session.Apply(ctx, app.Answer{QuestionID: id, Option: q.CorrectOption}); err != nil {
			t.Fatalf("answer %d: %v", id, err)
		}
	}

	// 600 seconds elapse before the student submits.
	for i := 0; i < 600; i++ {
		if _, err := session.Apply(ctx, app.Tick{}); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	snap, err = session.Apply(ctx, app.Submit{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if snap.State != app.StateResults {
		t.Fatalf("expected results, got %s", snap.State)
	}
	rec := snap.Record
	if rec == nil {
		t.Fatalf("expected attempt record on results snapshot")
	}
	if rec.CorrectCount != 3 || rec.TotalQuestions != 15 || rec.PercentScore != 20 {
		t.Fatalf("expected 3/15 = 20%%, got %d/%d = %d%%", rec.CorrectCount, rec.TotalQuestions, rec.PercentScore)
	}
	if rec.TimeTakenSeconds != 600 {
		t.Fatalf("expected 600s taken, got %d", rec.TimeTakenSeconds)
	}
	if len(rec.Answers) != 3 {
		t.Fatalf("expected 3 recorded answers, got %d", len(rec.Answers))
	}
	if rec.Status != domain.AttemptStatusCompleted || rec.SchemaVersion != domain.AttemptSchemaVersion {
		t.Fatalf("unexpected record metadata: %+v", rec)
	}
	if len(snap.Review) != 15 {
		t.Fatalf("expected review of all 15 questions, got %d", len(snap.Review))
	}

	stored, err := ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly one ledger record, got %d", len(stored))
	}
}

func TestSecondAttemptShortCircuits(t *testing.T) {
	ctx := context.Background()
	set := domain.DefaultQuestionSet()
	ledger := memory.NewLedger()

	first := app.NewSession(set, ledger, app.SessionConfig{Duration: 5 * time.Second})
	mustAuthenticate(t, first, "STU001", "Asha Rao")
	if _, err := first.Apply(ctx, app.Acknowledge{}); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := first.Apply(ctx, app.Submit{}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Same identity, lower-cased, tries again.
	second := app.NewSession(set, ledger, app.SessionConfig{Duration: 5 * time.Second})
	snap, err := second.Apply(ctx, app.Authenticate{StudentID: "stu001", StudentName: "Asha Rao"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if snap.State != app.StateAlreadyAttempted {
		t.Fatalf("expected already attempted, got %s", snap.State)
	}
	if snap.Question != nil {
		t.Fatalf("no question may be exposed to a repeat identity")
	}

	stored, _ := ledger.ListAll(ctx)
	if len(stored) != 1 {
		t.Fatalf("expected one ledger record, got %d", len(stored))
	}

	// The informational terminal still offers an exit.
	snap, _ = second.Apply(ctx, app.ExitNow{})
	if snap.State != app.StateExited {
		t.Fatalf("expected exited, got %s", snap.State)
	}
}

func TestIdentityValidation(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name      string
		studentID string
		student   string
	}{
		{"short id", "AB", "Asha Rao"},
		{"non-alphanumeric id", "STU-001", "Asha Rao"},
		{"blank id", "   ", "Asha Rao"},
		{"short name", "STU001", "A"},
		{"long name", "STU001", "AaaaaaaaaaBbbbbbbbbbCcccccccccDdddddddddEeeeeeeeeeF"},
	}
	for _, tc := range cases {
		session := app.NewSession(domain.DefaultQuestionSet(), memory.NewLedger(), app.SessionConfig{})
		snap, err := session.Apply(ctx, app.Authenticate{StudentID: tc.studentID, StudentName: tc.student})
		if !domain.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if snap.State != app.StateAuthenticating {
			t.Fatalf("%s: expected to stay at the gate, got %s", tc.name, snap.State)
		}
	}

	// A trimmed-but-valid identity passes.
	session := app.NewSession(domain.DefaultQuestionSet(), memory.NewLedger(), app.SessionConfig{})
	snap, err := session.Apply(ctx, app.Authenticate{StudentID: "  STU001  ", StudentName: "  Asha Rao  "})
	if err != nil {
		t.Fatalf("expected trimmed identity to pass, got %v", err)
	}
	if snap.State != app.StateInstructions {
		t.Fatalf("expected instructions, got %s", snap.State)
	}
}

func TestTimerExpiryForcesSubmission(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	session := startedSession(t, ledger, app.SessionConfig{Duration: 5 * time.Second})

	var snap app.Snapshot
	for i := 0; i < 5; i++ {
		snap, _ = session.Apply(ctx, app.Tick{})
	}
	if snap.State != app.StateResults {
		t.Fatalf("expected expiry to force grading, got %s", snap.State)
	}
	rec := snap.Record
	if rec == nil || rec.CorrectCount != 0 {
		t.Fatalf("expected a zero-score record, got %+v", rec)
	}
	if rec.TimeTakenSeconds != 5 {
		t.Fatalf("expected the full 5s duration taken, got %d", rec.TimeTakenSeconds)
	}

	stored, _ := ledger.ListAll(ctx)
	if len(stored) != 1 {
		t.Fatalf("expected one record, got %d", len(stored))
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := &countingLedger{Ledger: memory.NewLedger()}
	session := startedSession(t, ledger, app.SessionConfig{Duration: 5 * time.Second})

	if _, err := session.Apply(ctx, app.Submit{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := session.Apply(ctx, app.Submit{}); err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}
	// Timer expiry racing an already-processed submit must also be a no-op.
	for i := 0; i < 10; i++ {
		session.Apply(ctx, app.Tick{})
	}
	if ledger.appends != 1 {
		t.Fatalf("expected exactly one append, got %d", ledger.appends)
	}
}

func TestTerminalStatesAbsorbTicks(t *testing.T) {
	ctx := context.Background()
	ledger := &countingLedger{Ledger: memory.NewLedger()}
	session := startedSession(t, ledger, app.SessionConfig{
		Duration:     5 * time.Second,
		RedirectWait: 5 * time.Second,
	})

	snap, _ := session.Apply(ctx, app.Submit{})
	if snap.State != app.StateResults {
		t.Fatalf("expected results, got %s", snap.State)
	}
	if snap.RedirectSeconds != 5 {
		t.Fatalf("expected 5s redirect countdown, got %d", snap.RedirectSeconds)
	}

	// Redirect countdown reaches zero.
	for i := 0; i < 5; i++ {
		snap, _ = session.Apply(ctx, app.Tick{})
	}
	if snap.State != app.StateExited {
		t.Fatalf("expected exited, got %s", snap.State)
	}

	// Further simulated time must not mutate state or touch the ledger.
	for i := 0; i < 100; i++ {
		snap, _ = session.Apply(ctx, app.Tick{})
	}
	if snap.State != app.StateExited {
		t.Fatalf("state mutated after terminal: %s", snap.State)
	}
	if ledger.appends != 1 {
		t.Fatalf("ledger written after terminal: %d appends", ledger.appends)
	}
}

func TestExitNowShortCircuitsRedirect(t *testing.T) {
	ctx := context.Background()
	session := startedSession(t, memory.NewLedger(), app.SessionConfig{Duration: 5 * time.Second})

	if _, err := session.Apply(ctx, app.Submit{}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap, _ := session.Apply(ctx, app.ExitNow{})
	if snap.State != app.StateExited {
		t.Fatalf("expected exited, got %s", snap.State)
	}
}

func TestNavigationKeepsAnswersAndTimer(t *testing.T) {
	ctx := context.Background()
	set := domain.DefaultQuestionSet()
	session := startedSession(t, memory.NewLedger(), app.SessionConfig{Duration: 100 * time.Second})

	q3, _ := set.Question(3)
	if _, err := session.Apply(ctx, app.Answer{QuestionID: 3, Option: q3.CorrectOption}); err != nil {
		t.Fatalf("answer: %v", err)
	}

	snap, _ := session.Apply(ctx, app.Navigate{Index: 2})
	if snap.Question == nil || snap.Question.ID != 3 {
		t.Fatalf("expected question 3 at index 2, got %+v", snap.Question)
	}
	if snap.Question.Selected != q3.CorrectOption {
		t.Fatalf("expected retained selection, got %q", snap.Question.Selected)
	}

	// Jumping around never resets the countdown.
	before := snap.RemainingSeconds
	snap, _ = session.Apply(ctx, app.Navigate{Index: 14})
	if snap.RemainingSeconds != before {
		t.Fatalf("navigation changed the timer: %d -> %d", before, snap.RemainingSeconds)
	}

	// Out-of-range jumps clamp instead of failing.
	snap, _ = session.Apply(ctx, app.Navigate{Index: 99})
	if snap.Question == nil || snap.Question.Index != 14 {
		t.Fatalf("expected clamp to last question, got %+v", snap.Question)
	}
}

func TestAnswerRejectsUnknownQuestionOrOption(t *testing.T) {
	ctx := context.Background()
	session := startedSession(t, memory.NewLedger(), app.SessionConfig{})

	if _, err := session.Apply(ctx, app.Answer{QuestionID: 999, Option: "42"}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if _, err := session.Apply(ctx, app.Answer{QuestionID: 1, Option: "not an option"}); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
}

func TestAppendFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	ledger := &failingLedger{}
	session := startedSession(t, ledger, app.SessionConfig{Duration: 5 * time.Second})

	snap, err := session.Apply(ctx, app.Submit{})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if snap.State != app.StateError {
		t.Fatalf("expected error terminal, got %s", snap.State)
	}
	// The unpersisted score must never be shown.
	if snap.Record != nil {
		t.Fatalf("record leaked on failed persist: %+v", snap.Record)
	}
	if snap.Error == "" {
		t.Fatalf("expected a user-facing message")
	}

	// The only way forward is out.
	snap, _ = session.Apply(ctx, app.ExitNow{})
	if snap.State != app.StateExited {
		t.Fatalf("expected exited, got %s", snap.State)
	}
}

func TestUnreadableLedgerFailsOpen(t *testing.T) {
	ctx := context.Background()
	session := app.NewSession(domain.DefaultQuestionSet(), &failingLedger{}, app.SessionConfig{})

	snap, err := session.Apply(ctx, app.Authenticate{StudentID: "STU001", StudentName: "Asha Rao"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if snap.State != app.StateInstructions {
		t.Fatalf("expected fail-open admission, got %s", snap.State)
	}
}

func TestGradingRoundsPercent(t *testing.T) {
	ctx := context.Background()
	set := domain.QuestionSet{
		Name: "tiny",
		Questions: []domain.QuestionSpec{
			{ID: 1, Category: domain.CategoryMathematics, Prompt: "1+1?", Options: []string{"1", "2", "3", "4"}, CorrectOption: "2"},
			{ID: 2, Category: domain.CategoryMathematics, Prompt: "2+2?", Options: []string{"1", "2", "3", "4"}, CorrectOption: "4"},
			{ID: 3, Category: domain.CategoryMathematics, Prompt: "3+0?", Options: []string{"1", "2", "3", "4"}, CorrectOption: "3"},
		},
	}
	ledger := memory.NewLedger()
	session := app.NewSession(set, ledger, app.SessionConfig{Duration: 5 * time.Second})
	mustAuthenticate(t, session, "STU002", "Ravi Kumar")
	session.Apply(ctx, app.Acknowledge{})
	session.Apply(ctx, app.Answer{QuestionID: 1, Option: "2"})

	snap, err := session.Apply(ctx, app.Submit{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// 1 of 3 is 33.33..., rounded to 33.
	if snap.Record.CorrectCount != 1 || snap.Record.PercentScore != 33 {
		t.Fatalf("expected 1/3 = 33%%, got %d -> %d%%", snap.Record.CorrectCount, snap.Record.PercentScore)
	}
}

func TestRunStopsAfterTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger := &countingLedger{Ledger: memory.NewLedger()}
	session := startedSession(t, ledger, app.SessionConfig{
		Duration:     2 * time.Second,
		RedirectWait: 1 * time.Second,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.Run(ctx, time.Millisecond, nil)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop after the session exited")
	}
	if !session.Terminal() {
		t.Fatalf("expected terminal session, got %s", session.Snapshot().State)
	}
	if ledger.appends != 1 {
		t.Fatalf("expected one append, got %d", ledger.appends)
	}
}

// startedSession authenticates and acknowledges so the quiz is in progress.
func startedSession(t *testing.T, ledger app.Ledger, cfg app.SessionConfig) *app.Session {
	t.Helper()
	session := app.NewSession(domain.DefaultQuestionSet(), ledger, cfg)
	mustAuthenticate(t, session, "STU001", "Asha Rao")
	if _, err := session.Apply(context.Background(), app.Acknowledge{}); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	return session
}

func mustAuthenticate(t *testing.T, session *app.Session, id, name string) {
	t.Helper()
	snap, err := session.Apply(context.Background(), app.Authenticate{StudentID: id, StudentName: name})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if snap.State != app.StateInstructions {
		t.Fatalf("expected instructions after authenticate, got %s", snap.State)
	}
}

// countingLedger counts appends on top of a real ledger.
type countingLedger struct {
	app.Ledger
	appends int
}

func (l *countingLedger) Append(ctx context.Context, rec domain.AttemptRecord) error {
	l.appends++
	return l.Ledger.Append(ctx, rec)
}

// failingLedger fails every operation.
type failingLedger struct{}

func (failingLedger) HasAttempted(context.Context, string) (bool, error) {
	return false, errors.New("store unreadable")
}

func (failingLedger) Append(context.Context, domain.AttemptRecord) error {
	return errors.New("disk full")
}

func (failingLedger) ListAll(context.Context) ([]domain.AttemptRecord, error) {
	return nil, errors.New("store unreadable")
}

func (failingLedger) Subscribe() (<-chan domain.AttemptRecord, func()) {
	ch := make(chan domain.AttemptRecord)
	close(ch)
	return ch, func() {}
}
