package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category labels a question's subject area. The admission test draws from a
// fixed set of eight areas.
type Category string

const (
	CategoryReasoning            Category = "Reasoning"
	CategoryMathematics          Category = "Mathematics"
	CategoryEnglish              Category = "English"
	CategoryDistanceAndDirection Category = "Distance and Direction"
	CategoryPhysics              Category = "Physics"
	CategoryChemistry            Category = "Chemistry"
	CategoryBiology              Category = "Biology"
	CategoryComputerScience      Category = "Computer Science"
)

// Categories lists every valid category label.
var Categories = []Category{
	CategoryReasoning,
	CategoryMathematics,
	CategoryEnglish,
	CategoryDistanceAndDirection,
	CategoryPhysics,
	CategoryChemistry,
	CategoryBiology,
	CategoryComputerScience,
}

// QuestionSpec models one MCQ item with exactly four options, one of which is
// correct. The explanation is shown to the student only after submission.
type QuestionSpec struct {
	ID            int      `json:"id"`
	Category      Category `json:"category"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// QuestionSet is a named, ordered collection of questions, constant for the
// process lifetime once loaded.
type QuestionSet struct {
	Name      string         `json:"name"`
	Questions []QuestionSpec `json:"questions"`
}

// Validate checks the structural invariants of a question set: unique positive
// IDs, known categories, exactly four distinct options, and a correct option
// that is one of them.
func (s QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set %q: no questions", s.Name)
	}
	seen := make(map[int]struct{}, len(s.Questions))
	valid := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		valid[c] = struct{}{}
	}
	for _, q := range s.Questions {
		if q.ID <= 0 {
			return fmt.Errorf("question set %q: question id %d is not positive", s.Name, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question set %q: duplicate question id %d", s.Name, q.ID)
		}
		seen[q.ID] = struct{}{}
		if _, ok := valid[q.Category]; !ok {
			return fmt.Errorf("question %d: unknown category %q", q.ID, q.Category)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("question %d: expected 4 options, got %d", q.ID, len(q.Options))
		}
		opts := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := opts[o]; dup {
				return fmt.Errorf("question %d: duplicate option %q", q.ID, o)
			}
			opts[o] = struct{}{}
		}
		if _, ok := opts[q.CorrectOption]; !ok {
			return fmt.Errorf("question %d: correct option %q is not among the options", q.ID, q.CorrectOption)
		}
	}
	return nil
}

// Question returns the question with the given ID.
func (s QuestionSet) Question(id int) (QuestionSpec, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionSpec{}, false
}

// AttemptSchemaVersion tags persisted attempt records so the shape can evolve
// without guessing at old payloads.
const AttemptSchemaVersion = 1

// AttemptStatusCompleted is the only status an appended record may carry.
const AttemptStatusCompleted = "completed"

// AttemptRecord is the immutable, persisted outcome of one student's quiz run.
// It is created exactly once, at submission time, and never updated or deleted
// by this service. Answers may cover a strict subset of question IDs when time
// ran out before every question was answered.
type AttemptRecord struct {
	RecordID           string         `json:"recordId"`
	SchemaVersion      int            `json:"schemaVersion"`
	StudentID          string         `json:"studentId"`
	StudentName        string         `json:"studentName"`
	QuizName           string         `json:"quizName"`
	TotalQuestions     int            `json:"totalQuestions"`
	CorrectCount       int            `json:"correctCount"`
	PercentScore       int            `json:"percentScore"`
	TimeTakenSeconds   int            `json:"timeTakenSeconds"`
	CompletedAtUTC     time.Time      `json:"completedAtUtc"`
	CompletedAtDisplay string         `json:"completedAtDisplay"`
	Answers            map[int]string `json:"answers"`
	Status             string         `json:"status"`
}

// NormalizeStudentID produces the canonical form used for the
// one-attempt-per-identity comparison: trimmed and lower-cased.
func NormalizeStudentID(studentID string) string {
	return strings.ToLower(strings.TrimSpace(studentID))
}
