package app

import (
	"math"

	"admission-quiz-service/internal/domain"
)

// gradeAnswers counts, over every question in the set, the answers that match
// the correct option. Unanswered questions count as incorrect, never as an
// error. The percentage is rounded to the nearest integer.
func gradeAnswers(set domain.QuestionSet, answers map[int]string) (correct, percent int) {
	for _, q := range set.Questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectOption {
			correct++
		}
	}
	if total := len(set.Questions); total > 0 {
		percent = int(math.Round(100 * float64(correct) / float64(total)))
	}
	return correct, percent
}
