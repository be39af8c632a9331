package domain

// DefaultQuestionSetName is the question set used when no external bank is
// configured.
const DefaultQuestionSetName = "admission-aptitude"

// DefaultQuizName labels attempt records produced from the default set.
const DefaultQuizName = "Admission Aptitude Test"

// DefaultQuestionSet returns the built-in 15-question admission aptitude set
// covering all eight categories. The set satisfies Validate by construction.
func DefaultQuestionSet() QuestionSet {
	return QuestionSet{
		Name: DefaultQuestionSetName,
		Questions: []QuestionSpec{
			{
				ID:            1,
				Category:      CategoryReasoning,
				Prompt:        "Find the next number in the series: 2, 6, 12, 20, 30, ?",
				Options:       []string{"36", "40", "42", "44"},
				CorrectOption: "42",
				Explanation:   "The differences grow by 2 each step (4, 6, 8, 10, 12), so the next term is 30 + 12 = 42.",
			},
			{
				ID:            2,
				Category:      CategoryReasoning,
				Prompt:        "All roses are flowers. Some flowers fade quickly. Which conclusion must be true?",
				Options:       []string{"All roses fade quickly", "Some roses fade quickly", "No rose fades quickly", "None of the conclusions follows"},
				CorrectOption: "None of the conclusions follows",
				Explanation:   "The flowers that fade quickly need not include any roses, so nothing about roses can be concluded.",
			},
			{
				ID:            3,
				Category:      CategoryMathematics,
				Prompt:        "A shopkeeper sells an item for 540 after a 10% discount on the marked price. What was the marked price?",
				Options:       []string{"594", "600", "610", "620"},
				CorrectOption: "600",
				Explanation:   "Selling price is 90% of the marked price, so the marked price is 540 / 0.9 = 600.",
			},
			{
				ID:            4,
				Category:      CategoryMathematics,
				Prompt:        "If x + 1/x = 4, what is x² + 1/x²?",
				Options:       []string{"12", "14", "16", "18"},
				CorrectOption: "14",
				Explanation:   "Squaring gives x² + 2 + 1/x² = 16, so x² + 1/x² = 14.",
			},
			{
				ID:            5,
				Category:      CategoryEnglish,
				Prompt:        "Choose the word closest in meaning to \"candid\".",
				Options:       []string{"Secretive", "Frank", "Hesitant", "Polished"},
				CorrectOption: "Frank",
				Explanation:   "Candid means truthful and straightforward, which matches frank.",
			},
			{
				ID:            6,
				Category:      CategoryEnglish,
				Prompt:        "Identify the grammatically correct sentence.",
				Options:       []string{"Neither of the answers are correct", "Neither of the answers is correct", "Neither of the answer is correct", "Neither of the answers were correct"},
				CorrectOption: "Neither of the answers is correct",
				Explanation:   "\"Neither\" is singular, so it takes the singular verb \"is\".",
			},
			{
				ID:            7,
				Category:      CategoryDistanceAndDirection,
				Prompt:        "Ravi walks 3 km north, turns right and walks 4 km. How far is he from his starting point?",
				Options:       []string{"3 km", "4 km", "5 km", "7 km"},
				CorrectOption: "5 km",
				Explanation:   "The two legs are perpendicular, so the displacement is the hypotenuse: sqrt(3² + 4²) = 5 km.",
			},
			{
				ID:            8,
				Category:      CategoryDistanceAndDirection,
				Prompt:        "A man facing west turns 135° clockwise. Which direction is he facing now?",
				Options:       []string{"North-East", "South-East", "North-West", "South-West"},
				CorrectOption: "North-East",
				Explanation:   "From west, 90° clockwise faces north and a further 45° faces north-east.",
			},
			{
				ID:            9,
				Category:      CategoryPhysics,
				Prompt:        "A body moving at constant velocity has:",
				Options:       []string{"Zero net force acting on it", "Constantly increasing force", "Zero velocity", "Constant nonzero acceleration"},
				CorrectOption: "Zero net force acting on it",
				Explanation:   "By Newton's first law, constant velocity means no net external force.",
			},
			{
				ID:            10,
				Category:      CategoryPhysics,
				Prompt:        "Which quantity is measured in joules?",
				Options:       []string{"Power", "Force", "Energy", "Pressure"},
				CorrectOption: "Energy",
				Explanation:   "The joule is the SI unit of energy and work; power is watts, force newtons, pressure pascals.",
			},
			{
				ID:            11,
				Category:      CategoryChemistry,
				Prompt:        "What is the chemical formula of common salt?",
				Options:       []string{"NaCl", "KCl", "NaOH", "CaCl₂"},
				CorrectOption: "NaCl",
				Explanation:   "Common table salt is sodium chloride, NaCl.",
			},
			{
				ID:            12,
				Category:      CategoryChemistry,
				Prompt:        "An aqueous solution with pH 3 is:",
				Options:       []string{"Strongly basic", "Neutral", "Acidic", "Weakly basic"},
				CorrectOption: "Acidic",
				Explanation:   "pH below 7 indicates an acidic solution; pH 3 is well into the acidic range.",
			},
			{
				ID:            13,
				Category:      CategoryBiology,
				Prompt:        "Which organelle is known as the powerhouse of the cell?",
				Options:       []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi apparatus"},
				CorrectOption: "Mitochondrion",
				Explanation:   "Mitochondria carry out cellular respiration and produce most of the cell's ATP.",
			},
			{
				ID:            14,
				Category:      CategoryComputerScience,
				Prompt:        "What is the binary representation of the decimal number 13?",
				Options:       []string{"1011", "1101", "1110", "1001"},
				CorrectOption: "1101",
				Explanation:   "13 = 8 + 4 + 1, which sets the 8, 4 and 1 bits: 1101.",
			},
			{
				ID:            15,
				Category:      CategoryComputerScience,
				Prompt:        "Which data structure works on the Last-In-First-Out principle?",
				Options:       []string{"Queue", "Stack", "Linked list", "Binary tree"},
				CorrectOption: "Stack",
				Explanation:   "A stack pushes and pops at the same end, so the most recently added element leaves first.",
			},
		},
	}
}
