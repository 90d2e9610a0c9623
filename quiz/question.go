package quiz

// QuestionsPerQuiz is the batch size requested from the question source.
const QuestionsPerQuiz = 10

// Question is one multiple-choice item. Options already hold the display order.
type Question struct {
	Prompt  string   `json:"prompt"`
	Correct string   `json:"correct"`
	Options []string `json:"options"`
}
