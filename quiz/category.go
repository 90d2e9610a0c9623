package quiz

import "strings"

// Category is a selectable trivia topic.
type Category struct {
	ID   int
	Name string
}

var categories = []Category{
	{ID: 9, Name: "General Knowledge"},
	{ID: 10, Name: "Books"},
	{ID: 11, Name: "Film"},
	{ID: 12, Name: "Music"},
	{ID: 17, Name: "Science & Nature"},
	{ID: 18, Name: "Computers"},
	{ID: 19, Name: "Mathematics"},
	{ID: 20, Name: "Mythology"},
	{ID: 21, Name: "Sports"},
	{ID: 22, Name: "Geography"},
	{ID: 23, Name: "History"},
	{ID: 24, Name: "Politics"},
	{ID: 25, Name: "Art"},
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// VisibleCategories returns the first limit categories; limit <= 0 returns all.
func VisibleCategories(limit int) []Category {
	all := Categories()
	if limit <= 0 || limit >= len(all) {
		return all
	}
	return all[:limit]
}

// CategoryByID looks a category up among the given set.
func CategoryByID(set []Category, id int) (Category, bool) {
	for _, c := range set {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Difficulty is the question difficulty accepted by the question source.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the selectable difficulties in display order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty accepts a difficulty name in any case.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, true
	}
	return "", false
}

// Label is the button caption, e.g. "Easy".
func (d Difficulty) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}
