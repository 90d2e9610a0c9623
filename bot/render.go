package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/quizbot/core/telegram/format"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/quiz"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques. Every kind of choice travels under its own unique so an
// answer token can never be mistaken for a menu button.
const (
	UniqueBegin      = "qz_begin"
	UniqueCategory   = "qz_cat"
	UniqueDifficulty = "qz_diff"
	UniqueAnswer     = "qz_ans"
	UniquePlayAgain  = "qz_again"
	UniqueExit       = "qz_exit"
)

const categoriesPerRow = 2

const (
	textWelcome = "🎯 Welcome to the Quiz Game Bot!\n\n" +
		"Test your knowledge across various categories.\n" +
		"Press the button below to start your quiz adventure!"
	textChooseCategory = "🎯 Choose a category:"
	textCancelled      = "Quiz cancelled."
	textGoodbye        = "Thanks for playing! 👋"
	textRestartHint    = "Send /start to try again."

	alertStale       = "Invalid selection, please try again."
	alertUnavailable = "Failed to fetch questions. Please try again later."
	alertNoCategory  = "Category not set. Please restart the quiz."
	alertInternal    = "Something went wrong, please try again."
	alertRateLimited = "Too many requests, please slow down."
)

// View is a rendered screen. Empty Text leaves the current message untouched.
type View struct {
	Text   string
	Markup *tele.ReplyMarkup
	// Alert is shown as a popup when the update is a button press.
	Alert string
}

// Render turns a machine reply into a message.
func Render(r quiz.Reply) View {
	switch r.Screen {
	case quiz.ScreenNone:
		return View{Alert: noticeText(r.Notice)}
	case quiz.ScreenWelcome:
		return View{
			Text:   textWelcome,
			Markup: keyboard.InlineButtons([]keyboard.InlineBtn{{Text: "🎮 Start Quiz!", Unique: UniqueBegin}}),
		}
	case quiz.ScreenCategories:
		return View{Text: textChooseCategory, Markup: categoryMarkup(r.Categories)}
	case quiz.ScreenDifficulty:
		return View{
			Text:   fmt.Sprintf("📚 You chose *%s*\nNow choose a difficulty:", format.MD(r.Category.Name)),
			Markup: difficultyMarkup(r.Difficulties),
		}
	case quiz.ScreenQuestion:
		return View{Text: questionText(r), Markup: answerMarkup(r.Question)}
	case quiz.ScreenFinished:
		var b strings.Builder
		writeFeedback(&b, r.Feedback)
		fmt.Fprintf(&b, "🎉 Quiz Finished!\nYou scored %d/%d.\n\nWant to play again?", r.Score, r.Total)
		return View{
			Text: b.String(),
			Markup: keyboard.InlineButtons([]keyboard.InlineBtn{
				{Text: "🔁 Play Again", Unique: UniquePlayAgain},
				{Text: "❌ Exit", Unique: UniqueExit},
			}),
		}
	case quiz.ScreenCancelled:
		return View{Text: textCancelled}
	case quiz.ScreenGoodbye:
		return View{Text: textGoodbye}
	case quiz.ScreenFailure:
		msg := noticeText(r.Notice)
		return View{Text: format.MD(msg) + "\n" + format.MD(textRestartHint), Alert: msg}
	}
	return View{}
}

func noticeText(n *quiz.Error) string {
	switch {
	case n == nil:
		return ""
	case n.Kind == quiz.CodeStaleSelection:
		return alertStale
	case n.Kind == quiz.CodeSourceUnavailable:
		return alertUnavailable
	case n.Kind == quiz.CodeMissingPrecondition:
		return alertNoCategory
	}
	return alertInternal
}

func categoryMarkup(cats []quiz.Category) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, len(cats))
	for i, c := range cats {
		buttons[i] = keyboard.InlineBtn{Text: c.Name, Unique: UniqueCategory, Data: strconv.Itoa(c.ID)}
	}
	return keyboard.InlineButtonsNPerRow(buttons, categoriesPerRow)
}

func difficultyMarkup(ds []quiz.Difficulty) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, len(ds))
	for i, d := range ds {
		buttons[i] = keyboard.InlineBtn{Text: d.Label(), Unique: UniqueDifficulty, Data: string(d)}
	}
	return keyboard.InlineButtons(buttons)
}

func answerMarkup(q *quiz.QuestionView) *tele.ReplyMarkup {
	if q == nil {
		return nil
	}
	buttons := make([]keyboard.InlineBtn, len(q.Choices))
	for i, ch := range q.Choices {
		buttons[i] = keyboard.InlineBtn{Text: ch.Text, Unique: UniqueAnswer, Data: ch.Token}
	}
	return keyboard.InlineButtons(buttons)
}

func questionText(r quiz.Reply) string {
	var b strings.Builder
	writeFeedback(&b, r.Feedback)
	if q := r.Question; q != nil {
		fmt.Fprintf(&b, "❓ Question %d/%d:\n%s", q.Number, q.Total, format.MD(q.Prompt))
	}
	return b.String()
}

func writeFeedback(b *strings.Builder, fb *quiz.Feedback) {
	if fb == nil {
		return
	}
	if fb.Correct {
		b.WriteString("✅ Correct!")
	} else {
		b.WriteString("❌ Wrong! Correct answer: " + format.MD(fb.Answer))
	}
	b.WriteString("\n\n")
}
