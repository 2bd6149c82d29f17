package assessment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	errx "github.com/pamonha-express/server/internal/core/error"
)

// Count is the number of questions in the questionnaire.
const Count = 4

var ErrInvalidAnswer = errors.New("invalid answer")

// Choice is a selectable answer: Label is shown, Value is sent back.
type Choice struct {
	Label string
	Value string
}

// Question is one step of the questionnaire.
type Question struct {
	Number int
	// Label is the text written to the stored document.
	Label string
	// Prompt is what the user sees.
	Prompt  string
	Choices []Choice
	// FreeText questions accept any non-empty answer.
	FreeText bool
}

var questions = [Count]Question{
	{
		Number: 1,
		Label:  "Pergunta 1: Em uma escala de 1 a 5, como você avalia sua satisfação nessa conversa?",
		Prompt: "Obrigado por aceitar responder ao nosso questionário! 😊\n\n*Pergunta 1:* Em uma escala de 1 a 5, como você avalia sua satisfação nessa conversa?",
		Choices: []Choice{
			{Label: "★", Value: "1"},
			{Label: "★★", Value: "2"},
			{Label: "★★★", Value: "3"},
			{Label: "★★★★", Value: "4"},
			{Label: "★★★★★", Value: "5"},
		},
	},
	{
		Number: 2,
		Label:  "Pergunta 2: Você conseguiu realizar o que desejava nesta conversa (ex: ver o cardápio, fazer um pedido, etc.)?",
		Prompt: "Pergunta 2: Você conseguiu realizar o que desejava nesta conversa (ex: ver o cardápio, fazer um pedido, etc.)?",
		Choices: []Choice{
			{Label: "Sim, consegui", Value: "Sim, consegui"},
			{Label: "Parcialmente", Value: "Parcialmente"},
			{Label: "Não consegui", Value: "Não consegui"},
		},
	},
	{
		Number: 3,
		Label:  "Pergunta 3: Em um cenário real, você iria preferir utilizar este chatbot ou um atendimento humano?",
		Prompt: "Pergunta 3: Em um cenário real, você iria preferir utilizar este chatbot ou um atendimento humano?",
		Choices: []Choice{
			{Label: "Usaria este chatbot ou um semelhante", Value: "Usaria o chatbot"},
			{Label: "Ainda prefiro atendimento humano", Value: "Prefiro humano"},
		},
	},
	{
		Number:   4,
		Label:    "Pergunta 4 (Feedback): Para finalizar, você tem alguma sugestão, crítica ou feedback para nos dar sobre sua experiência?",
		Prompt:   "Para finalizar, você tem alguma sugestão, crítica ou feedback sobre sua experiência?",
		FreeText: true,
	},
}

// Lookup returns question n (1-based).
func Lookup(n int) (Question, bool) {
	if n < 1 || n > Count {
		return Question{}, false
	}
	return questions[n-1], true
}

// Questions returns all questions in order.
func Questions() []Question {
	return append([]Question(nil), questions[:]...)
}

// Normalize validates input against the question and returns the value to
// store. Scale answers accept the digit or its star label; closed choices
// accept the value or the label in any case.
func (q Question) Normalize(input string) (string, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return "", errx.Validation(fmt.Errorf("%w: empty answer to question %d", ErrInvalidAnswer, q.Number), "resposta vazia")
	}
	if q.FreeText {
		return in, nil
	}
	if q.Number == 1 {
		if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= 5 {
			return strconv.Itoa(n), nil
		}
		if strings.Trim(in, "★") == "" {
			if n := utf8.RuneCountInString(in); n >= 1 && n <= 5 {
				return strconv.Itoa(n), nil
			}
		}
		return "", errx.Validation(fmt.Errorf("%w: %q is not a 1-5 rating", ErrInvalidAnswer, in), "nota inválida")
	}
	for _, c := range q.Choices {
		if strings.EqualFold(in, c.Value) || strings.EqualFold(in, c.Label) {
			return c.Value, nil
		}
	}
	return "", errx.Validation(fmt.Errorf("%w: %q is not an option of question %d", ErrInvalidAnswer, in, q.Number), "opção inválida")
}
