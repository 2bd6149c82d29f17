package assessment

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

const (
	armHeader     = "Tipo de Atendimento: "
	answersHeader = "Respostas do Questionário:"
	answerPrefix  = "Resposta: "
	// Unanswered fills questions that have no stored answer.
	Unanswered = "Não respondida"
)

// Answers holds the answers to questions 1..4 at index 0..3.
type Answers [Count]string

// Document is one stored questionnaire.
type Document struct {
	Arm     string
	Answers Answers
}

func (d *Document) Render() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s%s\n", armHeader, d.Arm)
	b.WriteString(answersHeader + "\n\n")
	for i, q := range questions {
		answer := d.Answers[i]
		if answer == "" {
			answer = Unanswered
		}
		fmt.Fprintf(&b, "%s\n%s%s\n\n", q.Label, answerPrefix, answer)
	}
	return b.Bytes()
}

// Parse reads a document written by Render. A multi-line answer runs until
// the next question label.
func Parse(data []byte) (*Document, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() || !strings.HasPrefix(sc.Text(), armHeader) {
		return nil, fmt.Errorf("missing %q header", strings.TrimSpace(armHeader))
	}
	doc := &Document{Arm: strings.TrimSpace(strings.TrimPrefix(sc.Text(), armHeader))}

	labels := make(map[string]int, Count)
	for i, q := range questions {
		labels[q.Label] = i
	}

	current := -1
	var answer []string
	seen := 0
	flush := func() {
		if current >= 0 {
			doc.Answers[current] = strings.TrimRight(strings.Join(answer, "\n"), "\n")
		}
	}
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if i, ok := labels[line]; ok {
			flush()
			current, answer = i, nil
			seen++
			continue
		}
		if current < 0 {
			continue
		}
		if answer == nil {
			if !strings.HasPrefix(line, answerPrefix) {
				return nil, fmt.Errorf("question %d: expected %q line", current+1, strings.TrimSpace(answerPrefix))
			}
			answer = []string{strings.TrimPrefix(line, answerPrefix)}
			continue
		}
		answer = append(answer, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read assessment: %w", err)
	}
	flush()
	if seen != Count {
		return nil, fmt.Errorf("expected %d questions, found %d", Count, seen)
	}
	return doc, nil
}
