// Package generation produces questions and answers for scraped articles
// through the OpenAI API, in either synchronous or batch mode.
package generation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// QuestionPromptData fills the question generation template
type QuestionPromptData struct {
	Title       string
	Collection  string
	Description string
	Content     string
}

// AnswerPromptData fills the answer generation template
type AnswerPromptData struct {
	Title      string
	Collection string
	Content    string
	Question   string
}

// Prompts holds the parsed generation templates
type Prompts struct {
	questions *template.Template
	answers   *template.Template
}

// LoadPrompts parses question_generation.txt and answer_generation.txt
// from the prompts directory.
func LoadPrompts(dir string) (*Prompts, error) {
	questions, err := loadTemplate(filepath.Join(dir, "question_generation.txt"))
	if err != nil {
		return nil, err
	}
	answers, err := loadTemplate(filepath.Join(dir, "answer_generation.txt"))
	if err != nil {
		return nil, err
	}
	return &Prompts{questions: questions, answers: answers}, nil
}

func loadTemplate(path string) (*template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading prompt %s: %w", path, err)
	}
	tmpl, err := template.New(filepath.Base(path)).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt %s: %w", path, err)
	}
	return tmpl, nil
}

// QuestionPrompt renders the question generation prompt for one article
func (p *Prompts) QuestionPrompt(data QuestionPromptData) (string, error) {
	return render(p.questions, data)
}

// AnswerPrompt renders the answer generation prompt for one question
func (p *Prompts) AnswerPrompt(data AnswerPromptData) (string, error) {
	return render(p.answers, data)
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

// truncateRunes caps a string at n runes; article bodies can exceed what
// a single prompt should carry.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
