package examforge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pageBreak separates the exam body from the answer key in text exports
const pageBreak = "\f"

var optionLetters = map[Language]map[OptionKey]string{
	LanguageHebrew: {
		OptionA: "א",
		OptionB: "ב",
		OptionC: "ג",
		OptionD: "ד",
		OptionE: "ה",
	},
	LanguageEnglish: {
		OptionA: "A",
		OptionB: "B",
		OptionC: "C",
		OptionD: "D",
		OptionE: "E",
	},
}

var answerKeyTitle = map[Language]string{
	LanguageHebrew:  "מפתח תשובות",
	LanguageEnglish: "Answer Key",
}

// OptionLetter returns how key is printed in lang
func OptionLetter(lang Language, key OptionKey) string {
	letters, ok := optionLetters[lang]
	if !ok {
		letters = optionLetters[LanguageHebrew]
	}
	if l, ok := letters[key]; ok {
		return l
	}
	return string(key)
}

// ExamExport is the JSON form of an exam with its answer key
type ExamExport struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Questions   []ExportedQuestion `json:"questions"`
	AnswerKey   map[int]OptionKey  `json:"answer_key"`
}

// ExportedQuestion is one exam question in position order
type ExportedQuestion struct {
	Position    int                  `json:"position"`
	QuestionID  int64                `json:"question_id"`
	Stem        string               `json:"stem"`
	Options     map[OptionKey]string `json:"options"`
	Correct     OptionKey            `json:"correct"`
	Explanation string               `json:"explanation"`
	Difficulty  Difficulty           `json:"difficulty"`
	Topic       string               `json:"topic"`
}

// NewExamExport builds the export document for an exam
func NewExamExport(exam *Exam, questions []ExamQuestion) *ExamExport {
	out := &ExamExport{
		ID:          exam.ID,
		Title:       exam.Title,
		Description: exam.Description,
		Questions:   make([]ExportedQuestion, 0, len(questions)),
		AnswerKey:   make(map[int]OptionKey, len(questions)),
	}
	for _, eq := range questions {
		q := eq.Question
		opts := make(map[OptionKey]string, 5)
		for _, key := range []OptionKey{OptionA, OptionB, OptionC, OptionD, OptionE} {
			if text := q.Option(key); text != "" {
				opts[key] = text
			}
		}
		out.Questions = append(out.Questions, ExportedQuestion{
			Position:    eq.Position,
			QuestionID:  q.ID,
			Stem:        q.Stem,
			Options:     opts,
			Correct:     q.CorrectAnswer,
			Explanation: q.Explanation,
			Difficulty:  q.Difficulty,
			Topic:       q.TopicEnglish,
		})
		out.AnswerKey[eq.Position] = q.CorrectAnswer
	}
	return out
}

// ExportExamJSON renders an exam and its answer key as indented JSON
func ExportExamJSON(exam *Exam, questions []ExamQuestion) ([]byte, error) {
	data, err := json.MarshalIndent(NewExamExport(exam, questions), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exam: %w", err)
	}
	return data, nil
}

// ExportExamText renders a printable exam: numbered stems with lettered
// options, a page break, then the answer key with explanations.
func ExportExamText(exam *Exam, questions []ExamQuestion, lang Language) string {
	var sb strings.Builder

	sb.WriteString(exam.Title)
	sb.WriteString("\n")
	if exam.Description != "" {
		sb.WriteString(exam.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, eq := range questions {
		q := eq.Question
		fmt.Fprintf(&sb, "%d. %s\n", eq.Position, q.Stem)
		for _, key := range []OptionKey{OptionA, OptionB, OptionC, OptionD, OptionE} {
			if text := q.Option(key); text != "" {
				fmt.Fprintf(&sb, "   %s. %s\n", OptionLetter(lang, key), text)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(pageBreak)
	title, ok := answerKeyTitle[lang]
	if !ok {
		title = answerKeyTitle[LanguageHebrew]
	}
	sb.WriteString(title)
	sb.WriteString("\n\n")

	for _, eq := range questions {
		q := eq.Question
		fmt.Fprintf(&sb, "%d. %s\n", eq.Position, OptionLetter(lang, q.CorrectAnswer))
		if q.Explanation != "" {
			fmt.Fprintf(&sb, "   %s\n", strings.ReplaceAll(q.Explanation, "\n", "\n   "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
