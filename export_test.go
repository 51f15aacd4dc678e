package examforge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() (*Exam, []ExamQuestion) {
	exam := &Exam{ID: 3, Title: "Mock Board Exam", Description: "Child psychiatry, part 1"}
	questions := []ExamQuestion{
		{Position: 1, Question: Question{
			ID:            11,
			Stem:          "Which diagnosis fits best?",
			OptionA:       "ADHD",
			OptionB:       "GAD",
			OptionC:       "ODD",
			OptionD:       "ASD",
			CorrectAnswer: OptionA,
			Explanation:   "Two settings.\nBefore age 12.",
			Difficulty:    DifficultyMedium,
			TopicEnglish:  "ADHD",
		}},
		{Position: 2, Question: Question{
			ID:            12,
			Stem:          "First-line treatment?",
			OptionA:       "Fluoxetine",
			OptionB:       "Lithium",
			OptionC:       "Clozapine",
			OptionD:       "Haloperidol",
			OptionE:       "Watchful waiting",
			CorrectAnswer: OptionE,
			Difficulty:    DifficultyHard,
			TopicEnglish:  "Depression",
		}},
	}
	return exam, questions
}

func TestOptionLetter(t *testing.T) {
	assert.Equal(t, "א", OptionLetter(LanguageHebrew, OptionA))
	assert.Equal(t, "ה", OptionLetter(LanguageHebrew, OptionE))
	assert.Equal(t, "C", OptionLetter(LanguageEnglish, OptionC))
	assert.Equal(t, "ב", OptionLetter("fr", OptionB))
	assert.Equal(t, "Z", OptionLetter(LanguageEnglish, "Z"))
}

func TestExportExamTextEnglish(t *testing.T) {
	exam, questions := exportFixture()

	want := "Mock Board Exam\n" +
		"Child psychiatry, part 1\n" +
		"\n" +
		"1. Which diagnosis fits best?\n" +
		"   A. ADHD\n" +
		"   B. GAD\n" +
		"   C. ODD\n" +
		"   D. ASD\n" +
		"\n" +
		"2. First-line treatment?\n" +
		"   A. Fluoxetine\n" +
		"   B. Lithium\n" +
		"   C. Clozapine\n" +
		"   D. Haloperidol\n" +
		"   E. Watchful waiting\n" +
		"\n" +
		"\fAnswer Key\n" +
		"\n" +
		"1. A\n" +
		"   Two settings.\n" +
		"   Before age 12.\n" +
		"\n" +
		"2. E\n" +
		"\n"

	assert.Equal(t, want, ExportExamText(exam, questions, LanguageEnglish))
}

func TestExportExamTextHebrew(t *testing.T) {
	exam, questions := exportFixture()
	exam.Description = ""

	text := ExportExamText(exam, questions, LanguageHebrew)
	assert.True(t, strings.HasPrefix(text, "Mock Board Exam\n\n1. "))
	assert.Contains(t, text, "   א. ADHD\n")
	assert.Contains(t, text, "   ה. Watchful waiting\n")

	body, key, found := strings.Cut(text, pageBreak)
	require.True(t, found)
	assert.NotContains(t, body, "מפתח תשובות")
	assert.True(t, strings.HasPrefix(key, "מפתח תשובות\n\n1. א\n"))
	assert.Contains(t, key, "2. ה\n")
}

func TestExportExamTextEmpty(t *testing.T) {
	text := ExportExamText(&Exam{Title: "Empty"}, nil, LanguageEnglish)
	assert.Equal(t, "Empty\n\n\fAnswer Key\n\n", text)
}

func TestExportExamJSON(t *testing.T) {
	exam, questions := exportFixture()

	data, err := ExportExamJSON(exam, questions)
	require.NoError(t, err)

	var doc ExamExport
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, int64(3), doc.ID)
	assert.Equal(t, "Mock Board Exam", doc.Title)
	require.Len(t, doc.Questions, 2)

	first := doc.Questions[0]
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, int64(11), first.QuestionID)
	assert.Len(t, first.Options, 4)
	assert.Equal(t, "ADHD", first.Topic)
	assert.Len(t, doc.Questions[1].Options, 5)

	assert.Equal(t, map[int]OptionKey{1: OptionA, 2: OptionE}, doc.AnswerKey)
	assert.Contains(t, string(data), "\n  \"title\": \"Mock Board Exam\"")
}
