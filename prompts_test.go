package examforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnumsDefaultOnUnknown(t *testing.T) {
	assert.Equal(t, DifficultyHard, ParseDifficulty(" HARD "))
	assert.Equal(t, DifficultyMedium, ParseDifficulty("extreme"))
	assert.Equal(t, DifficultyMedium, ParseDifficulty(""))

	assert.Equal(t, BloomSynthesis, ParseBloomLevel("synthesis"))
	assert.Equal(t, BloomApplication, ParseBloomLevel("create"))

	assert.Equal(t, CategoryEmergency, ParseCategory("Emergency"))
	assert.Equal(t, CategoryDiagnosis, ParseCategory("ethics"))

	assert.Equal(t, TaskPrioritize, ParseClinicalTask("prioritize"))
	assert.Equal(t, TaskMixed, ParseClinicalTask("unknown"))

	assert.Equal(t, SourcePrimary, ParseSourceFilter("synopsis"))
	assert.Equal(t, SourceSecondary, ParseSourceFilter("dulcan"))
	assert.Equal(t, SourceBoth, ParseSourceFilter(""))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LanguageEnglish, ParseLanguage("en"))
	assert.Equal(t, LanguageEnglish, ParseLanguage("en-US"))
	assert.Equal(t, LanguageHebrew, ParseLanguage("he"))
	assert.Equal(t, LanguageHebrew, ParseLanguage("he-IL"))
	assert.Equal(t, LanguageHebrew, ParseLanguage(""))
	assert.Equal(t, LanguageHebrew, ParseLanguage("not a tag!"))
}

func TestSourceFilterScope(t *testing.T) {
	assert.True(t, SourceBoth.IncludesPrimary())
	assert.True(t, SourceBoth.IncludesSecondary())
	assert.True(t, SourcePrimary.IncludesPrimary())
	assert.False(t, SourcePrimary.IncludesSecondary())
	assert.False(t, SourceSecondary.IncludesPrimary())
}

func TestPromptsForFallsBackToHebrew(t *testing.T) {
	assert.Equal(t, LanguageEnglish, PromptsFor(LanguageEnglish).Language)
	assert.Equal(t, LanguageHebrew, PromptsFor(LanguageHebrew).Language)
	assert.Equal(t, LanguageHebrew, PromptsFor("ar").Language)
}

func TestPromptTablesAreComplete(t *testing.T) {
	for _, p := range []*PromptSet{englishPrompts, hebrewPrompts} {
		for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
			assert.NotEmpty(t, p.DifficultyText(d), "%s %s", p.Language, d)
		}
		for _, b := range []BloomLevel{BloomKnowledge, BloomComprehension, BloomApplication, BloomAnalysis, BloomEvaluation, BloomSynthesis} {
			assert.NotEmpty(t, p.BloomText(b), "%s %s", p.Language, b)
		}
		for _, c := range []Category{CategoryDiagnosis, CategoryTreatment, CategoryPharmacology, CategoryAssessment,
			CategoryEmergency, CategoryDevelopment, CategoryComorbidity, CategoryPsychotherapy} {
			assert.NotEmpty(t, p.CategoryText(c), "%s %s", p.Language, c)
		}
		for _, task := range []ClinicalTask{TaskMixed, TaskApply, TaskDiscriminate, TaskDecideUncertain,
			TaskPrioritize, TaskIntegrate, TaskEvaluate, TaskAdapt} {
			assert.NotEmpty(t, p.TaskText(task), "%s %s", p.Language, task)
		}
		assert.NotEmpty(t, p.System)
		assert.NotEmpty(t, p.NoSubtopics)
		assert.NotEmpty(t, p.NoContent)
	}
}

func TestUnknownKeyUsesBaselineText(t *testing.T) {
	p := PromptsFor(LanguageEnglish)
	assert.Equal(t, p.BloomText(BloomApplication), p.BloomText("create"))
	assert.Equal(t, p.DifficultyText(DifficultyMedium), p.DifficultyText("brutal"))
	assert.Equal(t, p.CategoryText(CategoryDiagnosis), p.CategoryText("ethics"))
}

func testTopic() *Topic {
	parent := int64(1)
	return &Topic{
		ID:          10,
		ChapterCode: "A",
		ChapterEN:   "Neurodevelopmental Disorders",
		ChapterHE:   "הפרעות נוירו-התפתחותיות",
		Level:       2,
		Hebrew:      "הפרעת קשב",
		English:     "ADHD",
		ParentID:    &parent,
	}
}

func TestRenderPromptEnglish(t *testing.T) {
	p := PromptsFor(LanguageEnglish)
	prompt, err := p.RenderPrompt(PromptParams{
		Count:      3,
		Topic:      testTopic(),
		Subtopics:  []Topic{{Hebrew: "אבחנה", English: "Diagnosis"}, {Hebrew: "טיפול", English: "Treatment"}},
		Content:    "--- Page 12 ---\nADHD text",
		Difficulty: DifficultyHard,
		BloomLevel: BloomAnalysis,
		Category:   CategoryTreatment,
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Write 3 board-level MCQs on: ADHD (הפרעת קשב)")
	assert.Contains(t, prompt, "## Chapter: Neurodevelopmental Disorders")
	assert.Contains(t, prompt, "- Diagnosis (אבחנה)\n- Treatment (טיפול)")
	assert.Contains(t, prompt, "--- Page 12 ---\nADHD text")
	assert.Contains(t, prompt, p.DifficultyText(DifficultyHard))
	assert.Contains(t, prompt, p.BloomText(BloomAnalysis))
	assert.Contains(t, prompt, p.CategoryText(CategoryTreatment))
	assert.Contains(t, prompt, p.TaskText(TaskMixed))
	assert.NotContains(t, prompt, "Per-question settings")
}

func TestRenderPromptPlaceholders(t *testing.T) {
	p := PromptsFor(LanguageHebrew)
	prompt, err := p.RenderPrompt(PromptParams{Count: 1, Topic: testTopic()})
	require.NoError(t, err)

	assert.Contains(t, prompt, p.NoSubtopics)
	assert.Contains(t, prompt, p.NoContent)
	assert.Contains(t, prompt, "הפרעות נוירו-התפתחותיות")
}

func TestRenderPromptSpecsOnlyWhenCountMatches(t *testing.T) {
	p := PromptsFor(LanguageEnglish)
	specs := []QuestionSpec{
		{Difficulty: DifficultyEasy, BloomLevel: BloomKnowledge, Category: CategoryAssessment},
		{Difficulty: "odd", BloomLevel: BloomEvaluation, Category: CategoryEmergency},
	}

	prompt, err := p.RenderPrompt(PromptParams{Count: 2, Topic: testTopic(), Specs: specs})
	require.NoError(t, err)
	assert.Contains(t, prompt, "1. difficulty: easy, Bloom level: knowledge, category: assessment")
	assert.Contains(t, prompt, "2. difficulty: medium, Bloom level: evaluation, category: emergency")

	prompt, err = p.RenderPrompt(PromptParams{Count: 3, Topic: testTopic(), Specs: specs})
	require.NoError(t, err)
	assert.False(t, strings.Contains(prompt, "Per-question settings"))
}

func TestRenderPromptRequiresTopic(t *testing.T) {
	_, err := PromptsFor(LanguageEnglish).RenderPrompt(PromptParams{Count: 1})
	assert.Error(t, err)
}
