package examforge

import (
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Language selects the prompt set and the language tag of stored questions
type Language string

const (
	LanguageHebrew  Language = "he"
	LanguageEnglish Language = "en"
)

var supportedLanguages = []Language{LanguageHebrew, LanguageEnglish}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.Hebrew,
	language.English,
})

// ParseLanguage negotiates s (a BCP 47 tag such as "he", "iw" or "en-US")
// against the supported prompt languages. Anything unmatched falls back to Hebrew.
func ParseLanguage(s string) Language {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return LanguageHebrew
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return LanguageHebrew
	}
	return supportedLanguages[idx]
}

// Difficulty of a question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps s to a difficulty, defaulting to medium
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyMedium
	}
}

// BloomLevel is the cognitive demand of a question
type BloomLevel string

const (
	BloomKnowledge     BloomLevel = "knowledge"
	BloomComprehension BloomLevel = "comprehension"
	BloomApplication   BloomLevel = "application"
	BloomAnalysis      BloomLevel = "analysis"
	BloomEvaluation    BloomLevel = "evaluation"
	BloomSynthesis     BloomLevel = "synthesis"
)

// ParseBloomLevel maps s to a Bloom level, defaulting to application
func ParseBloomLevel(s string) BloomLevel {
	switch b := BloomLevel(strings.ToLower(strings.TrimSpace(s))); b {
	case BloomKnowledge, BloomComprehension, BloomApplication,
		BloomAnalysis, BloomEvaluation, BloomSynthesis:
		return b
	default:
		return BloomApplication
	}
}

// Category is the clinical focus of a question
type Category string

const (
	CategoryDiagnosis     Category = "diagnosis"
	CategoryTreatment     Category = "treatment"
	CategoryPharmacology  Category = "pharmacology"
	CategoryAssessment    Category = "assessment"
	CategoryEmergency     Category = "emergency"
	CategoryDevelopment   Category = "development"
	CategoryComorbidity   Category = "comorbidity"
	CategoryPsychotherapy Category = "psychotherapy"
)

// ParseCategory maps s to a category, defaulting to diagnosis
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryDiagnosis, CategoryTreatment, CategoryPharmacology, CategoryAssessment,
		CategoryEmergency, CategoryDevelopment, CategoryComorbidity, CategoryPsychotherapy:
		return c
	default:
		return CategoryDiagnosis
	}
}

// ClinicalTask is an optional hint about what the question should exercise
type ClinicalTask string

const (
	TaskMixed           ClinicalTask = "mixed"
	TaskApply           ClinicalTask = "apply"
	TaskDiscriminate    ClinicalTask = "discriminate"
	TaskDecideUncertain ClinicalTask = "decide_uncertain"
	TaskPrioritize      ClinicalTask = "prioritize"
	TaskIntegrate       ClinicalTask = "integrate"
	TaskEvaluate        ClinicalTask = "evaluate"
	TaskAdapt           ClinicalTask = "adapt"
)

// ParseClinicalTask maps s to a clinical task, defaulting to mixed
func ParseClinicalTask(s string) ClinicalTask {
	switch t := ClinicalTask(strings.ToLower(strings.TrimSpace(s))); t {
	case TaskMixed, TaskApply, TaskDiscriminate, TaskDecideUncertain,
		TaskPrioritize, TaskIntegrate, TaskEvaluate, TaskAdapt:
		return t
	default:
		return TaskMixed
	}
}

// SourceFilter restricts which reference book content is drawn from
type SourceFilter string

const (
	SourcePrimary   SourceFilter = "primary"
	SourceSecondary SourceFilter = "secondary"
	SourceBoth      SourceFilter = "both"
)

// ParseSourceFilter maps s to a filter, defaulting to both books.
// The historical book names are accepted as aliases.
func ParseSourceFilter(s string) SourceFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "synopsis":
		return SourcePrimary
	case "secondary", "dulcan":
		return SourceSecondary
	default:
		return SourceBoth
	}
}

// IncludesPrimary reports whether the primary book is in scope
func (f SourceFilter) IncludesPrimary() bool {
	return f != SourceSecondary
}

// IncludesSecondary reports whether the secondary book is in scope
func (f SourceFilter) IncludesSecondary() bool {
	return f != SourcePrimary
}

// PromptSet holds the fixed instruction text for one language
type PromptSet struct {
	Language Language
	System   string

	NoSubtopics string
	NoContent   string

	user       *template.Template
	difficulty map[Difficulty]string
	bloom      map[BloomLevel]string
	category   map[Category]string
	task       map[ClinicalTask]string
	specLine   string
}

// PromptsFor returns the prompt set for lang; unknown languages get the Hebrew set
func PromptsFor(lang Language) *PromptSet {
	switch lang {
	case LanguageEnglish:
		return englishPrompts
	default:
		return hebrewPrompts
	}
}

// DifficultyText returns the instruction fragment for d
func (p *PromptSet) DifficultyText(d Difficulty) string {
	return p.difficulty[ParseDifficulty(string(d))]
}

// BloomText returns the instruction fragment for b
func (p *PromptSet) BloomText(b BloomLevel) string {
	return p.bloom[ParseBloomLevel(string(b))]
}

// CategoryText returns the instruction fragment for c
func (p *PromptSet) CategoryText(c Category) string {
	return p.category[ParseCategory(string(c))]
}

// TaskText returns the instruction fragment for t
func (p *PromptSet) TaskText(t ClinicalTask) string {
	return p.task[ParseClinicalTask(string(t))]
}

// PromptParams are the values substituted into the user instruction
type PromptParams struct {
	Count        int
	Topic        *Topic
	Subtopics    []Topic
	Content      string
	Difficulty   Difficulty
	BloomLevel   BloomLevel
	Category     Category
	ClinicalTask ClinicalTask
	Specs        []QuestionSpec
}

type promptData struct {
	Count      int
	TopicHE    string
	TopicEN    string
	Chapter    string
	Subtopics  string
	Content    string
	Difficulty string
	Bloom      string
	Category   string
	Task       string
	Specs      string
}

// RenderPrompt builds the user instruction for one generation call
func (p *PromptSet) RenderPrompt(params PromptParams) (string, error) {
	if params.Topic == nil {
		return "", fmt.Errorf("failed to render prompt: topic is required")
	}

	data := promptData{
		Count:      params.Count,
		TopicHE:    params.Topic.Hebrew,
		TopicEN:    params.Topic.English,
		Chapter:    params.Topic.ChapterHE,
		Subtopics:  p.subtopicList(params.Subtopics),
		Content:    params.Content,
		Difficulty: p.DifficultyText(params.Difficulty),
		Bloom:      p.BloomText(params.BloomLevel),
		Category:   p.CategoryText(params.Category),
		Task:       p.TaskText(params.ClinicalTask),
	}
	if p.Language == LanguageEnglish {
		data.Chapter = params.Topic.ChapterEN
	}
	if strings.TrimSpace(data.Content) == "" {
		data.Content = p.NoContent
	}
	if len(params.Specs) > 0 && len(params.Specs) == params.Count {
		data.Specs = p.specList(params.Specs)
	}

	var sb strings.Builder
	if err := p.user.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}

func (p *PromptSet) subtopicList(subtopics []Topic) string {
	if len(subtopics) == 0 {
		return p.NoSubtopics
	}
	var sb strings.Builder
	for i, s := range subtopics {
		if i > 0 {
			sb.WriteString("\n")
		}
		if p.Language == LanguageEnglish {
			sb.WriteString(fmt.Sprintf("- %s (%s)", s.English, s.Hebrew))
		} else {
			sb.WriteString(fmt.Sprintf("- %s (%s)", s.Hebrew, s.English))
		}
	}
	return sb.String()
}

func (p *PromptSet) specList(specs []QuestionSpec) string {
	var sb strings.Builder
	for i, spec := range specs {
		sb.WriteString(fmt.Sprintf(p.specLine,
			i+1,
			ParseDifficulty(string(spec.Difficulty)),
			ParseBloomLevel(string(spec.BloomLevel)),
			ParseCategory(string(spec.Category)),
		))
		sb.WriteString("\n")
	}
	return sb.String()
}
