package examforge

import "time"

// OptionKey is the letter of a multiple choice option
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
	OptionE OptionKey = "E"
)

// AnswerKeys are the four options every question must carry
var AnswerKeys = []OptionKey{OptionA, OptionB, OptionC, OptionD}

// IsAnswerKey reports whether k is one of A-D
func IsAnswerKey(k OptionKey) bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// QuestionDraft is a generated question as returned by the generation service,
// before it is persisted for review.
type QuestionDraft struct {
	Stem          string               `json:"stem"`
	Options       map[OptionKey]string `json:"options"`
	Correct       OptionKey            `json:"correct"`
	Explanation   string               `json:"explanation"`
	Difficulty    Difficulty           `json:"difficulty"`
	BloomLevel    BloomLevel           `json:"bloom_level"`
	Category      Category             `json:"category"`
	ClinicalPearl string               `json:"clinical_pearl"`
	KeyTakeaway   string               `json:"key_takeaway"`
	PatientAge    int                  `json:"patient_age"`
	PatientGender string               `json:"patient_gender"`
}

// Option returns the text for key, or "" when the option is absent
func (d QuestionDraft) Option(key OptionKey) string {
	if d.Options == nil {
		return ""
	}
	return d.Options[key]
}

// QuestionStatus represents the review workflow state of a stored question
type QuestionStatus string

const (
	StatusDraft    QuestionStatus = "draft"
	StatusReview   QuestionStatus = "review"
	StatusApproved QuestionStatus = "approved"
	StatusRejected QuestionStatus = "rejected"
)

// ParseQuestionStatus returns the status for s and whether it is a known workflow state
func ParseQuestionStatus(s string) (QuestionStatus, bool) {
	switch QuestionStatus(s) {
	case StatusDraft, StatusReview, StatusApproved, StatusRejected:
		return QuestionStatus(s), true
	}
	return "", false
}

// Question is the persisted form of a draft
type Question struct {
	ID            int64          `json:"id"`
	TopicID       int64          `json:"topic_id"`
	Stem          string         `json:"stem"`
	OptionA       string         `json:"option_a"`
	OptionB       string         `json:"option_b"`
	OptionC       string         `json:"option_c"`
	OptionD       string         `json:"option_d"`
	OptionE       string         `json:"option_e"`
	CorrectAnswer OptionKey      `json:"correct_answer"`
	Explanation   string         `json:"explanation"`
	Difficulty    Difficulty     `json:"difficulty"`
	BloomLevel    BloomLevel     `json:"bloom_level"`
	Category      Category       `json:"category"`
	Status        QuestionStatus `json:"status"`
	Language      Language       `json:"language"`
	SourceInfo    string         `json:"source_info"`
	SourceQuote   string         `json:"source_quote"`
	SourceBook    string         `json:"source_book"`
	SourcePage    *int           `json:"source_page,omitempty"`
	PatientAge    int            `json:"patient_age"`
	PatientGender string         `json:"patient_gender"`
	AIGenerated   bool           `json:"ai_generated"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Filled by joins on listing queries
	TopicHebrew  string `json:"topic_he,omitempty"`
	TopicEnglish string `json:"topic_en,omitempty"`
}

// Option returns the text stored for key
func (q *Question) Option(key OptionKey) string {
	switch key {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	case OptionE:
		return q.OptionE
	}
	return ""
}

// Draft converts a stored question back into the shape the validator reads
func (q *Question) Draft() QuestionDraft {
	opts := map[OptionKey]string{
		OptionA: q.OptionA,
		OptionB: q.OptionB,
		OptionC: q.OptionC,
		OptionD: q.OptionD,
	}
	if q.OptionE != "" {
		opts[OptionE] = q.OptionE
	}
	return QuestionDraft{
		Stem:          q.Stem,
		Options:       opts,
		Correct:       q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
		BloomLevel:    q.BloomLevel,
		Category:      q.Category,
		PatientAge:    q.PatientAge,
		PatientGender: q.PatientGender,
	}
}

// Topic is a syllabus node. Level 2 rows are topics, level 3 rows are their subtopics.
type Topic struct {
	ID          int64  `json:"id"`
	ChapterCode string `json:"chapter_code"`
	ChapterEN   string `json:"chapter_en"`
	ChapterHE   string `json:"chapter_he"`
	Level       int    `json:"level"`
	Hebrew      string `json:"hebrew"`
	English     string `json:"english"`
	ParentID    *int64 `json:"parent_id,omitempty"`
	Notes       string `json:"notes"`
}

// TopicMapping maps a topic onto page ranges of the two reference books
type TopicMapping struct {
	TopicID             int64  `json:"topic_id"`
	PrimaryPages        string `json:"primary_pages"`
	PrimaryTitles       string `json:"primary_titles"`
	PrimaryPageCount    int    `json:"primary_page_count"`
	PrimaryConfidence   string `json:"primary_confidence"`
	SecondaryPages      string `json:"secondary_pages"`
	SecondaryTitles     string `json:"secondary_titles"`
	SecondaryPageCount  int    `json:"secondary_page_count"`
	SecondaryConfidence string `json:"secondary_confidence"`
	SearchTerms         string `json:"search_terms"`
}

// Exam is an ordered selection of reviewed questions
type Exam struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExamQuestion is a question at a 1-based position within an exam
type ExamQuestion struct {
	Position int      `json:"position"`
	Question Question `json:"question"`
}

// GenerationLog is the audit row written once per generation batch
type GenerationLog struct {
	ID               int64     `json:"id"`
	TopicID          int64     `json:"topic_id"`
	PromptUsed       string    `json:"prompt_used"`
	RawResponse      string    `json:"raw_response"`
	QuestionsCreated int       `json:"questions_created"`
	ModelUsed        string    `json:"model_used"`
	TokensUsed       int       `json:"tokens_used"`
	CreatedAt        time.Time `json:"created_at"`
}

// QuestionSpec pins difficulty, Bloom level and category for one question of a batch
type QuestionSpec struct {
	Difficulty Difficulty `json:"difficulty"`
	BloomLevel BloomLevel `json:"bloom_level"`
	Category   Category   `json:"category"`
}

// GenerateRequest represents a request to generate questions for a topic
type GenerateRequest struct {
	TopicID      int64          `json:"topic_id" validate:"required,gt=0"`
	Count        int            `json:"count" validate:"min=0,max=20"`
	Difficulty   Difficulty     `json:"difficulty"`
	SubtopicIDs  []int64        `json:"subtopic_ids,omitempty" validate:"omitempty,dive,gt=0"`
	BloomLevel   BloomLevel     `json:"bloom_level"`
	Category     Category       `json:"category"`
	Language     Language       `json:"language"`
	ClinicalTask ClinicalTask   `json:"clinical_task,omitempty"`
	Source       SourceFilter   `json:"source,omitempty"`
	Specs        []QuestionSpec `json:"specs,omitempty" validate:"max=20"`
}
