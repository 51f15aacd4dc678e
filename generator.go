package examforge

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxPromptLogChars   = 2000
	maxResponseLogChars = 5000

	contentHint = "ensure the book files were uploaded and the topic has a page mapping"
)

// Store is the persistence the generator needs
type Store interface {
	GetTopic(ctx context.Context, id int64) (*Topic, error)
	GetSubtopics(ctx context.Context, parentID int64, ids []int64) ([]Topic, error)
	GetTopicMapping(ctx context.Context, topic *Topic) (*TopicMapping, error)
	TopicStems(ctx context.Context, topicID int64) ([]StoredStem, error)
	SaveGeneration(ctx context.Context, entry *GenerationLog, questions []*Question) ([]int64, error)
}

// GenerationResult is the outcome of one generation batch
type GenerationResult struct {
	RunID      string           `json:"run_id"`
	IDs        []int64          `json:"ids"`
	Report     BatchReport      `json:"report"`
	Duplicates []DuplicateMatch `json:"duplicates"`
	Model      string           `json:"model"`
	TokensUsed int              `json:"tokens_used"`
	LogID      int64            `json:"log_id"`
}

// Generator turns a generation request into persisted draft questions
type Generator struct {
	store     Store
	content   ContentRetriever
	completer Completer
	dedup     *QuestionDedup
	validate  *validator.Validate
	cfg       Config
}

// NewGenerator creates a generator over the given collaborators
func NewGenerator(cfg Config, store Store, content ContentRetriever, completer Completer) *Generator {
	if content == nil {
		content = UnavailableContent{}
	}
	return &Generator{
		store:     store,
		content:   content,
		completer: completer,
		dedup:     NewQuestionDedup(0),
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// normalize applies defaults and maps unknown enum values to their baselines
func (g *Generator) normalize(req GenerateRequest) GenerateRequest {
	if req.Count == 0 {
		req.Count = g.cfg.DefaultQuestionCount
	}
	req.Difficulty = ParseDifficulty(string(req.Difficulty))
	req.BloomLevel = ParseBloomLevel(string(req.BloomLevel))
	req.Category = ParseCategory(string(req.Category))
	req.ClinicalTask = ParseClinicalTask(string(req.ClinicalTask))
	req.Language = ParseLanguage(string(req.Language))
	req.Source = ParseSourceFilter(string(req.Source))
	return req
}

// Generate runs one batch: resolve topic and material, call the generation
// service, validate every draft and persist the batch with its audit row.
// Validator findings never block persistence. A response that cannot be
// parsed persists nothing.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	req = g.normalize(req)
	if err := g.validate.Struct(req); err != nil {
		return nil, newGenerationError(ErrInvalidRequest, err, "invalid generation request")
	}

	topic, err := g.store.GetTopic(ctx, req.TopicID)
	if err != nil {
		if ErrorKind(err) == ErrNotFound {
			return nil, newGenerationError(ErrNotFound, err, "topic %d not found", req.TopicID)
		}
		return nil, fmt.Errorf("failed to resolve topic: %w", err)
	}

	subtopics, err := g.store.GetSubtopics(ctx, topic.ID, req.SubtopicIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subtopics: %w", err)
	}

	content, err := g.resolveContent(ctx, topic, req.Source)
	if err != nil {
		return nil, err
	}

	prompts := PromptsFor(req.Language)
	prompt, err := prompts.RenderPrompt(PromptParams{
		Count:        req.Count,
		Topic:        topic,
		Subtopics:    subtopics,
		Content:      content,
		Difficulty:   req.Difficulty,
		BloomLevel:   req.BloomLevel,
		Category:     req.Category,
		ClinicalTask: req.ClinicalTask,
		Specs:        req.Specs,
	})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	runLog, err := NewLLMLogger(g.cfg.LogDir, runID, topic, req)
	if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("generation transcript disabled")
		runLog = nil
	}
	defer runLog.Close()

	log.Info().
		Str("run_id", runID).
		Int64("topic_id", topic.ID).
		Int("count", req.Count).
		Str("language", string(req.Language)).
		Int("subtopics", len(subtopics)).
		Int("content_chars", len(content)).
		Msg("generating questions")

	result, err := g.run(ctx, runLog, topic, req, prompts.System, prompt)
	if err != nil {
		runLog.LogError(err)
		log.Error().Err(err).Str("run_id", runID).Int64("topic_id", topic.ID).Msg("generation failed")
		return nil, err
	}
	result.RunID = runID
	return result, nil
}

func (g *Generator) resolveContent(ctx context.Context, topic *Topic, source SourceFilter) (string, error) {
	mapping, err := g.store.GetTopicMapping(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("failed to resolve topic mapping: %w", err)
	}

	content, err := g.content.TopicContent(ctx, mapping, source)
	if err != nil {
		return "", newGenerationError(ErrContentUnavailable, err,
			"failed to load reference material for topic %d; %s", topic.ID, contentHint)
	}

	if strings.TrimSpace(content) == "" {
		if g.cfg.RequireGrounding {
			return "", newGenerationError(ErrContentUnavailable, nil,
				"no reference material is available for topic %d (%s); %s", topic.ID, topic.English, contentHint)
		}
		VerboseLog("topic %d has no reference material, generating ungrounded", topic.ID)
		return "", nil
	}
	return content, nil
}

func (g *Generator) run(ctx context.Context, runLog *LLMLogger, topic *Topic, req GenerateRequest, system, prompt string) (*GenerationResult, error) {
	runLog.LogLLMRequest(g.cfg.Model, system, prompt)

	resp, err := g.completer.Complete(ctx, CompletionRequest{
		System:      system,
		User:        prompt,
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, transportError(err)
	}
	runLog.LogLLMResponse(resp.Model, resp.Text, resp.TotalTokens())

	drafts, err := ParseGenerationResponse(resp.Text)
	if err != nil {
		return nil, err
	}

	report := ValidateBatch(drafts)
	for i, detail := range report.Details {
		runLog.LogVerdict(i, detail.Verdict)
		log.Info().
			Int64("topic_id", topic.ID).
			Int("draft", i+1).
			Int("score", detail.Verdict.Score).
			Bool("valid", detail.Verdict.IsValid).
			Strs("issues", detail.Verdict.Messages()).
			Msg("draft validated")
	}
	runLog.LogBatchReport(report)

	duplicates := g.findDuplicates(ctx, runLog, topic.ID, drafts)

	questions := make([]*Question, len(drafts))
	for i, d := range drafts {
		questions[i] = questionFromDraft(d, topic.ID, req)
	}

	entry := &GenerationLog{
		TopicID:          topic.ID,
		PromptUsed:       truncateRunes(prompt, maxPromptLogChars, ""),
		RawResponse:      truncateRunes(resp.Text, maxResponseLogChars, ""),
		QuestionsCreated: len(drafts),
		ModelUsed:        resp.Model,
		TokensUsed:       resp.TotalTokens(),
	}

	ids, err := g.store.SaveGeneration(ctx, entry, questions)
	if err != nil {
		return nil, fmt.Errorf("failed to save generated questions: %w", err)
	}

	runLog.Logf("Saved %d questions: %v (audit %d)\n", len(ids), ids, entry.ID)
	log.Info().
		Int64("topic_id", topic.ID).
		Ints64("ids", ids).
		Int("avg_score", report.AvgScore).
		Int("tokens", resp.TotalTokens()).
		Msg("generation complete")

	return &GenerationResult{
		IDs:        ids,
		Report:     report,
		Duplicates: duplicates,
		Model:      resp.Model,
		TokensUsed: resp.TotalTokens(),
		LogID:      entry.ID,
	}, nil
}

// findDuplicates is advisory; a lookup failure is logged and ignored
func (g *Generator) findDuplicates(ctx context.Context, runLog *LLMLogger, topicID int64, drafts []QuestionDraft) []DuplicateMatch {
	stems, err := g.store.TopicStems(ctx, topicID)
	if err != nil {
		log.Warn().Err(err).Int64("topic_id", topicID).Msg("duplicate check skipped")
		return []DuplicateMatch{}
	}

	matches := g.dedup.FindDuplicates(drafts, stems)
	for _, m := range matches {
		runLog.LogDedupResult(m)
		log.Warn().
			Int64("topic_id", topicID).
			Int("draft", m.DraftIndex+1).
			Str("duplicates", m.Describe()).
			Float64("similarity", m.Similarity).
			Msg("possible duplicate question")
	}
	if matches == nil {
		return []DuplicateMatch{}
	}
	return matches
}

// questionFromDraft builds the stored form of a draft. Missing draft metadata
// falls back to what the request asked for.
func questionFromDraft(d QuestionDraft, topicID int64, req GenerateRequest) *Question {
	explanation := d.Explanation
	if d.ClinicalPearl != "" {
		explanation += "\n\n**Clinical Pearl:** " + d.ClinicalPearl
	}
	if d.KeyTakeaway != "" {
		explanation += "\n\n**Key Takeaway:** " + d.KeyTakeaway
	}

	difficulty := req.Difficulty
	if d.Difficulty != "" {
		difficulty = ParseDifficulty(string(d.Difficulty))
	}
	bloom := req.BloomLevel
	if d.BloomLevel != "" {
		bloom = ParseBloomLevel(string(d.BloomLevel))
	}
	category := req.Category
	if d.Category != "" {
		category = ParseCategory(string(d.Category))
	}

	return &Question{
		TopicID:       topicID,
		Stem:          d.Stem,
		OptionA:       d.Option(OptionA),
		OptionB:       d.Option(OptionB),
		OptionC:       d.Option(OptionC),
		OptionD:       d.Option(OptionD),
		OptionE:       d.Option(OptionE),
		CorrectAnswer: d.Correct,
		Explanation:   explanation,
		Difficulty:    difficulty,
		BloomLevel:    bloom,
		Category:      category,
		Status:        StatusDraft,
		Language:      req.Language,
		SourceInfo:    "AI generated",
		PatientAge:    d.PatientAge,
		PatientGender: d.PatientGender,
		AIGenerated:   true,
	}
}
