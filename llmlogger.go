package examforge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LLMLogger writes the full transcript of one generation run to its own file
type LLMLogger struct {
	file  *os.File
	mu    sync.Mutex
	runID string
}

// NewLLMLogger creates the transcript file for a run under dir
func NewLLMLogger(dir, runID string, topic *Topic, req GenerateRequest) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", runID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:  file,
		runID: runID,
	}

	logger.Logf("=== Question Generation Log ===\n")
	logger.Logf("Run ID: %s\n", runID)
	logger.Logf("Topic: %d %s (%s)\n", topic.ID, topic.English, topic.Hebrew)
	logger.Logf("Number of Questions: %d\n", req.Count)
	logger.Logf("Difficulty: %s, Bloom: %s, Category: %s\n", req.Difficulty, req.BloomLevel, req.Category)
	logger.Logf("Language: %s, Source: %s\n", req.Language, req.Source)
	if len(req.SubtopicIDs) > 0 {
		logger.Logf("Subtopics: %v\n", req.SubtopicIDs)
	}
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp. A nil logger discards it.
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	if ll == nil {
		return
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.write(format, args...)
}

func (ll *LLMLogger) write(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs the instructions sent to the generation service
func (ll *LLMLogger) LogLLMRequest(model, system, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", model)
	ll.Logf("System:\n%s\n", system)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs the raw response text and token usage
func (ll *LLMLogger) LogLLMResponse(model, response string, tokens int) {
	ll.Logf("=== LLM RESPONSE (%s, %d tokens) ===\n", model, tokens)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogVerdict logs the validator's verdict for the i-th draft of the batch
func (ll *LLMLogger) LogVerdict(i int, v Verdict) {
	ll.Logf("Draft %d: score=%d valid=%v\n", i+1, v.Score, v.IsValid)
	for _, issue := range v.Issues {
		ll.Logf("  [%s] %s: %s\n", issue.Severity, issue.Rule, issue.Message)
	}
}

// LogBatchReport logs the batch summary
func (ll *LLMLogger) LogBatchReport(r BatchReport) {
	ll.Logf("Batch: total=%d valid=%d invalid=%d avg_score=%d distribution=A:%d B:%d C:%d D:%d\n",
		r.Total, r.Valid, r.Invalid, r.AvgScore,
		r.CorrectDistribution[OptionA], r.CorrectDistribution[OptionB],
		r.CorrectDistribution[OptionC], r.CorrectDistribution[OptionD])
	if len(r.DistributionIssues) > 0 {
		ll.Logf("Distribution: %s\n", strings.Join(r.DistributionIssues, "; "))
	}
}

// LogDedupResult logs a near-duplicate found for a draft
func (ll *LLMLogger) LogDedupResult(m DuplicateMatch) {
	ll.Logf("Draft %d: POSSIBLE DUPLICATE of %s (similarity %.2f)\n", m.DraftIndex+1, m.Describe(), m.Similarity)
}

// LogError logs a failure that ended the run
func (ll *LLMLogger) LogError(err error) {
	ll.Logf("ERROR: %v\n", err)
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	if ll == nil {
		return nil
	}
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file != nil {
		ll.write("=== Question Generation Complete ===\n")
		ll.write("Completed: %s\n", time.Now().Format(time.RFC3339))
		ll.write("=============================\n")
		err := ll.file.Close()
		ll.file = nil
		return err
	}
	return nil
}
