package examforge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMLoggerTranscript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	ll, err := NewLLMLogger(dir, "run-1", testTopic(), GenerateRequest{TopicID: 10, Count: 2, SubtopicIDs: []int64{11}})
	require.NoError(t, err)

	ll.LogLLMRequest("test-model", "system text", "prompt text")
	ll.LogLLMResponse("test-model", `{"questions": []}`, 42)
	ll.LogVerdict(0, Validate(QuestionDraft{Stem: "Short?"}))
	ll.LogBatchReport(ValidateBatch([]QuestionDraft{cleanDraft()}))
	ll.LogDedupResult(DuplicateMatch{DraftIndex: 1, QuestionID: 7, Similarity: 0.75})
	ll.LogError(errors.New("boom"))
	require.NoError(t, ll.Close())

	data, err := os.ReadFile(filepath.Join(dir, "run-1.log"))
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Topic: 10 ADHD (הפרעת קשב)")
	assert.Contains(t, text, "Subtopics: [11]")
	assert.Contains(t, text, "=== LLM RESPONSE (test-model, 42 tokens) ===")
	assert.Contains(t, text, "Draft 1: score=")
	assert.Contains(t, text, "[error] option_count:")
	assert.Contains(t, text, "Batch: total=1 valid=1 invalid=0 avg_score=100")
	assert.Contains(t, text, "Draft 2: POSSIBLE DUPLICATE of question 7 (similarity 0.75)")
	assert.Contains(t, text, "ERROR: boom")
	assert.Contains(t, text, "=== Question Generation Complete ===")

	// Closing twice is harmless
	assert.NoError(t, ll.Close())
}

func TestNilLLMLoggerDiscards(t *testing.T) {
	var ll *LLMLogger
	assert.NotPanics(t, func() {
		ll.LogLLMRequest("m", "s", "p")
		ll.LogVerdict(0, Verdict{})
		ll.LogBatchReport(BatchReport{})
		ll.LogError(errors.New("x"))
		assert.NoError(t, ll.Close())
	})
}
