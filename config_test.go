package examforge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	for _, k := range []string{"DATA_DIR", "DB_PATH", "OPENAI_API_KEY", "LLM_API_KEY", "LLM_MODEL",
		"LLM_TIMEOUT", "REQUIRE_GROUNDING", "DEFAULT_QUESTION_COUNT", "MAX_EXTRACT_CHARS", "SYLLABUS_TOPICS_PATH"} {
		t.Setenv(k, "")
	}

	cfg := configFromEnv()
	assert.Equal(t, filepath.Join("data", "exam_tool.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("data", "phase1_topics.json"), cfg.SyllabusTopicsPath)
	assert.Equal(t, filepath.Join("data", "synopsis.txt"), cfg.PrimaryBook.Path)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15000, cfg.MaxExtractChars)
	assert.Equal(t, 3, cfg.DefaultQuestionCount)
	assert.True(t, cfg.RequireGrounding)
	assert.Empty(t, cfg.APIKey)
	assert.NotEmpty(t, cfg.Model)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/exam")
	t.Setenv("DB_PATH", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "sk-fallback")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("REQUIRE_GROUNDING", "false")
	t.Setenv("DEFAULT_QUESTION_COUNT", "5")
	t.Setenv("PRIMARY_BOOK_NAME", "Kaplan & Sadock")

	cfg := configFromEnv()
	assert.Equal(t, "/srv/exam/exam_tool.db", cfg.DBPath)
	assert.Equal(t, "sk-fallback", cfg.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.InDelta(t, 0.2, cfg.Temperature, 0.0001)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RequireGrounding)
	assert.Equal(t, 5, cfg.DefaultQuestionCount)
	assert.Equal(t, "Kaplan & Sadock", cfg.PrimaryBook.Name)
}

func TestConfigIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")
	t.Setenv("REQUIRE_GROUNDING", "maybe")
	t.Setenv("LLM_MAX_TOKENS", "lots")

	cfg := configFromEnv()
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.RequireGrounding)
	assert.Equal(t, 8192, cfg.MaxTokens)
}
