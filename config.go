package examforge

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
)

// BookSource is a reference book and the path of its pre-extracted text
type BookSource struct {
	Name string
	Path string
}

// Config is resolved once at process start and passed to constructors
type Config struct {
	Env     string
	Verbose bool

	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	RequestTimeout time.Duration

	DataDir string
	DBPath  string
	LogDir  string

	SyllabusTopicsPath   string
	SyllabusMappingsPath string

	PrimaryBook     BookSource
	SecondaryBook   BookSource
	MaxExtractChars int

	// RequireGrounding makes empty reference content a ContentUnavailable error.
	// When false, generation proceeds without source material.
	RequireGrounding     bool
	DefaultQuestionCount int

	HTTPAddr      string
	SessionSecret string
}

// LoadConfig reads an optional .env file and then the environment
func LoadConfig() Config {
	// Existing environment variables win over .env entries
	_ = godotenv.Load()
	return configFromEnv()
}

func configFromEnv() Config {
	dataDir := envOr("DATA_DIR", "data")
	return Config{
		Env:     envOr("APP_ENV", "development"),
		Verbose: envBool("VERBOSE", false),

		APIKey:         envOr("OPENAI_API_KEY", os.Getenv("LLM_API_KEY")),
		BaseURL:        os.Getenv("LLM_BASE_URL"),
		Model:          envOr("LLM_MODEL", openai.GPT4o),
		MaxTokens:      envInt("LLM_MAX_TOKENS", 8192),
		Temperature:    float32(envFloat("LLM_TEMPERATURE", 0.7)),
		RequestTimeout: envDuration("LLM_TIMEOUT", 90*time.Second),

		DataDir: dataDir,
		DBPath:  envOr("DB_PATH", filepath.Join(dataDir, "exam_tool.db")),
		LogDir:  envOr("LOG_DIR", "log"),

		SyllabusTopicsPath:   envOr("SYLLABUS_TOPICS_PATH", filepath.Join(dataDir, "phase1_topics.json")),
		SyllabusMappingsPath: envOr("SYLLABUS_MAPPINGS_PATH", filepath.Join(dataDir, "phase2_mapping.json")),

		PrimaryBook: BookSource{
			Name: envOr("PRIMARY_BOOK_NAME", "Synopsis of Psychiatry"),
			Path: envOr("PRIMARY_BOOK_PATH", filepath.Join(dataDir, "synopsis.txt")),
		},
		SecondaryBook: BookSource{
			Name: envOr("SECONDARY_BOOK_NAME", "Dulcan's Textbook"),
			Path: envOr("SECONDARY_BOOK_PATH", filepath.Join(dataDir, "dulcan.txt")),
		},
		MaxExtractChars: envInt("MAX_EXTRACT_CHARS", 15000),

		RequireGrounding:     envBool("REQUIRE_GROUNDING", true),
		DefaultQuestionCount: envInt("DEFAULT_QUESTION_COUNT", 3),

		HTTPAddr:      envOr("HTTP_ADDR", ":5000"),
		SessionSecret: envOr("SECRET_KEY", "dev-key-change-in-production"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
