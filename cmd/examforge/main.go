package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"examforge"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		topicID      = flag.Int64("topic", 0, "Topic id to generate questions for")
		numQuestions = flag.Int("questions", 0, "Number of questions to generate (default from config)")
		difficulty   = flag.String("difficulty", "medium", "Difficulty level (easy, medium, hard)")
		bloom        = flag.String("bloom", "application", "Bloom level (knowledge, comprehension, application, analysis, evaluation, synthesis)")
		category     = flag.String("category", "diagnosis", "Question category")
		task         = flag.String("task", "mixed", "Clinical task hint")
		language     = flag.String("language", "he", "Question language (he, en)")
		source       = flag.String("source", "both", "Reference books to draw on (primary, secondary, both)")
		subtopics    = flag.String("subtopics", "", "Comma separated subtopic ids (default: all)")
		validateFile = flag.String("validate", "", "Validate drafts from a JSON file instead of generating")
		dbPath       = flag.String("db", "", "Database path (default from config)")
		outputFile   = flag.String("output", "", "Output file for the result JSON (default: stdout)")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	cfg := examforge.LoadConfig()
	examforge.InitLogger("examforge", cfg.Env)
	examforge.SetVerbose(*verbose || cfg.Verbose)

	if *validateFile != "" {
		writeOutput(*outputFile, validateDrafts(*validateFile))
		return
	}

	if *topicID <= 0 {
		log.Fatal().Msg("Topic is required. Use -topic flag or -validate file.json.")
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ids, err := parseIDs(*subtopics)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -subtopics")
	}

	db, err := examforge.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := db.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}

	gen := examforge.NewGenerator(cfg, db, examforge.NewBookContent(cfg), examforge.NewQuestionMaker(cfg))

	result, err := gen.Generate(ctx, examforge.GenerateRequest{
		TopicID:      *topicID,
		Count:        *numQuestions,
		Difficulty:   examforge.Difficulty(*difficulty),
		SubtopicIDs:  ids,
		BloomLevel:   examforge.BloomLevel(*bloom),
		Category:     examforge.Category(*category),
		Language:     examforge.Language(*language),
		ClinicalTask: examforge.ClinicalTask(*task),
		Source:       examforge.SourceFilter(*source),
	})
	if err != nil {
		log.Fatal().Err(err).Str("kind", fmt.Sprint(examforge.ErrorKind(err))).Msg("Failed to generate questions")
	}

	writeOutput(*outputFile, result)
	log.Info().Int("saved", len(result.IDs)).Str("run_id", result.RunID).Msg("Question generation completed")
}

func validateDrafts(path string) examforge.BatchReport {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read drafts file")
	}
	drafts, err := examforge.ParseGenerationResponse(string(data))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse drafts file")
	}
	return examforge.ValidateBatch(drafts)
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeOutput(path string, v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}

	if path != "" {
		if err := os.WriteFile(path, output, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output file")
		}
		log.Info().Str("path", path).Msg("Result saved")
		return
	}
	fmt.Println(string(output))
}
