package examforge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
)

// syllabusTopic is one row of the topics file
type syllabusTopic struct {
	ID        int64           `json:"id"`
	Chapter   string          `json:"chapter"`
	ChapterEN string          `json:"chapter_en"`
	ChapterHE string          `json:"chapter_he"`
	Level     int             `json:"level"`
	Hebrew    string          `json:"hebrew"`
	English   string          `json:"english"`
	ParentID  *int64          `json:"parent_id"`
	Notes     json.RawMessage `json:"notes"`
}

type syllabusTopicsFile struct {
	Topics []syllabusTopic `json:"topics"`
}

// syllabusMapping is one row of the page mapping file. Loosely typed
// because the mapping was produced by a separate tool.
type syllabusMapping struct {
	ID                  int64           `json:"id"`
	PrimaryPages        json.RawMessage `json:"synopsis_toc_pages"`
	PrimaryTitles       json.RawMessage `json:"synopsis_toc_titles"`
	PrimaryPageCount    json.RawMessage `json:"synopsis_text_pages_count"`
	PrimaryConfidence   json.RawMessage `json:"synopsis_confidence"`
	SecondaryPages      json.RawMessage `json:"dulcan_toc_pages"`
	SecondaryTitles     json.RawMessage `json:"dulcan_toc_titles"`
	SecondaryPageCount  json.RawMessage `json:"dulcan_text_pages_count"`
	SecondaryConfidence json.RawMessage `json:"dulcan_confidence"`
	SearchTerms         json.RawMessage `json:"search_terms_used"`
}

type syllabusMappingsFile struct {
	Results []syllabusMapping `json:"results"`
}

// SyllabusImport reports how many rows an import wrote
type SyllabusImport struct {
	Topics   int
	Mappings int
}

// ImportSyllabus loads topics and page mappings from their JSON files.
// Each table is only filled when it is empty, so running it twice is harmless.
func (db *DB) ImportSyllabus(ctx context.Context, topicsPath, mappingsPath string) (*SyllabusImport, error) {
	var result SyllabusImport

	topicCount, err := db.CountTopics(ctx)
	if err != nil {
		return nil, err
	}
	mappingCount, err := db.CountTopicMappings(ctx)
	if err != nil {
		return nil, err
	}

	if topicCount == 0 {
		var file syllabusTopicsFile
		if err := readJSONFile(topicsPath, &file); err != nil {
			return nil, err
		}
		if err := db.importTopics(ctx, file.Topics); err != nil {
			return nil, err
		}
		result.Topics = len(file.Topics)
		log.Info().Int("topics", result.Topics).Str("path", topicsPath).Msg("imported syllabus topics")
	} else {
		VerboseLog("topics table has %d rows, skipping import", topicCount)
	}

	if mappingCount == 0 {
		var file syllabusMappingsFile
		if err := readJSONFile(mappingsPath, &file); err != nil {
			return nil, err
		}
		if err := db.importMappings(ctx, file.Results); err != nil {
			return nil, err
		}
		result.Mappings = len(file.Results)
		log.Info().Int("mappings", result.Mappings).Str("path", mappingsPath).Msg("imported topic mappings")
	} else {
		VerboseLog("topic_mappings table has %d rows, skipping import", mappingCount)
	}

	return &result, nil
}

func (db *DB) importTopics(ctx context.Context, topics []syllabusTopic) error {
	// Parents before children so the parent_id foreign key holds
	sorted := append([]syllabusTopic(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range sorted {
			var parent sql.NullInt64
			if t.ParentID != nil {
				parent = sql.NullInt64{Int64: *t.ParentID, Valid: true}
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO topics ("+topicColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				t.ID, t.Chapter, t.ChapterEN, t.ChapterHE, t.Level, t.Hebrew, t.English, parent, flexText(t.Notes),
			)
			if err != nil {
				return fmt.Errorf("failed to import topic %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (db *DB) importMappings(ctx context.Context, mappings []syllabusMapping) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range mappings {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO topic_mappings ("+mappingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				m.ID,
				flexText(m.PrimaryPages), flexText(m.PrimaryTitles), flexInt(m.PrimaryPageCount), flexText(m.PrimaryConfidence),
				flexText(m.SecondaryPages), flexText(m.SecondaryTitles), flexInt(m.SecondaryPageCount), flexText(m.SecondaryConfidence),
				flexText(m.SearchTerms),
			)
			if err != nil {
				return fmt.Errorf("failed to import mapping for topic %d: %w", m.ID, err)
			}
		}
		return nil
	})
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
