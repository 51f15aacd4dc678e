package examforge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the question bank database connection
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection with foreign keys enabled
func OpenDB(dbPath string) (*DB, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; keeps transactions and the foreign_keys pragma on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY,
			chapter_code TEXT NOT NULL,
			chapter_en TEXT NOT NULL,
			chapter_he TEXT NOT NULL,
			level INTEGER NOT NULL,
			hebrew TEXT NOT NULL,
			english TEXT NOT NULL,
			parent_id INTEGER,
			notes TEXT DEFAULT '',
			FOREIGN KEY (parent_id) REFERENCES topics(id)
		)`,
		`CREATE TABLE IF NOT EXISTS topic_mappings (
			topic_id INTEGER PRIMARY KEY,
			primary_pages TEXT DEFAULT '',
			primary_titles TEXT DEFAULT '',
			primary_page_count INTEGER DEFAULT 0,
			primary_confidence TEXT DEFAULT '',
			secondary_pages TEXT DEFAULT '',
			secondary_titles TEXT DEFAULT '',
			secondary_page_count INTEGER DEFAULT 0,
			secondary_confidence TEXT DEFAULT '',
			search_terms TEXT DEFAULT '',
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_id INTEGER NOT NULL,
			stem TEXT NOT NULL,
			option_a TEXT NOT NULL,
			option_b TEXT NOT NULL,
			option_c TEXT NOT NULL,
			option_d TEXT NOT NULL,
			option_e TEXT DEFAULT '',
			correct_answer TEXT NOT NULL,
			explanation TEXT DEFAULT '',
			difficulty TEXT DEFAULT 'medium',
			bloom_level TEXT DEFAULT 'application',
			category TEXT DEFAULT '',
			status TEXT DEFAULT 'draft',
			language TEXT DEFAULT 'he',
			source_info TEXT DEFAULT '',
			source_quote TEXT DEFAULT '',
			source_book TEXT DEFAULT '',
			source_page INTEGER,
			patient_age INTEGER DEFAULT 0,
			patient_gender TEXT DEFAULT '',
			ai_generated INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		)`,
		`CREATE TABLE IF NOT EXISTS question_tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL,
			tag TEXT NOT NULL,
			FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS exams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS exam_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exam_id INTEGER NOT NULL,
			question_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (exam_id) REFERENCES exams(id) ON DELETE CASCADE,
			FOREIGN KEY (question_id) REFERENCES questions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS generation_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_id INTEGER NOT NULL,
			prompt_used TEXT,
			raw_response TEXT,
			questions_created INTEGER DEFAULT 0,
			model_used TEXT DEFAULT '',
			tokens_used INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_exam_questions_exam ON exam_questions(exam_id)`,
		`CREATE INDEX IF NOT EXISTS idx_question_tags_qid ON question_tags(question_id)`,
	}

	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing only if fn succeeds
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// --- Topics ---

const topicColumns = "id, chapter_code, chapter_en, chapter_he, level, hebrew, english, parent_id, notes"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTopic(row rowScanner) (*Topic, error) {
	var t Topic
	var parent sql.NullInt64
	if err := row.Scan(&t.ID, &t.ChapterCode, &t.ChapterEN, &t.ChapterHE, &t.Level, &t.Hebrew, &t.English, &parent, &t.Notes); err != nil {
		return nil, err
	}
	if parent.Valid {
		id := parent.Int64
		t.ParentID = &id
	}
	return &t, nil
}

// CreateTopic inserts a syllabus topic with its given id
func (db *DB) CreateTopic(ctx context.Context, t *Topic) error {
	var parent sql.NullInt64
	if t.ParentID != nil {
		parent = sql.NullInt64{Int64: *t.ParentID, Valid: true}
	}
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO topics ("+topicColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.ChapterCode, t.ChapterEN, t.ChapterHE, t.Level, t.Hebrew, t.English, parent, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

// GetTopic retrieves a topic by ID
func (db *DB) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	row := db.db.QueryRowContext(ctx, "SELECT "+topicColumns+" FROM topics WHERE id = ?", id)
	t, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: topic %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return t, nil
}

// GetSubtopics returns the children of parentID, restricted to ids when given
func (db *DB) GetSubtopics(ctx context.Context, parentID int64, ids []int64) ([]Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics WHERE parent_id = ?"
	args := []interface{}{parentID}
	if len(ids) > 0 {
		query += " AND id IN (" + placeholders(len(ids)) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += " ORDER BY id"
	return db.queryTopics(ctx, query, args...)
}

// ListTopics returns level 2 topics, optionally restricted to one chapter
func (db *DB) ListTopics(ctx context.Context, chapter string) ([]Topic, error) {
	if chapter != "" {
		return db.queryTopics(ctx,
			"SELECT "+topicColumns+" FROM topics WHERE level = 2 AND chapter_code = ? ORDER BY id", chapter)
	}
	return db.queryTopics(ctx,
		"SELECT "+topicColumns+" FROM topics WHERE level = 2 ORDER BY chapter_code, id")
}

func (db *DB) queryTopics(ctx context.Context, query string, args ...interface{}) ([]Topic, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topics: %w", err)
	}
	return topics, nil
}

// CountTopics returns the number of syllabus rows
func (db *DB) CountTopics(ctx context.Context) (int, error) {
	var n int
	if err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM topics").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count topics: %w", err)
	}
	return n, nil
}

// --- Topic mappings ---

const mappingColumns = `topic_id, primary_pages, primary_titles, primary_page_count, primary_confidence,
	secondary_pages, secondary_titles, secondary_page_count, secondary_confidence, search_terms`

// PutTopicMapping inserts or replaces the page mapping of a topic
func (db *DB) PutTopicMapping(ctx context.Context, m *TopicMapping) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO topic_mappings ("+mappingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.TopicID, m.PrimaryPages, m.PrimaryTitles, m.PrimaryPageCount, m.PrimaryConfidence,
		m.SecondaryPages, m.SecondaryTitles, m.SecondaryPageCount, m.SecondaryConfidence, m.SearchTerms,
	)
	if err != nil {
		return fmt.Errorf("failed to store topic mapping: %w", err)
	}
	return nil
}

// GetTopicMapping returns the mapping of topic, falling back to its parent's.
// It returns nil without error when neither has one.
func (db *DB) GetTopicMapping(ctx context.Context, topic *Topic) (*TopicMapping, error) {
	m, err := db.getMapping(ctx, topic.ID)
	if err != nil || m != nil {
		return m, err
	}
	if topic.ParentID != nil {
		return db.getMapping(ctx, *topic.ParentID)
	}
	return nil, nil
}

func (db *DB) getMapping(ctx context.Context, topicID int64) (*TopicMapping, error) {
	var m TopicMapping
	err := db.db.QueryRowContext(ctx,
		"SELECT "+mappingColumns+" FROM topic_mappings WHERE topic_id = ?", topicID,
	).Scan(&m.TopicID, &m.PrimaryPages, &m.PrimaryTitles, &m.PrimaryPageCount, &m.PrimaryConfidence,
		&m.SecondaryPages, &m.SecondaryTitles, &m.SecondaryPageCount, &m.SecondaryConfidence, &m.SearchTerms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get topic mapping: %w", err)
	}
	return &m, nil
}

// CountTopicMappings returns the number of mapping rows
func (db *DB) CountTopicMappings(ctx context.Context) (int, error) {
	var n int
	if err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM topic_mappings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count topic mappings: %w", err)
	}
	return n, nil
}

// --- Generation ---

// SaveGeneration writes the audit row and then every question in one transaction.
// Either all of them are stored or none is.
func (db *DB) SaveGeneration(ctx context.Context, entry *GenerationLog, questions []*Question) ([]int64, error) {
	ids := make([]int64, 0, len(questions))
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO generation_log (topic_id, prompt_used, raw_response, questions_created, model_used, tokens_used) VALUES (?, ?, ?, ?, ?, ?)",
			entry.TopicID, entry.PromptUsed, entry.RawResponse, entry.QuestionsCreated, entry.ModelUsed, entry.TokensUsed,
		)
		if err != nil {
			return fmt.Errorf("failed to create generation log: %w", err)
		}
		if entry.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read generation log id: %w", err)
		}

		for _, q := range questions {
			id, err := insertQuestion(ctx, tx, q)
			if err != nil {
				return err
			}
			q.ID = id
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListGenerationLogs returns audit rows, newest first, optionally for one topic
func (db *DB) ListGenerationLogs(ctx context.Context, topicID int64, limit int) ([]GenerationLog, error) {
	query := "SELECT id, topic_id, prompt_used, raw_response, questions_created, model_used, tokens_used, created_at FROM generation_log"
	var args []interface{}
	if topicID > 0 {
		query += " WHERE topic_id = ?"
		args = append(args, topicID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation logs: %w", err)
	}
	defer rows.Close()

	var logs []GenerationLog
	for rows.Next() {
		var l GenerationLog
		var prompt, raw sql.NullString
		if err := rows.Scan(&l.ID, &l.TopicID, &prompt, &raw, &l.QuestionsCreated, &l.ModelUsed, &l.TokensUsed, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		l.PromptUsed = prompt.String
		l.RawResponse = raw.String
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation logs: %w", err)
	}
	return logs, nil
}

// --- Questions ---

const questionColumns = `q.id, q.topic_id, q.stem, q.option_a, q.option_b, q.option_c, q.option_d, q.option_e,
	q.correct_answer, q.explanation, q.difficulty, q.bloom_level, q.category, q.status, q.language,
	q.source_info, q.source_quote, q.source_book, q.source_page, q.patient_age, q.patient_gender,
	q.ai_generated, q.created_at, q.updated_at, t.hebrew, t.english`

const questionFrom = " FROM questions q JOIN topics t ON t.id = q.topic_id"

func scanQuestion(row rowScanner) (*Question, error) {
	var q Question
	var page sql.NullInt64
	err := row.Scan(&q.ID, &q.TopicID, &q.Stem, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.OptionE,
		&q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.BloomLevel, &q.Category, &q.Status, &q.Language,
		&q.SourceInfo, &q.SourceQuote, &q.SourceBook, &page, &q.PatientAge, &q.PatientGender,
		&q.AIGenerated, &q.CreatedAt, &q.UpdatedAt, &q.TopicHebrew, &q.TopicEnglish)
	if err != nil {
		return nil, err
	}
	if page.Valid {
		p := int(page.Int64)
		q.SourcePage = &p
	}
	return &q, nil
}

func sourcePageArg(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertQuestion(ctx context.Context, ex execer, q *Question) (int64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO questions (topic_id, stem, option_a, option_b, option_c, option_d, option_e,
			correct_answer, explanation, difficulty, bloom_level, category, status, language,
			source_info, source_quote, source_book, source_page, patient_age, patient_gender, ai_generated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.TopicID, q.Stem, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE,
		string(q.CorrectAnswer), q.Explanation, string(q.Difficulty), string(q.BloomLevel), string(q.Category),
		string(q.Status), string(q.Language), q.SourceInfo, q.SourceQuote, q.SourceBook, sourcePageArg(q.SourcePage),
		q.PatientAge, q.PatientGender, q.AIGenerated,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read question id: %w", err)
	}
	return id, nil
}

// CreateQuestion stores a manually written question
func (db *DB) CreateQuestion(ctx context.Context, q *Question) (int64, error) {
	id, err := insertQuestion(ctx, db.db, q)
	if err != nil {
		return 0, err
	}
	q.ID = id
	return id, nil
}

// GetQuestion retrieves a question by ID
func (db *DB) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	row := db.db.QueryRowContext(ctx, "SELECT "+questionColumns+questionFrom+" WHERE q.id = ?", id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: question %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// QuestionFilter narrows the question bank listing. Zero values match everything.
type QuestionFilter struct {
	Chapter    string
	TopicID    int64
	Status     QuestionStatus
	Difficulty Difficulty
	Language   Language
	Search     string
}

// ListQuestions returns the question bank, newest first
func (db *DB) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	var filters []string
	var args []interface{}

	if f.Chapter != "" {
		filters = append(filters, "t.chapter_code = ?")
		args = append(args, f.Chapter)
	}
	if f.TopicID > 0 {
		filters = append(filters, "q.topic_id = ?")
		args = append(args, f.TopicID)
	}
	if f.Status != "" {
		filters = append(filters, "q.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Difficulty != "" {
		filters = append(filters, "q.difficulty = ?")
		args = append(args, string(f.Difficulty))
	}
	if f.Language != "" {
		filters = append(filters, "COALESCE(q.language, 'he') = ?")
		args = append(args, string(f.Language))
	}
	if f.Search != "" {
		filters = append(filters, "q.stem LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	where := "1=1"
	if len(filters) > 0 {
		where = strings.Join(filters, " AND ")
	}

	return db.queryQuestions(ctx,
		"SELECT "+questionColumns+questionFrom+" WHERE "+where+" ORDER BY q.created_at DESC, q.id DESC", args...)
}

func (db *DB) queryQuestions(ctx context.Context, query string, args ...interface{}) ([]Question, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

// TopicStems returns the stems of non-rejected questions of a topic
func (db *DB) TopicStems(ctx context.Context, topicID int64) ([]StoredStem, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT id, stem FROM questions WHERE topic_id = ? AND status != ? ORDER BY id", topicID, string(StatusRejected))
	if err != nil {
		return nil, fmt.Errorf("failed to get question stems: %w", err)
	}
	defer rows.Close()

	var stems []StoredStem
	for rows.Next() {
		var s StoredStem
		if err := rows.Scan(&s.QuestionID, &s.Stem); err != nil {
			return nil, fmt.Errorf("failed to scan question stem: %w", err)
		}
		stems = append(stems, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question stems: %w", err)
	}
	return stems, nil
}

// UpdateQuestion saves an editor's changes to a question
func (db *DB) UpdateQuestion(ctx context.Context, q *Question) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE questions SET
			topic_id = ?, stem = ?, option_a = ?, option_b = ?, option_c = ?, option_d = ?, option_e = ?,
			correct_answer = ?, explanation = ?, difficulty = ?, bloom_level = ?, category = ?, status = ?,
			source_quote = ?, source_book = ?, source_page = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		q.TopicID, q.Stem, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE,
		string(q.CorrectAnswer), q.Explanation, string(q.Difficulty), string(q.BloomLevel), string(q.Category), string(q.Status),
		q.SourceQuote, q.SourceBook, sourcePageArg(q.SourcePage), q.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return expectRow(res, "question", q.ID)
}

// SetQuestionStatus moves a question through the review workflow
func (db *DB) SetQuestionStatus(ctx context.Context, id int64, status QuestionStatus) error {
	if _, ok := ParseQuestionStatus(string(status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	res, err := db.db.ExecContext(ctx,
		"UPDATE questions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update question status: %w", err)
	}
	return expectRow(res, "question", id)
}

// DeleteQuestion removes a question together with its exam memberships and tags
func (db *DB) DeleteQuestion(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_questions WHERE question_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete exam links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM question_tags WHERE question_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete question tags: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}
		return expectRow(res, "question", id)
	})
}

func expectRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return nil
}

// --- Dashboard ---

// DashboardStats counts questions per workflow state
type DashboardStats struct {
	Total    int `json:"total"`
	Draft    int `json:"draft"`
	Review   int `json:"review"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Stats returns question counts per workflow state
func (db *DB) Stats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	err := db.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'draft' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'review' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0)
		FROM questions`).Scan(&s.Total, &s.Draft, &s.Review, &s.Approved, &s.Rejected)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &s, nil
}

// TopicCoverage is the number of questions written for a topic
type TopicCoverage struct {
	TopicID     int64  `json:"id"`
	Hebrew      string `json:"hebrew"`
	English     string `json:"english"`
	ChapterCode string `json:"chapter_code"`
	ChapterHE   string `json:"chapter_he"`
	Total       int    `json:"total"`
	Approved    int    `json:"approved"`
	Drafts      int    `json:"drafts"`
}

// Coverage returns question counts for every level 2 topic
func (db *DB) Coverage(ctx context.Context) ([]TopicCoverage, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT t.id, t.hebrew, t.english, t.chapter_code, t.chapter_he,
			COUNT(q.id),
			COALESCE(SUM(CASE WHEN q.status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN q.status = 'draft' THEN 1 ELSE 0 END), 0)
		FROM topics t
		LEFT JOIN questions q ON q.topic_id = t.id
		WHERE t.level = 2
		GROUP BY t.id
		ORDER BY t.chapter_code, t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage: %w", err)
	}
	defer rows.Close()

	var coverage []TopicCoverage
	for rows.Next() {
		var c TopicCoverage
		if err := rows.Scan(&c.TopicID, &c.Hebrew, &c.English, &c.ChapterCode, &c.ChapterHE, &c.Total, &c.Approved, &c.Drafts); err != nil {
			return nil, fmt.Errorf("failed to scan coverage: %w", err)
		}
		coverage = append(coverage, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage: %w", err)
	}
	return coverage, nil
}

// --- Exams ---

// CreateExam creates an exam holding questionIDs at positions 1..n
func (db *DB) CreateExam(ctx context.Context, title, description string, questionIDs []int64) (int64, error) {
	var examID int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO exams (title, description) VALUES (?, ?)", title, description)
		if err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}
		if examID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read exam id: %w", err)
		}
		return insertExamQuestions(ctx, tx, examID, 0, questionIDs)
	})
	if err != nil {
		return 0, err
	}
	return examID, nil
}

func insertExamQuestions(ctx context.Context, tx *sql.Tx, examID int64, after int, questionIDs []int64) error {
	for i, qid := range questionIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO exam_questions (exam_id, question_id, position) VALUES (?, ?, ?)",
			examID, qid, after+i+1)
		if err != nil {
			return fmt.Errorf("failed to add question %d to exam: %w", qid, err)
		}
	}
	return nil
}

// GetExam retrieves an exam by ID
func (db *DB) GetExam(ctx context.Context, id int64) (*Exam, error) {
	var e Exam
	err := db.db.QueryRowContext(ctx, `
		SELECT e.id, e.title, e.description, e.created_at, e.updated_at,
			(SELECT COUNT(*) FROM exam_questions eq WHERE eq.exam_id = e.id)
		FROM exams e WHERE e.id = ?`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.CreatedAt, &e.UpdatedAt, &e.QuestionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: exam %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return &e, nil
}

// ListExams returns all exams, newest first
func (db *DB) ListExams(ctx context.Context) ([]Exam, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.description, e.created_at, e.updated_at, COUNT(eq.id)
		FROM exams e
		LEFT JOIN exam_questions eq ON eq.exam_id = e.id
		GROUP BY e.id
		ORDER BY e.created_at DESC, e.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get exams: %w", err)
	}
	defer rows.Close()

	var exams []Exam
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedAt, &e.UpdatedAt, &e.QuestionCount); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exams: %w", err)
	}
	return exams, nil
}

// GetExamQuestions returns the questions of an exam in position order
func (db *DB) GetExamQuestions(ctx context.Context, examID int64) ([]ExamQuestion, error) {
	rows, err := db.db.QueryContext(ctx,
		"SELECT eq.position, "+questionColumns+" FROM exam_questions eq JOIN questions q ON q.id = eq.question_id JOIN topics t ON t.id = q.topic_id WHERE eq.exam_id = ? ORDER BY eq.position",
		examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	defer rows.Close()

	var out []ExamQuestion
	for rows.Next() {
		var position int
		q, err := scanQuestion(positionScanner{row: rows, position: &position})
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam question: %w", err)
		}
		out = append(out, ExamQuestion{Position: position, Question: *q})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exam questions: %w", err)
	}
	return out, nil
}

// positionScanner prepends the position column to a question scan
type positionScanner struct {
	row      rowScanner
	position *int
}

func (p positionScanner) Scan(dest ...interface{}) error {
	return p.row.Scan(append([]interface{}{p.position}, dest...)...)
}

// ExamCandidates returns reviewed or approved questions not yet in the exam
func (db *DB) ExamCandidates(ctx context.Context, examID int64) ([]Question, error) {
	return db.queryQuestions(ctx,
		"SELECT "+questionColumns+questionFrom+` WHERE q.status IN ('approved', 'review')
			AND q.id NOT IN (SELECT question_id FROM exam_questions WHERE exam_id = ?)
			ORDER BY t.chapter_code, q.id`, examID)
}

// AddExamQuestions appends questions after the exam's current last position
func (db *DB) AddExamQuestions(ctx context.Context, examID int64, questionIDs []int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var last int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), 0) FROM exam_questions WHERE exam_id = ?", examID).Scan(&last)
		if err != nil {
			return fmt.Errorf("failed to get last exam position: %w", err)
		}
		if err := insertExamQuestions(ctx, tx, examID, last, questionIDs); err != nil {
			return err
		}
		return touchExam(ctx, tx, examID)
	})
}

// RemoveExamQuestion removes a question from an exam and renumbers positions 1..n
func (db *DB) RemoveExamQuestion(ctx context.Context, examID, questionID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM exam_questions WHERE exam_id = ? AND question_id = ?", examID, questionID); err != nil {
			return fmt.Errorf("failed to remove exam question: %w", err)
		}

		rows, err := tx.QueryContext(ctx, "SELECT id FROM exam_questions WHERE exam_id = ? ORDER BY position", examID)
		if err != nil {
			return fmt.Errorf("failed to get exam positions: %w", err)
		}
		var linkIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan exam position: %w", err)
			}
			linkIDs = append(linkIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating exam positions: %w", err)
		}

		for i, id := range linkIDs {
			if _, err := tx.ExecContext(ctx, "UPDATE exam_questions SET position = ? WHERE id = ?", i+1, id); err != nil {
				return fmt.Errorf("failed to renumber exam question: %w", err)
			}
		}
		return touchExam(ctx, tx, examID)
	})
}

// DeleteExam removes an exam and its question links
func (db *DB) DeleteExam(ctx context.Context, examID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM exam_questions WHERE exam_id = ?", examID); err != nil {
			return fmt.Errorf("failed to delete exam questions: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM exams WHERE id = ?", examID)
		if err != nil {
			return fmt.Errorf("failed to delete exam: %w", err)
		}
		return expectRow(res, "exam", examID)
	})
}

func touchExam(ctx context.Context, tx *sql.Tx, examID int64) error {
	res, err := tx.ExecContext(ctx, "UPDATE exams SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", examID)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	return expectRow(res, "exam", examID)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
