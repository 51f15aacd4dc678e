package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"examforge"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

const sessionName = "examforge-session"

// Server serves the question bank and generation endpoints
type Server struct {
	db       *examforge.DB
	gen      *examforge.Generator
	store    sessions.Store
	validate *validator.Validate
}

// NewServer creates a server over an open database and a generator
func NewServer(db *examforge.DB, gen *examforge.Generator, store sessions.Store) *Server {
	return &Server{
		db:       db,
		gen:      gen,
		store:    store,
		validate: validator.New(),
	}
}

// Routes builds the HTTP router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Post("/questions/generate", s.handleGenerate)
	r.Get("/questions", s.handleListQuestions)
	r.Get("/questions/{id}", s.handleGetQuestion)
	r.Post("/questions/{id}", s.handleUpdateQuestion)
	r.Post("/questions/{id}/status/{status}", s.handleSetStatus)
	r.Post("/questions/{id}/delete", s.handleDeleteQuestion)
	r.Post("/validate", s.handleValidate)

	r.Get("/exams", s.handleListExams)
	r.Post("/exams", s.handleCreateExam)
	r.Get("/exams/{id}", s.handleGetExam)
	r.Post("/exams/{id}/add", s.handleAddExamQuestions)
	r.Post("/exams/{id}/remove/{qid}", s.handleRemoveExamQuestion)
	r.Post("/exams/{id}/delete", s.handleDeleteExam)
	r.Get("/export/exam/{id}.{format}", s.handleExportExam)

	r.Route("/api", func(r chi.Router) {
		r.Get("/topics", s.handleTopics)
		r.Get("/subtopics/{id}", s.handleSubtopics)
		r.Get("/coverage", s.handleCoverage)
		r.Get("/stats", s.handleStats)
		r.Get("/flashes", s.handleFlashes)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// --- Generation ---

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req examforge.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs := s.session(r)
	if req.Language == "" {
		if lang, ok := prefs.Values["language"].(string); ok {
			req.Language = examforge.Language(lang)
		}
	}

	result, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		s.flash(w, r, fmt.Sprintf("Generation failed: %s", userMessage(err)))
		s.respondKindError(w, err)
		return
	}

	prefs.Values["language"] = string(examforge.ParseLanguage(string(req.Language)))
	prefs.AddFlash(fmt.Sprintf("%d questions generated (average score %d)", len(result.IDs), result.Report.AvgScore))
	if err := prefs.Save(r, w); err != nil {
		log.Warn().Err(err).Msg("failed to save session")
	}

	s.respondJSON(w, http.StatusCreated, result)
}

// --- Question bank ---

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := examforge.QuestionFilter{
		Chapter: q.Get("chapter"),
		Search:  q.Get("q"),
	}
	if topicID, err := strconv.ParseInt(q.Get("topic_id"), 10, 64); err == nil {
		filter.TopicID = topicID
	}
	if status, ok := examforge.ParseQuestionStatus(q.Get("status")); ok {
		filter.Status = status
	}
	if d := q.Get("difficulty"); d != "" {
		filter.Difficulty = examforge.ParseDifficulty(d)
	}
	if l := q.Get("language"); l != "" {
		filter.Language = examforge.ParseLanguage(l)
	}

	questions, err := s.db.ListQuestions(r.Context(), filter)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(questions))
}

type questionView struct {
	Question *examforge.Question `json:"question"`
	Verdict  examforge.Verdict   `json:"verdict"`
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	q, err := s.db.GetQuestion(r.Context(), id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, questionView{Question: q, Verdict: examforge.Validate(q.Draft())})
}

type questionUpdate struct {
	TopicID       int64  `json:"topic_id" validate:"required,gt=0"`
	Stem          string `json:"stem" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	OptionE       string `json:"option_e"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=A B C D E"`
	Explanation   string `json:"explanation"`
	Difficulty    string `json:"difficulty"`
	BloomLevel    string `json:"bloom_level"`
	Category      string `json:"category"`
	Status        string `json:"status" validate:"omitempty,oneof=draft review approved rejected"`
	SourceQuote   string `json:"source_quote"`
	SourceBook    string `json:"source_book"`
	SourcePage    *int   `json:"source_page" validate:"omitempty,gt=0"`
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}

	var body questionUpdate
	if !s.decodeValid(w, r, &body) {
		return
	}

	q, err := s.db.GetQuestion(r.Context(), id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}

	q.TopicID = body.TopicID
	q.Stem = body.Stem
	q.OptionA = body.OptionA
	q.OptionB = body.OptionB
	q.OptionC = body.OptionC
	q.OptionD = body.OptionD
	q.OptionE = body.OptionE
	q.CorrectAnswer = examforge.OptionKey(body.CorrectAnswer)
	q.Explanation = body.Explanation
	q.Difficulty = examforge.ParseDifficulty(body.Difficulty)
	q.BloomLevel = examforge.ParseBloomLevel(body.BloomLevel)
	q.Category = examforge.ParseCategory(body.Category)
	if body.Status != "" {
		q.Status = examforge.QuestionStatus(body.Status)
	}
	q.SourceQuote = body.SourceQuote
	q.SourceBook = body.SourceBook
	q.SourcePage = body.SourcePage

	if err := s.db.UpdateQuestion(r.Context(), q); err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, "Question updated")
	s.respondJSON(w, http.StatusOK, questionView{Question: q, Verdict: examforge.Validate(q.Draft())})
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	status, ok := examforge.ParseQuestionStatus(chi.URLParam(r, "status"))
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	if err := s.db.SetQuestionStatus(r.Context(), id, status); err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, fmt.Sprintf("Question %d marked %s", id, status))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": status})
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteQuestion(r.Context(), id); err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, "Question deleted")
	w.WriteHeader(http.StatusNoContent)
}

// handleValidate runs the rule validator over drafts in the generation response format
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	drafts, err := examforge.ParseGenerationResponse(string(body))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "expected a JSON object with a questions array")
		return
	}
	s.respondJSON(w, http.StatusOK, examforge.ValidateBatch(drafts))
}

// --- Exams ---

func (s *Server) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := s.db.ListExams(r.Context())
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(exams))
}

type createExamRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description"`
	QuestionIDs []int64 `json:"question_ids" validate:"omitempty,dive,gt=0"`
}

func (s *Server) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	id, err := s.db.CreateExam(r.Context(), req.Title, req.Description, req.QuestionIDs)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	exam, err := s.db.GetExam(r.Context(), id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, fmt.Sprintf("Exam %q created", req.Title))
	s.respondJSON(w, http.StatusCreated, exam)
}

type examView struct {
	Exam       *examforge.Exam          `json:"exam"`
	Questions  []examforge.ExamQuestion `json:"questions"`
	Candidates []examforge.Question     `json:"candidates"`
}

func (s *Server) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	exam, err := s.db.GetExam(ctx, id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	questions, err := s.db.GetExamQuestions(ctx, id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	candidates, err := s.db.ExamCandidates(ctx, id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, examView{
		Exam:       exam,
		Questions:  nonNil(questions),
		Candidates: nonNil(candidates),
	})
}

type examQuestionsRequest struct {
	QuestionIDs []int64 `json:"question_ids" validate:"required,min=1,dive,gt=0"`
}

func (s *Server) handleAddExamQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	var req examQuestionsRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	if err := s.db.AddExamQuestions(r.Context(), id, req.QuestionIDs); err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, fmt.Sprintf("%d questions added", len(req.QuestionIDs)))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"exam_id": id, "added": len(req.QuestionIDs)})
}

func (s *Server) handleRemoveExamQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	qid, ok := s.idParam(w, r, "qid")
	if !ok {
		return
	}
	if err := s.db.RemoveExamQuestion(r.Context(), id, qid); err != nil {
		s.respondKindError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteExam(r.Context(), id); err != nil {
		s.respondKindError(w, err)
		return
	}
	s.flash(w, r, "Exam deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportExam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	exam, err := s.db.GetExam(ctx, id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	questions, err := s.db.GetExamQuestions(ctx, id)
	if err != nil {
		s.respondKindError(w, err)
		return
	}

	switch chi.URLParam(r, "format") {
	case "json":
		data, err := examforge.ExportExamJSON(exam, questions)
		if err != nil {
			s.respondKindError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=exam-%d.json", id))
		w.Write(data)
	case "txt":
		lang := examforge.ParseLanguage(r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=exam-%d.txt", id))
		io.WriteString(w, examforge.ExportExamText(exam, questions, lang))
	default:
		s.respondError(w, http.StatusNotFound, "unsupported export format")
	}
}

// --- API ---

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.db.ListTopics(r.Context(), r.URL.Query().Get("chapter"))
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(topics))
}

func (s *Server) handleSubtopics(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r, "id")
	if !ok {
		return
	}
	topics, err := s.db.GetSubtopics(r.Context(), id, nil)
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(topics))
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	coverage, err := s.db.Coverage(r.Context())
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(coverage))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats(r.Context())
	if err != nil {
		s.respondKindError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// handleFlashes returns and clears pending flash messages
func (s *Server) handleFlashes(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	messages := []string{}
	for _, f := range session.Flashes() {
		if m, ok := f.(string); ok {
			messages = append(messages, m)
		}
	}
	if err := session.Save(r, w); err != nil {
		log.Warn().Err(err).Msg("failed to save session")
	}
	s.respondJSON(w, http.StatusOK, messages)
}

// --- helpers ---

// session returns the operator's session. A cookie that fails to decode yields a fresh session.
func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		log.Debug().Err(err).Msg("discarding unreadable session")
	}
	return session
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg string) {
	session := s.session(r)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		log.Warn().Err(err).Msg("failed to save session")
	}
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, code int, msg string) {
	s.respondJSON(w, code, map[string]string{"error": msg})
}

// respondKindError maps an error kind to its status code
func (s *Server) respondKindError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	s.respondJSON(w, code, map[string]string{"error": userMessage(err)})
}

func statusFor(err error) int {
	switch examforge.ErrorKind(err) {
	case examforge.ErrNotFound:
		return http.StatusNotFound
	case examforge.ErrContentUnavailable:
		return http.StatusUnprocessableEntity
	case examforge.ErrConfigurationMissing:
		return http.StatusServiceUnavailable
	case examforge.ErrMalformedResponse, examforge.ErrTransport:
		return http.StatusBadGateway
	case examforge.ErrInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to the operator. It carries the underlying
// cause, except for malformed output which is never echoed.
func userMessage(err error) string {
	switch examforge.ErrorKind(err) {
	case examforge.ErrMalformedResponse:
		return "the generation service returned a response that could not be read; try again"
	case nil:
		return "internal error"
	}
	return err.Error()
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
