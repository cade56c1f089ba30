package http

import (
	"context"
	"net/http"
	"strconv"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"go.uber.org/zap"
)

// CategoryLister lists the categories offered by the trivia provider.
type CategoryLister interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Handler exposes the attempt and catalog use cases over JSON.
type Handler struct {
	attempts   *app.AttemptService
	catalog    *app.CatalogService
	categories CategoryLister
	auth       Authenticator
	logger     *zap.Logger
}

func NewHandler(attempts *app.AttemptService, catalog *app.CatalogService, auth Authenticator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{attempts: attempts, catalog: catalog, auth: auth, logger: logger}
}

// WithCategories enables the trivia category listing route.
func (h *Handler) WithCategories(c CategoryLister) *Handler {
	h.categories = c
	return h
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quizzes", optionalUser(h.auth, h.listQuizzes))
	mux.HandleFunc("POST /api/quizzes", requireUser(h.auth, h.createQuiz))
	mux.HandleFunc("GET /api/quizzes/{id}", optionalUser(h.auth, h.getQuiz))
	mux.HandleFunc("PUT /api/quizzes/{id}", requireUser(h.auth, h.updateQuiz))
	mux.HandleFunc("DELETE /api/quizzes/{id}", requireUser(h.auth, h.deleteQuiz))
	mux.HandleFunc("POST /api/quizzes/{id}/attempts", requireUser(h.auth, h.submitAttempt))
	mux.HandleFunc("POST /api/quizzes/import", requireUser(h.auth, h.importQuiz))
	mux.HandleFunc("GET /api/import/opentdb", requireUser(h.auth, h.previewImport))
	if h.categories != nil {
		mux.HandleFunc("GET /api/import/opentdb/categories", requireUser(h.auth, h.listCategories))
	}

	mux.HandleFunc("GET /api/attempts", requireUser(h.auth, h.listAttempts))
	mux.HandleFunc("POST /api/attempts", requireUser(h.auth, h.recordAttempt))
	mux.HandleFunc("DELETE /api/attempts", requireUser(h.auth, h.deleteAllAttempts))
	mux.HandleFunc("GET /api/attempts/stats", requireUser(h.auth, h.stats))
	mux.HandleFunc("DELETE /api/attempts/{id}", requireUser(h.auth, h.deleteAttempt))
}

type submitRequest struct {
	Answers   []*int `json:"answers"` // null marks an unanswered question
	TimeTaken int    `json:"timeTaken"`
}

type recordRequest struct {
	QuizID      string  `json:"quizId"`
	QuizTitle   string  `json:"quizTitle"`
	Score       int     `json:"score"`
	TotalPoints int     `json:"totalPoints"`
	Percentage  float64 `json:"percentage"`
	TimeTaken   int     `json:"timeTaken"`
}

type importRequest struct {
	Title string `json:"title"`
	domain.ImportQuery
}

type deletedPayload struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted,omitempty"`
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeJSON(w, r, &quiz); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.catalog.Create(r.Context(), userFrom(r.Context()), quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.Get(r.Context(), userFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := decodeJSON(w, r, &quiz); err != nil {
		writeError(w, err)
		return
	}
	quiz.ID = r.PathValue("id")
	updated, err := h.catalog.Update(r.Context(), userFrom(r.Context()), quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), userFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedPayload{Message: "Deleted"})
}

func (h *Handler) importQuiz(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.catalog.Import(r.Context(), userFrom(r.Context()), req.Title, req.ImportQuery)
	if err != nil {
		h.logger.Warn("quiz import failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) previewImport(w http.ResponseWriter, r *http.Request) {
	query, err := importQueryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	questions, err := h.catalog.Preview(r.Context(), query)
	if err != nil {
		h.logger.Warn("question preview failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.Categories(r.Context())
	if err != nil {
		h.logger.Warn("category listing failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func importQueryFrom(r *http.Request) (domain.ImportQuery, error) {
	values := r.URL.Query()
	query := domain.ImportQuery{
		Difficulty: values.Get("difficulty"),
		Type:       values.Get("type"),
	}
	for name, dst := range map[string]*int{"amount": &query.Amount, "category": &query.Category} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.ImportQuery{}, domain.Invalid(name, "must be a non-negative integer")
		}
		*dst = n
	}
	return query, nil
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	answers := make([]domain.Answer, len(req.Answers))
	for i, a := range req.Answers {
		if a == nil {
			answers[i] = domain.Unanswered
			continue
		}
		if *a < 0 {
			writeError(w, domain.Invalid("answers", "entry "+strconv.Itoa(i)+" is negative"))
			return
		}
		answers[i] = domain.Answer(*a)
	}

	attempt, err := h.attempts.Submit(r.Context(), userFrom(r.Context()), r.PathValue("id"), answers, req.TimeTaken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attempts.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) recordAttempt(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.attempts.Record(r.Context(), domain.Attempt{
		UserID:      userFrom(r.Context()),
		QuizID:      req.QuizID,
		QuizTitle:   req.QuizTitle,
		Score:       req.Score,
		TotalPoints: req.TotalPoints,
		Percentage:  req.Percentage,
		TimeTaken:   req.TimeTaken,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.attempts.Stats(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) deleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := h.attempts.Delete(r.Context(), r.PathValue("id"), userFrom(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedPayload{Message: "Deleted"})
}

func (h *Handler) deleteAllAttempts(w http.ResponseWriter, r *http.Request) {
	n, err := h.attempts.DeleteAll(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedPayload{Message: "Deleted", Deleted: n})
}
