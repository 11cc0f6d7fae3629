// Package service exposes the categorization session over a JSON HTTP API.
// It is the boundary the browser frontend talks to: each handler loads the
// persisted session, replays it into a session.Controller, applies exactly
// one action and persists the result.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splitswipe/splitswipe/internal/auth"
	"github.com/splitswipe/splitswipe/internal/middleware"
	"github.com/splitswipe/splitswipe/internal/models"
	"github.com/splitswipe/splitswipe/internal/session"
	"github.com/splitswipe/splitswipe/internal/statement"
	"github.com/splitswipe/splitswipe/internal/storage"
)

// maxStatementBytes bounds an uploaded statement.
const maxStatementBytes = 10 << 20

// SessionService implements the session HTTP API.
type SessionService struct {
	store  storage.Store
	tokens *auth.TokenManager

	// mu serializes session mutations: one decision, undo or reset at a
	// time, matching the single-writer discipline of the state machine.
	mu sync.Mutex
}

// NewSessionService creates a session service with the given storage
// backend and token manager.
func NewSessionService(store storage.Store, tokens *auth.TokenManager) *SessionService {
	return &SessionService{store: store, tokens: tokens}
}

// Register wires the session routes into the mux. All routes except
// statement upload require a session token.
func (s *SessionService) Register(mux *http.ServeMux) {
	protect := middleware.RequireSession(s.tokens)

	mux.Handle("POST /api/v1/sessions", http.HandlerFunc(s.handleCreate))
	mux.Handle("GET /api/v1/session", protect(http.HandlerFunc(s.handleGet)))
	mux.Handle("POST /api/v1/session/confirm", protect(http.HandlerFunc(s.handleConfirm)))
	mux.Handle("POST /api/v1/session/decisions", protect(http.HandlerFunc(s.handleDecide)))
	mux.Handle("POST /api/v1/session/undo", protect(http.HandlerFunc(s.handleUndo)))
	mux.Handle("PUT /api/v1/session/ratio", protect(http.HandlerFunc(s.handleRatio)))
	mux.Handle("POST /api/v1/session/reset", protect(http.HandlerFunc(s.handleReset)))
	mux.Handle("GET /api/v1/session/summary", protect(http.HandlerFunc(s.handleSummary)))
}

// transactionView is the JSON shape of a transaction. Date is omitted when
// the statement's date was unparseable.
type transactionView struct {
	ID          int     `json:"id"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	IsCredit    bool    `json:"is_credit"`
	RawAmount   float64 `json:"raw_amount"`
}

func viewOf(t models.Transaction) transactionView {
	v := transactionView{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		IsCredit:    t.IsCredit,
		RawAmount:   t.RawAmount,
	}
	if t.DateValid {
		v.Date = t.Date.Format("2006-01-02")
	}
	return v
}

func viewsOf(txns []models.Transaction) []transactionView {
	views := make([]transactionView, len(txns))
	for i, t := range txns {
		views[i] = viewOf(t)
	}
	return views
}

type sessionView struct {
	Stage   string           `json:"stage"`
	Cursor  int              `json:"cursor"`
	Total   int              `json:"total"`
	Ratio   float64          `json:"ratio"`
	Current *transactionView `json:"current,omitempty"`
}

func stateOf(c *session.Controller) sessionView {
	v := sessionView{
		Stage:  string(c.Stage()),
		Cursor: c.Cursor(),
		Total:  c.Total(),
		Ratio:  c.Ratio(),
	}
	if c.Stage() == models.StageCategorizing {
		if current, ok := c.Current(); ok {
			cv := viewOf(current)
			v.Current = &cv
		}
	}
	return v
}

type createResponse struct {
	Token       string  `json:"token"`
	Stage       string  `json:"stage"`
	Count       int     `json:"count"`
	PeriodStart string  `json:"period_start,omitempty"`
	PeriodEnd   string  `json:"period_end,omitempty"`
	Ratio       float64 `json:"ratio"`
}

// handleCreate parses an uploaded CSV statement into a new session.
func (s *SessionService) handleCreate(w http.ResponseWriter, r *http.Request) {
	records, err := statement.ReadRecords(http.MaxBytesReader(w, r.Body, maxStatementBytes))
	if err != nil {
		slog.Warn("Statement upload rejected", "error", err)
		writeError(w, http.StatusBadRequest, "could not read statement: "+err.Error())
		return
	}

	c := session.New()
	txns := statement.Parse(records)
	if err := c.LoadStatement(txns); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess := &models.Session{
		ID:           uuid.New().String(),
		Stage:        c.Stage(),
		Cursor:       c.Cursor(),
		Ratio:        c.Ratio(),
		Transactions: txns,
		Decisions:    c.Snapshot(),
	}
	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		slog.Error("CreateSession failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	token, err := s.tokens.Generate(sess.ID)
	if err != nil {
		slog.Error("Token generation failed", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	middleware.SessionsCreated.Inc()
	slog.Info("Session created",
		"session_id", sess.ID,
		"rows", len(records),
		"transactions", len(txns),
	)

	resp := createResponse{
		Token: token,
		Stage: string(c.Stage()),
		Count: len(txns),
		Ratio: c.Ratio(),
	}
	resp.PeriodStart, resp.PeriodEnd = period(txns)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *SessionService) handleGet(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateOf(c))
}

func (s *SessionService) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, ok := s.load(w, r)
	if !ok {
		return
	}
	if err := c.Confirm(); err != nil {
		writeActionError(w, err)
		return
	}
	if !s.saveProgress(w, r, sess.ID, c) {
		return
	}
	writeJSON(w, http.StatusOK, stateOf(c))
}

type decideRequest struct {
	Signal   string `json:"signal,omitempty"`
	Category string `json:"category,omitempty"`
}

func (s *SessionService) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var category models.Category
	var err error
	switch {
	case req.Signal != "":
		category, err = session.Signal(req.Signal).Category()
	case req.Category != "":
		category, err = models.ParseCategory(req.Category)
	default:
		writeError(w, http.StatusBadRequest, "signal or category required")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, ok := s.load(w, r)
	if !ok {
		return
	}
	if err := c.Decide(category); err != nil {
		writeActionError(w, err)
		return
	}
	if !s.saveDecisions(w, r, sess.ID, c) || !s.saveProgress(w, r, sess.ID, c) {
		return
	}

	middleware.DecisionsTotal.WithLabelValues(string(category)).Inc()
	slog.Debug("Decision applied",
		"session_id", sess.ID,
		"category", category,
		"cursor", c.Cursor(),
		"stage", c.Stage(),
	)
	writeJSON(w, http.StatusOK, stateOf(c))
}

func (s *SessionService) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, ok := s.load(w, r)
	if !ok {
		return
	}
	if err := c.Undo(); err != nil {
		writeActionError(w, err)
		return
	}
	if !s.saveDecisions(w, r, sess.ID, c) || !s.saveProgress(w, r, sess.ID, c) {
		return
	}

	middleware.UndosTotal.Inc()
	writeJSON(w, http.StatusOK, stateOf(c))
}

type ratioRequest struct {
	Ratio float64 `json:"ratio"`
}

func (s *SessionService) handleRatio(w http.ResponseWriter, r *http.Request) {
	var req ratioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, ok := s.load(w, r)
	if !ok {
		return
	}
	c.SetRatio(req.Ratio)
	if !s.saveProgress(w, r, sess.ID, c) {
		return
	}
	writeJSON(w, http.StatusOK, stateOf(c))
}

// handleReset deletes the session entirely: the next upload starts fresh.
func (s *SessionService) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := middleware.SessionID(r.Context())
	if err := s.store.DeleteSession(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	slog.Info("Session reset", "session_id", sessionID)
	writeJSON(w, http.StatusOK, sessionView{Stage: string(models.StageUpload)})
}

type summaryResponse struct {
	PartnerOwes float64 `json:"partner_owes"`
	Ratio       float64 `json:"ratio"`
	Breakdown   struct {
		PartnerSplit float64 `json:"partner_split"`
		Partner5050  float64 `json:"partner_5050"`
	} `json:"breakdown"`
	Totals struct {
		Personal float64 `json:"personal"`
		Split    float64 `json:"split"`
		Split50  float64 `json:"split50"`
	} `json:"totals"`
	Buckets struct {
		Personal []transactionView `json:"personal"`
		Split    []transactionView `json:"split"`
		Split50  []transactionView `json:"split50"`
	} `json:"buckets"`
	TopShared   []transactionView `json:"top_shared"`
	PeriodStart string            `json:"period_start,omitempty"`
	PeriodEnd   string            `json:"period_end,omitempty"`
}

func (s *SessionService) handleSummary(w http.ResponseWriter, r *http.Request) {
	_, c, ok := s.load(w, r)
	if !ok {
		return
	}
	if c.Stage() != models.StageSummary {
		writeError(w, http.StatusConflict, "categorization not complete")
		return
	}

	result := c.Summary()
	resp := summaryResponse{
		PartnerOwes: result.Totals.PartnerOwes,
		Ratio:       c.Ratio(),
		TopShared:   viewsOf(result.TopShared),
	}
	resp.Breakdown.PartnerSplit = result.Breakdown.PartnerSplit
	resp.Breakdown.Partner5050 = result.Breakdown.Partner5050
	resp.Totals.Personal = result.Totals.Personal
	resp.Totals.Split = result.Totals.Split
	resp.Totals.Split50 = result.Totals.Split50
	resp.Buckets.Personal = viewsOf(result.Buckets.Personal)
	resp.Buckets.Split = viewsOf(result.Buckets.Split)
	resp.Buckets.Split50 = viewsOf(result.Buckets.Split50)
	resp.PeriodStart, resp.PeriodEnd = period(c.Transactions())
	writeJSON(w, http.StatusOK, resp)
}

// load fetches the persisted session for the request's token and replays it
// into a controller. On failure it writes the error response and returns
// ok=false.
func (s *SessionService) load(w http.ResponseWriter, r *http.Request) (*models.Session, *session.Controller, bool) {
	sessionID := middleware.SessionID(r.Context())
	sess, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}
	c, err := session.Resume(sess)
	if err != nil {
		slog.Error("Session resume failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "corrupt session state")
		return nil, nil, false
	}
	return sess, c, true
}

func (s *SessionService) saveProgress(w http.ResponseWriter, r *http.Request, sessionID string, c *session.Controller) bool {
	if err := s.store.SaveProgress(r.Context(), sessionID, c.Stage(), c.Cursor(), c.Ratio()); err != nil {
		slog.Error("SaveProgress failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return false
	}
	return true
}

func (s *SessionService) saveDecisions(w http.ResponseWriter, r *http.Request, sessionID string, c *session.Controller) bool {
	if err := s.store.SaveDecisions(r.Context(), sessionID, c.Snapshot()); err != nil {
		slog.Error("SaveDecisions failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist decisions")
		return false
	}
	return true
}

// period returns the first and last transaction dates of the working set,
// skipping undated rows.
func period(txns []models.Transaction) (start, end string) {
	var first, last time.Time
	for _, t := range txns {
		if !t.DateValid {
			continue
		}
		if first.IsZero() || t.Date.Before(first) {
			first = t.Date
		}
		if last.IsZero() || t.Date.After(last) {
			last = t.Date
		}
	}
	if first.IsZero() {
		return "", ""
	}
	return first.Format("2006-01-02"), last.Format("2006-01-02")
}

func writeActionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrWrongStage) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
