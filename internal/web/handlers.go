package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/submission"
	"github.com/Ahlyab/flood-prediction/internal/version"
)

// pendingNotice is shown when a submission is refused while one is in flight
const pendingNotice = "A prediction is already pending."

// page is the data rendered by templates/index.html
type page struct {
	Title    string
	Endpoint string
	Version  string
	Fields   []indicators.Field
	State    submission.State
	Notice   string
}

// Pending reports whether the pending indicator is shown
func (p page) Pending() bool {
	return p.State.Pending()
}

// Result is the formatted probability, empty unless the last request succeeded
func (p page) Result() string {
	if _, ok := p.State.Result(); !ok {
		return ""
	}
	return p.State.Display()
}

// Error is the failure text, empty unless the last request failed
func (p page) Error() string {
	msg, _ := p.State.ErrorMessage()
	return msg
}

// stateResponse is the JSON body of /submit and /state
type stateResponse struct {
	State  submission.State `json:"state"`
	Notice string           `json:"notice,omitempty"`
}

func (s *Server) render(w http.ResponseWriter, status int, sess *Session, notice string) {
	data := page{
		Title:    "Flood Prediction",
		Endpoint: s.config.Endpoint,
		Version:  version.Full(),
		Fields:   sess.Controller.Form().Fields(),
		State:    sess.Controller.State(),
		Notice:   notice,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logging.Error("Failed to render form", zap.String("session", sess.ID), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write JSON response", zap.Error(err))
	}
}

// readForm copies the posted indicator fields into the session's form
func readForm(r *http.Request, sess *Session) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	c := sess.Controller
	c.SetForm(c.Form().FromValues(r.PostForm))
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.sessions.FromRequest(w, r), "")
}

// handleSubmitForm is the no-JavaScript path: it waits for the outcome and
// renders the page with it.
func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.FromRequest(w, r)
	if err := readForm(r, sess); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	_, err := sess.Controller.Submit(r.Context())
	switch {
	case errors.Is(err, submission.ErrPending):
		s.render(w, http.StatusConflict, sess, pendingNotice)
	case errors.Is(err, submission.ErrClosed):
		http.Error(w, "session closed", http.StatusServiceUnavailable)
	default:
		// ErrSuperseded renders whatever the newer submission left
		s.render(w, http.StatusOK, sess, "")
	}
}

// handleSubmitAsync starts a submission and answers with the pending state
func (s *Server) handleSubmitAsync(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.FromRequest(w, r)
	if err := readForm(r, sess); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
		return
	}

	state, err := sess.Controller.Start(s.ctx)
	switch {
	case errors.Is(err, submission.ErrPending):
		writeJSON(w, http.StatusConflict, stateResponse{State: state, Notice: pendingNotice})
	case errors.Is(err, submission.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session closed"})
	default:
		writeJSON(w, http.StatusAccepted, stateResponse{State: state})
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.FromRequest(w, r)
	writeJSON(w, http.StatusOK, stateResponse{State: sess.Controller.State()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.FromRequest(w, r)
	sess.Controller.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  version.Version,
		"sessions": s.sessions.Len(),
	})
}
