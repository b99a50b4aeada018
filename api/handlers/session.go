package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/session"
	"github.com/virtudoc/virtudoc-engine/store"
)

// Session exported for testing purposes
type Session struct {
	Aggregator *session.Aggregator
	Store      *store.Store
}

// SubmitTurnHandler appends a patient turn and returns the updated session,
// assistant reply included
func (s Session) SubmitTurnHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PatientID string   `json:"patientID"`
		Text      string   `json:"text"`
		ImageRefs []string `json:"imageRefs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.PatientID == "" || body.Text == "" {
		config.ErrorStatus("patientID and text are required", http.StatusBadRequest, w, errors.New("missing field"))
		return
	}

	sess, err := s.Aggregator.SubmitUserTurn(r.Context(), body.PatientID, body.Text, body.ImageRefs)
	if err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			config.ErrorStatus("session is closed", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to submit turn", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(sess)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SessionByIDHandler returns a session by ID
func (s Session) SessionByIDHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	zap.S().Debugf("session_id: %v", sessionID)

	sess, ok := s.Aggregator.Session(sessionID)
	if !ok {
		config.ErrorStatus("failed to get session by ID", http.StatusNotFound, w, session.ErrSessionNotFound)
		return
	}

	b, err := json.Marshal(sess)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CloseSessionHandler moves a session to a terminal status. The body may name
// the final status; the default is completed.
func (s Session) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	var body struct {
		Status models.SessionStatus `json:"status"`
	}
	// empty body is fine, status defaults to completed
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Status == "" {
		body.Status = models.SessionCompleted
	}

	sess, err := s.Aggregator.CloseSession(sessionID, body.Status)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			config.ErrorStatus("failed to get session by ID", http.StatusNotFound, w, err)
		case errors.Is(err, session.ErrSessionClosed):
			config.ErrorStatus("session is already closed", http.StatusConflict, w, err)
		default:
			config.ErrorStatus("failed to close session", http.StatusBadRequest, w, err)
		}
		return
	}

	b, err := json.Marshal(sess)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
