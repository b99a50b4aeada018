package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/api"
	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/store"
)

// Case exported for testing purposes
type Case struct {
	Store *store.Store
	Hub   *realtime.Hub
	DB    databases.CaseDatabase
}

// CasesHandler returns the cached cases, optionally filtered to the ones
// still needing attention with ?active=true
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	var cases []models.Case
	if r.URL.Query().Get("active") == "true" {
		cases = c.Store.ActiveCases()
	} else {
		cases = c.Store.Cases()
	}

	b, err := json.Marshal(cases)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	kase, ok := c.Store.Case(caseID)
	if !ok {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, errors.New("case not found"))
		return
	}

	b, err := json.Marshal(kase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCaseHandler patches a case's mutable fields and pushes the update to
// connected dashboards
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var update models.CaseUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if _, ok := c.Store.Case(caseID); !ok {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, errors.New("case not found"))
		return
	}

	c.Store.ApplyCaseUpdate(caseID, update)
	c.persistUpdate(r, caseID, update)

	if evt, err := models.NewEvent(models.EventCaseUpdated, models.CaseUpdatedPayload{CaseID: caseID, Updates: update}); err == nil {
		c.Hub.BroadcastToRole(models.RoleHealthWorker, evt)
		c.Hub.BroadcastToRole(models.RoleDoctor, evt)
	}

	kase, _ := c.Store.Case(caseID)
	b, err := json.Marshal(kase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// StartConsultationHandler marks a case in review and announces the video
// consultation to the patient and both dashboards
func (c Case) StartConsultationHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	kase, ok := c.Store.Case(caseID)
	if !ok {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, errors.New("case not found"))
		return
	}

	status := models.CaseInReview
	update := models.CaseUpdate{Status: &status}
	c.Store.ApplyCaseUpdate(caseID, update)
	c.persistUpdate(r, caseID, update)

	if evt, err := models.NewEvent(models.EventConsultationStarted, models.ConsultationStartedPayload{CaseID: caseID}); err == nil {
		c.Hub.SendToUser(kase.PatientID, evt)
		c.Hub.BroadcastToRole(models.RoleHealthWorker, evt)
		c.Hub.BroadcastToRole(models.RoleDoctor, evt)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Consultation started successfully",
		"caseID":  caseID,
	})
}

func (c Case) persistUpdate(r *http.Request, caseID string, u models.CaseUpdate) {
	if c.DB == nil {
		return
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.AssignedWorkerID != nil {
		set["assignedWorkerID"] = *u.AssignedWorkerID
	}
	if u.AssignedDoctorID != nil {
		set["assignedDoctorID"] = *u.AssignedDoctorID
	}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}
	if err := c.DB.UpdateOne(ctx, bson.M{"_id": caseID}, bson.M{"$set": set}); err != nil {
		zap.S().Errorw("failed to persist case update", "caseID", caseID, "error", err)
	}
}
