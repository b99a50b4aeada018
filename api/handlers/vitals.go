package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/api"
	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/metrics"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/store"
)

// Vitals exported for testing purposes
type Vitals struct {
	DB      databases.VitalsDatabase
	Store   *store.Store
	Hub     *realtime.Hub
	Metrics *metrics.Metrics
}

// SubmitVitalsHandler stores a field vitals submission, broadcasts it to the
// dashboards and raises a doctor-queue notification when a reading is
// abnormal.
func (v Vitals) SubmitVitalsHandler(w http.ResponseWriter, r *http.Request) {
	var entry models.VitalsEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if entry.PatientID == "" || entry.HealthWorkerID == "" {
		config.ErrorStatus("patientID and healthWorkerID are required", http.StatusBadRequest, w, errors.New("missing field"))
		return
	}

	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := v.DB.InsertOne(ctx, entry); err != nil {
		config.ErrorStatus("failed to store vitals", http.StatusInternalServerError, w, err)
		return
	}

	if evt, err := models.NewEvent(models.EventVitalsSubmitted, models.VitalsSubmittedPayload{Vitals: entry, PatientID: entry.PatientID}); err == nil {
		v.Hub.BroadcastToRole(models.RoleHealthWorker, evt)
		v.Hub.BroadcastToRole(models.RoleDoctor, evt)
	}

	if entry.Vitals.Abnormal() {
		v.Metrics.VitalsAbnormal.Inc()
		v.raiseAbnormalNotification(entry)
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Vitals submitted successfully",
		"id":      entry.ID,
	})
}

// VitalsByPatientIDHandler returns a patient's vitals history, newest first
func (v Vitals) VitalsByPatientIDHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patient_id"]

	zap.S().Debugf("patient_id: %v", patientID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	entries, err := v.DB.Find(ctx, bson.M{"patientID": patientID}, opts)
	if err != nil {
		config.ErrorStatus("failed to get vitals", http.StatusNotFound, w, err)
		return
	}

	if len(entries) == 0 {
		entries = []models.VitalsEntry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (v Vitals) raiseAbnormalNotification(entry models.VitalsEntry) {
	n := models.Notification{
		ID:         uuid.New().String(),
		TargetRole: models.RoleDoctor,
		Type:       models.NotificationUrgentCase,
		Title:      "Abnormal vitals",
		Message:    fmt.Sprintf("Patient %s has abnormal vitals readings", entry.PatientID),
		Priority:   models.UrgencyHigh,
		CreatedAt:  time.Now().UTC(),
	}
	v.Store.PushNotification(n)
	v.Metrics.NotificationsPushed.WithLabelValues(string(n.Type)).Inc()
	if evt, err := models.NewEvent(models.EventNotification, models.NotificationPayload{Notification: n}); err == nil {
		v.Hub.BroadcastToRole(models.RoleDoctor, evt)
	}
}
