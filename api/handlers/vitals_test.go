package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/virtudoc/virtudoc-engine/api/handlers"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/databases/mocks"
	"github.com/virtudoc/virtudoc-engine/metrics"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/store"
)

func newVitalsFixture(conn *mocks.CollectionHelper) (handlers.Vitals, *store.Store) {
	db := &mocks.DatabaseHelper{}
	db.On("Collection", "vitals").Return(conn)

	st := store.New()
	v := handlers.Vitals{
		DB:      databases.NewVitalsDatabase(db),
		Store:   st,
		Hub:     realtime.NewHub(),
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	}
	return v, st
}

func vitalsRouter(v handlers.Vitals) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/vitals", v.SubmitVitalsHandler).Methods("POST")
	r.HandleFunc("/api/v1/vitals/patient/{patient_id}", v.VitalsByPatientIDHandler).Methods("GET")
	return r
}

func TestSubmitVitalsHandler(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult)

	v, st := newVitalsFixture(conn)
	body := bytes.NewBufferString(`{
		"patientID": "patient-1",
		"healthWorkerID": "worker-1",
		"vitals": {"heartRate": 72, "oxygenSaturation": 98}
	}`)
	req := httptest.NewRequest("POST", "/api/v1/vitals", body)
	rr := httptest.NewRecorder()
	vitalsRouter(v).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Vitals submitted successfully")
	conn.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)

	// normal readings raise no doctor notification
	assert.Empty(t, st.Notifications())
}

func TestSubmitVitalsHandlerFlagsAbnormalReadings(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult)

	v, st := newVitalsFixture(conn)
	body := bytes.NewBufferString(`{
		"patientID": "patient-1",
		"healthWorkerID": "worker-1",
		"vitals": {"heartRate": 150, "oxygenSaturation": 88}
	}`)
	req := httptest.NewRequest("POST", "/api/v1/vitals", body)
	rr := httptest.NewRecorder()
	vitalsRouter(v).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	notifs := st.NotificationsForUser("", models.RoleDoctor)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationUrgentCase, notifs[0].Type)
	assert.Equal(t, models.UrgencyHigh, notifs[0].Priority)
}

func TestSubmitVitalsHandlerRequiresIdentifiers(t *testing.T) {
	v, _ := newVitalsFixture(&mocks.CollectionHelper{})
	body := bytes.NewBufferString(`{"vitals": {"heartRate": 72}}`)
	req := httptest.NewRequest("POST", "/api/v1/vitals", body)
	rr := httptest.NewRecorder()
	vitalsRouter(v).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "patientID and healthWorkerID are required")
}

func TestVitalsByPatientIDHandler(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		entries := args.Get(0).(*[]models.VitalsEntry)
		*entries = []models.VitalsEntry{
			{ID: "v2", PatientID: "patient-1"},
			{ID: "v1", PatientID: "patient-1"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor)

	v, _ := newVitalsFixture(conn)
	req := httptest.NewRequest("GET", "/api/v1/vitals/patient/patient-1", nil)
	rr := httptest.NewRecorder()
	vitalsRouter(v).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var entries []models.VitalsEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
	assert.Equal(t, "v2", entries[0].ID)
}

func TestVitalsByPatientIDHandlerEmptyHistory(t *testing.T) {
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}
	cursor.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor)

	v, _ := newVitalsFixture(conn)
	req := httptest.NewRequest("GET", "/api/v1/vitals/patient/patient-9", nil)
	rr := httptest.NewRecorder()
	vitalsRouter(v).ServeHTTP(rr, req)

	// an empty history is a JSON array, not null
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}
