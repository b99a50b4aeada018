package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	mocktest "github.com/stretchr/testify/mock"

	"github.com/virtudoc/virtudoc-engine/api/handlers"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/databases/mocks"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/store"
)

func newCaseFixture() (handlers.Case, *store.Store) {
	st := store.New()
	return handlers.Case{Store: st, Hub: realtime.NewHub()}, st
}

func caseRouter(c handlers.Case) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cases", c.CasesHandler).Methods("GET")
	r.HandleFunc("/api/v1/cases/{case_id}", c.CaseByIDHandler).Methods("GET")
	r.HandleFunc("/api/v1/cases/{case_id}", c.UpdateCaseHandler).Methods("PATCH")
	r.HandleFunc("/api/v1/cases/{case_id}/consultation", c.StartConsultationHandler).Methods("POST")
	return r
}

func TestCasesHandlerReturnsAllCases(t *testing.T) {
	c, st := newCaseFixture()
	st.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})
	st.UpsertCase(models.Case{ID: "c2", Status: models.CaseClosed})

	req := httptest.NewRequest("GET", "/api/v1/cases", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var cases []models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cases))
	assert.Len(t, cases, 2)
}

func TestCasesHandlerActiveFilter(t *testing.T) {
	c, st := newCaseFixture()
	st.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})
	st.UpsertCase(models.Case{ID: "c2", Status: models.CaseClosed})

	req := httptest.NewRequest("GET", "/api/v1/cases?active=true", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var cases []models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cases))
	assert.Len(t, cases, 1)
	assert.Equal(t, "c1", cases[0].ID)
}

func TestCaseByIDHandler(t *testing.T) {
	c, st := newCaseFixture()
	st.UpsertCase(models.Case{ID: "c1", Status: models.CasePending, Priority: models.UrgencyHigh})

	req := httptest.NewRequest("GET", "/api/v1/cases/c1", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.UrgencyHigh, got.Priority)
}

func TestCaseByIDHandlerNotFound(t *testing.T) {
	c, _ := newCaseFixture()

	req := httptest.NewRequest("GET", "/api/v1/cases/ghost", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get case by ID")
}

func TestUpdateCaseHandlerAssignsWorker(t *testing.T) {
	c, st := newCaseFixture()
	st.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})

	body := bytes.NewBufferString(`{"assignedWorkerID": "worker-7", "status": "in-review"}`)
	req := httptest.NewRequest("PATCH", "/api/v1/cases/c1", body)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "worker-7", got.AssignedWorkerID)
	assert.Equal(t, models.CaseInReview, got.Status)
}

func TestUpdateCaseHandlerPersistsThroughDatabase(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	conn.On("UpdateOne", mocktest.Anything, mocktest.Anything, mocktest.Anything).Return(nil)
	db.On("Collection", "cases").Return(conn)

	st := store.New()
	st.UpsertCase(models.Case{ID: "c1", Status: models.CasePending})
	c := handlers.Case{Store: st, Hub: realtime.NewHub(), DB: databases.NewCaseDatabase(db)}

	body := bytes.NewBufferString(`{"status": "closed"}`)
	req := httptest.NewRequest("PATCH", "/api/v1/cases/c1", body)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	conn.AssertCalled(t, "UpdateOne", mocktest.Anything, mocktest.Anything, mocktest.Anything)
}

func TestUpdateCaseHandlerNotFound(t *testing.T) {
	c, _ := newCaseFixture()

	body := bytes.NewBufferString(`{"status": "closed"}`)
	req := httptest.NewRequest("PATCH", "/api/v1/cases/ghost", body)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartConsultationHandler(t *testing.T) {
	c, st := newCaseFixture()
	st.UpsertCase(models.Case{ID: "c1", PatientID: "patient-1", Status: models.CasePending})

	req := httptest.NewRequest("POST", "/api/v1/cases/c1/consultation", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Consultation started successfully")

	got, ok := st.Case("c1")
	assert.True(t, ok)
	assert.Equal(t, models.CaseInReview, got.Status)
}

func TestStartConsultationHandlerNotFound(t *testing.T) {
	c, _ := newCaseFixture()

	req := httptest.NewRequest("POST", "/api/v1/cases/ghost/consultation", nil)
	rr := httptest.NewRecorder()
	caseRouter(c).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
