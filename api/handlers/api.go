package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/ai"
	"github.com/virtudoc/virtudoc-engine/api"
	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/databases"
	"github.com/virtudoc/virtudoc-engine/media"
	"github.com/virtudoc/virtudoc-engine/metrics"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/session"
	"github.com/virtudoc/virtudoc-engine/store"
)

// App stores the router and service wiring, so it can be reused
type App struct {
	Router     *mux.Router
	Config     config.Config
	Store      *store.Store
	Hub        *realtime.Hub
	Aggregator *session.Aggregator
	Metrics    *metrics.Metrics
	dbHelper   databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	u := User{DB: databases.NewUserDatabase(a.dbHelper), Config: a.Config}
	s := Session{Aggregator: a.Aggregator, Store: a.Store}
	c := Case{Store: a.Store, Hub: a.Hub, DB: databases.NewCaseDatabase(a.dbHelper)}
	n := Notification{Store: a.Store}
	v := Vitals{
		DB:      databases.NewVitalsDatabase(a.dbHelper),
		Store:   a.Store,
		Hub:     a.Hub,
		Metrics: a.Metrics,
	}
	ws := WebSocket{Hub: a.Hub, Store: a.Store, Config: a.Config, Metrics: a.Metrics}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/ws", ws.Handler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.MetricsMiddleware(a.Metrics))
	apiCreate.Use(api.TimeoutMiddleware(api.QueryTimeout))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/ws-token", api.Middleware(http.HandlerFunc(u.WSTokenHandler))).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/sessions/turns", api.Middleware(http.HandlerFunc(s.SubmitTurnHandler))).Methods("POST")
	apiCreate.Handle("/sessions/{session_id}", api.Middleware(http.HandlerFunc(s.SessionByIDHandler))).Methods("GET")
	apiCreate.Handle("/sessions/{session_id}/close", api.Middleware(http.HandlerFunc(s.CloseSessionHandler))).Methods("POST")

	// the case queue is clinical-staff only
	staff := []models.Role{models.RoleHealthWorker, models.RoleDoctor}
	apiCreate.Handle("/cases", api.RequireRole(http.HandlerFunc(c.CasesHandler), staff...)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", api.RequireRole(http.HandlerFunc(c.CaseByIDHandler), staff...)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", api.RequireRole(http.HandlerFunc(c.UpdateCaseHandler), staff...)).Methods("PATCH")
	apiCreate.Handle("/cases/{case_id}/consultation", api.RequireRole(http.HandlerFunc(c.StartConsultationHandler), staff...)).Methods("POST")

	apiCreate.Handle("/notifications", api.Middleware(http.HandlerFunc(n.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notifications", api.Middleware(http.HandlerFunc(n.ClearNotificationsHandler))).Methods("DELETE")
	apiCreate.Handle("/notifications/{notification_id}/read", api.Middleware(http.HandlerFunc(n.MarkReadHandler))).Methods("PUT")

	apiCreate.Handle("/vitals", api.RequireRole(http.HandlerFunc(v.SubmitVitalsHandler), staff...)).Methods("POST")
	apiCreate.Handle("/vitals/patient/{patient_id}", api.RequireRole(http.HandlerFunc(v.VitalsByPatientIDHandler), staff...)).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("virtudoc-engine has connected to the database")

	a.Store = store.New()
	a.Hub = realtime.NewHub()
	a.Metrics = metrics.NewMetrics(prometheus.DefaultRegisterer)

	orchestrator := a.buildOrchestrator()

	a.Aggregator = session.New(
		orchestrator,
		a.Store,
		a.Hub,
		a.Metrics,
		databases.NewSessionDatabase(a.dbHelper),
		databases.NewCaseDatabase(a.dbHelper),
		databases.NewNotificationDatabase(a.dbHelper),
	)

	// initialize api router
	a.initializeRoutes()
	return nil

}

// buildOrchestrator assembles the provider chain from the environment. A
// provider with a missing key stays in the chain but reports unavailable.
func (a *App) buildOrchestrator() *ai.Orchestrator {
	providers := []ai.TextGenerator{
		ai.NewGeminiGenerator(context.Background()),
		ai.NewOpenAIGenerator(),
	}

	var speech ai.SpeechSynthesizer
	mediaStore, err := media.NewCloudinaryStore()
	if err != nil {
		zap.S().Warnw("cloudinary unavailable", "error", err)
	}
	if mediaStore != nil {
		speech = ai.NewElevenLabsSynthesizer(mediaStore)
	}

	orch := ai.NewOrchestrator(providers, speech, ai.NewTavusVideoGenerator())
	orch.OnEnrichmentFailure(func(kind string) {
		a.Metrics.EnrichmentFailures.WithLabelValues(kind).Inc()
	})
	return orch
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DBHelper exposes the database connection for wiring done in main
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
