package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/virtudoc/virtudoc-engine/api/handlers"
	"github.com/virtudoc/virtudoc-engine/api/scheduler"
	"github.com/virtudoc/virtudoc-engine/databases"

	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	s := scheduler.NewScheduler(
		a.Aggregator,
		databases.NewCaseDatabase(a.DBHelper()),
		databases.NewNotificationDatabase(a.DBHelper()),
		a.Hub,
	)
	s.Start()
	defer s.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("virtudoc-engine is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
