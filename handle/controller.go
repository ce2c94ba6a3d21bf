package handle

import (
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// InitializeRoutes mounts panic recovery and the liveness routes on Router.
func InitializeRoutes(Router *mux.Router, logger *logrus.Logger) {
	Router.Use(handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true)))
	Router.Handle("/", health()).Methods("GET")
	Router.Handle("/health_check", health()).Methods("GET")
}
