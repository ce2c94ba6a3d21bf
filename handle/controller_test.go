package handle

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestHealthRoutes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := mux.NewRouter()
	InitializeRoutes(r, logger)

	for _, path := range []string{"/", "/health_check"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
		assert.JSONEq(t, `{"status": "UP"}`, rec.Body.String(), path)
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := mux.NewRouter()
	InitializeRoutes(r, logger)
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, hook.AllEntries())
}
