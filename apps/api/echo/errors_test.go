package echoapi

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
)

// Error bodies must keep their structured shape in TEST mode even when echo
// runs with Debug on.
func TestHTTPErrorHandler_debugKeepsStructuredBodies(t *testing.T) {
	core.Conf.TestMode = true
	core.Conf.Debug = true
	defer func() { core.Conf.Debug = false }()

	app := echo.New()
	app.Debug = core.Conf.Debug
	handler := newAppHTTPErrorHandler(testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}, func() {})

	serve := func(err error) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler(err, app.NewContext(req, rec))
		return rec
	}

	rec := serve(errAuthenticationFailed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "authentication failed"}`, rec.Body.String())

	rec = serve(access.FeatureForbiddenError{
		Message: "you cannot grant features you do not hold",
		Invalid: []string{"payments"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message": "you cannot grant features you do not hold", "invalid": ["payments"]}`, rec.Body.String())
}
