package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/access"
)

// accessApi serves the portal gate decisions so the SPA guards and the
// server predicates share one rule set.
type accessApi struct{}

func registerAccessAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	api := accessApi{}

	ag := g.Group("/access", jwt)
	ag.GET("/tabs", api.evaluateTab)
	ag.GET("/features", api.queryFeatures)
}

// evaluateTab returns the gate decision for the tab in the "tab" query
// param. The caller holds a verified token, so the session state is Ready.
func (api *accessApi) evaluateTab(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	decision := access.EvaluateTab(access.StateReady, sess, ctx.QueryParam("tab"))
	return ctx.JSON(http.StatusOK, decision)
}

func (api *accessApi) queryFeatures(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, access.AllFeatures)
}
