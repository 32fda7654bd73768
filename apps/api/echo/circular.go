package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/circular"
)

var errCircNotFoundInCtx = errors.New("circular object not found in echo.Context")

type circularApi struct {
	svc *circular.Service
}

func registerCircularAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *circular.Service) {
	api := circularApi{svc: svc}

	cg := g.Group("/circulars", jwt)

	cg.GET("", api.query)
	cg.POST("", api.create, featureMiddleware("circulars"))

	dg := cg.Group("/:id", api.detailMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, featureMiddleware("circulars"))
	dg.DELETE("", api.destroy, featureMiddleware("circulars"))
}

// detailMiddleware loads the target circular and enforces tenant isolation.
func (api *circularApi) detailMiddleware() echo.MiddlewareFunc {
	return objectMiddleware("circular", func(ctx echo.Context, id string) (string, error) {
		circ, err := api.svc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == circular.ErrNotFound {
				return "", errHttpNotFound
			}
			return "", err
		}
		ctx.Set("object", circ)
		return circ.SchoolID, nil
	})
}

// Handlers

func (api *circularApi) create(ctx echo.Context) error {
	var data circular.NewCircular
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCircular")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	schoolID := sess.SchoolID
	if sess.Role == access.RoleSuperAdmin && ctx.QueryParam("school_id") != "" {
		schoolID = ctx.QueryParam("school_id")
	}

	circ, err := api.svc.Create(ctx.Request().Context(), schoolID, sess.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating circular")
	}
	return ctx.JSON(http.StatusCreated, circ)
}

// query lists the caller's school circulars; superadmins may scope to any
// school via the school_id query param.
func (api *circularApi) query(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}

	filter := &circular.QueryFilter{
		SchoolID: sess.SchoolID,
		Audience: ctx.QueryParam("audience"),
	}
	if sess.Role == access.RoleSuperAdmin {
		filter.SchoolID = ctx.QueryParam("school_id")
	}

	circs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying circulars")
	}
	if circs == nil {
		circs = []circular.Circular{}
	}
	return ctx.JSON(http.StatusOK, circs)
}

func (api *circularApi) retrieve(ctx echo.Context) error {
	circ, ok := ctx.Get("object").(circular.Circular)
	if !ok {
		return errors.Wrap(errCircNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, circ)
}

func (api *circularApi) update(ctx echo.Context) error {
	circ, ok := ctx.Get("object").(circular.Circular)
	if !ok {
		return errors.Wrap(errCircNotFoundInCtx, "retrieving object from context")
	}

	var data circular.UpdateCircular
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCircular")
	}
	if err := data.Validate(circ); err != nil {
		return err
	}

	circ, err := api.svc.Update(ctx.Request().Context(), circ.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating circular")
	}
	return ctx.JSON(http.StatusOK, circ)
}

func (api *circularApi) destroy(ctx echo.Context) error {
	circ, ok := ctx.Get("object").(circular.Circular)
	if !ok {
		return errors.Wrap(errCircNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), circ.ID); err != nil {
		return errors.Wrap(err, "deleting circular")
	}
	return ctx.NoContent(http.StatusNoContent)
}
