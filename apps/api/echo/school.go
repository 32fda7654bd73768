package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/school"
)

var errSchNotFoundInCtx = errors.New("school object not found in echo.Context")

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools", jwt)

	// only superadmins manage the school registry
	sg.POST("", api.create, roleMiddleware(access.RoleSuperAdmin))
	sg.GET("", api.query, roleMiddleware(access.RoleSuperAdmin))

	dg := sg.Group("/:id", api.detailMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, roleMiddleware(access.RoleSuperAdmin))
	dg.DELETE("", api.destroy, roleMiddleware(access.RoleSuperAdmin))
}

// detailMiddleware loads the target school; non-superadmins only see their own.
func (api *schoolApi) detailMiddleware() echo.MiddlewareFunc {
	return objectMiddleware("school", func(ctx echo.Context, id string) (string, error) {
		sch, err := api.svc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				return "", errHttpNotFound
			}
			return "", err
		}
		ctx.Set("object", sch)
		return sch.ID, nil
	})
}

// Handlers

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(sch); err != nil {
		return err
	}

	sch, err := api.svc.Update(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	sch, ok := ctx.Get("object").(school.School)
	if !ok {
		return errors.Wrap(errSchNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), sch.ID); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}
