package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core/catalog"
)

type catalogApi struct {
	svc catalog.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc catalog.Service) {
	api := catalogApi{svc: svc}

	cg := g.Group("/catalog", jwt)
	cg.GET("/zones", api.queryZones)

	// content management is reserved to the care team
	vg := cg.Group("/videos", doctorMiddleware())
	vg.POST("", api.createVideo)
	vg.GET("", api.queryVideos)
	vg.PUT("/:id", api.updateVideo)
	vg.DELETE("", api.destroyVideos)

	tg := cg.Group("/tasks", doctorMiddleware())
	tg.POST("", api.createTask)
	tg.GET("", api.queryTasks)
	tg.DELETE("", api.destroyTasks)
}

func (api *catalogApi) queryZones(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, catalog.Zones())
}

func (api *catalogApi) createVideo(ctx echo.Context) error {
	var data catalog.NewZoneVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewZoneVideo")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.CreateVideo(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating video")
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *catalogApi) queryVideos(ctx echo.Context) error {
	zone, _ := strconv.Atoi(ctx.QueryParam("zone")) // 0 -> all zones

	vids, err := api.svc.QueryVideos(ctx.Request().Context(), zone)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	if vids == nil {
		vids = []catalog.ZoneVideo{}
	}
	return ctx.JSON(http.StatusOK, vids)
}

func (api *catalogApi) updateVideo(ctx echo.Context) error {
	var data catalog.UpdateZoneVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateZoneVideo")
	}

	vid, err := api.svc.UpdateVideo(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == catalog.ErrVideoNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating video")
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *catalogApi) destroyVideos(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteVideos(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting videos")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) createTask(ctx echo.Context) error {
	var data catalog.NewDIYTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDIYTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	task, err := api.svc.CreateTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, task)
}

func (api *catalogApi) queryTasks(ctx echo.Context) error {
	zone, _ := strconv.Atoi(ctx.QueryParam("zone"))

	tasks, err := api.svc.QueryActiveTasks(ctx.Request().Context(), zone)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []catalog.DIYTask{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *catalogApi) destroyTasks(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteTasks(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return ctx.NoContent(http.StatusNoContent)
}
