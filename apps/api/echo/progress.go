package echoapi

import (
	"net/http"
	"net/mail"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/progress"
	"github.com/aevoninc/horizonfit/core/user"
)

var (
	errMetricsGateShut = echo.NewHTTPError(http.StatusConflict, "metrics submission not allowed yet")
	errZoneCompleted   = echo.NewHTTPError(http.StatusConflict, "zone already completed")
)

type progressApi struct {
	svc        progress.Service
	metricsSvc metrics.Service
	userSvc    user.Service
	mailSvc    core.EmailService
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := progressApi{
		svc:        opts.ProgressSvc,
		metricsSvc: opts.MetricsSvc,
		userSvc:    opts.UserSvc,
		mailSvc:    opts.MailSvc,
	}

	// patient portal; always scoped to the authenticated patient
	pg := g.Group("/progress", jwt, patientMiddleware())
	pg.GET("", api.retrieve)
	pg.POST("/videos/:id/watch", api.watchVideo)
	pg.GET("/metrics/eligibility", api.metricsEligibility)
	pg.POST("/metrics", api.submitMetrics)
	pg.GET("/metrics", api.queryMetrics)
	pg.GET("/recommendations", api.recommendations)
	pg.POST("/zones/:zone/weekly-logs", api.submitWeeklyLog)
	pg.GET("/weekly-logs", api.queryWeeklyLogs)

	// doctor portal; scoped to an explicit patient
	dg := g.Group("/patients/:id", jwt, doctorMiddleware())
	dg.GET("/progress", api.retrievePatient)
	dg.GET("/metrics", api.queryPatientMetrics)
	dg.GET("/weekly-logs", api.queryPatientWeeklyLogs)
	dg.GET("/recommendations", api.patientRecommendations)
	dg.PUT("/recommendations/overrides", api.setOverrides)
}

// progressHTTPError maps domain errors to HTTP errors; unknown errors pass
// through for the app error handler.
func progressHTTPError(err error) error {
	switch errors.Cause(err) {
	case progress.ErrNotPatient:
		return errHttpForbidden
	case progress.ErrZoneNotFound, progress.ErrProgressNotFound, catalog.ErrVideoNotFound, user.ErrNotFound:
		return errHttpNotFound
	case progress.ErrNotEligible:
		return errMetricsGateShut
	case progress.ErrZoneCompleted:
		return errZoneCompleted
	}
	return err
}

// Patient handlers

func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	view, err := api.svc.GetProgress(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return progressHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *progressApi) watchVideo(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.MarkVideoWatched(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return progressHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressApi) metricsEligibility(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	elig, err := api.svc.CanSubmitMetrics(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return progressHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, elig)
}

func (api *progressApi) submitMetrics(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data metrics.NewMetrics
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMetrics")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.SubmitMetrics(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return progressHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *progressApi) queryMetrics(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return api.respondMetrics(ctx, claims.Subject)
}

func (api *progressApi) recommendations(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return api.respondRecommendations(ctx, claims.Subject)
}

func (api *progressApi) submitWeeklyLog(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	zone, err := strconv.Atoi(ctx.Param("zone"))
	if err != nil {
		return errHttpNotFound
	}

	var data progress.NewWeeklyLog
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWeeklyLog")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.SubmitWeeklyLog(ctx.Request().Context(), claims.Subject, zone, data)
	if err != nil {
		return progressHTTPError(err)
	}

	switch res.Action {
	case progress.ActionZoneUpgrade:
		api.sendZoneUpgradeMail(ctx, claims, res.NewZone)
	case progress.ActionProgramComplete:
		api.sendProgramCompleteMail(ctx, claims)
	}

	return ctx.JSON(http.StatusCreated, res)
}

func (api *progressApi) queryWeeklyLogs(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	return api.respondWeeklyLogs(ctx, claims.Subject)
}

// Doctor handlers

func (api *progressApi) retrievePatient(ctx echo.Context) error {
	view, err := api.svc.GetProgress(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return progressHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *progressApi) queryPatientMetrics(ctx echo.Context) error {
	return api.respondMetrics(ctx, ctx.Param("id"))
}

func (api *progressApi) queryPatientWeeklyLogs(ctx echo.Context) error {
	return api.respondWeeklyLogs(ctx, ctx.Param("id"))
}

func (api *progressApi) patientRecommendations(ctx echo.Context) error {
	return api.respondRecommendations(ctx, ctx.Param("id"))
}

func (api *progressApi) setOverrides(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data metrics.UpdateOverrides
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOverrides")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	view, err := api.metricsSvc.SetOverrides(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == metrics.ErrNoRecommendations {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting overrides")
	}
	return ctx.JSON(http.StatusOK, view)
}

// Shared responses

func (api *progressApi) respondMetrics(ctx echo.Context, patientID string) error {
	entries, err := api.metricsSvc.QueryEntries(ctx.Request().Context(), patientID)
	if err != nil {
		return errors.Wrap(err, "querying metrics entries")
	}
	if entries == nil {
		entries = []metrics.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *progressApi) respondWeeklyLogs(ctx echo.Context, patientID string) error {
	logs, err := api.svc.QueryWeeklyLogs(ctx.Request().Context(), patientID)
	if err != nil {
		return errors.Wrap(err, "querying weekly logs")
	}
	if logs == nil {
		logs = []progress.WeeklyLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *progressApi) respondRecommendations(ctx echo.Context, patientID string) error {
	view, err := api.metricsSvc.GetView(ctx.Request().Context(), patientID)
	if err != nil {
		if errors.Cause(err) == metrics.ErrNoRecommendations {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting recommendations")
	}
	return ctx.JSON(http.StatusOK, view)
}

// Notifications

func (api *progressApi) sendZoneUpgradeMail(ctx echo.Context, claims Claims, newZone int) {
	if api.mailSvc == nil {
		return
	}
	zone, ok := catalog.ZoneByNumber(newZone)
	if !ok {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: claims.Username, Address: claims.Email}},
		Subject:      "You reached a new zone!",
		TemplateName: "zone-upgrade",
		TemplateData: struct {
			Username string
			Zone     catalog.Zone
		}{claims.Username, zone},
	}
	api.mailSvc.SendMessages(msg)
}

func (api *progressApi) sendProgramCompleteMail(ctx echo.Context, claims Claims) {
	if api.mailSvc == nil {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: claims.Username, Address: claims.Email}},
		Subject:      "Congratulations on completing the program!",
		TemplateName: "program-complete",
		TemplateData: struct {
			Username string
		}{claims.Username},
	}
	api.mailSvc.SendMessages(msg)
}
