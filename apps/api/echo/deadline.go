package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
)

// DefaultReminderDays is the look-ahead window of upcoming deadlines.
const DefaultReminderDays = 7

var errInvalidDays = core.NewValidationError(nil, core.FieldError{
	Field: "days", Error: fmt.Sprintf("days must be a number between 1 and %d", deadline.MaxWindowDays),
})

type deadlineApi struct {
	svc         deadline.Service
	settingsSvc settings.Service
	reminder    *deadline.Reminder
	validate    *validator.Validate
}

func registerDeadlineAPI(g *echo.Group, deps *ServerDeps) {
	api := deadlineApi{
		svc:         deps.DeadlineSvc,
		settingsSvc: deps.SettingsSvc,
		reminder:    deps.Reminder,
		validate:    deps.Validate,
	}

	dg := g.Group("/deadlines")
	dg.GET("", api.query)
	dg.POST("", api.create)
	dg.GET("/upcoming", api.upcoming)
	dg.POST("/remind", api.remind)
	dg.PUT("/:id", api.update)
	dg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *deadlineApi) query(ctx echo.Context) error {
	deadlines, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing deadlines")
	}
	return ctx.JSON(http.StatusOK, deadlines)
}

func (api *deadlineApi) create(ctx echo.Context) error {
	var data deadline.NewDeadline
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDeadline")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.settingsSvc); err != nil {
		return err
	}

	d, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating deadline")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *deadlineApi) update(ctx echo.Context) error {
	var data deadline.UpdateDeadline
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDeadline")
	}
	if err := data.Validate(ctx.Request().Context(), api.settingsSvc); err != nil {
		return err
	}

	d, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating deadline")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *deadlineApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting deadline")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *deadlineApi) upcoming(ctx echo.Context) error {
	window, err := windowParam(ctx)
	if err != nil {
		return err
	}

	deadlines, err := api.svc.Upcoming(ctx.Request().Context(), core.NowFunc().UTC(), window)
	if err != nil {
		return errors.Wrap(err, "listing upcoming deadlines")
	}
	return ctx.JSON(http.StatusOK, deadlines)
}

// remind emails the teacher the upcoming deadlines and returns them.
func (api *deadlineApi) remind(ctx echo.Context) error {
	if api.reminder == nil {
		return errHttpNotFound
	}
	window, err := windowParam(ctx)
	if err != nil {
		return err
	}

	deadlines, err := api.reminder.Send(ctx.Request().Context(), core.NowFunc().UTC(), window)
	if err != nil {
		if errors.Cause(err) == deadline.ErrNoRecipient {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "sending reminder")
	}
	return ctx.JSON(http.StatusOK, deadlines)
}

func windowParam(ctx echo.Context) (time.Duration, error) {
	days := DefaultReminderDays
	if v := ctx.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > deadline.MaxWindowDays {
			return 0, errInvalidDays
		}
		days = n
	}
	return time.Duration(days) * 24 * time.Hour, nil
}
