package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
)

var (
	errNoWeight      = core.NewValidationError(nil, core.FieldError{Field: "coursework", Error: "coursework or exam is required"})
	errWeightsNot100 = core.NewValidationError(nil, core.FieldError{Field: "exam", Error: "coursework and exam must add up to 100"})
	errBoundaryGrade = core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "grade must be between 1 and 9"})
)

type settingsApi struct {
	svc      settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, deps *ServerDeps) {
	api := settingsApi{svc: deps.SettingsSvc, validate: deps.Validate}

	sg := g.Group("/settings")
	sg.GET("", api.retrieve)
	sg.PUT("/weights", api.updateWeights)
	sg.PUT("/categories", api.updateCategories)
	sg.PUT("/boundaries/:table/:grade", api.updateBoundary)
	sg.POST("/boundaries/reset", api.resetBoundaries)
}

// Handlers

func (api *settingsApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, settings.NewView(s))
}

// updateWeights sets one weight and derives the other. When both are given they must add up to 100.
func (api *settingsApi) updateWeights(ctx echo.Context) error {
	var data settings.UpdateWeights
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWeights")
	}

	var (
		s   settings.Settings
		err error
	)
	switch {
	case data.Coursework == nil && data.Exam == nil:
		return errNoWeight
	case data.Coursework != nil && data.Exam != nil && *data.Coursework+*data.Exam != 100:
		return errWeightsNot100
	case data.Coursework != nil:
		s, err = api.svc.SetCourseworkWeight(ctx.Request().Context(), *data.Coursework)
	default:
		s, err = api.svc.SetExamWeight(ctx.Request().Context(), *data.Exam)
	}
	if err != nil {
		return errors.Wrap(err, "setting weights")
	}
	return ctx.JSON(http.StatusOK, settings.NewView(s))
}

func (api *settingsApi) updateCategories(ctx echo.Context) error {
	var data settings.UpdateCategories
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategories")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.SetCategories(ctx.Request().Context(), data.Categories)
	if err != nil {
		return errors.Wrap(err, "setting categories")
	}
	return ctx.JSON(http.StatusOK, settings.NewView(s))
}

func (api *settingsApi) updateBoundary(ctx echo.Context) error {
	g, err := grade.ParseGrade(ctx.Param("grade"))
	if err != nil || g == grade.U {
		return errBoundaryGrade
	}

	var data UpdateBoundaryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBoundaryRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	s, err := api.svc.SetBoundary(ctx.Request().Context(), ctx.Param("table"), g, *data.Threshold)
	if err != nil {
		return errors.Wrap(err, "setting boundary")
	}
	return ctx.JSON(http.StatusOK, settings.NewView(s))
}

func (api *settingsApi) resetBoundaries(ctx echo.Context) error {
	s, err := api.svc.ResetBoundaries(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resetting boundaries")
	}
	return ctx.JSON(http.StatusOK, settings.NewView(s))
}

type UpdateBoundaryRequest struct {
	Threshold *int `json:"threshold" validate:"required,min=0"`
}
