package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

var errMarkRequired = core.NewValidationError(nil, core.FieldError{Field: "mark", Error: "mark must be a whole number"})

type progressApi struct {
	svc progress.Service
}

func registerProgressAPI(g *echo.Group, deps *ServerDeps) {
	api := progressApi{svc: deps.ProgressSvc}

	g.GET("/predictions", api.predictions)
	g.POST("/predict", api.predict)
	g.GET("/leaderboard", api.leaderboard)
	g.GET("/analytics", api.analytics)
	g.GET("/grade", api.gradeMark)
}

// Handlers

func (api *progressApi) predictions(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []progress.StudentPrediction{})
	}

	predictions, err := api.svc.PredictAll(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "predicting")
	}
	return ctx.JSON(http.StatusOK, predictions)
}

// predict runs the predictor on marks that are not saved, e.g. {"section-a": 8, "paper-1-section-a": 30}.
func (api *progressApi) predict(ctx echo.Context) error {
	data := make(score.ScoreSet)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreSet")
	}

	p, err := api.svc.PredictScores(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "predicting")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) leaderboard(ctx echo.Context) error {
	board, err := api.svc.Leaderboard(ctx.Request().Context(), ctx.QueryParam("group"))
	if err != nil {
		return errors.Wrap(err, "ranking students")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *progressApi) analytics(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context(), ctx.QueryParam("group"))
	if err != nil {
		return errors.Wrap(err, "summarizing")
	}
	return ctx.JSON(http.StatusOK, sum)
}

// gradeMark grades a raw mark on one boundary table: ?table=coursework&mark=20.
func (api *progressApi) gradeMark(ctx echo.Context) error {
	mark, err := strconv.Atoi(ctx.QueryParam("mark"))
	if err != nil {
		return errMarkRequired
	}

	mg, err := api.svc.GradeMark(ctx.Request().Context(), ctx.QueryParam("table"), mark)
	if err != nil {
		return errors.Wrap(err, "grading mark")
	}
	return ctx.JSON(http.StatusOK, mg)
}
