package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

var errStudentNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc         student.Service
	scoreSvc    score.Service
	logSvc      logbook.Service
	progressSvc progress.Service
	validate    *validator.Validate
	translator  ut.Translator
}

func registerStudentAPI(g *echo.Group, deps *ServerDeps) {
	api := studentApi{
		svc:         deps.StudentSvc,
		scoreSvc:    deps.ScoreSvc,
		logSvc:      deps.LogbookSvc,
		progressSvc: deps.ProgressSvc,
		validate:    deps.Validate,
		translator:  deps.Translator,
	}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.DELETE("", api.destroyMultiple)
	sg.GET("/groups", api.groups)

	// detail endpoints
	dg := sg.Group("/:id", studentMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/scores", api.scores)
	dg.PUT("/scores/:category", api.setMark)
	dg.DELETE("/scores/:category", api.clearMark)
	dg.GET("/prediction", api.prediction)
	dg.GET("/logs", api.logs)
	dg.POST("/logs", api.createLog)

	g.GET("/scores", api.allScores)
	g.DELETE("/logs/:id", api.destroyLog)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if data.TargetGrade == 0 {
		data.TargetGrade = student.DefaultTargetGrade
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, student.OrderingFields...)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) groups(ctx echo.Context) error {
	groups, err := api.svc.Groups(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing groups")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	s, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(ctx.Request().Context(), s, api.validate, api.svc); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStudentNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) scores(ctx echo.Context) error {
	ss, err := api.scoreSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting scores")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *studentApi) allScores(ctx echo.Context) error {
	scores, err := api.scoreSvc.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting scores")
	}
	return ctx.JSON(http.StatusOK, scores)
}

func (api *studentApi) setMark(ctx echo.Context) error {
	var data SetMarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetMarkRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	ss, err := api.scoreSvc.SetMark(ctx.Request().Context(), ctx.Param("id"), ctx.Param("category"), *data.Mark)
	if err != nil {
		return errors.Wrap(err, "setting mark")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *studentApi) clearMark(ctx echo.Context) error {
	ss, err := api.scoreSvc.ClearMark(ctx.Request().Context(), ctx.Param("id"), ctx.Param("category"))
	if err != nil {
		return errors.Wrap(err, "clearing mark")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *studentApi) prediction(ctx echo.Context) error {
	p, err := api.progressSvc.Predict(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "predicting")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *studentApi) logs(ctx echo.Context) error {
	entries, err := api.logSvc.ListByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing log entries")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *studentApi) createLog(ctx echo.Context) error {
	var data logbook.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.logSvc.Create(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating log entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *studentApi) destroyLog(ctx echo.Context) error {
	if err := api.logSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting log entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func studentMiddleware(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return err
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set("object", s)
			return next(ctx)
		}
	}
}

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	SetMarkRequest struct {
		Mark *int `json:"mark" validate:"required"`
	}
)
