package echoapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
)

const fileField = "file"

var errFileRequired = core.NewValidationError(nil, core.FieldError{Field: fileField, Error: "this field is required"})

type gradebookApi struct {
	svc      gradebook.Service
	importer *roster.Importer
}

func registerGradebookAPI(g *echo.Group, deps *ServerDeps) {
	api := gradebookApi{svc: deps.GradebookSvc, importer: deps.Importer}

	cg := g.Group("/classes")
	cg.GET("", api.queryClasses)
	cg.POST("", api.saveClass)
	cg.POST("/:name/load", api.loadClass)
	cg.DELETE("/:name", api.destroyClass)

	g.GET("/gradebook/export", api.export)
	g.POST("/gradebook/import", api.importGradebook)
	g.POST("/roster/import", api.importRoster)
}

// Handlers

func (api *gradebookApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.ListClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *gradebookApi) saveClass(ctx echo.Context) error {
	var data SaveClassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveClassRequest")
	}

	summary, err := api.svc.SaveClass(ctx.Request().Context(), data.Name)
	if err != nil {
		return errors.Wrap(err, "saving class")
	}
	return ctx.JSON(http.StatusCreated, summary)
}

func (api *gradebookApi) loadClass(ctx echo.Context) error {
	summary, err := api.svc.LoadClass(ctx.Request().Context(), ctx.Param("name"))
	if err != nil {
		return errors.Wrap(err, "loading class")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *gradebookApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("name")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) export(ctx echo.Context) error {
	doc, err := api.svc.Export(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "exporting gradebook")
	}

	filename := fmt.Sprintf("gradebook-%s%s", doc.ExportedAt.Format("20060102"), gradebook.Extension)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.JSON(http.StatusOK, doc)
}

// importGradebook accepts the document as the request body or as a multipart "file".
func (api *gradebookApi) importGradebook(ctx echo.Context) error {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		data, err = readFormFile(ctx)
	} else {
		data, err = io.ReadAll(ctx.Request().Body)
	}
	if err != nil {
		return err
	}

	doc, err := gradebook.Decode(data)
	if err != nil {
		return err
	}
	res, err := api.svc.Import(ctx.Request().Context(), doc)
	if err != nil {
		return errors.Wrap(err, "importing gradebook")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *gradebookApi) importRoster(ctx echo.Context) error {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		return errFileRequired
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer func() { _ = f.Close() }()

	opts := roster.Options{Group: ctx.FormValue("group")}
	res, err := api.importer.ImportFile(ctx.Request().Context(), fh.Filename, f, opts)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	return ctx.JSON(http.StatusOK, res)
}

func readFormFile(ctx echo.Context) ([]byte, error) {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		return nil, errFileRequired
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening upload")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	return data, nil
}

type SaveClassRequest struct {
	Name string `json:"name"`
}
