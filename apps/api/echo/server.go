package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

// maximum request body size, roster and gradebook uploads included
const bodyLimit = "10M"

type (
	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		StudentSvc   student.Service
		ScoreSvc     score.Service
		SettingsSvc  settings.Service
		ProgressSvc  progress.Service
		DeadlineSvc  deadline.Service
		LogbookSvc   logbook.Service
		GradebookSvc gradebook.Service
		Importer     *roster.Importer
		Reminder     *deadline.Reminder // optional
		Validate     *validator.Validate
		Translator   ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	registerStudentAPI(v1, &s.deps)
	registerProgressAPI(v1, &s.deps)
	registerSettingsAPI(v1, &s.deps)
	registerDeadlineAPI(v1, &s.deps)
	registerGradebookAPI(v1, &s.deps)
}

// Start listens until the server is shut down. Listen errors are sent on Errors.
func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
