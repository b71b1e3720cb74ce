package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/LALLEN78/NEA-Tracker-2-sub001/apps/api/echo"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
	emailsvc "github.com/LALLEN78/NEA-Tracker-2-sub001/services/email"
	logsvc "github.com/LALLEN78/NEA-Tracker-2-sub001/services/logger"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/blobrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Engine, err), err)
	}
	defer func() {
		if err = store.Close(); err != nil {
			storeLogger.Error("Failed to close", err)
		}
	}()
	hub := core.NewHub()
	hub.Subscribe("*", func(key string) { storeLogger.Debug("blob changed", map[string]interface{}{"key": key}) })

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)

	scoreRepo := blobrepos.NewScoreRepository(store, hub)
	logRepo := blobrepos.NewLogbookRepository(store, hub)
	settingsSvc := settings.NewService(blobrepos.NewSettingsRepository(store, hub))
	studentSvc := student.NewService(blobrepos.NewStudentRepository(store, hub), scoreRepo, logRepo)
	scoreSvc := score.NewService(scoreRepo, studentSvc, settingsSvc)
	deadlineSvc := deadline.NewService(blobrepos.NewDeadlineRepository(store, hub))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			StudentSvc:   studentSvc,
			ScoreSvc:     scoreSvc,
			SettingsSvc:  settingsSvc,
			ProgressSvc:  progress.NewService(studentSvc, scoreSvc, settingsSvc),
			DeadlineSvc:  deadlineSvc,
			LogbookSvc:   logbook.NewService(logRepo, studentSvc),
			GradebookSvc: gradebook.NewService(store, hub),
			Importer:     roster.NewImporter(studentSvc, validate, logger),
			Reminder:     deadline.NewReminder(deadlineSvc, mailSvc, conf.TeacherEmail),
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
