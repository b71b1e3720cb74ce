package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
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

// mailService is an EmailService the CLI can wait on before exiting.
type mailService interface {
	core.EmailService
	Wait()
}

func main() {
	if err := run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	cli := commandLine{conf: conf, logger: logger, in: os.Stdin, out: os.Stdout}

	// migrations open their own connection so a broken schema can still be repaired
	if len(args) > 1 && args[1] == "migrate" {
		return cli.run(args)
	}

	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		return fmt.Errorf("setting up %s storage: %w", conf.Storage.Engine, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()
	hub := core.NewHub()

	var mailSvc mailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	defer mailSvc.Wait()

	validate := core.NewValidator(core.NewTranslator())

	scoreRepo := blobrepos.NewScoreRepository(store, hub)
	settingsSvc := settings.NewService(blobrepos.NewSettingsRepository(store, hub))
	studentSvc := student.NewService(
		blobrepos.NewStudentRepository(store, hub), scoreRepo, blobrepos.NewLogbookRepository(store, hub),
	)
	scoreSvc := score.NewService(scoreRepo, studentSvc, settingsSvc)

	cli.gradebookSvc = gradebook.NewService(store, hub)
	cli.progressSvc = progress.NewService(studentSvc, scoreSvc, settingsSvc)
	cli.importer = roster.NewImporter(studentSvc, validate, logger)
	cli.reminder = deadline.NewReminder(
		deadline.NewService(blobrepos.NewDeadlineRepository(store, hub)), mailSvc, conf.TeacherEmail,
	)

	return cli.run(args)
}
