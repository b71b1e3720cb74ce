// Package testutil wires the services on an in-memory store and creates fixtures for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/progress"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
	emailsvc "github.com/LALLEN78/NEA-Tracker-2-sub001/services/email"
	logsvc "github.com/LALLEN78/NEA-Tracker-2-sub001/services/logger"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/blobrepos"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/blobstore"
)

// MailBox is an EmailService that records what it sent.
type MailBox interface {
	core.EmailService
	SentMessages() []core.EmailMessage
}

type Services struct {
	Conf       *core.Config
	Logger     core.Logger
	Store      core.BlobStore
	Hub        *core.Hub
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       MailBox

	Students  student.Service
	Scores    score.Service
	Settings  settings.Service
	Deadlines deadline.Service
	Logbook   logbook.Service
	Progress  progress.Service
	Gradebook gradebook.Service
}

// NewConfig returns a TEST config on the memory engine.
func NewConfig() *core.Config {
	conf := new(core.Config)
	conf.Env = "TEST"
	conf.TestMode = true
	conf.AppName = "NEA Tracker"
	conf.Build = "test"
	conf.Storage.Engine = core.EngineMemory
	conf.DefaultFromEmail = "noreply@test.local"
	conf.TeacherEmail = "teacher@test.local"
	conf.Server.ShutdownTimeout = time.Second
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewServices wires every service on a fresh memory store.
func NewServices() *Services {
	return NewServicesWithStore(blobstore.NewMemory())
}

func NewServicesWithStore(store core.BlobStore) *Services {
	conf := NewConfig()
	logger := NewLogger(conf)
	hub := core.NewHub()
	translator := core.NewTranslator()

	scoreRepo := blobrepos.NewScoreRepository(store, hub)
	logRepo := blobrepos.NewLogbookRepository(store, hub)
	settingsSvc := settings.NewService(blobrepos.NewSettingsRepository(store, hub))
	studentSvc := student.NewService(blobrepos.NewStudentRepository(store, hub), scoreRepo, logRepo)
	scoreSvc := score.NewService(scoreRepo, studentSvc, settingsSvc)

	return &Services{
		Conf:       conf,
		Logger:     logger,
		Store:      store,
		Hub:        hub,
		Validate:   core.NewValidator(translator),
		Translator: translator,
		Mail:       emailsvc.NewConsoleServiceMock(conf, logger),
		Students:   studentSvc,
		Scores:     scoreSvc,
		Settings:   settingsSvc,
		Deadlines:  deadline.NewService(blobrepos.NewDeadlineRepository(store, hub)),
		Logbook:    logbook.NewService(logRepo, studentSvc),
		Progress:   progress.NewService(studentSvc, scoreSvc, settingsSvc),
		Gradebook:  gradebook.NewService(store, hub),
	}
}

// CreateStudent adds a student with the given target grade (4 when omitted).
func CreateStudent(t *testing.T, svc student.Service, name, group string, target ...grade.Grade) student.Student {
	t.Helper()

	ns := student.NewStudent{Name: name, Group: group, TargetGrade: student.DefaultTargetGrade}
	if len(target) > 0 {
		ns.TargetGrade = target[0]
	}
	s, err := svc.Create(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// SetMarks records every mark of marks for the student.
func SetMarks(t *testing.T, svc score.Service, studentID string, marks map[string]int) score.ScoreSet {
	t.Helper()

	var ss score.ScoreSet
	for cat, mark := range marks {
		var err error
		if ss, err = svc.SetMark(context.Background(), studentID, cat, mark); err != nil {
			t.Fatalf("SetMarks(%s=%d) failed: %v", cat, mark, err)
		}
	}
	return ss
}

// FreezeTime makes core.NowFunc return now until the test ends.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()

	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}
