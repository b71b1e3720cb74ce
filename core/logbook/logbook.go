// Package logbook keeps dated progress notes per student.
package logbook

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

var ErrNotFound = core.NewNotFoundError("log entry")

type Entry struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Date       time.Time `json:"date"`
	CategoryID *string   `json:"category_id,omitempty"`
	Note       string    `json:"note"`
	Minutes    int       `json:"minutes"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type NewEntry struct {
	Date       time.Time `json:"date"` // defaults to now
	CategoryID *string   `json:"category_id"`
	Note       string    `json:"note" validate:"required,notblank"`
	Minutes    int       `json:"minutes" validate:"min=0"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Note = core.CleanString(ne.Note)
	if ne.CategoryID != nil && core.CleanString(*ne.CategoryID) == "" {
		ne.CategoryID = nil
	}
	return validate.Struct(ne)
}

type (
	Repository interface {
		Create(ctx context.Context, e Entry) (Entry, error)
		QueryAll(ctx context.Context) ([]Entry, error)
		// QueryByStudent returns the student's entries, newest first.
		QueryByStudent(ctx context.Context, studentID string) ([]Entry, error)
		Delete(ctx context.Context, id string) error
		DeleteStudents(ctx context.Context, ids ...string) error
	}

	StudentGetter interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
	}

	Service interface {
		Create(ctx context.Context, studentID string, ne NewEntry) (Entry, error)
		ListByStudent(ctx context.Context, studentID string) ([]Entry, error)
		Delete(ctx context.Context, id string) error
		DeleteStudents(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		students StudentGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students StudentGetter) Service {
	return &service{repo: repo, students: students}
}

func (svc *service) Create(ctx context.Context, studentID string, ne NewEntry) (Entry, error) {
	if _, err := svc.students.GetByID(ctx, studentID); err != nil {
		return Entry{}, err
	}
	now := core.NowFunc().UTC()
	date := ne.Date
	if date.IsZero() {
		date = now
	}
	return svc.repo.Create(ctx, Entry{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		Date:       date.UTC(),
		CategoryID: ne.CategoryID,
		Note:       ne.Note,
		Minutes:    ne.Minutes,
		CreatedAt:  now,
	})
}

func (svc *service) ListByStudent(ctx context.Context, studentID string) ([]Entry, error) {
	if _, err := svc.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryByStudent(ctx, studentID)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudents(ctx, ids...)
}
