// Package score records the raw marks of every student per assessment category.
package score

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

type (
	// ScoreSet maps a category id to a raw mark.
	ScoreSet map[string]int

	// Scores maps a student id to their ScoreSet.
	Scores map[string]ScoreSet
)

// Copy returns an independent copy of ss.
func (ss ScoreSet) Copy() ScoreSet {
	out := make(ScoreSet, len(ss))
	for k, v := range ss {
		out[k] = v
	}
	return out
}

type (
	Repository interface {
		All(ctx context.Context) (Scores, error)
		// Get returns an empty set for a student without marks.
		Get(ctx context.Context, studentID string) (ScoreSet, error)
		SetMark(ctx context.Context, studentID, categoryID string, mark int) (ScoreSet, error)
		ClearMark(ctx context.Context, studentID, categoryID string) (ScoreSet, error)
		DeleteStudents(ctx context.Context, ids ...string) error
	}

	// StudentGetter finds roster entries.
	StudentGetter interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
	}

	// CategorySource provides the current assessment categories.
	CategorySource interface {
		Categories(ctx context.Context) ([]grade.Category, error)
	}

	Service interface {
		All(ctx context.Context) (Scores, error)
		Get(ctx context.Context, studentID string) (ScoreSet, error)
		SetMark(ctx context.Context, studentID, categoryID string, mark int) (ScoreSet, error)
		ClearMark(ctx context.Context, studentID, categoryID string) (ScoreSet, error)
		DeleteStudents(ctx context.Context, ids ...string) error
	}

	service struct {
		repo       Repository
		students   StudentGetter
		categories CategorySource
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students StudentGetter, categories CategorySource) Service {
	return &service{repo: repo, students: students, categories: categories}
}

func (svc *service) All(ctx context.Context) (Scores, error) {
	return svc.repo.All(ctx)
}

func (svc *service) Get(ctx context.Context, studentID string) (ScoreSet, error) {
	if _, err := svc.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.Get(ctx, studentID)
}

// SetMark records mark for the student in the category. The mark must be within [0, category max].
func (svc *service) SetMark(ctx context.Context, studentID, categoryID string, mark int) (ScoreSet, error) {
	cat, err := svc.checkTarget(ctx, studentID, categoryID)
	if err != nil {
		return nil, err
	}
	if mark < 0 || mark > cat.Max {
		msg := fmt.Sprintf("mark must be between 0 and %d", cat.Max)
		return nil, core.NewValidationError(errors.New(msg), core.FieldError{Field: "mark", Error: msg})
	}
	return svc.repo.SetMark(ctx, studentID, cat.ID, mark)
}

func (svc *service) ClearMark(ctx context.Context, studentID, categoryID string) (ScoreSet, error) {
	cat, err := svc.checkTarget(ctx, studentID, categoryID)
	if err != nil {
		return nil, err
	}
	return svc.repo.ClearMark(ctx, studentID, cat.ID)
}

func (svc *service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudents(ctx, ids...)
}

func (svc *service) checkTarget(ctx context.Context, studentID, categoryID string) (grade.Category, error) {
	if _, err := svc.students.GetByID(ctx, studentID); err != nil {
		return grade.Category{}, err
	}
	categories, err := svc.categories.Categories(ctx)
	if err != nil {
		return grade.Category{}, errors.Wrap(err, "loading categories")
	}
	cat, ok := grade.FindCategory(categories, categoryID)
	if !ok {
		msg := fmt.Sprintf("unknown category %q", categoryID)
		return grade.Category{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "category", Error: msg})
	}
	return cat, nil
}
