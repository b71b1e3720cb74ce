// Package deadline tracks coursework due dates.
package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
)

var ErrNotFound = core.NewNotFoundError("deadline")

// MaxWindowDays bounds look-ahead windows, keeping them well inside time.Duration.
const MaxWindowDays = 3650

type Deadline struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CategoryID *string   `json:"category_id,omitempty"`
	DueDate    time.Time `json:"due_date"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// DueWithin reports whether d is incomplete and due in [now, now+window].
func (d Deadline) DueWithin(now time.Time, window time.Duration) bool {
	if d.Completed {
		return false
	}
	return !d.DueDate.Before(now) && !d.DueDate.After(now.Add(window))
}

type NewDeadline struct {
	Title      string    `json:"title" validate:"required,notblank"`
	CategoryID *string   `json:"category_id"`
	DueDate    time.Time `json:"due_date" validate:"required"`
}

func (nd *NewDeadline) Validate(ctx context.Context, validate *validator.Validate, categories CategorySource) error {
	nd.Title = core.CleanString(nd.Title)
	if err := validate.Struct(nd); err != nil {
		return err
	}
	return checkCategory(ctx, nd.CategoryID, categories)
}

// UpdateDeadline holds the fields to change. Zero values keep the current value.
type UpdateDeadline struct {
	Title      string    `json:"title"`
	CategoryID *string   `json:"category_id"`
	DueDate    time.Time `json:"due_date"`
	Completed  *bool     `json:"completed"`
}

func (ud *UpdateDeadline) Validate(ctx context.Context, categories CategorySource) error {
	ud.Title = core.CleanString(ud.Title)
	return checkCategory(ctx, ud.CategoryID, categories)
}

func checkCategory(ctx context.Context, id *string, categories CategorySource) error {
	if id == nil || *id == "" || categories == nil {
		return nil
	}
	cats, err := categories.Categories(ctx)
	if err != nil {
		return errors.Wrap(err, "loading categories")
	}
	if _, ok := grade.FindCategory(cats, *id); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "category_id", Error: fmt.Sprintf("unknown category %q", *id)})
	}
	return nil
}

type (
	// CategorySource provides the current assessment categories.
	CategorySource interface {
		Categories(ctx context.Context) ([]grade.Category, error)
	}

	Repository interface {
		Create(ctx context.Context, d Deadline) (Deadline, error)
		// QueryAll returns every deadline by due date, earliest first.
		QueryAll(ctx context.Context) ([]Deadline, error)
		GetByID(ctx context.Context, id string) (Deadline, error)
		Update(ctx context.Context, id string, fn func(d *Deadline)) (Deadline, error)
		Delete(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, nd NewDeadline) (Deadline, error)
		List(ctx context.Context) ([]Deadline, error)
		GetByID(ctx context.Context, id string) (Deadline, error)
		Update(ctx context.Context, id string, ud UpdateDeadline) (Deadline, error)
		Delete(ctx context.Context, id string) error
		// Upcoming lists incomplete deadlines due between now and now+window.
		Upcoming(ctx context.Context, now time.Time, window time.Duration) ([]Deadline, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nd NewDeadline) (Deadline, error) {
	return svc.repo.Create(ctx, Deadline{
		ID:         uuid.NewString(),
		Title:      nd.Title,
		CategoryID: nd.CategoryID,
		DueDate:    nd.DueDate.UTC(),
		CreatedAt:  core.NowFunc().UTC(),
	})
}

func (svc *service) List(ctx context.Context) ([]Deadline, error) {
	return svc.repo.QueryAll(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Deadline, error) {
	return svc.repo.GetByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, ud UpdateDeadline) (Deadline, error) {
	return svc.repo.Update(ctx, id, func(d *Deadline) {
		if ud.Title != "" {
			d.Title = ud.Title
		}
		if ud.CategoryID != nil {
			if *ud.CategoryID == "" {
				d.CategoryID = nil
			} else {
				d.CategoryID = ud.CategoryID
			}
		}
		if !ud.DueDate.IsZero() {
			d.DueDate = ud.DueDate.UTC()
		}
		if ud.Completed != nil {
			d.Completed = *ud.Completed
		}
	})
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) Upcoming(ctx context.Context, now time.Time, window time.Duration) ([]Deadline, error) {
	all, err := svc.repo.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	upcoming := make([]Deadline, 0)
	for _, d := range all {
		if d.DueWithin(now, window) {
			upcoming = append(upcoming, d)
		}
	}
	return upcoming, nil
}
