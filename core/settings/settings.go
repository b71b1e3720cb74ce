// Package settings owns the grading configuration: weights, categories and boundary tables.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
)

type Settings struct {
	Weights    grade.Weights    `json:"weights"`
	Categories []grade.Category `json:"categories"`
	Boundaries grade.Boundaries `json:"boundaries"`
}

func Default() Settings {
	return Settings{
		Weights:    grade.DefaultWeights(),
		Categories: grade.DefaultCategories(),
		Boundaries: grade.DefaultBoundaries(),
	}
}

// Warnings lists non-fatal problems, such as boundary tables that are not strictly decreasing.
func (s Settings) Warnings() []string {
	warnings := s.Boundaries.Validate()
	for _, component := range []string{grade.ComponentCoursework, grade.ComponentExam} {
		if grade.ComponentMax(s.Categories, component) == 0 {
			warnings = append(warnings, fmt.Sprintf("no %s categories", component))
		}
	}
	return warnings
}

// Input builds a predictor input for scores.
func (s Settings) Input(scores map[string]int) grade.Input {
	return grade.Input{
		Scores:     scores,
		Categories: s.Categories,
		Weights:    s.Weights,
		Boundaries: s.Boundaries,
	}
}

// View is Settings as returned to clients.
type View struct {
	Settings
	Warnings []string `json:"warnings"`
}

func NewView(s Settings) View {
	w := s.Warnings()
	if w == nil {
		w = []string{}
	}
	return View{Settings: s, Warnings: w}
}

type UpdateWeights struct {
	Coursework *int `json:"coursework"`
	Exam       *int `json:"exam"`
}

type UpdateCategories struct {
	Categories []grade.Category `json:"categories" validate:"required,min=1,dive"`
}

func (uc *UpdateCategories) Validate(validate *validator.Validate) error {
	for i := range uc.Categories {
		uc.Categories[i].ID = core.CleanString(uc.Categories[i].ID, true /* lower */)
		uc.Categories[i].Name = core.CleanString(uc.Categories[i].Name)
		uc.Categories[i].Component = core.CleanString(uc.Categories[i].Component, true /* lower */)
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}

	seen := make(map[string]bool, len(uc.Categories))
	for _, c := range uc.Categories {
		if seen[c.ID] {
			msg := fmt.Sprintf("duplicate category id %q", c.ID)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "categories", Error: msg})
		}
		seen[c.ID] = true
	}
	return nil
}

type (
	Repository interface {
		Get(ctx context.Context) (Settings, error)
		// Update applies fn and saves the result atomically.
		Update(ctx context.Context, fn func(s *Settings) error) (Settings, error)
	}

	Service interface {
		Get(ctx context.Context) (Settings, error)
		Categories(ctx context.Context) ([]grade.Category, error)
		SetCourseworkWeight(ctx context.Context, v int) (Settings, error)
		SetExamWeight(ctx context.Context, v int) (Settings, error)
		SetBoundary(ctx context.Context, table string, g grade.Grade, threshold int) (Settings, error)
		ResetBoundaries(ctx context.Context) (Settings, error)
		SetCategories(ctx context.Context, categories []grade.Category) (Settings, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Get(ctx context.Context) (Settings, error) {
	return svc.repo.Get(ctx)
}

func (svc *service) Categories(ctx context.Context) ([]grade.Category, error) {
	s, err := svc.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Categories, nil
}

func (svc *service) SetCourseworkWeight(ctx context.Context, v int) (Settings, error) {
	return svc.repo.Update(ctx, func(s *Settings) error {
		s.Weights.SetCoursework(v)
		return nil
	})
}

func (svc *service) SetExamWeight(ctx context.Context, v int) (Settings, error) {
	return svc.repo.Update(ctx, func(s *Settings) error {
		s.Weights.SetExam(v)
		return nil
	})
}

// SetBoundary edits one threshold. Editing the overall table also overwrites coursework and exam at that grade.
func (svc *service) SetBoundary(ctx context.Context, table string, g grade.Grade, threshold int) (Settings, error) {
	table = core.CleanString(table, true /* lower */)
	return svc.repo.Update(ctx, func(s *Settings) error {
		if err := s.Boundaries.Set(table, g, threshold); err != nil {
			return core.NewValidationError(err)
		}
		return nil
	})
}

func (svc *service) ResetBoundaries(ctx context.Context) (Settings, error) {
	return svc.repo.Update(ctx, func(s *Settings) error {
		s.Boundaries = grade.DefaultBoundaries()
		return nil
	})
}

// SetCategories replaces the category list. Marks recorded against removed categories are kept but ignored.
func (svc *service) SetCategories(ctx context.Context, categories []grade.Category) (Settings, error) {
	cats := make([]grade.Category, len(categories))
	copy(cats, categories)
	for i := range cats {
		if strings.TrimSpace(cats[i].ID) == "" {
			return Settings{}, core.NewValidationError(nil, core.FieldError{Field: "categories", Error: "category id cannot be blank"})
		}
	}
	return svc.repo.Update(ctx, func(s *Settings) error {
		s.Categories = cats
		return nil
	})
}
