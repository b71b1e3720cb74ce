package gradebook

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

var ErrClassNotFound = core.NewNotFoundError("class")

// SavedClass is a named snapshot of the roster and its scores.
type SavedClass struct {
	Name     string            `json:"name"`
	SavedAt  time.Time         `json:"saved_at"`
	Students []student.Student `json:"students"`
	Scores   score.Scores      `json:"scores"`
}

type ClassSummary struct {
	Name         string    `json:"name"`
	SavedAt      time.Time `json:"saved_at"`
	StudentCount int       `json:"student_count"`
}

func (c SavedClass) Summary() ClassSummary {
	return ClassSummary{Name: c.Name, SavedAt: c.SavedAt, StudentCount: len(c.Students)}
}

func findClass(classes []SavedClass, name string) int {
	for i, c := range classes {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// SaveClass snapshots the current roster and scores under name, replacing any class with the same name.
func (svc *service) SaveClass(ctx context.Context, name string) (ClassSummary, error) {
	name = core.CleanString(name)
	if name == "" {
		return ClassSummary{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}

	students, err := svc.students.Load(ctx)
	if err != nil {
		return ClassSummary{}, err
	}
	scores, err := svc.scores.Load(ctx)
	if err != nil {
		return ClassSummary{}, err
	}

	// keep only scores of students in the snapshot
	snapshot := make(score.Scores, len(students))
	for _, s := range students {
		if ss, ok := scores[s.ID]; ok {
			snapshot[s.ID] = ss.Copy()
		}
	}

	class := SavedClass{Name: name, SavedAt: core.NowFunc().UTC(), Students: students, Scores: snapshot}
	if _, err := svc.classes.Update(ctx, func(classes *[]SavedClass) error {
		if i := findClass(*classes, name); i >= 0 {
			(*classes)[i] = class
		} else {
			*classes = append(*classes, class)
		}
		return nil
	}); err != nil {
		return ClassSummary{}, errors.Wrap(err, "saving class")
	}
	return class.Summary(), nil
}

// ListClasses returns saved classes, most recently saved first.
func (svc *service) ListClasses(ctx context.Context) ([]ClassSummary, error) {
	classes, err := svc.classes.Load(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ClassSummary, 0, len(classes))
	for _, c := range classes {
		summaries = append(summaries, c.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].SavedAt.After(summaries[j].SavedAt) })
	return summaries, nil
}

// LoadClass replaces the current roster and scores with the saved snapshot.
func (svc *service) LoadClass(ctx context.Context, name string) (ClassSummary, error) {
	classes, err := svc.classes.Load(ctx)
	if err != nil {
		return ClassSummary{}, err
	}
	i := findClass(classes, core.CleanString(name))
	if i < 0 {
		return ClassSummary{}, ErrClassNotFound
	}
	class := classes[i]

	students := class.Students
	if students == nil {
		students = []student.Student{}
	}
	scores := class.Scores
	if scores == nil {
		scores = score.Scores{}
	}
	if err := svc.students.Save(ctx, students); err != nil {
		return ClassSummary{}, errors.Wrap(err, "loading class roster")
	}
	if err := svc.scores.Save(ctx, scores); err != nil {
		return ClassSummary{}, errors.Wrap(err, "loading class scores")
	}
	return class.Summary(), nil
}

func (svc *service) DeleteClass(ctx context.Context, name string) error {
	name = core.CleanString(name)
	_, err := svc.classes.Update(ctx, func(classes *[]SavedClass) error {
		i := findClass(*classes, name)
		if i < 0 {
			return ErrClassNotFound
		}
		*classes = append((*classes)[:i], (*classes)[i+1:]...)
		return nil
	})
	return err
}
