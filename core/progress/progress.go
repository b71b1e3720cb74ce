// Package progress runs the grade predictor over the roster: predictions, leaderboard and class analytics.
package progress

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

// StudentPrediction is a student's predicted grades against their target.
type StudentPrediction struct {
	Student      student.Student  `json:"student"`
	Scores       score.ScoreSet   `json:"scores"`
	Prediction   grade.Prediction `json:"prediction"`
	TargetStatus string           `json:"target_status"`
}

type LeaderboardEntry struct {
	Rank          int         `json:"rank"`
	StudentID     string      `json:"student_id"`
	Name          string      `json:"name"`
	Group         string      `json:"group"`
	OverallPct    int         `json:"overall_pct"`
	CourseworkPct int         `json:"coursework_pct"`
	ExamPct       int         `json:"exam_pct"`
	OverallGrade  grade.Grade `json:"overall_grade"`
	TargetGrade   grade.Grade `json:"target_grade"`
	TargetStatus  string      `json:"target_status"`
}

// MarkGrade is a raw mark graded on one boundary table. Label is "U" below the grade 1 threshold.
type MarkGrade struct {
	Table string      `json:"table"`
	Mark  int         `json:"mark"`
	Grade grade.Grade `json:"grade"`
	Label string      `json:"label"`
}

type (
	StudentSource interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
		Query(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error)
	}

	ScoreSource interface {
		All(ctx context.Context) (score.Scores, error)
	}

	SettingsSource interface {
		Get(ctx context.Context) (settings.Settings, error)
	}

	Service interface {
		Predict(ctx context.Context, studentID string) (StudentPrediction, error)
		PredictAll(ctx context.Context, filter *student.QueryFilter) ([]StudentPrediction, error)
		// PredictScores runs the predictor on ad hoc marks with the current settings.
		PredictScores(ctx context.Context, scores score.ScoreSet) (grade.Prediction, error)
		// GradeMark grades a raw NEA or exam mark directly on a boundary table, U included.
		GradeMark(ctx context.Context, table string, mark int) (MarkGrade, error)
		Leaderboard(ctx context.Context, group string) ([]LeaderboardEntry, error)
		Summary(ctx context.Context, group string) (Summary, error)
	}

	service struct {
		students StudentSource
		scores   ScoreSource
		settings SettingsSource
	}
)

var _ Service = (*service)(nil)

func NewService(students StudentSource, scores ScoreSource, settings SettingsSource) Service {
	return &service{students: students, scores: scores, settings: settings}
}

func predictOne(s student.Student, ss score.ScoreSet, conf settings.Settings) StudentPrediction {
	if ss == nil {
		ss = score.ScoreSet{}
	}
	p := grade.Predict(conf.Input(ss))
	return StudentPrediction{
		Student:      s,
		Scores:       ss,
		Prediction:   p,
		TargetStatus: grade.TargetStatus(p.OverallGrade, s.TargetGrade),
	}
}

func (svc *service) Predict(ctx context.Context, studentID string) (StudentPrediction, error) {
	s, err := svc.students.GetByID(ctx, studentID)
	if err != nil {
		return StudentPrediction{}, err
	}
	conf, err := svc.settings.Get(ctx)
	if err != nil {
		return StudentPrediction{}, errors.Wrap(err, "loading settings")
	}
	scores, err := svc.scores.All(ctx)
	if err != nil {
		return StudentPrediction{}, errors.Wrap(err, "loading scores")
	}
	return predictOne(s, scores[s.ID], conf), nil
}

func (svc *service) PredictAll(ctx context.Context, filter *student.QueryFilter) ([]StudentPrediction, error) {
	students, err := svc.students.Query(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	conf, err := svc.settings.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading settings")
	}
	scores, err := svc.scores.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading scores")
	}

	predictions := make([]StudentPrediction, 0, len(students))
	for _, s := range students {
		predictions = append(predictions, predictOne(s, scores[s.ID], conf))
	}
	return predictions, nil
}

func (svc *service) PredictScores(ctx context.Context, scores score.ScoreSet) (grade.Prediction, error) {
	conf, err := svc.settings.Get(ctx)
	if err != nil {
		return grade.Prediction{}, errors.Wrap(err, "loading settings")
	}
	return grade.Predict(conf.Input(scores)), nil
}

func (svc *service) GradeMark(ctx context.Context, table string, mark int) (MarkGrade, error) {
	table = core.CleanString(table, true)
	if mark < 0 {
		return MarkGrade{}, core.NewValidationError(nil, core.FieldError{Field: "mark", Error: "mark cannot be negative"})
	}

	conf, err := svc.settings.Get(ctx)
	if err != nil {
		return MarkGrade{}, errors.Wrap(err, "loading settings")
	}
	t, err := conf.Boundaries.Table(table)
	if err != nil {
		return MarkGrade{}, core.NewValidationError(err, core.FieldError{Field: "table", Error: err.Error()})
	}

	g := t.FromRawMark(mark)
	return MarkGrade{Table: table, Mark: mark, Grade: g, Label: g.String()}, nil
}

// Leaderboard ranks students by overall %, then coursework %, then exam %; name and id break the
// remaining ties for display order only. Students level on all three percentages share a rank.
func (svc *service) Leaderboard(ctx context.Context, group string) ([]LeaderboardEntry, error) {
	predictions, err := svc.PredictAll(ctx, &student.QueryFilter{Group: group})
	if err != nil {
		return nil, err
	}
	return Rank(predictions), nil
}

// Rank orders predictions into a leaderboard using competition ranking (1, 2, 2, 4).
func Rank(predictions []StudentPrediction) []LeaderboardEntry {
	sorted := make([]StudentPrediction, len(predictions))
	copy(sorted, predictions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := compareScores(a.Prediction, b.Prediction); c != 0 {
			return c > 0
		}
		an, bn := strings.ToLower(a.Student.Name), strings.ToLower(b.Student.Name)
		if an != bn {
			return an < bn
		}
		return a.Student.ID < b.Student.ID
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, sp := range sorted {
		rank := i + 1
		if i > 0 && compareScores(sp.Prediction, sorted[i-1].Prediction) == 0 {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:          rank,
			StudentID:     sp.Student.ID,
			Name:          sp.Student.Name,
			Group:         sp.Student.Group,
			OverallPct:    sp.Prediction.OverallPct,
			CourseworkPct: sp.Prediction.CourseworkPct,
			ExamPct:       sp.Prediction.ExamPct,
			OverallGrade:  sp.Prediction.OverallGrade,
			TargetGrade:   sp.Student.TargetGrade,
			TargetStatus:  sp.TargetStatus,
		})
	}
	return entries
}

// compareScores returns 1 when a ranks above b, -1 when below and 0 when level.
func compareScores(a, b grade.Prediction) int {
	for _, pair := range [][2]int{
		{a.OverallPct, b.OverallPct},
		{a.CourseworkPct, b.CourseworkPct},
		{a.ExamPct, b.ExamPct},
	} {
		if pair[0] > pair[1] {
			return 1
		}
		if pair[0] < pair[1] {
			return -1
		}
	}
	return 0
}
